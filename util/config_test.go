package util

import (
	"os"
	"testing"
)

func TestConfigConstants(t *testing.T) {
	if Name != "monodon" {
		t.Errorf("Expected Name 'monodon', got '%s'", Name)
	}

	if ConfigFileName != "config.yaml" {
		t.Errorf("Expected ConfigFileName 'config.yaml', got '%s'", ConfigFileName)
	}
}

func TestReadConfWithYaml(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  nickname: alice
  manualApproval: true
  maxFollowers: 50
  federationList:
    - friendly.example
    - buddy.example
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if config.Conf.Host != "127.0.0.1" {
		t.Errorf("Expected Host '127.0.0.1', got '%s'", config.Conf.Host)
	}

	if config.Conf.HttpPort != 9999 {
		t.Errorf("Expected HttpPort 9999, got %d", config.Conf.HttpPort)
	}

	if config.Conf.SslDomain != "example.com" {
		t.Errorf("Expected SslDomain 'example.com', got '%s'", config.Conf.SslDomain)
	}

	if config.Conf.Nickname != "alice" {
		t.Errorf("Expected Nickname 'alice', got '%s'", config.Conf.Nickname)
	}

	if !config.Conf.ManualApproval {
		t.Error("Expected ManualApproval to be true")
	}

	if config.Conf.MaxFollowers != 50 {
		t.Errorf("Expected MaxFollowers 50, got %d", config.Conf.MaxFollowers)
	}

	if len(config.Conf.FederationList) != 2 {
		t.Errorf("Expected 2 federation list entries, got %d", len(config.Conf.FederationList))
	}
}

func TestReadConfWithEnvOverrides(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  nickname: alice
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	os.Setenv("MONODON_HOST", "192.168.1.1")
	os.Setenv("MONODON_HTTPPORT", "8080")
	os.Setenv("MONODON_SSLDOMAIN", "test.example.com")
	os.Setenv("MONODON_NICKNAME", "bob")
	os.Setenv("MONODON_MANUAL_APPROVAL", "true")
	os.Setenv("MONODON_FEDERATION_LIST", "one.example, two.example")
	defer func() {
		os.Unsetenv("MONODON_HOST")
		os.Unsetenv("MONODON_HTTPPORT")
		os.Unsetenv("MONODON_SSLDOMAIN")
		os.Unsetenv("MONODON_NICKNAME")
		os.Unsetenv("MONODON_MANUAL_APPROVAL")
		os.Unsetenv("MONODON_FEDERATION_LIST")
	}()

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if config.Conf.Host != "192.168.1.1" {
		t.Errorf("Expected Host '192.168.1.1', got '%s'", config.Conf.Host)
	}

	if config.Conf.HttpPort != 8080 {
		t.Errorf("Expected HttpPort 8080, got %d", config.Conf.HttpPort)
	}

	if config.Conf.SslDomain != "test.example.com" {
		t.Errorf("Expected SslDomain 'test.example.com', got '%s'", config.Conf.SslDomain)
	}

	if config.Conf.Nickname != "bob" {
		t.Errorf("Expected Nickname 'bob', got '%s'", config.Conf.Nickname)
	}

	if !config.Conf.ManualApproval {
		t.Error("Expected ManualApproval override to be true")
	}

	if len(config.Conf.FederationList) != 2 || config.Conf.FederationList[0] != "one.example" {
		t.Errorf("Expected federation list from env, got %v", config.Conf.FederationList)
	}
}

func TestAccountHandle(t *testing.T) {
	conf := &AppConfig{}
	conf.Conf.Nickname = "alice"
	conf.Conf.SslDomain = "example.com"

	if conf.AccountHandle() != "alice@example.com" {
		t.Errorf("Expected 'alice@example.com', got '%s'", conf.AccountHandle())
	}
	if conf.ActorURI() != "https://example.com/users/alice" {
		t.Errorf("Expected actor URI, got '%s'", conf.ActorURI())
	}
}
