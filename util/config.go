package util

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"strconv"
	"strings"
)

const Name = "monodon"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host           string
		HttpPort       int      `yaml:"httpPort"`
		SslDomain      string   `yaml:"sslDomain"`
		Nickname       string   `yaml:"nickname"`
		DataDir        string   `yaml:"dataDir"`
		ManualApproval bool     `yaml:"manualApproval"`
		MaxFollowers   int      `yaml:"maxFollowers"`
		FederationList []string `yaml:"federationList"`
		AdminUser      string   `yaml:"adminUser"`
		AdminPass      string   `yaml:"adminPass"`
		OnionProxy     string   `yaml:"onionProxy"`
		I2pProxy       string   `yaml:"i2pProxy"`
	}
}

// AccountHandle returns the handle of the single local account,
// e.g. "alice@example.com".
func (c *AppConfig) AccountHandle() string {
	return fmt.Sprintf("%s@%s", c.Conf.Nickname, c.Conf.SslDomain)
}

// ActorURI returns the canonical actor URL of the local account.
func (c *AppConfig) ActorURI() string {
	return fmt.Sprintf("https://%s/users/%s", c.Conf.SslDomain, c.Conf.Nickname)
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	// Try to read from resolved path
	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		// Try to write default config to user config directory
		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envHost := os.Getenv("MONODON_HOST")
	envHttpPort := os.Getenv("MONODON_HTTPPORT")
	envSslDomain := os.Getenv("MONODON_SSLDOMAIN")
	envNickname := os.Getenv("MONODON_NICKNAME")
	envDataDir := os.Getenv("MONODON_DATADIR")
	envManualApproval := os.Getenv("MONODON_MANUAL_APPROVAL")
	envMaxFollowers := os.Getenv("MONODON_MAXFOLLOWERS")
	envFederationList := os.Getenv("MONODON_FEDERATION_LIST")
	envAdminUser := os.Getenv("MONODON_ADMIN_USER")
	envAdminPass := os.Getenv("MONODON_ADMIN_PASS")
	envOnionProxy := os.Getenv("MONODON_ONION_PROXY")
	envI2pProxy := os.Getenv("MONODON_I2P_PROXY")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envSslDomain != "" {
		c.Conf.SslDomain = envSslDomain
	}

	if envNickname != "" {
		c.Conf.Nickname = envNickname
	}

	if envDataDir != "" {
		c.Conf.DataDir = envDataDir
	}

	if envManualApproval == "true" {
		c.Conf.ManualApproval = true
	}

	if envMaxFollowers != "" {
		v, err := strconv.Atoi(envMaxFollowers)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.MaxFollowers = v
	}

	if envFederationList != "" {
		var list []string
		for _, d := range strings.Split(envFederationList, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				list = append(list, d)
			}
		}
		c.Conf.FederationList = list
	}

	if envAdminUser != "" {
		c.Conf.AdminUser = envAdminUser
	}

	if envAdminPass != "" {
		c.Conf.AdminPass = envAdminPass
	}

	if envOnionProxy != "" {
		c.Conf.OnionProxy = envOnionProxy
	}

	if envI2pProxy != "" {
		c.Conf.I2pProxy = envI2pProxy
	}

	return c, nil
}
