package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// The account's own actor JSON sits next to its directory at
// accounts/<handle>.json. The policy evaluator reads the
// manuallyApprovesFollowers flag from it.

func (s *Store) actorJSONPath(account string) string {
	return filepath.Join(s.baseDir, "accounts", account+".json")
}

// WriteActorJSON persists the local account's actor document.
func (s *Store) WriteActorJSON(account string, raw []byte) error {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(filepath.Join(s.baseDir, "accounts"), 0755); err != nil {
		return fmt.Errorf("create accounts dir: %w", err)
	}
	if err := os.WriteFile(s.actorJSONPath(account), raw, 0644); err != nil {
		return fmt.Errorf("write actor json for %s: %w", account, err)
	}
	return nil
}

// ReadActorJSON loads the local account's actor document.
func (s *Store) ReadActorJSON(account string) ([]byte, error) {
	return os.ReadFile(s.actorJSONPath(account))
}
