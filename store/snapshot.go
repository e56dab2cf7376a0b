package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Snapshots are the persisted JSON copies of pending Follow activities,
// one per requester, at accounts/<account>/requests/<requester>.follow.
// A handle listed in followrequests.txt must have a snapshot; the
// reverse need not hold since the Accept/Reject path deletes the
// snapshot independently of the requests file.

func (s *Store) snapshotPath(account, requester string) string {
	return filepath.Join(s.AccountDir(account), requestsDirName, requester+snapshotExt)
}

// WriteSnapshot persists the original Follow activity JSON for a
// pending request.
func (s *Store) WriteSnapshot(account, requester string, raw []byte) error {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	dir := filepath.Join(s.AccountDir(account), requestsDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create requests dir for %s: %w", account, err)
	}
	path := s.snapshotPath(account, requester)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads the persisted Follow activity for a requester.
func (s *Store) ReadSnapshot(account, requester string) ([]byte, error) {
	return os.ReadFile(s.snapshotPath(account, requester))
}

// DeleteSnapshot removes the persisted Follow activity. Missing
// snapshots are not an error.
func (s *Store) DeleteSnapshot(account, requester string) error {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	path := s.snapshotPath(account, requester)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot %s: %w", path, err)
	}
	return nil
}

// HasSnapshot reports whether a snapshot exists for the requester.
func (s *Store) HasSnapshot(account, requester string) bool {
	_, err := os.Stat(s.snapshotPath(account, requester))
	return err == nil
}
