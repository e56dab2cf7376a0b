package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File names inside a per-account directory. The layout is consumed by
// other collaborators (web UI, feeds) and must not change shape.
const (
	FollowersFile  = "followers.txt"
	FollowingFile  = "following.txt"
	RequestsFile   = "followrequests.txt"
	RejectsFile    = "followrejects.txt"
	ApprovedFile   = "approved.txt"
	UnfollowedFile = "unfollowed.txt"

	requestsDirName = "requests"
	snapshotExt     = ".follow"
)

// Store is the filesystem-backed follow store. All files live under
// <baseDir>/accounts/<handle>/. Every mutation runs under a per-account
// mutex so concurrent read-modify-write cycles cannot lose lines; reads
// stay lock-free and best-effort.
type Store struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// AccountDir returns the directory holding the account's follow files.
func (s *Store) AccountDir(account string) string {
	return filepath.Join(s.baseDir, "accounts", account)
}

func (s *Store) filePath(account, file string) string {
	return filepath.Join(s.AccountDir(account), file)
}

func (s *Store) lock(account string) *sync.Mutex {
	key := strings.ToLower(account)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Lines returns the non-empty lines of a follow file, in file order.
// Missing files read as empty.
func (s *Store) Lines(account, file string) []string {
	buf, err := os.ReadFile(s.filePath(account, file))
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Count returns the number of entries in a follow file.
func (s *Store) Count(account, file string) int {
	return len(s.Lines(account, file))
}

// Contains reports whether any line of the file matches one of the
// given keys, case-insensitively.
func (s *Store) Contains(account, file string, keys []string) bool {
	_, found := s.findLine(account, file, keys)
	return found
}

// FindEntry returns the stored line matching one of the keys.
func (s *Store) FindEntry(account, file string, keys []string) (string, bool) {
	return s.findLine(account, file, keys)
}

func (s *Store) findLine(account, file string, keys []string) (string, bool) {
	for _, line := range s.Lines(account, file) {
		lower := strings.ToLower(line)
		for _, key := range keys {
			if lower == key {
				return line, true
			}
		}
	}
	return "", false
}

func matches(line string, keys []string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, key := range keys {
		if lower == key {
			return true
		}
	}
	return false
}

func (s *Store) ensureAccountDir(account string) error {
	return os.MkdirAll(s.AccountDir(account), 0755)
}

// Prepend writes the entry at the head of the file so lists stay in
// most-recent-first order. No-op if the entry already matches a line.
func (s *Store) Prepend(account, file, entry string) error {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	keys := []string{strings.ToLower(entry)}
	existing := s.Lines(account, file)
	for _, line := range existing {
		if matches(line, keys) {
			return nil
		}
	}

	if err := s.ensureAccountDir(account); err != nil {
		return fmt.Errorf("create account dir for %s: %w", account, err)
	}

	content := entry + "\n"
	if len(existing) > 0 {
		content += strings.Join(existing, "\n") + "\n"
	}
	if err := os.WriteFile(s.filePath(account, file), []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}

// Append adds the entry at the tail of the file, creating it lazily.
// No-op if the entry already matches a line.
func (s *Store) Append(account, file, entry string) error {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	keys := []string{strings.ToLower(entry)}
	for _, line := range s.Lines(account, file) {
		if matches(line, keys) {
			return nil
		}
	}

	if err := s.ensureAccountDir(account); err != nil {
		return fmt.Errorf("create account dir for %s: %w", account, err)
	}

	f, err := os.OpenFile(s.filePath(account, file), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry + "\n"); err != nil {
		return fmt.Errorf("append to %s: %w", file, err)
	}
	return nil
}

// Remove rewrites the file without the lines matching the keys. A
// missing file is a no-op.
func (s *Store) Remove(account, file string, keys []string) error {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	path := s.filePath(account, file)
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	var kept []string
	for _, line := range s.Lines(account, file) {
		if !matches(line, keys) {
			kept = append(kept, line)
		}
	}

	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("rewrite %s: %w", file, err)
	}
	return nil
}

// StagedRemoval is a pending rewrite of a follow file: the filtered
// copy sits next to the original with a .new suffix until Commit
// renames it into place or Discard drops it. This is the crash-safety
// seam of the manual approval workflow - side effects happen between
// staging and commit, and a crash in that window leaves the original
// file untouched and the request re-processable.
type StagedRemoval struct {
	store   *Store
	account string
	file    string
	keys    []string

	path    string
	tmpPath string

	// Entry is the removed line as it was stored.
	Entry string
}

// StageRemoval writes a filtered copy of the file, excluding the line
// matching the keys, to <file>.new without touching the original.
// Returns os.ErrNotExist when no line matches.
func (s *Store) StageRemoval(account, file string, keys []string) (*StagedRemoval, error) {
	l := s.lock(account)
	l.Lock()
	defer l.Unlock()

	var kept []string
	removed := ""
	for _, line := range s.Lines(account, file) {
		if removed == "" && matches(line, keys) {
			removed = line
			continue
		}
		kept = append(kept, line)
	}
	if removed == "" {
		return nil, os.ErrNotExist
	}

	path := s.filePath(account, file)
	tmpPath := path + ".new"
	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("stage rewrite of %s: %w", file, err)
	}

	return &StagedRemoval{
		store:   s,
		account: account,
		file:    file,
		keys:    keys,
		path:    path,
		tmpPath: tmpPath,
		Entry:   removed,
	}, nil
}

// Commit removes the staged entry from the live file and renames the
// rewrite into place, under the account lock. The filtered content is
// re-derived from the current file, not from the copy staged earlier:
// lines appended by other writers between staging and commit must
// survive the rename.
func (st *StagedRemoval) Commit() error {
	l := st.store.lock(st.account)
	l.Lock()
	defer l.Unlock()

	var kept []string
	removed := false
	for _, line := range st.store.Lines(st.account, st.file) {
		if !removed && matches(line, st.keys) {
			removed = true
			continue
		}
		kept = append(kept, line)
	}

	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(st.tmpPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("rewrite %s: %w", st.file, err)
	}
	if err := os.Rename(st.tmpPath, st.path); err != nil {
		return fmt.Errorf("commit rewrite of %s: %w", filepath.Base(st.path), err)
	}
	return nil
}

// Discard removes the staged copy, leaving the original untouched.
func (st *StagedRemoval) Discard() {
	l := st.store.lock(st.account)
	l.Lock()
	defer l.Unlock()
	os.Remove(st.tmpPath)
}
