package follow

import (
	"fmt"
	"log"

	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/store"
)

// The manual workflows run detached: the moderator's HTTP request
// returns immediately and the only feedback is the eventual state of
// the follower and pending lists. Failures in here are therefore
// logged, never surfaced synchronously.

// ApproveAsync runs Approve in a background goroutine, fire and
// forget.
func (svc *Service) ApproveAsync(entry string) {
	go func() {
		if err := svc.Approve(entry); err != nil {
			log.Printf("Approve: %v", err)
		}
	}()
}

// DenyAsync runs Deny in a background goroutine, fire and forget.
func (svc *Service) DenyAsync(entry string) {
	go func() {
		if err := svc.Deny(entry); err != nil {
			log.Printf("Deny: %v", err)
		}
	}()
}

// Approve grants a pending follow request. The ordering is deliberate:
// the filtered requests file is staged as followrequests.txt.new, the
// Accept goes out and the follower edge is written while the original
// requests file is still in place, and the rename happens last - and
// only once the handle is confirmed present in followers.txt. A crash
// anywhere before the rename leaves the request listed and
// re-processable; re-running Approve for an entry already in
// followers.txt skips the side effects and just completes the rename.
func (svc *Service) Approve(entry string) error {
	acct := svc.account()
	ref := domain.RefFromEntry(entry)

	staged, err := svc.Store.StageRemoval(acct, store.RequestsFile, ref.MatchKeys())
	if err != nil {
		log.Printf("Approve: no pending request for %s", entry)
		return nil
	}
	line := staged.Entry
	lineRef := domain.RefFromEntry(line)

	alreadyFollower := svc.Store.Contains(acct, store.FollowersFile, lineRef.MatchKeys())
	if !alreadyFollower {
		raw, rerr := svc.Store.ReadSnapshot(acct, lineRef.Handle.String())
		if rerr != nil {
			log.Printf("EX: read follow snapshot for %s: %v", line, rerr)
			raw = nil
		}
		svc.dispatchAccept(lineRef, raw)

		if perr := svc.Store.Prepend(acct, store.FollowersFile, line); perr != nil {
			staged.Discard()
			return fmt.Errorf("record follower %s: %w", line, perr)
		}
	} else {
		// re-run after a crash between follower write and rename:
		// just clear the leftover snapshot
		if derr := svc.Store.DeleteSnapshot(acct, lineRef.Handle.String()); derr != nil {
			log.Printf("EX: delete follow snapshot for %s: %v", line, derr)
		}
	}

	if aerr := svc.Store.Append(acct, store.ApprovedFile, line); aerr != nil {
		log.Printf("EX: record approval for %s: %v", line, aerr)
	}

	// commit the index only after the side effect is confirmed
	if !svc.Store.Contains(acct, store.FollowersFile, lineRef.MatchKeys()) {
		staged.Discard()
		return fmt.Errorf("approve %s: follower entry not confirmed, keeping request", line)
	}
	if cerr := staged.Commit(); cerr != nil {
		return fmt.Errorf("approve %s: %w", line, cerr)
	}

	log.Printf("Approve: %s is now a follower of %s", line, acct)
	return nil
}

// Deny refuses a pending follow request. A standing rejection record
// short-circuits to a cleanup of the requests file, making repeated
// denials idempotent.
func (svc *Service) Deny(entry string) error {
	acct := svc.account()
	ref := domain.RefFromEntry(entry)

	if svc.Store.Contains(acct, store.RejectsFile, ref.MatchKeys()) {
		if err := svc.Store.Remove(acct, store.RequestsFile, ref.MatchKeys()); err != nil {
			return fmt.Errorf("clean pending request for %s: %w", entry, err)
		}
		log.Printf("Deny: %s already denied", entry)
		return nil
	}

	line, found := svc.Store.FindEntry(acct, store.RequestsFile, ref.MatchKeys())
	if !found {
		line = ref.StoreEntry()
	}
	lineRef := domain.RefFromEntry(line)

	if err := svc.Store.Remove(acct, store.RequestsFile, lineRef.MatchKeys()); err != nil {
		log.Printf("EX: remove pending request for %s: %v", line, err)
	}
	if err := svc.Store.Append(acct, store.RejectsFile, line); err != nil {
		log.Printf("EX: record rejection for %s: %v", line, err)
	}

	raw, rerr := svc.Store.ReadSnapshot(acct, lineRef.Handle.String())
	if rerr != nil {
		raw = nil
	}
	svc.dispatchReject(lineRef, raw)

	log.Printf("Deny: follow request from %s denied", line)
	return nil
}
