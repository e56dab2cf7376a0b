package follow

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/store"
	"github.com/google/uuid"
)

// SendFollow initiates a follow of a remote actor. Re-initiating a
// follow toward a party that once rejected us clears the standing
// rejection and any unfollow record; the edge itself only lands in
// following.txt when their Accept arrives.
func (svc *Service) SendFollow(targetActorURI string) error {
	acct := svc.account()
	ref := domain.NewActorRef(targetActorURI)

	if err := svc.Store.Remove(acct, store.RejectsFile, ref.MatchKeys()); err != nil {
		log.Printf("EX: clear rejection record for %s: %v", targetActorURI, err)
	}
	if err := svc.Store.Remove(acct, store.UnfollowedFile, ref.MatchKeys()); err != nil {
		log.Printf("EX: clear unfollowed record for %s: %v", targetActorURI, err)
	}

	actor, err := svc.Fed.ResolveActor(targetActorURI)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", targetActorURI, err)
	}

	follow := map[string]interface{}{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       fmt.Sprintf("https://%s/activities/%s", svc.Conf.Conf.SslDomain, uuid.New().String()),
		"type":     "Follow",
		"actor":    svc.Conf.ActorURI(),
		"object":   targetActorURI,
	}
	return svc.Fed.Deliver(follow, actor.InboxURI)
}

// Unfollow withdraws a follow: the edge leaves following.txt, the
// target is recorded in unfollowed.txt so a late Accept is ignored,
// and an Undo(Follow) goes out.
func (svc *Service) Unfollow(targetActorURI string) error {
	acct := svc.account()
	ref := domain.NewActorRef(targetActorURI)

	if err := svc.Store.Remove(acct, store.FollowingFile, ref.MatchKeys()); err != nil {
		return fmt.Errorf("remove following entry for %s: %w", targetActorURI, err)
	}
	if err := svc.Store.Append(acct, store.UnfollowedFile, ref.StoreEntry()); err != nil {
		log.Printf("EX: record unfollow of %s: %v", targetActorURI, err)
	}

	actor, err := svc.Fed.ResolveActor(targetActorURI)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", targetActorURI, err)
	}

	undo := map[string]interface{}{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       fmt.Sprintf("https://%s/activities/%s", svc.Conf.Conf.SslDomain, uuid.New().String()),
		"type":     "Undo",
		"actor":    svc.Conf.ActorURI(),
		"object": map[string]interface{}{
			"type":   "Follow",
			"actor":  svc.Conf.ActorURI(),
			"object": targetActorURI,
		},
	}
	return svc.Fed.Deliver(undo, actor.InboxURI)
}

// HandleAcceptActivity processes a remote Accept of one of our own
// Follow activities. A late Accept arriving after an explicit unfollow
// is ignored.
func (svc *Service) HandleAcceptActivity(raw []byte) error {
	var accept struct {
		Type   string          `json:"type"`
		Actor  string          `json:"actor"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(raw, &accept); err != nil {
		return fmt.Errorf("failed to parse Accept activity: %w", err)
	}
	if accept.Actor == "" {
		return ErrMalformedActivity
	}

	acct := svc.account()
	ref := domain.NewActorRef(accept.Actor)

	if svc.Store.Contains(acct, store.UnfollowedFile, ref.MatchKeys()) {
		log.Printf("Inbox: late Accept from %s after unfollow, ignoring", accept.Actor)
		return nil
	}

	if err := svc.Store.Prepend(acct, store.FollowingFile, ref.StoreEntry()); err != nil {
		return fmt.Errorf("record following entry for %s: %w", accept.Actor, err)
	}
	log.Printf("Inbox: follow of %s was accepted", accept.Actor)
	return nil
}

// HandleRejectActivity processes a remote Reject of one of our own
// Follow activities.
func (svc *Service) HandleRejectActivity(raw []byte) error {
	var reject struct {
		Type  string `json:"type"`
		Actor string `json:"actor"`
	}
	if err := json.Unmarshal(raw, &reject); err != nil {
		return fmt.Errorf("failed to parse Reject activity: %w", err)
	}
	if reject.Actor == "" {
		return ErrMalformedActivity
	}

	ref := domain.NewActorRef(reject.Actor)
	if err := svc.Store.Remove(svc.account(), store.FollowingFile, ref.MatchKeys()); err != nil {
		return fmt.Errorf("remove following entry for %s: %w", reject.Actor, err)
	}
	log.Printf("Inbox: follow of %s was rejected", reject.Actor)
	return nil
}

// HandleUndoFollow processes an inbound Undo(Follow): the remote actor
// stopped following the local account.
func (svc *Service) HandleUndoFollow(raw []byte) error {
	var undo struct {
		Type   string          `json:"type"`
		Actor  string          `json:"actor"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(raw, &undo); err != nil {
		return fmt.Errorf("failed to parse Undo activity: %w", err)
	}

	var obj struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(undo.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse Undo object: %w", err)
	}
	if obj.Type != "Follow" {
		return nil
	}

	ref := domain.NewActorRef(undo.Actor)
	if err := svc.Store.Remove(svc.account(), store.FollowersFile, ref.MatchKeys()); err != nil {
		return fmt.Errorf("remove follower entry for %s: %w", undo.Actor, err)
	}
	log.Printf("Inbox: %s unfollowed %s", undo.Actor, svc.account())
	return nil
}
