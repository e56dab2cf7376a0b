package follow

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/store"
)

// followActivity is the wire shape of an incoming Follow/Join.
type followActivity struct {
	Context interface{} `json:"@context"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Actor   string      `json:"actor"`
	Object  string      `json:"object"`
}

// ReceiveFollowRequest runs the intake state machine for one incoming
// Follow activity. Duplicate delivery, standing rejections and policy
// drops all resolve without a second persistent effect; only malformed
// activities and group/group follows come back as errors.
func (svc *Service) ReceiveFollowRequest(raw []byte) (Outcome, error) {
	var act followActivity
	if err := json.Unmarshal(raw, &act); err != nil {
		return OutcomeDropped, ErrMalformedActivity
	}
	if act.Type != "Follow" && act.Type != "Join" {
		return OutcomeDropped, ErrMalformedActivity
	}
	if act.Actor == "" || act.Object == "" {
		return OutcomeDropped, ErrMalformedActivity
	}

	requester := domain.NewActorRef(act.Actor)
	if !requester.HasHandle() {
		// actor URL follows no known users-path convention
		return OutcomeDropped, ErrMalformedActivity
	}
	target, ok := domain.ParseActorURL(act.Object)
	if !ok {
		return OutcomeDropped, ErrMalformedActivity
	}

	if !svc.domainPermitted(requester.Handle.Domain) {
		// dropped without a Reject so the peer learns nothing about
		// the federation list
		log.Printf("Intake: Follow from %s dropped, domain not permitted", requester.Handle)
		return OutcomeDropped, nil
	}

	if IsSystemAccount(target.Nickname) {
		log.Printf("Intake: Follow aimed at system account %s dropped", target.Nickname)
		return OutcomeDropped, nil
	}
	if !strings.EqualFold(target.Nickname, svc.Conf.Conf.Nickname) {
		log.Printf("Intake: Follow aimed at unknown account %s dropped", target.Nickname)
		return OutcomeDropped, nil
	}

	if requester.Handle.IsGroup() && target.IsGroup() {
		return OutcomeDropped, ErrGroupFollow
	}

	acct := svc.account()

	// The cap is a hard ceiling: the follower list never grows past
	// maxFollowers, so a request arriving with the list already full is
	// dropped.
	if max := svc.Conf.Conf.MaxFollowers; max > 0 {
		if svc.Store.Count(acct, store.FollowersFile) >= max {
			log.Printf("Intake: Follow from %s dropped, follower cap %d reached", requester.Handle, max)
			return OutcomeDropped, nil
		}
	}

	if svc.Store.Contains(acct, store.FollowersFile, requester.MatchKeys()) {
		log.Printf("Intake: %s already follows %s", requester.Handle, acct)
		return OutcomeAlreadyFollowing, nil
	}

	if !svc.RequiresApproval(requester) {
		if err := svc.Fed.CachePublicKey(act.Actor); err != nil {
			// key fetch failure does not block accepting the follow
			log.Printf("Intake: public key fetch for %s failed: %v", act.Actor, err)
		}
		if err := svc.Store.Prepend(acct, store.FollowersFile, requester.StoreEntry()); err != nil {
			return OutcomeDropped, err
		}
		svc.dispatchAccept(requester, raw)
		log.Printf("Intake: accepted follow from %s", requester.Handle)
		return OutcomeAccepted, nil
	}

	// manual approval required
	if svc.Store.Contains(acct, store.RejectsFile, requester.MatchKeys()) {
		// a standing rejection takes precedence; clean up any stale
		// pending entry for the same requester
		if err := svc.Store.Remove(acct, store.RequestsFile, requester.MatchKeys()); err != nil {
			log.Printf("EX: remove stale pending request for %s: %v", requester.Handle, err)
		}
		if err := svc.Store.DeleteSnapshot(acct, requester.Handle.String()); err != nil {
			log.Printf("EX: delete stale snapshot for %s: %v", requester.Handle, err)
		}
		log.Printf("Intake: %s was already denied, ignoring", requester.Handle)
		return OutcomeAlreadyRejected, nil
	}

	class := ClassifyOrigin(requester.Handle.Domain)
	if svc.PendingCountByClass(class) >= pendingLimit(class) {
		log.Printf("Intake: Follow from %s dropped, too many pending %s requests", requester.Handle, class)
		return OutcomeDropped, nil
	}

	if err := svc.Fed.CachePublicKey(act.Actor); err != nil {
		log.Printf("Intake: public key fetch for %s failed: %v", act.Actor, err)
	}

	if err := svc.Store.Append(acct, store.RequestsFile, requester.StoreEntry()); err != nil {
		return OutcomeDropped, err
	}
	if err := svc.Store.WriteSnapshot(acct, requester.Handle.String(), raw); err != nil {
		log.Printf("EX: write follow snapshot for %s: %v", requester.Handle, err)
	}
	log.Printf("Intake: follow from %s waits for approval", requester.Handle)
	return OutcomePending, nil
}
