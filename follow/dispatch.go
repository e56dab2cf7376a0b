package follow

import (
	"encoding/json"
	"log"

	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/store"
)

// buildResponse wraps the original Follow activity in an Accept or
// Reject addressed back to the requester.
func buildResponse(kind, localActorURI string, original map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"@context": "https://www.w3.org/ns/activitystreams",
		"type":     kind,
		"actor":    localActorURI,
		"object":   original,
	}
}

// originalFollow recovers the Follow activity to embed in the
// response. A missing or unreadable snapshot degrades to a minimal
// reconstruction so a Reject can still be sent.
func (svc *Service) originalFollow(requester domain.ActorRef, raw []byte) map[string]interface{} {
	if len(raw) > 0 {
		var original map[string]interface{}
		if err := json.Unmarshal(raw, &original); err == nil {
			return original
		}
	}
	return map[string]interface{}{
		"type":   "Follow",
		"actor":  requester.URL,
		"object": svc.Conf.ActorURI(),
	}
}

// dispatchAccept sends the Accept wrapping the original Follow and
// clears the request snapshot. Every step is best-effort: the follower
// edge is already committed, so failures here are logged, not fatal.
func (svc *Service) dispatchAccept(requester domain.ActorRef, raw []byte) {
	accept := buildResponse("Accept", svc.Conf.ActorURI(), svc.originalFollow(requester, raw))
	svc.deliverTo(requester, accept)

	if err := svc.Store.DeleteSnapshot(svc.account(), requester.Handle.String()); err != nil {
		log.Printf("EX: delete follow snapshot for %s: %v", requester.Handle, err)
	}
}

// dispatchReject sends the Reject and tears down the pending-request
// state: snapshot gone, requests line gone, rejection recorded. The
// three steps are not transactional; the rejection record taking
// precedence over a stray requests line keeps a crash in between
// idempotent.
func (svc *Service) dispatchReject(requester domain.ActorRef, raw []byte) {
	acct := svc.account()
	reject := buildResponse("Reject", svc.Conf.ActorURI(), svc.originalFollow(requester, raw))
	svc.deliverTo(requester, reject)

	if err := svc.Store.DeleteSnapshot(acct, requester.Handle.String()); err != nil {
		log.Printf("EX: delete follow snapshot for %s: %v", requester.Handle, err)
	}
	if err := svc.Store.Remove(acct, store.RequestsFile, requester.MatchKeys()); err != nil {
		log.Printf("EX: remove pending request for %s: %v", requester.Handle, err)
	}
	if err := svc.Store.Append(acct, store.RejectsFile, requester.StoreEntry()); err != nil {
		log.Printf("EX: record rejection for %s: %v", requester.Handle, err)
	}
}

// deliverTo resolves the requester's inbox and hands the activity to
// the delivery collaborator. Network failure is logged and left to the
// collaborator's retry policy.
func (svc *Service) deliverTo(requester domain.ActorRef, activity map[string]interface{}) {
	actorURI := requester.URL
	if actorURI == "" && requester.HasHandle() {
		actorURI = requester.Handle.ActorURLVariants()[0]
	}

	actor, err := svc.Fed.ResolveActor(actorURI)
	if err != nil {
		log.Printf("Dispatch: could not resolve %s: %v", actorURI, err)
		return
	}
	if err := svc.Fed.Deliver(activity, actor.InboxURI); err != nil {
		log.Printf("Dispatch: delivery to %s failed: %v", actor.InboxURI, err)
	}
}
