package follow

import (
	"github.com/deemkeen/monodon/domain"
)

// Federation is the outbound collaborator surface the follow subsystem
// depends on. The activitypub package provides the production
// implementation: actor resolution against the remote-actor cache,
// public-key caching, and signed delivery through the retry queue.
// Delivery failures are the collaborator's problem to retry; the
// follow workflows only log them.
type Federation interface {
	// ResolveActor returns the (possibly cached) remote actor for an
	// actor URI.
	ResolveActor(actorURI string) (*domain.RemoteAccount, error)

	// CachePublicKey fetches and caches the actor's public key so later
	// activities from the same actor can be signature-checked.
	CachePublicKey(actorURI string) error

	// Deliver hands a finished activity to the federated-delivery
	// collaborator for signed POST to the given inbox, over the
	// transport matching the inbox's origin (clearnet, onion, i2p).
	Deliver(activity map[string]interface{}, inboxURI string) error
}
