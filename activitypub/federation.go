package activitypub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deemkeen/monodon/db"
	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/util"
	"github.com/google/uuid"
)

// Fed is the production federation collaborator: actors resolve
// through the sqlite-backed cache and outgoing activities go through
// the persistent delivery queue instead of a blocking POST.
type Fed struct {
	Conf *util.AppConfig
}

func NewFed(conf *util.AppConfig) *Fed {
	return &Fed{Conf: conf}
}

// ResolveActor returns the remote actor, from cache when fresh.
func (f *Fed) ResolveActor(actorURI string) (*domain.RemoteAccount, error) {
	return GetOrFetchActor(actorURI, f.Conf)
}

// CachePublicKey makes sure the actor's public key is cached locally
// so later signed requests from them verify without a network fetch.
func (f *Fed) CachePublicKey(actorURI string) error {
	_, err := GetOrFetchActor(actorURI, f.Conf)
	return err
}

// Deliver enqueues the activity for the delivery worker.
func (f *Fed) Deliver(activity map[string]interface{}, inboxURI string) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	item := &domain.DeliveryQueueItem{
		Id:           uuid.New(),
		InboxURI:     inboxURI,
		ActivityJSON: string(payload),
		Attempts:     0,
		NextRetryAt:  time.Now(),
		CreatedAt:    time.Now(),
	}
	return db.GetDB().EnqueueDelivery(item)
}
