package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the single local account this process serves.
type Account struct {
	Id            uuid.UUID
	Username      string
	CreatedAt     time.Time
	WebPublicKey  string
	WebPrivateKey string
}

// RemoteAccount represents a cached federated user
type RemoteAccount struct {
	Id            uuid.UUID
	Username      string
	Domain        string
	ActorURI      string
	DisplayName   string
	Summary       string
	InboxURI      string
	OutboxURI     string
	PublicKeyPem  string
	IsGroup       bool
	LastFetchedAt time.Time
}

// Handle returns the handle of the cached remote actor. Group actors
// carry the group prefix.
func (acc *RemoteAccount) Handle() Handle {
	nick := acc.Username
	if acc.IsGroup && !strings.HasPrefix(nick, GroupPrefix) {
		nick = GroupPrefix + nick
	}
	return Handle{Nickname: nick, Domain: acc.Domain}
}

// Activity represents an ActivityPub activity (for logging/deduplication)
type Activity struct {
	Id           uuid.UUID
	ActivityURI  string
	ActivityType string // Follow, Accept, Reject, Undo, etc.
	ActorURI     string
	ObjectURI    string
	RawJSON      string
	Processed    bool
	CreatedAt    time.Time
	Local        bool // true if originated from this server
}

// DeliveryQueueItem represents an item in the delivery queue
type DeliveryQueueItem struct {
	Id           uuid.UUID
	InboxURI     string
	ActivityJSON string // The complete activity to deliver
	Attempts     int
	NextRetryAt  time.Time
	CreatedAt    time.Time
}
