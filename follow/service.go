package follow

import (
	"errors"

	"github.com/deemkeen/monodon/store"
	"github.com/deemkeen/monodon/util"
)

// Errors surfaced to the inbox handler. Policy drops are not errors;
// they come back as OutcomeDropped with a nil error so the remote peer
// learns nothing about local policy.
var (
	ErrMalformedActivity = errors.New("malformed follow activity")
	ErrGroupFollow       = errors.New("group actors cannot follow group actors")
)

// Outcome classifies what a follow-subsystem operation did.
type Outcome int

const (
	// OutcomeDropped means the request was silently ignored with no
	// persistent effect (policy, cap or rate-limit drop).
	OutcomeDropped Outcome = iota
	// OutcomeAccepted means the follower was recorded and an Accept
	// dispatched.
	OutcomeAccepted
	// OutcomePending means the request now waits for manual approval.
	OutcomePending
	// OutcomeAlreadyFollowing is the idempotent duplicate-delivery
	// no-op.
	OutcomeAlreadyFollowing
	// OutcomeAlreadyRejected is the no-op for requesters with a
	// standing rejection record.
	OutcomeAlreadyRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomePending:
		return "pending"
	case OutcomeAlreadyFollowing:
		return "already-following"
	case OutcomeAlreadyRejected:
		return "already-rejected"
	default:
		return "dropped"
	}
}

// Service ties the follow store, the policy configuration and the
// federation collaborator together. One instance serves the single
// local account of the process.
type Service struct {
	Store *store.Store
	Fed   Federation
	Conf  *util.AppConfig
}

func NewService(st *store.Store, fed Federation, conf *util.AppConfig) *Service {
	return &Service{Store: st, Fed: fed, Conf: conf}
}

func (svc *Service) account() string {
	return svc.Conf.AccountHandle()
}

// Followers returns the follower entries, most recent first.
func (svc *Service) Followers() []string {
	return svc.Store.Lines(svc.account(), store.FollowersFile)
}

// Following returns the accounts the local account follows, most
// recent first.
func (svc *Service) Following() []string {
	return svc.Store.Lines(svc.account(), store.FollowingFile)
}

// PendingRequests returns the requester entries awaiting moderation.
func (svc *Service) PendingRequests() []string {
	return svc.Store.Lines(svc.account(), store.RequestsFile)
}

// Rejected returns the requester entries with a standing rejection.
func (svc *Service) Rejected() []string {
	return svc.Store.Lines(svc.account(), store.RejectsFile)
}
