package follow

import (
	"encoding/json"
	"strings"

	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/store"
)

// OriginClass buckets a remote domain by routing overlay.
type OriginClass int

const (
	OriginClearnet OriginClass = iota
	OriginOnion
	OriginI2P
)

func (c OriginClass) String() string {
	switch c {
	case OriginOnion:
		return "onion"
	case OriginI2P:
		return "i2p"
	default:
		return "clearnet"
	}
}

// Per-account caps on pending requests awaiting manual approval. A
// coarse flood defense, counted per origin class, not per remote
// domain.
const (
	MaxPendingOnion    = 5
	MaxPendingI2P      = 5
	MaxPendingClearnet = 10
)

// Nicknames that can never be followed in the personal sense.
var systemAccounts = []string{"news", "inbox", "relay"}

// ClassifyOrigin buckets a domain (with optional port) by suffix.
func ClassifyOrigin(domainName string) OriginClass {
	host := strings.ToLower(domainName)
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	switch {
	case strings.HasSuffix(host, ".onion"):
		return OriginOnion
	case strings.HasSuffix(host, ".i2p"):
		return OriginI2P
	default:
		return OriginClearnet
	}
}

func pendingLimit(class OriginClass) int {
	switch class {
	case OriginOnion:
		return MaxPendingOnion
	case OriginI2P:
		return MaxPendingI2P
	default:
		return MaxPendingClearnet
	}
}

// IsSystemAccount reports whether the nickname is a reserved shared
// actor.
func IsSystemAccount(nickname string) bool {
	lower := strings.ToLower(nickname)
	for _, name := range systemAccounts {
		if lower == name {
			return true
		}
	}
	return false
}

// RequiresApproval decides whether an incoming follow from the
// requester needs a moderator. Requesters with an approved.txt record
// bypass the actor's manuallyApprovesFollowers flag. No side effects;
// safe to call repeatedly.
func (svc *Service) RequiresApproval(requester domain.ActorRef) bool {
	acct := svc.account()
	if svc.Store.Contains(acct, store.ApprovedFile, requester.MatchKeys()) {
		return false
	}
	return svc.manuallyApprovesFollowers()
}

func (svc *Service) manuallyApprovesFollowers() bool {
	raw, err := svc.Store.ReadActorJSON(svc.account())
	if err != nil {
		// missing actor document defaults to auto-accept
		return false
	}
	var actor struct {
		ManuallyApprovesFollowers bool `json:"manuallyApprovesFollowers"`
	}
	if err := json.Unmarshal(raw, &actor); err != nil {
		return false
	}
	return actor.ManuallyApprovesFollowers
}

// PendingCountByClass counts pending requests whose entry belongs to
// the given origin class, by substring over the stored lines.
func (svc *Service) PendingCountByClass(class OriginClass) int {
	count := 0
	for _, line := range svc.Store.Lines(svc.account(), store.RequestsFile) {
		lower := strings.ToLower(line)
		var c OriginClass
		switch {
		case strings.Contains(lower, ".onion"):
			c = OriginOnion
		case strings.Contains(lower, ".i2p"):
			c = OriginI2P
		default:
			c = OriginClearnet
		}
		if c == class {
			count++
		}
	}
	return count
}

// domainPermitted applies the federation list. An empty list permits
// every domain; otherwise the requester's domain (port ignored) must
// be listed.
func (svc *Service) domainPermitted(domainName string) bool {
	list := svc.Conf.Conf.FederationList
	if len(list) == 0 {
		return true
	}
	host := strings.ToLower(domainName)
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	for _, d := range list {
		if strings.ToLower(strings.TrimSpace(d)) == host {
			return true
		}
	}
	return false
}
