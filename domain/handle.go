package domain

import (
	"net/url"
	"strings"
)

// UserPathPrefixes lists the historical actor URL path conventions used
// across ActivityPub implementations. Matching a stored handle against
// an actor URL has to try all of them.
var UserPathPrefixes = []string{
	"/users/",
	"/profile/",
	"/accounts/",
	"/channel/",
	"/u/",
	"/c/",
	"/@",
}

// GroupPrefix marks a handle as a group actor rather than a person.
const GroupPrefix = "!"

// Handle identifies a Fediverse actor as nickname@domain. Domain may
// carry a :port suffix. Handles are case-preserved but compared
// case-insensitively.
type Handle struct {
	Nickname string
	Domain   string
}

func (h Handle) String() string {
	return h.Nickname + "@" + h.Domain
}

func (h Handle) IsZero() bool {
	return h.Nickname == ""
}

// IsGroup reports whether the handle names a group actor.
func (h Handle) IsGroup() bool {
	return strings.HasPrefix(h.Nickname, GroupPrefix)
}

// Key returns the canonical case-insensitive comparison key.
func (h Handle) Key() string {
	return strings.ToLower(h.String())
}

// ParseHandle splits a "nickname@domain[:port]" string. Anything with
// a path separator is treated as a URL, not a handle.
func ParseHandle(s string) (Handle, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return Handle{}, false
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return Handle{}, false
	}
	// a second @ means this is not a handle
	if strings.Contains(s[at+1:], "@") {
		return Handle{}, false
	}
	return Handle{Nickname: s[:at], Domain: s[at+1:]}, true
}

// ParseActorURL resolves an actor URL to a Handle by trying every known
// users-path convention. Returns false when the URL follows none of
// them.
func ParseActorURL(actorURL string) (Handle, bool) {
	u, err := url.Parse(actorURL)
	if err != nil || u.Host == "" {
		return Handle{}, false
	}

	for _, prefix := range UserPathPrefixes {
		if !strings.HasPrefix(u.Path, prefix) {
			continue
		}
		nick := strings.TrimPrefix(u.Path, prefix)
		// strip trailing path segments like /followers
		if idx := strings.Index(nick, "/"); idx >= 0 {
			nick = nick[:idx]
		}
		if nick == "" {
			continue
		}
		return Handle{Nickname: nick, Domain: u.Host}, true
	}

	return Handle{}, false
}

// ActorURLVariants returns the actor URL of the handle under every
// known users-path convention, canonical /users/ form first.
func (h Handle) ActorURLVariants() []string {
	variants := make([]string, 0, len(UserPathPrefixes))
	for _, prefix := range UserPathPrefixes {
		variants = append(variants, "https://"+h.Domain+prefix+h.Nickname)
	}
	return variants
}

// ActorRef identifies a remote actor either by handle, by raw URL, or
// both. It is the single normalization point for the "handle or actor
// URL" duality of stored follow edges.
type ActorRef struct {
	Handle Handle
	URL    string
}

// NewActorRef normalizes an actor URL. The handle part stays zero when
// the URL follows no known users-path convention.
func NewActorRef(actorURL string) ActorRef {
	ref := ActorRef{URL: actorURL}
	if h, ok := ParseActorURL(actorURL); ok {
		ref.Handle = h
	}
	return ref
}

// RefFromEntry rebuilds an ActorRef from a line stored in one of the
// follow files, which holds either a handle or a raw actor URL.
func RefFromEntry(entry string) ActorRef {
	entry = strings.TrimSpace(entry)
	if h, ok := ParseHandle(entry); ok {
		return ActorRef{Handle: h}
	}
	return NewActorRef(entry)
}

func (r ActorRef) HasHandle() bool {
	return !r.Handle.IsZero()
}

// StoreEntry returns the line written to the follow files: the handle
// form when the actor URL follows the conventional /users/ shape, the
// raw URL otherwise.
func (r ActorRef) StoreEntry() string {
	if r.HasHandle() && (r.URL == "" || strings.Contains(r.URL, "/users/")) {
		return r.Handle.String()
	}
	if r.URL != "" {
		return r.URL
	}
	return r.Handle.String()
}

// MatchKeys returns every lowercased form the actor may appear under in
// a follow file: the handle, the raw URL, and each users-path URL
// variant. Membership tests scan for any of these.
func (r ActorRef) MatchKeys() []string {
	var keys []string
	if r.URL != "" {
		keys = append(keys, strings.ToLower(r.URL))
	}
	if r.HasHandle() {
		keys = append(keys, r.Handle.Key())
		for _, v := range r.Handle.ActorURLVariants() {
			keys = append(keys, strings.ToLower(v))
		}
	}
	return keys
}
