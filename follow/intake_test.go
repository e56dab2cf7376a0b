package follow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/deemkeen/monodon/store"
)

func TestReceiveFollowAutoAccept(t *testing.T) {
	svc, fed := newTestService(t)

	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/bob"))
	if err != nil {
		t.Fatalf("ReceiveFollowRequest failed: %v", err)
	}
	if outcome != OutcomeAccepted {
		t.Errorf("Expected OutcomeAccepted, got %s", outcome)
	}

	followers := svc.Followers()
	if len(followers) != 1 || followers[0] != "bob@remote.example" {
		t.Errorf("Expected follower bob@remote.example, got %v", followers)
	}

	last := fed.lastDelivery(t)
	if last.Activity["type"] != "Accept" {
		t.Errorf("Expected Accept delivery, got '%v'", last.Activity["type"])
	}
	if last.InboxURI != "https://remote.example/users/bob/inbox" {
		t.Errorf("Expected delivery to bob's inbox, got '%s'", last.InboxURI)
	}
}

func TestReceiveFollowAcceptWrapsOriginalActivity(t *testing.T) {
	svc, fed := newTestService(t)

	raw := followActivityJSON("https://remote.example/users/bob")
	if _, err := svc.ReceiveFollowRequest(raw); err != nil {
		t.Fatalf("ReceiveFollowRequest failed: %v", err)
	}

	last := fed.lastDelivery(t)
	if last.Activity["@context"] != "https://www.w3.org/ns/activitystreams" {
		t.Errorf("Expected activitystreams context, got '%v'", last.Activity["@context"])
	}
	if last.Activity["actor"] != "https://example.com/users/alice" {
		t.Errorf("Expected local actor, got '%v'", last.Activity["actor"])
	}
	obj, ok := last.Activity["object"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected embedded original Follow, got %T", last.Activity["object"])
	}
	if obj["type"] != "Follow" {
		t.Errorf("Expected original type 'Follow', got '%v'", obj["type"])
	}
	if obj["actor"] != "https://remote.example/users/bob" {
		t.Errorf("Expected original actor kept, got '%v'", obj["actor"])
	}
}

func TestReceiveFollowDuplicateIsNoop(t *testing.T) {
	svc, fed := newTestService(t)
	raw := followActivityJSON("https://remote.example/users/bob")

	svc.ReceiveFollowRequest(raw)
	before := len(fed.delivered())

	outcome, err := svc.ReceiveFollowRequest(raw)
	if err != nil {
		t.Fatalf("Duplicate delivery failed: %v", err)
	}
	if outcome != OutcomeAlreadyFollowing {
		t.Errorf("Expected OutcomeAlreadyFollowing, got %s", outcome)
	}
	if count := svc.Store.Count(svc.account(), store.FollowersFile); count != 1 {
		t.Errorf("Expected 1 follower after duplicate, got %d", count)
	}
	if after := len(fed.delivered()); after != before {
		t.Errorf("Expected no extra delivery for duplicate, got %d new", after-before)
	}
}

func TestReceiveFollowJoinTypeAccepted(t *testing.T) {
	svc, _ := newTestService(t)
	raw := []byte(`{
		"type": "Join",
		"actor": "https://remote.example/users/bob",
		"object": "https://example.com/users/alice"
	}`)

	outcome, err := svc.ReceiveFollowRequest(raw)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if outcome != OutcomeAccepted {
		t.Errorf("Expected OutcomeAccepted for Join, got %s", outcome)
	}
}

func TestReceiveFollowMalformed(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []string{
		`not json`,
		`{"type":"Like","actor":"https://remote.example/users/bob","object":"https://example.com/users/alice"}`,
		`{"type":"Follow","object":"https://example.com/users/alice"}`,
		`{"type":"Follow","actor":"https://remote.example/users/bob"}`,
		`{"type":"Follow","actor":"https://remote.example/strange/bob","object":"https://example.com/users/alice"}`,
		`{"type":"Follow","actor":"https://remote.example/users/bob","object":"https://example.com/strange/alice"}`,
	}
	for _, raw := range cases {
		outcome, err := svc.ReceiveFollowRequest([]byte(raw))
		if !errors.Is(err, ErrMalformedActivity) {
			t.Errorf("Expected ErrMalformedActivity for %s, got %v", raw, err)
		}
		if outcome != OutcomeDropped {
			t.Errorf("Expected OutcomeDropped, got %s", outcome)
		}
	}

	if count := svc.Store.Count(svc.account(), store.FollowersFile); count != 0 {
		t.Errorf("Expected no followers recorded, got %d", count)
	}
}

func TestReceiveFollowDomainNotPermitted(t *testing.T) {
	svc, fed := newTestService(t)
	svc.Conf.Conf.FederationList = []string{"friendly.example"}

	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://hostile.example/users/mallory"))
	if err != nil {
		t.Fatalf("Expected silent drop, got error %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped, got %s", outcome)
	}
	if len(fed.delivered()) != 0 {
		t.Error("Expected no Reject sent for unpermitted domain")
	}

	// a listed domain still goes through
	outcome, err = svc.ReceiveFollowRequest(followActivityJSON("https://friendly.example/users/bob"))
	if err != nil || outcome != OutcomeAccepted {
		t.Errorf("Expected listed domain accepted, got %s / %v", outcome, err)
	}
}

func TestReceiveFollowSystemAccountTarget(t *testing.T) {
	svc, _ := newTestService(t)
	raw := []byte(`{
		"type": "Follow",
		"actor": "https://remote.example/users/bob",
		"object": "https://example.com/users/news"
	}`)

	outcome, err := svc.ReceiveFollowRequest(raw)
	if err != nil {
		t.Fatalf("Expected silent drop, got error %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped for system account target, got %s", outcome)
	}
}

func TestReceiveFollowUnknownTarget(t *testing.T) {
	svc, _ := newTestService(t)
	raw := []byte(`{
		"type": "Follow",
		"actor": "https://remote.example/users/bob",
		"object": "https://example.com/users/somebodyelse"
	}`)

	outcome, err := svc.ReceiveFollowRequest(raw)
	if err != nil {
		t.Fatalf("Expected silent drop, got error %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped for unknown target, got %s", outcome)
	}
}

func TestReceiveFollowGroupCannotFollowGroup(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Conf.Conf.Nickname = "!lobby"
	raw := []byte(`{
		"type": "Follow",
		"actor": "https://remote.example/users/!announce",
		"object": "https://example.com/users/!lobby"
	}`)

	outcome, err := svc.ReceiveFollowRequest(raw)
	if !errors.Is(err, ErrGroupFollow) {
		t.Errorf("Expected ErrGroupFollow, got %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped, got %s", outcome)
	}
}

func TestReceiveFollowFollowerCap(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Conf.Conf.MaxFollowers = 2
	acct := svc.account()

	svc.Store.Prepend(acct, store.FollowersFile, "one@remote.example")
	svc.Store.Prepend(acct, store.FollowersFile, "two@remote.example")

	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/three"))
	if err != nil {
		t.Fatalf("Expected silent drop at cap, got error %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped at follower cap, got %s", outcome)
	}
	if count := svc.Store.Count(acct, store.FollowersFile); count != 2 {
		t.Errorf("Expected follower count unchanged, got %d", count)
	}
}

func TestReceiveFollowFollowerCapBoundary(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Conf.Conf.MaxFollowers = 2
	acct := svc.account()

	svc.Store.Prepend(acct, store.FollowersFile, "one@remote.example")

	// the request that fills the last slot is still accepted
	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/two"))
	if err != nil || outcome != OutcomeAccepted {
		t.Fatalf("Expected last slot accepted, got %s / %v", outcome, err)
	}
	if count := svc.Store.Count(acct, store.FollowersFile); count != 2 {
		t.Fatalf("Expected follower count at the cap, got %d", count)
	}

	// the list never grows past the cap
	outcome, err = svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/three"))
	if err != nil {
		t.Fatalf("Expected silent drop at cap, got error %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped once the cap is filled, got %s", outcome)
	}
	if count := svc.Store.Count(acct, store.FollowersFile); count != 2 {
		t.Errorf("Expected follower count unchanged at cap, got %d", count)
	}
}

func TestReceiveFollowManualGoesPending(t *testing.T) {
	svc, fed := newTestService(t)
	enableManualApproval(t, svc)
	acct := svc.account()

	raw := followActivityJSON("https://remote.example/users/bob")
	outcome, err := svc.ReceiveFollowRequest(raw)
	if err != nil {
		t.Fatalf("ReceiveFollowRequest failed: %v", err)
	}
	if outcome != OutcomePending {
		t.Errorf("Expected OutcomePending, got %s", outcome)
	}

	if !svc.Store.Contains(acct, store.RequestsFile, []string{"bob@remote.example"}) {
		t.Error("Expected pending request recorded")
	}
	if svc.Store.Contains(acct, store.FollowersFile, []string{"bob@remote.example"}) {
		t.Error("Expected no follower entry while pending")
	}
	if !svc.Store.HasSnapshot(acct, "bob@remote.example") {
		t.Error("Expected follow snapshot written")
	}
	if len(fed.delivered()) != 0 {
		t.Error("Expected no Accept sent while pending")
	}
}

func TestReceiveFollowApprovedBypassesManual(t *testing.T) {
	svc, _ := newTestService(t)
	enableManualApproval(t, svc)
	acct := svc.account()

	svc.Store.Append(acct, store.ApprovedFile, "bob@remote.example")

	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/bob"))
	if err != nil {
		t.Fatalf("ReceiveFollowRequest failed: %v", err)
	}
	if outcome != OutcomeAccepted {
		t.Errorf("Expected approved requester to bypass approval, got %s", outcome)
	}
}

func TestReceiveFollowStandingRejection(t *testing.T) {
	svc, fed := newTestService(t)
	enableManualApproval(t, svc)
	acct := svc.account()

	svc.Store.Append(acct, store.RejectsFile, "bob@remote.example")
	// a stale request and snapshot linger from a crash
	svc.Store.Append(acct, store.RequestsFile, "bob@remote.example")
	svc.Store.WriteSnapshot(acct, "bob@remote.example", []byte(`{}`))

	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/bob"))
	if err != nil {
		t.Fatalf("ReceiveFollowRequest failed: %v", err)
	}
	if outcome != OutcomeAlreadyRejected {
		t.Errorf("Expected OutcomeAlreadyRejected, got %s", outcome)
	}

	if svc.Store.Contains(acct, store.RequestsFile, []string{"bob@remote.example"}) {
		t.Error("Expected stale pending request cleaned up")
	}
	if svc.Store.HasSnapshot(acct, "bob@remote.example") {
		t.Error("Expected stale snapshot cleaned up")
	}
	if len(fed.delivered()) != 0 {
		t.Error("Expected no new Reject for a standing rejection")
	}
}

func TestReceiveFollowRateLimitPerOriginClass(t *testing.T) {
	svc, _ := newTestService(t)
	enableManualApproval(t, svc)
	acct := svc.account()

	// fill the onion pending bucket
	for i := 0; i < MaxPendingOnion; i++ {
		svc.Store.Append(acct, store.RequestsFile, fmt.Sprintf("req%d@dark%d.onion", i, i))
	}

	outcome, err := svc.ReceiveFollowRequest(followActivityJSON("https://hidden.onion/users/bob"))
	if err != nil {
		t.Fatalf("Expected silent drop, got error %v", err)
	}
	if outcome != OutcomeDropped {
		t.Errorf("Expected OutcomeDropped for full onion bucket, got %s", outcome)
	}
	if svc.Store.Contains(acct, store.RequestsFile, []string{"bob@hidden.onion"}) {
		t.Error("Expected dropped request not recorded")
	}

	// a clearnet request still fits
	outcome, err = svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/carol"))
	if err != nil || outcome != OutcomePending {
		t.Errorf("Expected clearnet request pending, got %s / %v", outcome, err)
	}
}

func TestReceiveFollowCachesPublicKey(t *testing.T) {
	svc, fed := newTestService(t)

	svc.ReceiveFollowRequest(followActivityJSON("https://remote.example/users/bob"))
	if len(fed.cachedKeys) != 1 || fed.cachedKeys[0] != "https://remote.example/users/bob" {
		t.Errorf("Expected public key cached for bob, got %v", fed.cachedKeys)
	}
}
