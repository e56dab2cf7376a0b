package activitypub

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/deemkeen/monodon/db"
	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/follow"
	"github.com/deemkeen/monodon/util"
	"github.com/google/uuid"
)

// Activity represents a generic ActivityPub activity
type Activity struct {
	Context interface{} `json:"@context"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Actor   string      `json:"actor"`
	Object  interface{} `json:"object"`
}

// HandleInbox processes incoming ActivityPub activities
func HandleInbox(w http.ResponseWriter, r *http.Request, conf *util.AppConfig, svc *follow.Service) {
	// Verify HTTP signature
	signature := r.Header.Get("Signature")
	if signature == "" {
		log.Printf("Inbox: Missing HTTP signature")
		http.Error(w, "Missing signature", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Inbox: Failed to read body: %v", err)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		log.Printf("Inbox: Failed to parse activity: %v", err)
		http.Error(w, "Invalid activity", http.StatusBadRequest)
		return
	}

	log.Printf("Inbox: Received %s from %s", activity.Type, activity.Actor)

	// Fetch remote actor to verify and cache
	remoteActor, err := GetOrFetchActor(activity.Actor, conf)
	if err != nil {
		log.Printf("Inbox: Failed to fetch actor %s: %v", activity.Actor, err)
		http.Error(w, "Failed to verify actor", http.StatusBadRequest)
		return
	}

	// Verify HTTP signature with actor's public key
	_, err = VerifyRequest(r, remoteActor.PublicKeyPem)
	if err != nil {
		log.Printf("Inbox: Signature verification failed: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	database := db.GetDB()

	// Deduplicate on the activity URI
	if activity.ID != "" {
		if err, existing := database.ReadActivityByURI(activity.ID); err == nil && existing != nil {
			log.Printf("Inbox: Activity %s already processed, skipping", activity.ID)
			w.WriteHeader(http.StatusAccepted)
			return
		}
	}

	objectURI := ""
	if activity.Object != nil {
		switch obj := activity.Object.(type) {
		case string:
			objectURI = obj
		case map[string]interface{}:
			if id, ok := obj["id"].(string); ok {
				objectURI = id
			}
		}
	}

	activityRecord := &domain.Activity{
		Id:           uuid.New(),
		ActivityURI:  activity.ID,
		ActivityType: activity.Type,
		ActorURI:     activity.Actor,
		ObjectURI:    objectURI,
		RawJSON:      string(body),
		Processed:    false,
		Local:        false,
		CreatedAt:    time.Now(),
	}

	if err := database.CreateActivity(activityRecord); err != nil {
		log.Printf("Inbox: Failed to store activity: %v", err)
		// Don't fail the request, we'll process it anyway
	}

	// Process activity based on type
	switch activity.Type {
	case "Follow", "Join":
		outcome, err := svc.ReceiveFollowRequest(body)
		if err != nil {
			if errors.Is(err, follow.ErrMalformedActivity) {
				log.Printf("Inbox: Malformed Follow: %v", err)
				http.Error(w, "Invalid Follow activity", http.StatusBadRequest)
				return
			}
			if errors.Is(err, follow.ErrGroupFollow) {
				log.Printf("Inbox: Refusing group-to-group follow from %s", activity.Actor)
				http.Error(w, "Groups cannot follow groups", http.StatusForbidden)
				return
			}
			log.Printf("Inbox: Failed to handle Follow: %v", err)
			http.Error(w, "Failed to process Follow", http.StatusInternalServerError)
			return
		}
		log.Printf("Inbox: Follow from %s resolved as %s", activity.Actor, outcome)
	case "Undo":
		if err := svc.HandleUndoFollow(body); err != nil {
			log.Printf("Inbox: Failed to handle Undo: %v", err)
			http.Error(w, "Failed to process Undo", http.StatusInternalServerError)
			return
		}
	case "Accept":
		// Accept activities are confirmations of our own Follow requests
		if err := svc.HandleAcceptActivity(body); err != nil {
			log.Printf("Inbox: Failed to handle Accept: %v", err)
			// Don't fail the request
		}
	case "Reject":
		if err := svc.HandleRejectActivity(body); err != nil {
			log.Printf("Inbox: Failed to handle Reject: %v", err)
			// Don't fail the request
		}
	default:
		log.Printf("Inbox: Unsupported activity type: %s", activity.Type)
	}

	// Mark activity as processed
	activityRecord.Processed = true
	database.UpdateActivity(activityRecord)

	// Return 202 Accepted
	w.WriteHeader(http.StatusAccepted)
}
