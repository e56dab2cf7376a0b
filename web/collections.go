package web

import (
	"encoding/json"
	"fmt"

	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/util"
)

// entryURIs maps stored follow entries to actor URIs for the public
// collections. Handle entries degrade to the conventional users path.
func entryURIs(entries []string) []string {
	uris := make([]string, 0, len(entries))
	for _, entry := range entries {
		ref := domain.RefFromEntry(entry)
		if ref.URL != "" {
			uris = append(uris, ref.URL)
			continue
		}
		if ref.HasHandle() {
			uris = append(uris, ref.Handle.ActorURLVariants()[0])
		}
	}
	return uris
}

// GetCollection renders a follower or following list as an ActivityPub
// OrderedCollection, newest first like the underlying file.
func GetCollection(kind string, entries []string, conf *util.AppConfig) (string, error) {
	uris := entryURIs(entries)
	collection := map[string]interface{}{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           fmt.Sprintf("https://%s/users/%s/%s", conf.Conf.SslDomain, conf.Conf.Nickname, kind),
		"type":         "OrderedCollection",
		"totalItems":   len(uris),
		"orderedItems": uris,
	}

	jsonBytes, err := json.Marshal(collection)
	if err != nil {
		return "{}", err
	}
	return string(jsonBytes), nil
}
