package web

import (
	"fmt"
	"time"

	"github.com/deemkeen/monodon/follow"
	"github.com/deemkeen/monodon/util"
	"github.com/gorilla/feeds"
)

// GetPendingRSS renders the pending follow requests as an RSS feed so
// a moderator can watch the queue from any feed reader.
func GetPendingRSS(conf *util.AppConfig, svc *follow.Service) (string, error) {
	link := fmt.Sprintf("https://%s/admin/requests/feed", conf.Conf.SslDomain)

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Follow requests for %s", conf.AccountHandle()),
		Link:        &feeds.Link{Href: link},
		Description: "pending follow requests awaiting moderation",
		Author:      &feeds.Author{Name: conf.Conf.Nickname, Email: conf.AccountHandle()},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, entry := range svc.PendingRequests() {
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      entry,
				Title:   fmt.Sprintf("Follow request from %s", entry),
				Link:    &feeds.Link{Href: link},
				Content: fmt.Sprintf("%s wants to follow %s", entry, conf.AccountHandle()),
				Created: time.Now(),
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
