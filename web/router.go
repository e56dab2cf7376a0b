package web

import (
	"fmt"
	"log"
	"strings"

	"github.com/deemkeen/monodon/activitypub"
	"github.com/deemkeen/monodon/domain"
	"github.com/deemkeen/monodon/follow"
	"github.com/deemkeen/monodon/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/time/rate"
)

func Router(conf *util.AppConfig, svc *follow.Service) error {
	log.Printf("Starting federation server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Stricter rate limit for ActivityPub endpoints: 5 req/sec per IP
	apLimiter := NewRateLimiter(rate.Limit(5), 10)

	// Max 1MB request body size for ActivityPub activities
	maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024) // 1MB

	g.GET("/users/:actor", func(c *gin.Context) {
		c.Header("Content-Type", "application/activity+json; charset=utf-8")
		err, actor := GetActor(c.Param("actor"), conf)
		if err != nil {
			c.Render(404, render.String{Format: actor})
		} else {
			c.Render(200, render.String{Format: actor})
		}
	})

	g.POST("/inbox", RateLimitMiddleware(apLimiter), maxBodySize, func(c *gin.Context) {
		log.Println("POST /inbox (shared inbox)")
		activitypub.HandleInbox(c.Writer, c.Request, conf, svc)
	})

	g.POST("/users/:actor/inbox", RateLimitMiddleware(apLimiter), maxBodySize, func(c *gin.Context) {
		actor := c.Param("actor")
		log.Printf("POST /users/%s/inbox", actor)
		if !strings.EqualFold(actor, conf.Conf.Nickname) {
			c.JSON(404, gin.H{"error": "Unknown actor"})
			return
		}
		activitypub.HandleInbox(c.Writer, c.Request, conf, svc)
	})

	g.GET("/users/:actor/outbox", func(c *gin.Context) {
		c.Header("Content-Type", "application/activity+json; charset=utf-8")
		c.Render(200, render.String{Format: "{}"})
	})

	g.GET("/users/:actor/followers", func(c *gin.Context) {
		c.Header("Content-Type", "application/activity+json; charset=utf-8")
		collection, err := GetCollection("followers", svc.Followers(), conf)
		if err != nil {
			c.Render(500, render.String{Format: "{}"})
		} else {
			c.Render(200, render.String{Format: collection})
		}
	})

	g.GET("/users/:actor/following", func(c *gin.Context) {
		c.Header("Content-Type", "application/activity+json; charset=utf-8")
		collection, err := GetCollection("following", svc.Following(), conf)
		if err != nil {
			c.Render(500, render.String{Format: "{}"})
		} else {
			c.Render(200, render.String{Format: collection})
		}
	})

	g.GET("/.well-known/webfinger", func(c *gin.Context) {
		c.Header("Content-Type", "application/json; charset=utf-8")

		resource := c.Query("resource")
		if resource == "" || !strings.HasPrefix(resource, "acct:") {
			c.Render(404, render.String{Format: GetWebFingerNotFound()})
		} else {
			resource = strings.TrimPrefix(resource, "acct:")
			resource = strings.TrimSuffix(resource, fmt.Sprintf("@%s", conf.Conf.SslDomain))
			err, resp := GetWebfinger(resource, conf)
			if err != nil {
				c.Render(404, render.String{Format: GetWebFingerNotFound()})
			} else {
				c.Render(200, render.String{Format: resp})
			}
		}
	})

	// Moderation endpoints. Approve and deny run detached, so both
	// return 202 immediately; the follower lists are the source of
	// truth for what actually happened.
	admin := g.Group("/admin", AdminAuthMiddleware(conf))
	{
		admin.GET("/requests", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"pending":  svc.PendingRequests(),
				"rejected": svc.Rejected(),
			})
		})

		admin.POST("/requests/:handle/approve", func(c *gin.Context) {
			handle := c.Param("handle")
			log.Printf("Admin: approving follow request from %s", handle)
			svc.ApproveAsync(handle)
			c.JSON(202, gin.H{"status": "accepted"})
		})

		admin.POST("/requests/:handle/deny", func(c *gin.Context) {
			handle := c.Param("handle")
			log.Printf("Admin: denying follow request from %s", handle)
			svc.DenyAsync(handle)
			c.JSON(202, gin.H{"status": "accepted"})
		})

		admin.GET("/requests/feed", func(c *gin.Context) {
			c.Header("Content-Type", "application/xml; charset=utf-8")
			rss, err := GetPendingRSS(conf, svc)
			if err != nil {
				c.Render(500, render.String{Format: ""})
			} else {
				c.Render(200, render.String{Format: rss})
			}
		})

		admin.POST("/following/:handle/follow", func(c *gin.Context) {
			handle := c.Param("handle")
			uri, err := actorURIFromParam(handle)
			if err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Admin: following %s", uri)
			go func() {
				if err := svc.SendFollow(uri); err != nil {
					log.Printf("Follow: %v", err)
				}
			}()
			c.JSON(202, gin.H{"status": "accepted"})
		})

		admin.POST("/following/:handle/unfollow", func(c *gin.Context) {
			handle := c.Param("handle")
			uri, err := actorURIFromParam(handle)
			if err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Admin: unfollowing %s", uri)
			go func() {
				if err := svc.Unfollow(uri); err != nil {
					log.Printf("Unfollow: %v", err)
				}
			}()
			c.JSON(202, gin.H{"status": "accepted"})
		})
	}

	err := g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
	if err != nil {
		return err
	}
	return nil
}

// actorURIFromParam turns a path parameter into an actor URI. Accepts
// a handle like "alice@example.com" or a full https URI.
func actorURIFromParam(param string) (string, error) {
	if strings.HasPrefix(param, "https://") || strings.HasPrefix(param, "http://") {
		return param, nil
	}
	handle, ok := domain.ParseHandle(param)
	if !ok {
		return "", fmt.Errorf("not a handle or actor URI: %s", param)
	}
	return handle.ActorURLVariants()[0], nil
}
