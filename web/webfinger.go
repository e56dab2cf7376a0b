package web

import (
	"fmt"
	"strings"

	"github.com/deemkeen/monodon/util"
)

// GetWebfinger resolves the single local account. Anything else is not
// found.
func GetWebfinger(user string, conf *util.AppConfig) (error, string) {
	if !strings.EqualFold(user, conf.Conf.Nickname) {
		return fmt.Errorf("unknown account: %s", user), GetWebFingerNotFound()
	}

	username := conf.Conf.Nickname

	return nil, fmt.Sprintf(
		`{
					"subject": "acct:%s@%s",

					"links": [
						{
							"rel": "self",
							"type": "application/activity+json",
							"href": "https://%s/users/%s"
						}
					]
				}`, username, conf.Conf.SslDomain,
		conf.Conf.SslDomain, username)
}

func GetWebFingerNotFound() string {
	return `{"detail":"Not Found"}`
}
