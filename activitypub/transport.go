package activitypub

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deemkeen/monodon/util"
)

const userAgent = "monodon/1.0 ActivityPub"

// httpClientFor returns an HTTP client suited for the target URI.
// Onion and i2p destinations go through the configured proxies; other
// destinations use a direct client. Hidden-service round trips are
// slow, so those clients get a longer timeout.
func httpClientFor(targetURI string, conf *util.AppConfig) *http.Client {
	parsed, err := url.Parse(targetURI)
	if err != nil {
		return &http.Client{Timeout: 30 * time.Second}
	}
	host := parsed.Hostname()

	var proxyAddr string
	switch {
	case strings.HasSuffix(host, ".onion"):
		proxyAddr = conf.Conf.OnionProxy
	case strings.HasSuffix(host, ".i2p"):
		proxyAddr = conf.Conf.I2pProxy
	}

	if proxyAddr == "" {
		return &http.Client{Timeout: 30 * time.Second}
	}

	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return &http.Client{Timeout: 30 * time.Second}
	}
	return &http.Client{
		Timeout:   120 * time.Second,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
}
