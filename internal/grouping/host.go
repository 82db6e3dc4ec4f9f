package grouping

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// OtherHost is returned by Host for anything that is not an absolute URL.
const OtherHost = "other"

// Schemes that cannot be valid without a host.
var hostSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

// hostProfile maps hostnames the way browsers do before DNS lookup:
// non-transitional UTS #46 without the STD3 character restrictions.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.Transitional(false),
)

// Host returns the lower-cased hostname of rawURL, without scheme or port.
// Internationalized hosts come back in their punycode form. Input that does
// not parse as an absolute URL yields OtherHost.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return OtherHost
	}
	scheme := strings.ToLower(u.Scheme)
	host := u.Hostname()
	if host == "" && hostSchemes[scheme] {
		// "https:example.com" and "https:/example.com" still name a host.
		host = slashlessHost(scheme, rawURL[len(u.Scheme)+1:])
		if host == "" {
			return OtherHost
		}
	}
	return asciiHost(host)
}

func slashlessHost(scheme, rest string) string {
	rest = strings.TrimLeft(rest, `/\`)
	if rest == "" {
		return ""
	}
	u, err := url.Parse(scheme + "://" + rest)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func asciiHost(host string) string {
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			if ascii, err := hostProfile.ToASCII(host); err == nil {
				return ascii
			}
			break
		}
	}
	return strings.ToLower(host)
}
