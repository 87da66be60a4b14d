package session

import (
	"net"
	"net/url"
	"strings"
)

type targetKind int

const (
	targetInvalid targetKind = iota
	targetRelative
	targetAbsolute
)

type target struct {
	kind   targetKind
	path   string
	origin string
}

func parseTarget(raw string) target {
	if strings.HasPrefix(raw, "/") {
		return target{kind: targetRelative, path: raw}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return target{kind: targetInvalid}
	}

	return target{kind: targetAbsolute, origin: origin(u)}
}

// origin renders scheme://host[:port] with the default port dropped.
func origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host
}

// ResolveRedirect decides where to send the client after sign-in or
// sign-out. Paths are joined to base, absolute URLs on base's origin are
// kept as they are, and everything else, malformed input included,
// falls back to base.
func ResolveRedirect(requested, base string) string {
	t := parseTarget(requested)

	switch t.kind {
	case targetRelative:
		return strings.TrimSuffix(base, "/") + t.path
	case targetAbsolute:
		b, err := url.Parse(base)
		if err == nil && t.origin == origin(b) {
			return requested
		}
	}

	return base
}
