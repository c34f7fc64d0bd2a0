package api

import (
	"net/http"
	"net/url"
	"strings"
)

// normalizeOrigin reduces an origin to lower case scheme://host[:port].
func normalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

func normalizeOrigins(origins []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if n, ok := normalizeOrigin(o); ok {
			allowed[n] = struct{}{}
		}
	}

	return allowed
}

// checkOrigin allows requests without an Origin header, which come from
// non-browser clients, and browser requests from a configured origin.
func (s *ChatApp) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	n, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, ok = s.allowedOrigins[n]

	return ok
}
