package nav

import "strings"

// History decides how route paths appear in URLs and how request paths map
// back to routes.
type History interface {
	Base() string
	Href(routePath string) string
	// Location extracts the route path from an incoming request path.
	// ok is false when the request is outside this history's base.
	Location(requestPath string) (string, bool)
}

type webHistory struct{ base string }

// WebHistory serves routes at clean paths under base, e.g. /app/client-upload.
func WebHistory(base string) History { return webHistory{base: normalizeBase(base)} }

func (h webHistory) Base() string { return h.base }

func (h webHistory) Href(routePath string) string {
	return h.base + routePath
}

func (h webHistory) Location(requestPath string) (string, bool) {
	if h.base == "" {
		return requestPath, true
	}
	if requestPath == h.base {
		return "/", true
	}
	rest, ok := strings.CutPrefix(requestPath, h.base)
	if !ok || !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}
