package nav

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"client-upload/backend/internal/config"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var ErrUnknownRoute = errors.New("unknown route")

// PageData is what every page template receives.
type PageData struct {
	RouteName      string
	RoutePath      string
	Firebase       config.Platform
	APIBase        string
	MaxUploadBytes int64

	// RecaptchaSiteKey is empty when phone sign-in has no verifier widget.
	RecaptchaSiteKey string
}

type PageOptions struct {
	Firebase         config.Platform
	APIBase          string
	MaxUploadBytes   int64
	RecaptchaSiteKey string
}

// Router resolves request paths to routes and renders their pages. It is
// immutable after NewRouter and safe for concurrent use.
type Router struct {
	history History
	routes  []Route
	byPath  map[string]int
	byName  map[string]int
	opts    PageOptions
	log     *zap.Logger
}

func NewRouter(history History, routes []Route, opts PageOptions, log *zap.Logger) (*Router, error) {
	if history == nil {
		history = WebHistory("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		history: history,
		routes:  make([]Route, 0, len(routes)),
		byPath:  make(map[string]int, len(routes)),
		byName:  make(map[string]int, len(routes)),
		opts:    opts,
		log:     log.Named("nav"),
	}
	for _, rt := range routes {
		if !strings.HasPrefix(rt.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with /", rt.Name)
		}
		if rt.Component == nil {
			return nil, fmt.Errorf("route %q: component is required", rt.Path)
		}
		p := cleanPath(rt.Path)
		if _, dup := r.byPath[p]; dup {
			return nil, fmt.Errorf("duplicate route path %q", rt.Path)
		}
		if rt.Name != "" {
			if _, dup := r.byName[rt.Name]; dup {
				return nil, fmt.Errorf("duplicate route name %q", rt.Name)
			}
			r.byName[rt.Name] = len(r.routes)
		}
		r.byPath[p] = len(r.routes)
		r.routes = append(r.routes, rt)
	}
	return r, nil
}

func (r *Router) History() History { return r.history }

// Routes returns a copy of the table in declaration order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Resolve maps a request path to its route.
func (r *Router) Resolve(requestPath string) (Route, bool) {
	loc, ok := r.history.Location(requestPath)
	if !ok {
		return Route{}, false
	}
	i, ok := r.byPath[cleanPath(loc)]
	if !ok {
		return Route{}, false
	}
	return r.routes[i], true
}

// Href builds the URL for a named route.
func (r *Router) Href(name string) (string, error) {
	i, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	return r.history.Href(r.routes[i].Path), nil
}

// Mount registers every route's server-side URL on mux.
func (r *Router) Mount(mux chi.Router) {
	mounted := map[string]bool{}
	for _, rt := range r.routes {
		u := r.history.Href(rt.Path)
		if mounted[u] {
			continue
		}
		mounted[u] = true
		mux.Get(u, r.ServeHTTP)
		if u != "/" && !strings.HasSuffix(u, "/") {
			mux.Get(u+"/", r.ServeHTTP)
		}
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt, ok := r.Resolve(req.URL.Path)
	if !ok {
		http.NotFound(w, req)
		return
	}

	var buf bytes.Buffer
	err := rt.Component.Render(&buf, PageData{
		RouteName:      rt.Name,
		RoutePath:      rt.Path,
		Firebase:       r.opts.Firebase,
		APIBase:        r.opts.APIBase,
		MaxUploadBytes: r.opts.MaxUploadBytes,

		RecaptchaSiteKey: r.opts.RecaptchaSiteKey,
	})
	if err != nil {
		r.log.Error("page render failed", zap.String("route", rt.Name), zap.Error(err))
		http.Error(w, "page render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func cleanPath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
