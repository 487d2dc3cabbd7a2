package api

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// Dispatcher is the dispatch handle entities register their endpoints on.
//
// Registration may happen before or after the server binds. Each
// registration rebuilds an immutable chi mux that is swapped in under a
// write lock, so in-flight requests (including long-lived WebSocket
// connections) never hold a lock that registration waits for.
type Dispatcher struct {
	mu     sync.RWMutex
	routes []route
	mux    *chi.Mux
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	mux, _ := build(nil)
	return &Dispatcher{mux: mux}
}

// Get registers a handler for GET requests on pattern.
func (d *Dispatcher) Get(pattern string, handler http.HandlerFunc) {
	d.handle(http.MethodGet, pattern, handler)
}

// Post registers a handler for POST requests on pattern.
func (d *Dispatcher) Post(pattern string, handler http.HandlerFunc) {
	d.handle(http.MethodPost, pattern, handler)
}

// handle records the route, replacing an earlier registration of the same
// method and pattern. Like chi, it panics on an invalid pattern, with an
// error wrapping ErrInvalidRoute; the route table and the live mux are
// left as they were, so later registrations still succeed.
func (d *Dispatcher) handle(method, pattern string, handler http.HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	routes := make([]route, 0, len(d.routes)+1)
	replaced := false
	for _, rt := range d.routes {
		if rt.method == method && rt.pattern == pattern {
			rt.handler = handler
			replaced = true
		}
		routes = append(routes, rt)
	}
	if !replaced {
		routes = append(routes, route{method: method, pattern: pattern, handler: handler})
	}

	mux, err := build(routes)
	if err != nil {
		panic(fmt.Errorf("%w: %s %s: %v", ErrInvalidRoute, method, pattern, err))
	}
	d.routes = routes
	d.mux = mux
}

// build creates a mux from routes, turning a chi registration panic into
// an error.
func build(routes []route) (mux *chi.Mux, err error) {
	defer func() {
		if r := recover(); r != nil {
			mux, err = nil, fmt.Errorf("%v", r)
		}
	}()

	mux = chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, r.Method+" not allowed on "+r.URL.Path)
	})
	for _, rt := range routes {
		mux.Method(rt.method, rt.pattern, rt.handler)
	}
	return mux, nil
}

// Routes returns the registered routes as "METHOD pattern", sorted.
func (d *Dispatcher) Routes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.routes))
	for i, rt := range d.routes {
		out[i] = rt.method + " " + rt.pattern
	}
	sort.Strings(out)
	return out
}

// ServeHTTP dispatches to the current mux.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	mux := d.mux
	d.mu.RUnlock()
	mux.ServeHTTP(w, r)
}
