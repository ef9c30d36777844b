// Package router maps location fragments of the form
// "#<service>/<product>/<version>" onto version requests.
package router

import (
	"log/slog"
	"regexp"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// fragmentPattern matches a prefix; anything after the version segment is
// ignored.
var fragmentPattern = regexp.MustCompile(`^#(\w+)/(\w+)/([^/]+)/?`)

// Route is a parsed fragment.
type Route struct {
	Service string
	Product string
	Version string
}

// Parse extracts the route from fragment. It reports false when the
// fragment does not match or names an unsupported product.
func Parse(fragment string) (Route, bool) {
	m := fragmentPattern.FindStringSubmatch(fragment)
	if m == nil {
		return Route{}, false
	}
	route := Route{Service: m[1], Product: m[2], Version: m[3]}
	if !state.IsProduct(route.Product) {
		return Route{}, false
	}
	return route, true
}

// Fragment builds the fragment that selects product and version.
func Fragment(service, product, version string) string {
	return "#" + service + "/" + product + "/" + version
}

// RequestFunc selects a (product, version) pair.
type RequestFunc func(product, version string)

// Router forwards matching fragments to a RequestFunc.
type Router struct {
	request RequestFunc
	logger  *slog.Logger
}

// New returns a Router calling request for every matching fragment.
// A nil logger falls back to slog.Default().
func New(request RequestFunc, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{request: request, logger: logger}
}

// Navigate handles a fragment change. Non-matching fragments are ignored
// and leave the current selection alone. It reports whether a request was
// issued.
func (r *Router) Navigate(fragment string) bool {
	route, ok := Parse(fragment)
	if !ok {
		r.logger.Debug("ignoring fragment", "fragment", fragment)
		return false
	}
	r.logger.Info("navigating", "product", route.Product, "version", route.Version)
	r.request(route.Product, route.Version)
	return true
}
