package httpmiddleware

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouteFinder resolves the route template of a request before routing.
type RouteFinder func(r *http.Request) (string, bool)

// MakeRouteFinder matches requests against router.
func MakeRouteFinder(router *mux.Router) RouteFinder {
	return func(r *http.Request) (string, bool) {
		var m mux.RouteMatch
		if !router.Match(r, &m) || m.Route == nil {
			return "", false
		}
		tmpl, err := m.Route.GetPathTemplate()
		if err != nil {
			return "", false
		}
		return tmpl, true
	}
}
