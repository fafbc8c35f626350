// Package types holds the route type shared by the REST endpoints, the
// endpoint facade and the server command.
package types

import "net/http"

// Route represents a request route to be served
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}
