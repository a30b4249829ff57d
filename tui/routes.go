package tui

import "github.com/moviedex/movies-cli/auth"

// route identifies which screen the session state gates to.
type route int

const (
	routeSplash route = iota // restore in flight
	routeLogin               // unauthenticated
	routeBrowse              // authenticated
)

// routeFor maps a session snapshot to its screen. While a transition is in
// flight the splash holds; otherwise authentication alone decides.
func routeFor(s auth.Session) route {
	switch {
	case s.IsLoading:
		return routeSplash
	case s.IsAuthenticated:
		return routeBrowse
	default:
		return routeLogin
	}
}
