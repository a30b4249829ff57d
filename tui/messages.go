package tui

import (
	"github.com/moviedex/movies-cli/alerts"
	"github.com/moviedex/movies-cli/auth"
	"github.com/moviedex/movies-cli/movies"
)

// sessionMsg carries a session controller state change into the TUI.
type sessionMsg struct {
	Session auth.Session
}

// alertMsg carries an alert service state change into the TUI.
type alertMsg struct {
	State alerts.State
}

// moviesLoadedMsg signals that a category listing page finished loading.
type moviesLoadedMsg struct {
	Category movies.Category
	Movies   []movies.Movie
	HasMore  bool
}

// moviesFailedMsg signals that a category listing load failed.
type moviesFailedMsg struct {
	Category movies.Category
	Err      error
}

// detailLoadedMsg signals that a movie detail fetch finished.
type detailLoadedMsg struct {
	Movie *movies.Movie
}

// detailFailedMsg signals that a movie detail fetch failed.
type detailFailedMsg struct {
	Err error
}
