package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/moviedex/movies-cli/auth"
	"github.com/moviedex/movies-cli/movies"
)

// PlainStatus writes plain text output for non-interactive runs (pipes, CI,
// SSH without a pty). It doubles as a session subscriber so the restore flow
// narrates itself.
type PlainStatus struct {
	w io.Writer
}

// NewPlainStatus creates a PlainStatus that writes to w.
func NewPlainStatus(w io.Writer) *PlainStatus {
	return &PlainStatus{w: w}
}

func (p *PlainStatus) Banner() {
	fmt.Fprintln(p.w, "=== moviedex ===")
	fmt.Fprintln(p.w)
}

// SessionChange prints the outcome of a session transition.
func (p *PlainStatus) SessionChange(s auth.Session) {
	switch {
	case s.IsLoading:
		fmt.Fprintln(p.w, "Restoring session...")
	case s.IsAuthenticated:
		if s.User != nil {
			fmt.Fprintf(p.w, "Signed in as %s\n", s.User.Email)
		} else {
			fmt.Fprintln(p.w, "Signed in")
		}
	case s.Error != "":
		fmt.Fprintf(p.w, "Not signed in: %s\n", s.Error)
	default:
		fmt.Fprintln(p.w, "Not signed in")
	}
}

// TokenInfo prints a preview of the access token and its time to expiry.
func (p *PlainStatus) TokenInfo(access string) {
	preview := access
	if len(preview) > 50 {
		preview = preview[:50]
	}
	fmt.Fprintf(p.w, "Access Token: %s...\n", preview)
	if exp, err := auth.TokenExpiry(access); err == nil {
		fmt.Fprintf(p.w, "Expires In: %s\n", time.Until(exp).Round(time.Second))
	}
}

// MovieList prints a listing with one movie per line.
func (p *PlainStatus) MovieList(title string, list []movies.Movie) {
	fmt.Fprintf(p.w, "\n%s:\n", title)
	for _, m := range list {
		year := m.ReleaseDate
		if len(year) >= 4 {
			year = year[:4]
		}
		fmt.Fprintf(p.w, "  %.1f  %s (%s)\n", m.VoteAverage, m.Title, year)
	}
}

func (p *PlainStatus) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}
