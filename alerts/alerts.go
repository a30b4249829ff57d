// Package alerts is a small publish/subscribe service for user-facing
// alerts: one active alert, any number of listeners. The service is an
// explicit instance handed to its consumers, not a package-level singleton.
package alerts

import "sync"

// Type is the alert severity.
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
	Warning Type = "warning"
	Info    Type = "info"
)

// Button is an alert action.
type Button struct {
	Text    string
	OnPress func()
}

// State is the current alert, or no alert when Visible is false.
type State struct {
	Visible bool
	Title   string
	Message string
	Type    Type
	Buttons []Button
}

// Option adjusts an alert before it is shown.
type Option func(*State)

// WithType sets the alert severity.
func WithType(t Type) Option {
	return func(s *State) { s.Type = t }
}

// WithButtons replaces the default OK button.
func WithButtons(buttons ...Button) Option {
	return func(s *State) { s.Buttons = buttons }
}

// Service holds the active alert and notifies listeners on every change.
type Service struct {
	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewService creates an alert service with no active alert.
func NewService() *Service {
	return &Service{
		state: State{Type: Info, Buttons: []Button{{Text: "OK"}}},
		subs:  make(map[int]func(State)),
	}
}

// Show replaces the active alert and notifies listeners.
func (s *Service) Show(title, message string, opts ...Option) {
	next := State{
		Visible: true,
		Title:   title,
		Message: message,
		Type:    Info,
		Buttons: []Button{{Text: "OK"}},
	}
	for _, opt := range opts {
		opt(&next)
	}
	s.publish(next)
}

// Hide dismisses the active alert.
func (s *Service) Hide() {
	s.mu.Lock()
	next := s.state
	s.mu.Unlock()
	next.Visible = false
	s.publish(next)
}

// ShowSuccess shows a success alert.
func (s *Service) ShowSuccess(title, message string) { s.Show(title, message, WithType(Success)) }

// ShowError shows an error alert.
func (s *Service) ShowError(title, message string) { s.Show(title, message, WithType(Error)) }

// ShowWarning shows a warning alert.
func (s *Service) ShowWarning(title, message string) { s.Show(title, message, WithType(Warning)) }

// ShowInfo shows an info alert.
func (s *Service) ShowInfo(title, message string) { s.Show(title, message, WithType(Info)) }

// State returns the current alert state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn, invokes it immediately with the current state,
// and returns an unsubscribe function.
func (s *Service) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.state
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) publish(next State) {
	s.mu.Lock()
	s.state = next
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
