package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/moviedex/movies-cli/alerts"
	"github.com/moviedex/movies-cli/auth"
)

// Bind subscribes a running program to session controller and alert service
// changes, forwarding each as a message. Call after the program has started;
// the returned cancel unhooks both subscriptions.
func Bind(p *tea.Program, ctrl *auth.Controller, alertSvc *alerts.Service) (cancel func()) {
	cancelSession := ctrl.Subscribe(func(s auth.Session) {
		p.Send(sessionMsg{Session: s})
	})
	cancelAlerts := alertSvc.Subscribe(func(s alerts.State) {
		p.Send(alertMsg{State: s})
	})

	return func() {
		cancelSession()
		cancelAlerts()
	}
}
