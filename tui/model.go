package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/moviedex/movies-cli/alerts"
	"github.com/moviedex/movies-cli/auth"
	"github.com/moviedex/movies-cli/favorites"
	"github.com/moviedex/movies-cli/movies"
)

// browseTab is one of the browser's category tabs.
type browseTab int

const (
	tabPopular browseTab = iota
	tabTopRated
	tabFavorites
)

var tabTitles = []string{"Popular", "Top Rated", "Favorites"}

// Lipgloss styles, defined once at package level.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 2)

	styleAlertBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 2)

	styleOK        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold      = lipgloss.NewStyle().Bold(true)
	styleTabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("228"))
	styleSelected  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
)

var alertBorderColors = map[alerts.Type]color.Color{
	alerts.Success: lipgloss.Color("42"),
	alerts.Error:   lipgloss.Color("196"),
	alerts.Warning: lipgloss.Color("214"),
	alerts.Info:    lipgloss.Color("99"),
}

// Model is the BubbleTea model for the movie browser. The session controller
// drives which screen is shown; list, detail and favorites state live here.
type Model struct {
	ctrl     *auth.Controller
	catalog  *movies.Client
	favs     *favorites.Store
	alertSvc *alerts.Service

	session auth.Session
	route   route
	alert   alerts.State

	spinner spinner.Model
	width   int
	height  int

	// Login form
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusIndex    int

	// Browser
	tab         browseTab
	pagers      map[movies.Category]*movies.Pager
	lists       map[movies.Category][]movies.Movie
	hasMore     map[movies.Category]bool
	cursor      int
	listLoading bool
	listErr     string

	// Detail overlay
	detail        *movies.Movie
	detailLoading bool
}

// NewModel creates the initial TUI model. The catalog client backs one pager
// per category; the favorites tab reads the store directly.
func NewModel(
	ctrl *auth.Controller,
	catalog *movies.Client,
	favs *favorites.Store,
	alertSvc *alerts.Service,
) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))),
	)

	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	return Model{
		ctrl:     ctrl,
		catalog:  catalog,
		favs:     favs,
		alertSvc: alertSvc,

		session: auth.Session{IsLoading: true},
		route:   routeSplash,

		spinner:       s,
		emailInput:    email,
		passwordInput: password,

		pagers: map[movies.Category]*movies.Pager{
			movies.CategoryPopular:  movies.NewPager(catalog, movies.CategoryPopular),
			movies.CategoryTopRated: movies.NewPager(catalog, movies.CategoryTopRated),
		},
		lists:   make(map[movies.Category][]movies.Movie),
		hasMore: make(map[movies.Category]bool),
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case sessionMsg:
		return m.handleSession(msg.Session)

	case alertMsg:
		m.alert = msg.State
		return m, nil

	case moviesLoadedMsg:
		if m.categoryForTab() == msg.Category {
			m.listLoading = false
			m.listErr = ""
		}
		m.lists[msg.Category] = msg.Movies
		m.hasMore[msg.Category] = msg.HasMore
		m.clampCursor()
		return m, nil

	case moviesFailedMsg:
		if m.categoryForTab() == msg.Category {
			m.listLoading = false
			m.listErr = msg.Err.Error()
		}
		return m, nil

	case detailLoadedMsg:
		m.detailLoading = false
		m.detail = msg.Movie
		return m, nil

	case detailFailedMsg:
		m.detailLoading = false
		m.alertSvc.ShowError("Could not load movie", msg.Err.Error())
		return m, nil
	}

	return m, nil
}

// handleSession applies a session transition and routes to the screen it
// gates to.
func (m Model) handleSession(s auth.Session) (tea.Model, tea.Cmd) {
	prev := m.route
	m.session = s
	m.route = routeFor(s)

	// Entering the browser (login or restore succeeded): reset the login
	// form and pull the first page for the active tab.
	if m.route == routeBrowse && prev != routeBrowse {
		m.passwordInput.SetValue("")
		m.focusIndex = 0
		if cat := m.categoryForTab(); cat != "" && len(m.lists[cat]) == 0 {
			m.listLoading = true
			return m, m.refreshCmd(cat)
		}
	}

	// Leaving the browser (logout or expired session): drop view state.
	if m.route != routeBrowse && prev == routeBrowse {
		m.detail = nil
		m.cursor = 0
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// The active alert swallows input until dismissed.
	if m.alert.Visible {
		switch key {
		case "enter", "esc":
			if len(m.alert.Buttons) > 0 && m.alert.Buttons[0].OnPress != nil {
				m.alert.Buttons[0].OnPress()
			}
			m.alertSvc.Hide()
		}
		return m, nil
	}

	switch m.route {
	case routeLogin:
		return m.handleLoginKey(msg)
	case routeBrowse:
		if m.detail != nil || m.detailLoading {
			return m.handleDetailKey(key)
		}
		return m.handleBrowseKey(key)
	default:
		return m, nil
	}
}

func (m Model) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.focusIndex = 1 - m.focusIndex
		var cmd tea.Cmd
		if m.focusIndex == 0 {
			cmd = m.emailInput.Focus()
			m.passwordInput.Blur()
		} else {
			cmd = m.passwordInput.Focus()
			m.emailInput.Blur()
		}
		return m, cmd

	case "enter":
		if m.session.IsLoading {
			return m, nil
		}
		email := strings.TrimSpace(m.emailInput.Value())
		password := m.passwordInput.Value()
		if email == "" || password == "" {
			return m, nil
		}
		return m, m.loginCmd(auth.Credentials{Email: email, Password: password})
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit

	case "tab", "right", "l":
		return m.switchTab(1)

	case "shift+tab", "left", "h":
		return m.switchTab(-1)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		list := m.currentList()
		if m.cursor < len(list)-1 {
			m.cursor++
		}
		// Pull the next page as the cursor approaches the bottom.
		cat := m.categoryForTab()
		if cat != "" && m.hasMore[cat] && !m.listLoading && m.cursor >= len(list)-5 {
			m.listLoading = true
			return m, m.loadMoreCmd(cat)
		}
		return m, nil

	case "enter":
		list := m.currentList()
		if m.cursor < len(list) {
			m.detailLoading = true
			return m, m.detailCmd(list[m.cursor].ID)
		}
		return m, nil

	case "r":
		if cat := m.categoryForTab(); cat != "" {
			m.listLoading = true
			m.cursor = 0
			return m, m.refreshCmd(cat)
		}
		return m, nil

	case "f":
		list := m.currentList()
		if m.cursor < len(list) {
			m.toggleFavorite(list[m.cursor])
			m.clampCursor()
		}
		return m, nil

	case "L":
		return m, m.logoutCmd()
	}

	return m, nil
}

func (m Model) handleDetailKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "backspace", "q":
		m.detail = nil
		m.detailLoading = false
	case "f":
		if m.detail != nil {
			m.toggleFavorite(*m.detail)
		}
	}
	return m, nil
}

func (m *Model) toggleFavorite(movie movies.Movie) {
	if m.favs.IsFavorite(movie.ID) {
		m.favs.Remove(movie.ID)
		m.alertSvc.ShowInfo("Removed from favorites", movie.Title)
	} else {
		m.favs.Add(movie)
		m.alertSvc.ShowSuccess("Added to favorites", movie.Title)
	}
}

func (m *Model) switchTab(delta int) (tea.Model, tea.Cmd) {
	m.tab = browseTab((int(m.tab) + delta + len(tabTitles)) % len(tabTitles))
	m.cursor = 0
	m.listErr = ""

	if cat := m.categoryForTab(); cat != "" && len(m.lists[cat]) == 0 {
		m.listLoading = true
		return *m, m.refreshCmd(cat)
	}
	m.listLoading = false
	return *m, nil
}

// categoryForTab returns the catalog category behind the active tab, or ""
// for the favorites tab.
func (m Model) categoryForTab() movies.Category {
	switch m.tab {
	case tabPopular:
		return movies.CategoryPopular
	case tabTopRated:
		return movies.CategoryTopRated
	default:
		return ""
	}
}

func (m Model) currentList() []movies.Movie {
	if m.tab == tabFavorites {
		return m.favs.Favorites()
	}
	return m.lists[m.categoryForTab()]
}

func (m *Model) clampCursor() {
	if n := len(m.currentList()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	} else if n == 0 {
		m.cursor = 0
	}
}

// Session transitions report through the controller subscription, so the
// login and logout commands themselves produce no message.

func (m Model) loginCmd(creds auth.Credentials) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		_ = ctrl.Login(context.Background(), creds)
		return nil
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Logout(context.Background())
		return nil
	}
}

func (m Model) refreshCmd(cat movies.Category) tea.Cmd {
	pager := m.pagers[cat]
	return func() tea.Msg {
		if err := pager.Refresh(context.Background()); err != nil {
			return moviesFailedMsg{Category: cat, Err: err}
		}
		return moviesLoadedMsg{Category: cat, Movies: pager.Movies(), HasMore: pager.HasMore()}
	}
}

func (m Model) loadMoreCmd(cat movies.Category) tea.Cmd {
	pager := m.pagers[cat]
	return func() tea.Msg {
		if err := pager.LoadMore(context.Background()); err != nil {
			return moviesFailedMsg{Category: cat, Err: err}
		}
		return moviesLoadedMsg{Category: cat, Movies: pager.Movies(), HasMore: pager.HasMore()}
	}
}

func (m Model) detailCmd(movieID int) tea.Cmd {
	catalog := m.catalog
	return func() tea.Msg {
		movie, err := catalog.MovieDetails(context.Background(), movieID)
		if err != nil {
			return detailFailedMsg{Err: err}
		}
		return detailLoadedMsg{Movie: movie}
	}
}

// View renders the TUI.
func (m Model) View() tea.View {
	var body string
	switch m.route {
	case routeSplash:
		body = m.viewSplash()
	case routeLogin:
		body = m.viewLogin()
	default:
		if m.detail != nil || m.detailLoading {
			body = m.viewDetail()
		} else {
			body = m.viewBrowse()
		}
	}

	if m.alert.Visible {
		body += m.viewAlert()
	}
	return tea.NewView(body)
}

func (m Model) viewSplash() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  moviedex  "))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" Restoring session...\n")
	return b.String()
}

func (m Model) viewLogin() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  moviedex — Sign In  "))
	b.WriteString("\n\n")

	b.WriteString(styleBold.Render("Email:"))
	b.WriteString("\n")
	b.WriteString(m.emailInput.View())
	b.WriteString("\n\n")

	b.WriteString(styleBold.Render("Password:"))
	b.WriteString("\n")
	b.WriteString(m.passwordInput.View())
	b.WriteString("\n\n")

	if m.session.IsLoading {
		b.WriteString(m.spinner.View())
		b.WriteString(" Signing in...\n")
	} else if m.session.Error != "" {
		b.WriteString(styleErr.Render("  ✗ " + m.session.Error))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("tab: switch field · enter: sign in · ctrl+c: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	// Tab bar
	var tabs []string
	for i, title := range tabTitles {
		if browseTab(i) == m.tab {
			tabs = append(tabs, styleTabActive.Render("["+title+"]"))
		} else {
			tabs = append(tabs, styleDim.Render(" "+title+" "))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	list := m.currentList()
	switch {
	case m.listLoading && len(list) == 0:
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading movies...\n")

	case m.listErr != "":
		b.WriteString(styleErr.Render("  ✗ " + m.listErr))
		b.WriteString("\n")
		b.WriteString(styleDim.Render("  r: retry"))
		b.WriteString("\n")

	case len(list) == 0:
		if m.tab == tabFavorites {
			b.WriteString(styleDim.Render("  No favorites yet. Press f on a movie to add one."))
		} else {
			b.WriteString(styleDim.Render("  Nothing here."))
		}
		b.WriteString("\n")

	default:
		b.WriteString(m.viewList(list))
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render(
		"↑/↓: move · ←/→: tabs · enter: details · f: favorite · r: refresh · L: sign out · q: quit",
	))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewHeader() string {
	title := "  moviedex  "
	if m.session.User != nil && m.session.User.Email != "" {
		title = fmt.Sprintf("  moviedex — %s  ", m.session.User.Email)
	}
	return styleTitleBox.Render(title)
}

func (m Model) viewList(list []movies.Movie) string {
	var b strings.Builder

	// Keep the cursor visible inside a fixed window.
	const window = 15
	start := 0
	if m.cursor >= window {
		start = m.cursor - window + 1
	}
	end := min(start+window, len(list))

	for i := start; i < end; i++ {
		movie := list[i]
		line := fmt.Sprintf("%.1f  %s", movie.VoteAverage, movie.Title)
		if len(movie.ReleaseDate) >= 4 {
			line += styleDim.Render(" (" + movie.ReleaseDate[:4] + ")")
		}
		if m.favs.IsFavorite(movie.ID) {
			line += styleWarn.Render(" ★")
		}

		if i == m.cursor {
			b.WriteString(styleSelected.Render("  ❯ " + line))
		} else {
			b.WriteString("    " + line)
		}
		b.WriteString("\n")
	}

	if m.listLoading {
		b.WriteString(m.spinner.View())
		b.WriteString(styleDim.Render(" loading more..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewDetail() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	if m.detailLoading || m.detail == nil {
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading movie...\n")
		return b.String()
	}

	d := m.detail
	b.WriteString(styleBold.Render(d.Title))
	if d.OriginalTitle != "" && d.OriginalTitle != d.Title {
		b.WriteString(styleDim.Render("  (" + d.OriginalTitle + ")"))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Rating:   %.1f (%d votes)\n", d.VoteAverage, d.VoteCount))
	b.WriteString("Released: " + d.ReleaseDate + "\n")
	if m.favs.IsFavorite(d.ID) {
		b.WriteString(styleWarn.Render("★ In favorites"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if d.Overview != "" {
		b.WriteString(wrapText(d.Overview, max(m.width-4, 40)))
		b.WriteString("\n")
	}
	if d.PosterPath != "" {
		b.WriteString("\n")
		b.WriteString(styleDim.Render("Poster: " + movies.ImageURL(d.PosterPath, movies.ImagePoster, movies.SizeLarge)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("esc: back · f: favorite"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewAlert() string {
	color, ok := alertBorderColors[m.alert.Type]
	if !ok {
		color = alertBorderColors[alerts.Info]
	}

	var b strings.Builder
	b.WriteString(styleBold.Render(m.alert.Title))
	if m.alert.Message != "" {
		b.WriteString("\n")
		b.WriteString(m.alert.Message)
	}
	b.WriteString("\n")
	b.WriteString(styleDim.Render("enter: dismiss"))

	return "\n" + styleAlertBox.BorderForeground(color).Render(b.String()) + "\n"
}

// wrapText breaks s into lines at most width characters wide, on spaces.
func wrapText(s string, width int) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > width {
				b.WriteString("\n")
				lineLen = 0
			} else {
				b.WriteString(" ")
				lineLen++
			}
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}
