package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	tea "charm.land/bubbletea/v2"

	"github.com/moviedex/movies-cli/alerts"
	"github.com/moviedex/movies-cli/auth"
	"github.com/moviedex/movies-cli/favorites"
	"github.com/moviedex/movies-cli/movies"
	"github.com/moviedex/movies-cli/tui"
)

var (
	authURL           string
	catalogURL        string
	apiKey            string
	tokenFile         string
	favoritesFile     string
	logFile           string
	flagAuthURL       *string
	flagCatalogURL    *string
	flagAPIKey        *string
	flagTokenFile     *string
	flagFavoritesFile *string
	flagLogFile       *string
	configInitialized bool
	retryClient       *retry.Client
)

func init() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Define flags (but don't parse yet to avoid conflicts with test flags)
	flagAuthURL = flag.String(
		"auth-url",
		"",
		"Auth server URL (default: http://localhost:8000/api or AUTH_URL env)",
	)
	flagCatalogURL = flag.String(
		"catalog-url",
		"",
		"Movie catalog API URL (default: https://api.themoviedb.org/3 or CATALOG_URL env)",
	)
	flagAPIKey = flag.String("api-key", "", "Catalog API key (required, or set API_KEY env)")
	flagTokenFile = flag.String(
		"token-file",
		"",
		"Token storage file (default: .moviedex-tokens.json or TOKEN_FILE env)",
	)
	flagFavoritesFile = flag.String(
		"favorites-file",
		"",
		"Favorites storage file (default: .moviedex-favorites.json or FAVORITES_FILE env)",
	)
	flagLogFile = flag.String("log-file", "", "Debug log file (default: none, or LOG_FILE env)")
}

// initConfig parses flags and initializes configuration
// Separated from init() to avoid conflicts with test flag parsing
func initConfig() {
	if configInitialized {
		return
	}
	configInitialized = true

	flag.Parse()

	// Priority: flag > env > default
	authURL = getConfig(*flagAuthURL, "AUTH_URL", "http://localhost:8000/api")
	catalogURL = getConfig(*flagCatalogURL, "CATALOG_URL", "https://api.themoviedb.org/3")
	apiKey = getConfig(*flagAPIKey, "API_KEY", "")
	tokenFile = getConfig(*flagTokenFile, "TOKEN_FILE", ".moviedex-tokens.json")
	favoritesFile = getConfig(*flagFavoritesFile, "FAVORITES_FILE", ".moviedex-favorites.json")
	logFile = getConfig(*flagLogFile, "LOG_FILE", "")

	if err := validateServerURL(authURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid AUTH_URL: %v\n", err)
		os.Exit(1)
	}
	if err := validateServerURL(catalogURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid CATALOG_URL: %v\n", err)
		os.Exit(1)
	}

	// Warn if using HTTP instead of HTTPS
	if strings.HasPrefix(strings.ToLower(authURL), "http://") {
		fmt.Fprintln(
			os.Stderr,
			"⚠️  WARNING: Using HTTP instead of HTTPS. Tokens will be transmitted in plaintext!",
		)
		fmt.Fprintln(
			os.Stderr,
			"⚠️  This is only safe for local development. Use HTTPS in production.",
		)
		fmt.Fprintln(os.Stderr)
	}

	if apiKey == "" {
		fmt.Println("Error: API_KEY not set. Please provide it via:")
		fmt.Println("  1. Command line flag: -api-key=<your-api-key>")
		fmt.Println("  2. Environment variable: API_KEY=<your-api-key>")
		fmt.Println("  3. .env file: API_KEY=<your-api-key>")
		fmt.Println("\nYou can create an API key in your catalog provider's account settings.")
		os.Exit(1)
	}

	// Initialize HTTP client with retry support
	baseHTTPClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	var err error
	retryClient, err = retry.NewBackgroundClient(
		retry.WithHTTPClient(baseHTTPClient),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create retry client: %v", err))
	}
}

// getConfig returns value with priority: flag > env > default
func getConfig(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validateServerURL validates that the server URL is properly formatted
func validateServerURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("server URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// newLogger builds the debug logger. With LOG_FILE set, logs go to the file;
// otherwise interactive runs discard them (the TUI owns the terminal) and
// plain runs print them to stderr.
func newLogger(interactive bool) zerolog.Logger {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file: %v\n", err)
			return zerolog.Nop()
		}
		return zerolog.New(f).With().Timestamp().Logger()
	}
	if interactive {
		return zerolog.Nop()
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(w).With().Timestamp().Logger().Level(zerolog.WarnLevel)
}

// app bundles the wired components shared by both run modes.
type app struct {
	ctrl     *auth.Controller
	catalog  *movies.Client
	favs     *favorites.Store
	alertSvc *alerts.Service
}

func newApp(log zerolog.Logger) *app {
	store := auth.NewFileTokenStore(tokenFile, log)
	refresher := auth.NewRefresher(authURL, retryClient)
	client := auth.NewClient(authURL, retryClient, store, refresher, log)
	service := auth.NewService(authURL, retryClient, refresher, client, log)

	return &app{
		ctrl:     auth.NewController(service, store, log),
		catalog:  movies.NewClient(catalogURL, apiKey, retryClient, log),
		favs:     favorites.NewStore(favoritesFile, log),
		alertSvc: alerts.NewService(),
	}
}

// isTTY reports whether stderr is a character device (interactive terminal).
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func main() {
	initConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := isTTY()
	log := newLogger(interactive)

	a := newApp(log)
	if err := a.favs.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("favorites load failed")
	}

	if interactive {
		if err := runTUI(ctx, a); err != nil {
			os.Exit(1)
		}
	} else {
		if err := runPlain(ctx, a, os.Stdout); err != nil {
			os.Exit(1)
		}
	}
}

// runTUI runs the interactive browser. The session restore happens in the
// background; the splash screen holds until it resolves.
func runTUI(ctx context.Context, a *app) error {
	m := tui.NewModel(a.ctrl, a.catalog, a.favs, a.alertSvc)
	// Render on stderr so stdout pipes are not corrupted.
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	var wg sync.WaitGroup
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := p.Run(); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			runErr = err
		}
	}()

	unbind := tui.Bind(p, a.ctrl, a.alertSvc)
	defer unbind()

	go a.ctrl.Restore(ctx)

	wg.Wait()
	return runErr
}

// runPlain handles non-interactive runs: restore the session, report its
// outcome, and print the first page of popular movies plus any favorites.
func runPlain(ctx context.Context, a *app, out io.Writer) error {
	d := tui.NewPlainStatus(out)
	d.Banner()

	cancel := a.ctrl.Subscribe(func(s auth.Session) {
		if !s.IsLoading {
			d.SessionChange(s)
		}
	})
	defer cancel()

	a.ctrl.Restore(ctx)

	session := a.ctrl.Snapshot()
	if session.IsAuthenticated && session.Tokens != nil {
		d.TokenInfo(session.Tokens.Access)
	}

	page, err := a.catalog.Movies(ctx, movies.CategoryPopular, 1)
	if err != nil {
		d.Fatal(err)
		return err
	}
	d.MovieList("Popular", page.Results)

	if favs := a.favs.Favorites(); len(favs) > 0 {
		d.MovieList("Favorites", favs)
	}

	return nil
}
