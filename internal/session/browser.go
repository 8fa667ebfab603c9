package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/model"
	"github.com/blotterscan/blotterscan/internal/scrape"
)

// BrowserFactory creates sessions backed by pages of a single headless
// browser process.
//
// Design decision: All sessions share one browser process, each owning its
// own page (tab). Pages have isolated DOM and navigation state, which is the
// isolation searches need, while a browser process per session would triple
// memory for no gain. Cookies are per-browser, so each page piggybacks on
// the shared login cookie jar; the portal treats that the same as one
// logged-in user with several tabs open, which is exactly what we are.
type BrowserFactory struct {
	browser  *rod.Browser
	launcher *launcher.Launcher

	creds    Credentials
	profile  *config.Profile
	timeout  time.Duration
	backDays int
	logger   *slog.Logger
}

// FactoryOption configures a BrowserFactory.
type FactoryOption func(*BrowserFactory)

// WithFactoryLogger sets the logger for the factory and its sessions.
func WithFactoryLogger(logger *slog.Logger) FactoryOption {
	return func(f *BrowserFactory) {
		f.logger = logger
	}
}

// WithPageTimeout sets the bounded wait for page readiness.
func WithPageTimeout(d time.Duration) FactoryOption {
	return func(f *BrowserFactory) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithSearchBackDays sets how far back the search window reaches.
func WithSearchBackDays(days int) FactoryOption {
	return func(f *BrowserFactory) {
		if days >= 0 {
			f.backDays = days
		}
	}
}

// NewBrowserFactory launches a headless browser and returns a Factory that
// creates one page per session. The caller must Close the factory to stop
// the browser process.
func NewBrowserFactory(creds Credentials, profile *config.Profile, headless bool, opts ...FactoryOption) (*BrowserFactory, error) {
	f := &BrowserFactory{
		creds:    creds,
		profile:  profile,
		timeout:  config.DefaultPageTimeout,
		backDays: config.DefaultSearchBackDays,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	f.launcher = launcher.New().
		Headless(headless).
		Leakless(true)

	controlURL, err := f.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	f.browser = rod.New().ControlURL(controlURL)
	if err := f.browser.Connect(); err != nil {
		f.launcher.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.logger.Debug("browser launched", "headless", headless)
	return f, nil
}

// New creates a session backed by a fresh browser page.
func (f *BrowserFactory) New(ctx context.Context) (Session, error) {
	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open browser page: %w", err)
	}
	if ctx != nil {
		page = page.Context(ctx)
	}

	return &browserSession{
		page:     page,
		creds:    f.creds,
		profile:  f.profile,
		timeout:  f.timeout,
		backDays: f.backDays,
		logger:   f.logger,
	}, nil
}

// Close stops the browser process.
func (f *BrowserFactory) Close() error {
	err := f.browser.Close()
	f.launcher.Cleanup()
	return err
}

// browserSession drives one browser page through the portal's login and
// search flow.
type browserSession struct {
	page     *rod.Page
	creds    Credentials
	profile  *config.Profile
	timeout  time.Duration
	backDays int
	logger   *slog.Logger

	loggedIn bool
	closed   bool
}

// Login navigates to the portal and submits the login form. Success is
// marked by the search form appearing.
func (s *browserSession) Login(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}

	page := s.boundPage(ctx)

	if err := page.Navigate(s.profile.PortalURL); err != nil {
		return fmt.Errorf("failed to reach portal: %w", err)
	}

	userField, err := page.Element(s.profile.Login.UsernameField)
	if err != nil {
		return fmt.Errorf("login form did not appear: %w", err)
	}
	if err := userField.Input(s.creds.Username); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}

	passField, err := page.Element(s.profile.Login.PasswordField)
	if err != nil {
		return fmt.Errorf("login form missing password field: %w", err)
	}
	if err := passField.Input(s.creds.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := passField.Type(input.Enter); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	// The search form appearing is the only reliable login signal; the
	// portal serves the same URL before and after authentication.
	if _, err := page.Element(s.profile.Search.FirstNameField); err != nil {
		return fmt.Errorf("%w: search form did not appear: %v", ErrLoginFailed, err)
	}

	s.loggedIn = true
	s.logger.Debug("portal login succeeded", "username", s.creds.Username)
	return nil
}

// Search fills the search form for the query, submits it, waits for the
// results container, and returns the page HTML.
func (s *browserSession) Search(ctx context.Context, query model.SearchQuery) (string, error) {
	if s.closed {
		return "", ErrSessionClosed
	}
	if !s.loggedIn {
		if err := s.Login(ctx); err != nil {
			return "", err
		}
	}

	page := s.boundPage(ctx)

	if err := s.fillField(page, s.profile.Search.FirstNameField, query.FirstName); err != nil {
		return "", err
	}
	if err := s.fillField(page, s.profile.Search.LastNameField, query.LastName); err != nil {
		return "", err
	}
	if err := s.setStartDate(page); err != nil {
		return "", err
	}

	submit, err := page.Element(s.profile.Search.SubmitButton)
	if err != nil {
		return "", fmt.Errorf("search button not found: %w", err)
	}
	// Click via script: the button sits under a sticky header that
	// intercepts synthetic pointer events at some window sizes.
	if _, err := submit.Eval(`() => this.click()`); err != nil {
		return "", fmt.Errorf("failed to submit search: %w", err)
	}

	if s.profile.Results.Container != "" {
		if _, err := page.Element(s.profile.Results.Container); err != nil {
			// The container never rendered. Grab whatever the page holds
			// to distinguish an expired session from a timeout.
			if html, herr := page.HTML(); herr == nil && scrape.HasElement(html, s.profile.Login.UsernameField) {
				s.loggedIn = false
				return "", ErrAuthExpired
			}
			return "", fmt.Errorf("results did not render: %w", err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read results page: %w", err)
	}

	if scrape.HasElement(html, s.profile.Login.UsernameField) {
		s.loggedIn = false
		return "", ErrAuthExpired
	}

	return html, nil
}

// Close releases the session's page.
func (s *browserSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.page.Close()
}

// boundPage returns the page bound to ctx and the readiness timeout.
func (s *browserSession) boundPage(ctx context.Context) *rod.Page {
	page := s.page
	if ctx != nil {
		page = page.Context(ctx)
	}
	return page.Timeout(s.timeout)
}

// fillField clears the input matched by selector and types the value.
func (s *browserSession) fillField(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("search field %q not found: %w", selector, err)
	}
	// Clear via script: Input appends to existing content, and the form
	// keeps the previous search's names between submissions.
	if _, err := el.Eval(`() => { this.value = "" }`); err != nil {
		return fmt.Errorf("failed to clear field %q: %w", selector, err)
	}
	if value == "" {
		return nil
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to fill field %q: %w", selector, err)
	}
	return nil
}

// setStartDate sets the search-window start date via script. The portal's
// date picker swallows keyboard input, so the value is assigned directly and
// a change event dispatched for the form's listeners.
func (s *browserSession) setStartDate(page *rod.Page) error {
	if s.profile.Search.StartDateField == "" || s.backDays <= 0 {
		return nil
	}

	el, err := page.Element(s.profile.Search.StartDateField)
	if err != nil {
		return fmt.Errorf("start date field not found: %w", err)
	}

	start := searchStartDate(time.Now(), s.backDays)
	script := `(v) => { this.value = v; this.dispatchEvent(new Event("change")) }`
	if _, err := el.Eval(script, start); err != nil {
		return fmt.Errorf("failed to set start date: %w", err)
	}

	s.logger.Debug("search window set", "startDate", start)
	return nil
}

// searchStartDate formats the search-window start date, now minus backDays.
func searchStartDate(now time.Time, backDays int) string {
	return now.AddDate(0, 0, -backDays).Format(model.DateFormat)
}
