// Package popup is the terminal front end: a sign-in panel when logged
// out, and a generate/loading/success panel when logged in.
package popup

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jrsteele09/go-tabnews/credentials"
	"github.com/jrsteele09/go-tabnews/gateway"
	"github.com/jrsteele09/go-tabnews/tabs"
	"github.com/rs/zerolog/log"
)

// ToastDuration is how long a status message stays visible.
const ToastDuration = 4 * time.Second

const (
	msgRetryLogin     = "Please retry logging in!"
	msgGenerateFailed = "Failed to generate newsletter. Please try again."
	msgGenerateError  = "Error generating newsletter. Please try again."
	msgSignInFailed   = "Sign-in failed. Please try again."
)

// Authenticator is the identity client as seen by the popup.
type Authenticator interface {
	CheckLogin(ctx context.Context) (credentials.Session, error)
	SignIn(ctx context.Context) (credentials.Session, error)
	SignOut(ctx context.Context)
	CurrentToken(ctx context.Context) (string, bool)
}

type TabLister interface {
	ListCurrentWindowTabs(ctx context.Context) ([]tabs.TabRecord, error)
}

type Submitter interface {
	Submit(ctx context.Context, records []tabs.TabRecord, token string) gateway.Result
}

// panelState is the logged-in panel's state.
type panelState int

const (
	stateGenerate panelState = iota
	stateLoading
	stateSuccess
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

// startupMsg carries the CheckLogin outcome.
type startupMsg struct {
	session credentials.Session
	err     error
}

// signInMsg carries the SignIn outcome.
type signInMsg struct {
	session credentials.Session
	err     error
}

type signedOutMsg struct{}

// generateMsg carries the outcome of collecting and submitting tabs.
type generateMsg struct {
	result  gateway.Result
	tabs    int
	noToken bool
	err     error
}

type toastExpiredMsg struct {
	id int
}

// AuthURLMsg carries the sign-in URL so it stays reachable when no browser
// could be opened.
type AuthURLMsg struct {
	URL string
}

// Model is the popup's bubbletea model.
type Model struct {
	ctx       context.Context
	auth      Authenticator
	lister    TabLister
	submitter Submitter

	session   credentials.Session
	checked   bool
	signingIn bool
	authURL   string
	state     panelState
	sentTabs  int

	toast         *toast
	toastSeq      int
	toastDuration time.Duration
}

// ModelOption defines a function type to modify the Model instance.
type ModelOption func(*Model)

// WithToastDuration overrides ToastDuration (primarily for testing)
func WithToastDuration(d time.Duration) ModelOption {
	return func(m *Model) {
		m.toastDuration = d
	}
}

func New(ctx context.Context, auth Authenticator, lister TabLister, submitter Submitter, options ...ModelOption) *Model {
	m := &Model{
		ctx:           ctx,
		auth:          auth,
		lister:        lister,
		submitter:     submitter,
		session:       credentials.LoggedOut(),
		toastDuration: ToastDuration,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// NewProgram builds the full-screen program for m. It stops when the user
// quits or ctx is cancelled.
func NewProgram(ctx context.Context, m *Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
}

func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		session, err := m.auth.CheckLogin(m.ctx)
		return startupMsg{session: session, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case startupMsg:
		m.checked = true
		m.setSession(msg.session)
		if msg.err != nil {
			log.Err(msg.err).Msg("Checking stored session failed")
			return m, m.showToast(toastError, "Could not read your saved login.")
		}
		return m, nil

	case AuthURLMsg:
		if m.signingIn {
			m.authURL = msg.URL
		}
		return m, nil

	case signInMsg:
		m.signingIn = false
		m.authURL = ""
		if msg.err != nil {
			m.setSession(credentials.LoggedOut())
			return m, m.showToast(toastError, msgSignInFailed)
		}
		m.setSession(msg.session)
		return m, m.showToast(toastSuccess, "Signed in as "+displayName(msg.session))

	case signedOutMsg:
		return m, m.showToast(toastInfo, "Signed out.")

	case generateMsg:
		return m.handleGenerated(msg)

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "l":
		if !m.checked || m.session.LoggedIn || m.signingIn {
			return m, nil
		}
		m.signingIn = true
		return m, tea.Batch(
			m.showToast(toastInfo, "Complete sign-in in your browser."),
			func() tea.Msg {
				session, err := m.auth.SignIn(m.ctx)
				return signInMsg{session: session, err: err}
			},
		)

	case "g":
		if !m.session.LoggedIn || m.state == stateLoading {
			return m, nil
		}
		m.state = stateLoading
		return m, m.generate

	case "s":
		if !m.session.LoggedIn {
			return m, nil
		}
		m.setSession(credentials.LoggedOut())
		return m, func() tea.Msg {
			m.auth.SignOut(m.ctx)
			return signedOutMsg{}
		}
	}
	return m, nil
}

// generate collects tabs, then reads the token, then submits.
func (m *Model) generate() tea.Msg {
	records, err := m.lister.ListCurrentWindowTabs(m.ctx)
	if err != nil {
		return generateMsg{err: err}
	}
	token, ok := m.auth.CurrentToken(m.ctx)
	if !ok {
		return generateMsg{noToken: true}
	}
	return generateMsg{result: m.submitter.Submit(m.ctx, records, token), tabs: len(records)}
}

func (m *Model) handleGenerated(msg generateMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.noToken:
		log.Error().Msg("Not logged in or no ID token found")
		m.state = stateGenerate
		return m, m.showToast(toastError, msgRetryLogin)
	case msg.err != nil:
		log.Err(msg.err).Msg("Error generating newsletter")
		m.state = stateGenerate
		return m, m.showToast(toastError, msgGenerateError)
	case !msg.result.Succeeded():
		log.Warn().Str("reason", msg.result.Message()).Msg("Newsletter request rejected")
		m.state = stateGenerate
		return m, m.showToast(toastError, msgGenerateFailed)
	}
	m.sentTabs = msg.tabs
	m.state = stateSuccess
	return m, nil
}

// setSession switches panels; the logged-in panel always starts in the
// generate state.
func (m *Model) setSession(session credentials.Session) {
	m.session = session
	m.state = stateGenerate
}

// showToast replaces any visible toast and schedules its removal.
func (m *Model) showToast(kind toastKind, text string) tea.Cmd {
	m.toastSeq++
	m.toast = &toast{id: m.toastSeq, kind: kind, text: text}
	id := m.toastSeq
	return tea.Tick(m.toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}
