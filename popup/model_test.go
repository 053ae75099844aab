package popup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jrsteele09/go-tabnews/credentials"
	"github.com/jrsteele09/go-tabnews/gateway"
	"github.com/jrsteele09/go-tabnews/tabs"
	"github.com/stretchr/testify/require"
)

var testProfile = credentials.Profile{Email: "a@b.com", Name: "Ada Byron", GivenName: "Ada"}

type fakeAuth struct {
	stored    credentials.Session
	checkErr  error
	signInErr error
	signIns   int
	signOuts  int
}

func (a *fakeAuth) CheckLogin(context.Context) (credentials.Session, error) {
	if a.checkErr != nil {
		return credentials.LoggedOut(), a.checkErr
	}
	return a.stored, nil
}

func (a *fakeAuth) SignIn(context.Context) (credentials.Session, error) {
	a.signIns++
	if a.signInErr != nil {
		a.stored = credentials.LoggedOut()
		return credentials.LoggedOut(), a.signInErr
	}
	a.stored = credentials.LoggedIn("tok", testProfile)
	return a.stored, nil
}

func (a *fakeAuth) SignOut(context.Context) {
	a.signOuts++
	a.stored = credentials.LoggedOut()
}

func (a *fakeAuth) CurrentToken(context.Context) (string, bool) {
	return a.stored.Token()
}

type fakeLister struct {
	records []tabs.TabRecord
	err     error
}

func (l *fakeLister) ListCurrentWindowTabs(context.Context) ([]tabs.TabRecord, error) {
	return l.records, l.err
}

type fakeSubmitter struct {
	result    gateway.Result
	gotToken  string
	gotTabs   []tabs.TabRecord
	submitted int
}

func (s *fakeSubmitter) Submit(_ context.Context, records []tabs.TabRecord, token string) gateway.Result {
	s.submitted++
	s.gotTabs = records
	s.gotToken = token
	return s.result
}

type testFixture struct {
	auth      *fakeAuth
	lister    *fakeLister
	submitter *fakeSubmitter
	model     *Model
}

func setupTestFixture(t *testing.T, stored credentials.Session) *testFixture {
	t.Helper()
	f := &testFixture{
		auth:   &fakeAuth{stored: stored},
		lister: &fakeLister{records: []tabs.TabRecord{{Title: "Go", URL: "https://go.dev"}}},
		submitter: &fakeSubmitter{result: gateway.Result{
			StatusCode: 200,
			Body:       map[string]any{"success": true},
		}},
	}
	f.model = New(context.Background(), f.auth, f.lister, f.submitter)
	f.send(t, f.model.Init()())
	return f
}

// send delivers msg and runs the returned command chain, skipping toast
// timers.
func (f *testFixture) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	_, cmd := f.model.Update(msg)
	f.run(t, cmd)
}

func (f *testFixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg, ok := resolve(cmd)
	if !ok {
		return
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			f.run(t, c)
		}
	case toastExpiredMsg, nil:
	default:
		f.send(t, msg)
	}
}

func (f *testFixture) press(t *testing.T, key string) {
	t.Helper()
	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

// resolve runs cmd once. Toast timers do not fire within the wait and
// are reported as not ok.
func resolve(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func (f *testFixture) requireToast(t *testing.T, kind toastKind, text string) {
	t.Helper()
	require.NotNil(t, f.model.toast)
	require.Equal(t, kind, f.model.toast.kind)
	require.Equal(t, text, f.model.toast.text)
	require.Contains(t, f.model.View(), text)
}

func TestModel_Startup(t *testing.T) {
	t.Run("before the check completes", func(t *testing.T) {
		auth := &fakeAuth{stored: credentials.LoggedIn("tok", testProfile)}
		model := New(context.Background(), auth, &fakeLister{}, &fakeSubmitter{})

		view := model.View()
		require.Contains(t, view, "Sign in with Google")
		require.NotContains(t, view, "Generate newsletter")

		_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
		require.Nil(t, cmd)
		require.False(t, model.signingIn)

		model.Update(model.Init()())
		require.Contains(t, model.View(), "Generate newsletter")
		require.NotContains(t, model.View(), "Sign in with Google")
	})

	t.Run("logged out", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedOut())
		require.False(t, f.model.session.LoggedIn)
		require.Contains(t, f.model.View(), "Sign in with Google")
		require.NotContains(t, f.model.View(), "Generate newsletter")
	})

	t.Run("logged in", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
		require.True(t, f.model.session.LoggedIn)
		view := f.model.View()
		require.Contains(t, view, "Hi, Ada!")
		require.Contains(t, view, "Generate newsletter")
		require.NotContains(t, view, "Sign in with Google")
	})

	t.Run("store error", func(t *testing.T) {
		auth := &fakeAuth{checkErr: errors.New("permission denied")}
		model := New(context.Background(), auth, &fakeLister{}, &fakeSubmitter{})
		model.Update(model.Init()())
		require.False(t, model.session.LoggedIn)
		require.NotNil(t, model.toast)
		require.Equal(t, toastError, model.toast.kind)
	})
}

func TestModel_SignIn(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedOut())
		f.press(t, "l")

		require.Equal(t, 1, f.auth.signIns)
		require.True(t, f.model.session.LoggedIn)
		require.Equal(t, stateGenerate, f.model.state)
		f.requireToast(t, toastSuccess, "Signed in as Ada")
	})

	t.Run("failure shows logged out panel", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedOut())
		f.auth.signInErr = errors.New("nonce mismatch")
		f.press(t, "l")

		require.False(t, f.model.session.LoggedIn)
		require.False(t, f.model.signingIn)
		require.Contains(t, f.model.View(), "Sign in with Google")
		f.requireToast(t, toastError, msgSignInFailed)
	})

	t.Run("ignored while signing in", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedOut())
		_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
		require.NotNil(t, cmd)
		require.True(t, f.model.signingIn)
		require.Contains(t, f.model.View(), "Waiting for you to finish signing in")

		_, again := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
		require.Nil(t, again)
	})

	t.Run("shows the sign-in url", func(t *testing.T) {
		const authURL = "https://accounts.example.com/auth?client_id=X"
		f := setupTestFixture(t, credentials.LoggedOut())
		_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
		require.NotNil(t, cmd)

		f.model.Update(AuthURLMsg{URL: authURL})
		view := f.model.View()
		require.Contains(t, view, "If no browser opened, visit:")
		require.Contains(t, view, authURL)

		f.model.Update(signInMsg{session: credentials.LoggedIn("tok", testProfile)})
		require.NotContains(t, f.model.View(), authURL)
	})

	t.Run("sign-in url ignored when idle", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedOut())
		f.model.Update(AuthURLMsg{URL: "https://accounts.example.com/auth"})
		require.NotContains(t, f.model.View(), "accounts.example.com")
	})
}

func TestModel_Generate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
		f.press(t, "g")

		require.Equal(t, 1, f.submitter.submitted)
		require.Equal(t, "tok", f.submitter.gotToken)
		require.Equal(t, f.lister.records, f.submitter.gotTabs)
		require.Equal(t, stateSuccess, f.model.state)
		require.Contains(t, f.model.View(), "Your newsletter is on its way!")
	})

	t.Run("loading state", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
		_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
		require.NotNil(t, cmd)
		require.Equal(t, stateLoading, f.model.state)
		require.Contains(t, f.model.View(), "Generating your newsletter")

		_, again := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
		require.Nil(t, again)
	})

	t.Run("missing token", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
		f.auth.stored = credentials.LoggedOut()
		f.press(t, "g")

		require.Zero(t, f.submitter.submitted)
		require.Equal(t, stateGenerate, f.model.state)
		f.requireToast(t, toastError, msgRetryLogin)
	})

	t.Run("backend failure", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
		f.submitter.result = gateway.Result{Body: map[string]any{"success": false, "error": "network failure"}}
		f.press(t, "g")

		require.Equal(t, stateGenerate, f.model.state)
		f.requireToast(t, toastError, msgGenerateFailed)
	})

	t.Run("tab collection failure", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
		f.lister.err = errors.New("browser not reachable")
		f.press(t, "g")

		require.Zero(t, f.submitter.submitted)
		require.Equal(t, stateGenerate, f.model.state)
		f.requireToast(t, toastError, msgGenerateError)
	})

	t.Run("ignored when logged out", func(t *testing.T) {
		f := setupTestFixture(t, credentials.LoggedOut())
		f.press(t, "g")
		require.Zero(t, f.submitter.submitted)
	})
}

func TestModel_SignOut(t *testing.T) {
	f := setupTestFixture(t, credentials.LoggedIn("tok", testProfile))
	f.press(t, "s")

	require.Equal(t, 1, f.auth.signOuts)
	require.False(t, f.model.session.LoggedIn)
	view := f.model.View()
	require.Contains(t, view, "Sign in with Google")
	require.NotContains(t, view, "Generate newsletter")

	f.press(t, "s")
	require.Equal(t, 1, f.auth.signOuts)
}

func TestModel_Toasts(t *testing.T) {
	f := setupTestFixture(t, credentials.LoggedOut())
	first := f.model.showToast(toastInfo, "first")
	firstID := f.model.toast.id
	f.model.showToast(toastError, "second")

	// The first toast's timer must not clear its replacement.
	f.model.Update(toastExpiredMsg{id: firstID})
	require.NotNil(t, f.model.toast)
	require.Equal(t, "second", f.model.toast.text)

	f.model.Update(toastExpiredMsg{id: f.model.toast.id})
	require.Nil(t, f.model.toast)
	require.NotNil(t, first)
}

func TestModel_ToastExpires(t *testing.T) {
	model := New(context.Background(), &fakeAuth{}, &fakeLister{}, &fakeSubmitter{}, WithToastDuration(time.Millisecond))
	cmd := model.showToast(toastInfo, "hello")

	model.Update(cmd())
	require.Nil(t, model.toast)
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		f := setupTestFixture(t, credentials.LoggedOut())
		_, cmd := f.model.Update(key)
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		require.True(t, ok)
	}
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Ada", displayName(credentials.LoggedIn("tok", testProfile)))
	require.Equal(t, "a@b.com", displayName(credentials.LoggedIn("tok", credentials.Profile{Email: "a@b.com"})))
	require.Equal(t, "there", displayName(credentials.LoggedOut()))
	require.False(t, strings.Contains(displayName(credentials.LoggedOut()), "@"))
}
