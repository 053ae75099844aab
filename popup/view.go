package popup

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-tabnews/credentials"
	"github.com/jrsteele09/go-tabnews/internal/utils"
)

func (m *Model) View() string {
	var b strings.Builder

	if m.toast != nil {
		b.WriteString(toastStyles[m.toast.kind].Render(m.toast.text))
		b.WriteString("\n\n")
	}

	// The logged-out panel stands until the stored session has been checked.
	panel := m.loggedOutPanel()
	if m.session.LoggedIn {
		panel = m.loggedInPanel()
	}
	b.WriteString(panelStyle.Render(titleStyle.Render("TabNews") + "\n\n" + panel))
	b.WriteString("\n")
	if m.signingIn && m.authURL != "" {
		b.WriteString(helpStyle.Render("If no browser opened, visit:") + "\n")
		b.WriteString(m.authURL)
		b.WriteString("\n\n")
	}
	b.WriteString(m.help())
	b.WriteString("\n")
	return b.String()
}

func (m *Model) loggedOutPanel() string {
	if m.signingIn {
		return textStyle.Render("Waiting for you to finish signing in…")
	}
	return textStyle.Render("Turn your open tabs into a newsletter.") + "\n\n" +
		keyStyle.Render("[l]") + textStyle.Render(" Sign in with Google")
}

func (m *Model) loggedInPanel() string {
	greeting := textStyle.Render("Hi, " + displayName(m.session) + "!")
	switch m.state {
	case stateLoading:
		return greeting + "\n\n" + textStyle.Render("Generating your newsletter…")
	case stateSuccess:
		return greeting + "\n\n" +
			successTextStyle.Render("Your newsletter is on its way!") + "\n" +
			textStyle.Render(fmt.Sprintf("%d tabs sent. Check your inbox.", m.sentTabs))
	}
	return greeting + "\n\n" + keyStyle.Render("[g]") + textStyle.Render(" Generate newsletter")
}

func (m *Model) help() string {
	if m.session.LoggedIn {
		return helpStyle.Render("g generate • s sign out • q quit")
	}
	return helpStyle.Render("l sign in • q quit")
}

func displayName(session credentials.Session) string {
	profile := utils.Value(session.Profile)
	for _, name := range []string{profile.GivenName, profile.Name, profile.Email} {
		if name != "" {
			return name
		}
	}
	return "there"
}
