package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/models"
)

func newLoginForm(username string) form {
	f := newForm("Sign in",
		textField("username", "Username", "", username),
		passwordField("password", "Password"),
	)
	if username != "" {
		f.setFocus(1)
	}
	return f
}

func newRegisterForm() form {
	return newForm("Create an account",
		textField("username", "Username", "", ""),
		textField("email", "Email", "you@example.com", ""),
		textField("first_name", "First name", "", ""),
		textField("last_name", "Last name", "", ""),
		passwordField("password", "Password"),
	)
}

func loginMessage(err error) string {
	return gateway.Message(err, "Login failed")
}

func registerMessage(err error) string {
	return gateway.Message(err, "Registration failed")
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == registerView {
			m.mode = loginView
			m.auth = newLoginForm("")
			return m, nil
		}
		return m, tea.Quit
	case "ctrl+r":
		if m.mode == loginView && !m.auth.submitting {
			m.mode = registerView
			m.auth = newRegisterForm()
			m.notice = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	var submit bool
	m.auth, cmd, submit = m.auth.update(msg)
	if !submit {
		return m, cmd
	}

	m.auth.clearErrors()
	if m.mode == loginView {
		creds := models.Credentials{
			Username: m.auth.value("username"),
			Password: m.auth.raw("password"),
		}
		if err := creds.Validate(); err != nil {
			m.auth.setError(err, loginMessage)
			return m, nil
		}
		m.auth.submitting = true
		return m, login(m.ctx, m.backend, creds)
	}

	reg := models.Registration{
		Username:  m.auth.value("username"),
		Email:     m.auth.value("email"),
		FirstName: m.auth.value("first_name"),
		LastName:  m.auth.value("last_name"),
		Password:  m.auth.raw("password"),
	}
	if err := reg.Validate(); err != nil {
		m.auth.setError(err, registerMessage)
		return m, nil
	}
	m.auth.submitting = true
	return m, register(m.ctx, m.backend, reg)
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if m.mode != loginView {
		return m, nil
	}
	if msg.err != nil {
		m.auth.setError(msg.err, loginMessage)
		return m, nil
	}
	m.auth.submitting = false
	if err := m.session.Login(msg.token); err != nil {
		m.auth.err = err.Error()
		return m, nil
	}
	return m, hydrate(m.ctx, m.session)
}

func (m Model) handleRegisterResult(msg registerResultMsg) (tea.Model, tea.Cmd) {
	if m.mode != registerView {
		return m, nil
	}
	if msg.err != nil {
		m.auth.setError(msg.err, registerMessage)
		return m, nil
	}
	m.mode = loginView
	m.auth = newLoginForm(msg.user.Username)
	m.notice = "Registration successful! Please log in."
	return m, nil
}

func (m Model) viewAuth() string {
	out := "\n" + titleStyle.Render("leadrider") + subtitleStyle.Render("  real-estate leads") + "\n\n"
	out += m.auth.view()
	if m.notice != "" {
		out += noticeStyle.Render(m.notice) + "\n"
	}
	if m.mode == loginView {
		out += "\n" + helpStyle.Render("enter: sign in | ctrl+r: create account | esc: quit")
	} else {
		out += "\n" + helpStyle.Render("ctrl+s: register | esc: back to sign in")
	}
	return out
}
