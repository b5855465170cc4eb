package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medogram/medchat/internal/auth"
	"github.com/medogram/medchat/internal/tui"
)

const (
	fieldName = iota
	fieldEmail
)

// ProfileModel is the view model for the profile edit screen.
type ProfileModel struct {
	phone   string
	name    textinput.Model
	email   textinput.Model
	focused int
	busy    bool
	status  string
	saved   bool
	spinner spinner.Model
	width   int
}

// NewProfileModel creates a profile view seeded from the current session user.
func NewProfileModel(user *auth.User, width int) ProfileModel {
	name := textinput.New()
	name.Placeholder = "Full name"
	name.CharLimit = 100
	name.Focus()

	email := textinput.New()
	email.Placeholder = "Email address"
	email.CharLimit = 254

	var phone string
	if user != nil {
		phone = user.PhoneNumber
		name.SetValue(user.Name)
		email.SetValue(user.Email)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9"))

	return ProfileModel{
		phone:   phone,
		name:    name,
		email:   email,
		spinner: sp,
		width:   width,
	}
}

// Init returns the initial command for the profile view.
func (m ProfileModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the profile view.
func (m ProfileModel) Update(msg tea.Msg) (ProfileModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case tui.KeyEsc:
			return m, func() tea.Msg { return tui.ExitProfileMsg{} }

		case tui.KeyTab:
			if m.focused == fieldName {
				m.focused = fieldEmail
				m.name.Blur()
				m.email.Focus()
			} else {
				m.focused = fieldName
				m.email.Blur()
				m.name.Focus()
			}
			return m, nil

		case tui.KeyEnter:
			update := auth.ProfileUpdate{
				Name:  strings.TrimSpace(m.name.Value()),
				Email: strings.TrimSpace(m.email.Value()),
			}
			m.busy = true
			m.saved = false
			m.status = ""
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return tui.SaveProfileMsg{Update: update}
			})
		}

	case tui.ProfileSavedMsg:
		m.busy = false
		m.saved = true
		m.status = ""
		if msg.Session.User != nil {
			m.name.SetValue(msg.Session.User.Name)
			m.email.SetValue(msg.Session.User.Email)
		}
		return m, nil

	case tui.ProfileSaveFailedMsg:
		m.busy = false
		m.saved = false
		m.status = msg.Message
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}

	if !m.busy {
		if m.focused == fieldName {
			m.name, cmd = m.name.Update(msg)
		} else {
			m.email, cmd = m.email.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the profile view.
func (m ProfileModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Profile"))
	b.WriteString("\n\n")

	b.WriteString(tui.DimStyle.Render("Phone: "))
	b.WriteString(m.phone)
	b.WriteString("\n\n")

	b.WriteString("Name\n")
	b.WriteString(m.name.View())
	b.WriteString("\n\n")

	b.WriteString("Email\n")
	b.WriteString(m.email.View())
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(fmt.Sprintf("%s Saving...", m.spinner.View()))
	case m.status != "":
		b.WriteString(tui.ErrorStyle.Render(m.status))
	case m.saved:
		b.WriteString(tui.SuccessStyle.Render("Profile saved."))
	}

	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("Tab: Switch field · Enter: Save · Esc: Back"))

	width := m.width - 4
	if width > 60 {
		width = 60
	}
	return tui.BoxStyle.Width(width).Render(b.String())
}
