// Package views provides the TUI view components.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medogram/medchat/internal/tui"
	"github.com/medogram/medchat/internal/validate"
)

// loginPhase tracks which input the login view is collecting.
type loginPhase int

const (
	phasePhone loginPhase = iota
	phaseCode
)

// LoginModel is the view model for the phone + one-time-code login flow.
type LoginModel struct {
	phase   loginPhase
	input   textinput.Model
	phone   string
	errText string
	busy    bool
	spinner spinner.Model
	width   int
	height  int
}

// NewLoginModel creates the login view starting at the phone step.
func NewLoginModel(width, height int) LoginModel {
	ti := textinput.New()
	ti.Placeholder = "09123456789"
	ti.CharLimit = 11
	ti.Width = 24
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9"))

	return LoginModel{
		phase:   phasePhone,
		input:   ti,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the login view.
func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages for the login view.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case tui.KeyEnter:
			return m.submit()
		case tui.KeyEsc:
			if m.phase == phaseCode {
				// Back to the phone step; the pending verification is
				// discarded, so the number must be registered again.
				m.phase = phasePhone
				m.errText = ""
				m.input.SetValue(m.phone)
				m.input.CharLimit = 11
				m.input.Placeholder = "09123456789"
				return m, func() tea.Msg { return CancelCodeMsg{} }
			}
		}

	case tui.CodeSentMsg:
		m.busy = false
		m.phase = phaseCode
		m.phone = msg.Phone
		m.errText = ""
		m.input.SetValue("")
		m.input.CharLimit = 6
		m.input.Placeholder = "code"
		return m, nil

	case tui.AuthFailedMsg:
		m.busy = false
		m.errText = msg.Message
		if m.errText == "" && msg.Err != nil {
			m.errText = msg.Err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	if !m.busy {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit validates the current input and emits the matching request message.
func (m LoginModel) submit() (LoginModel, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	if m.phase == phasePhone {
		if err := validate.PhoneNumber(value); err != nil {
			m.errText = "enter a valid mobile number (09xxxxxxxxx)"
			return m, nil
		}
		m.busy = true
		m.errText = ""
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			return SubmitPhoneMsg{Phone: value}
		})
	}

	if err := validate.Code(value); err != nil {
		m.errText = "enter the 4-6 digit code"
		return m, nil
	}
	m.busy = true
	m.errText = ""
	phone := m.phone
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return SubmitCodeMsg{Phone: phone, Code: value}
	})
}

// SubmitPhoneMsg is emitted when a valid phone number is submitted.
type SubmitPhoneMsg struct {
	Phone string
}

// SubmitCodeMsg is emitted when a verification code is submitted.
type SubmitCodeMsg struct {
	Phone string
	Code  string
}

// CancelCodeMsg is emitted when the user abandons the code step.
type CancelCodeMsg struct{}

// View renders the login view.
func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Medogram"))
	b.WriteString("\n\n")

	if m.phase == phasePhone {
		b.WriteString("Enter your mobile number to receive a verification code.\n\n")
	} else {
		b.WriteString(fmt.Sprintf("Enter the code sent to %s.\n\n", m.phone))
	}

	if m.busy {
		b.WriteString(fmt.Sprintf("%s Contacting server...", m.spinner.View()))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(tui.ErrorStyle.Render(m.errText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := "Enter: Submit · Ctrl+C: Quit"
	if m.phase == phaseCode {
		footer = "Enter: Submit · Esc: Change number · Ctrl+C: Quit"
	}
	b.WriteString(tui.DimStyle.Render(footer))

	return tui.BoxStyle.Width(min(m.width-4, 60)).Render(b.String())
}
