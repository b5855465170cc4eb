package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medogram/medchat/internal/chat"
	"github.com/medogram/medchat/internal/tui"
)

// ChatModel is the view model for the consultation chat screen.
type ChatModel struct {
	messages  []chat.Message
	textarea  textarea.Model
	viewport  viewport.Model
	mode      chat.Mode
	isLoading bool
	status    string
	spinner   spinner.Model
	width     int
	height    int
}

// NewChatModel creates a new ChatModel seeded with the engine's transcript.
func NewChatModel(messages []chat.Message, mode chat.Mode, width, height int) ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Describe your symptoms... (Enter to send)"
	ta.CharLimit = 5000
	ta.SetWidth(width - 8)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	// Shift+Enter or Ctrl+J for newline, Enter submits.
	keyMap := ta.KeyMap
	keyMap.InsertNewline = key.NewBinding(
		key.WithKeys("shift+enter", "ctrl+j"),
		key.WithHelp("shift+enter", "new line"),
	)
	ta.KeyMap = keyMap

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9"))

	vpWidth, vpHeight := chatViewportSize(width, height)
	vp := viewport.New(vpWidth, vpHeight)
	vp.SetContent(formatMessages(messages))

	return ChatModel{
		messages: messages,
		textarea: ta,
		viewport: vp,
		mode:     mode,
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

func chatViewportSize(width, height int) (int, int) {
	// Reserve space for header, loading line, textarea, and footer.
	vpHeight := height - 14
	if vpHeight < 5 {
		vpHeight = 5
	}
	vpWidth := width - 8
	if vpWidth < 20 {
		vpWidth = 20
	}
	return vpWidth, vpHeight
}

// Init returns the initial command for the chat view.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// SetMessages replaces the rendered transcript with the engine's canonical
// copy and scrolls to the bottom.
func (m *ChatModel) SetMessages(messages []chat.Message) {
	m.messages = messages
	m.viewport.SetContent(formatMessages(m.messages))
	m.viewport.GotoBottom()
}

// Update handles messages for the chat view.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyEnter:
			content := strings.TrimSpace(m.textarea.Value())
			if content == "" || m.isLoading {
				return m, nil
			}

			// Optimistic local echo; the engine appends the canonical
			// copy and the transcript is re-synced on resolution.
			m.messages = append(m.messages, chat.Message{
				Text:   content,
				Sender: chat.SenderUser,
			})
			m.viewport.SetContent(formatMessages(m.messages))
			m.viewport.GotoBottom()

			m.textarea.Reset()
			m.isLoading = true
			m.status = ""

			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return tui.SendChatMsg{Content: content}
			})

		case tui.KeyCtrlT:
			if m.isLoading {
				return m, nil
			}
			return m, func() tea.Msg { return tui.ToggleModeMsg{} }

		case tui.KeyCtrlL:
			if m.isLoading {
				return m, nil
			}
			return m, func() tea.Msg { return tui.ClearChatMsg{} }

		case tui.KeyCtrlP:
			if m.isLoading {
				return m, nil
			}
			return m, func() tea.Msg { return tui.EnterProfileMsg{} }
		}

	case tui.ChatResultMsg:
		m.isLoading = false
		return m, nil

	case tui.ChatRejectedMsg:
		m.isLoading = false
		m.status = msg.Err.Error()
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpWidth, vpHeight := chatViewportSize(msg.Width, msg.Height)
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(vpWidth)
		m.viewport.SetContent(formatMessages(m.messages))
		return m, nil
	}

	if !m.isLoading {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// SetMode updates the mode shown in the header.
func (m *ChatModel) SetMode(mode chat.Mode) {
	m.mode = mode
}

// View renders the chat view.
func (m ChatModel) View() string {
	var b strings.Builder

	header := tui.TitleStyle.Render(fmt.Sprintf("Medical Chat — %s mode", m.mode))
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	if m.isLoading {
		b.WriteString(fmt.Sprintf("%s Thinking...", m.spinner.View()))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render(m.textarea.View()))
	} else {
		b.WriteString(m.textarea.View())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(tui.ErrorStyle.Render(m.status))
	}

	b.WriteString("\n\n")
	footer := tui.DimStyle.Render("Enter: Send · Ctrl+T: Mode · Ctrl+L: Clear · Ctrl+P: Profile · Ctrl+C: Quit")
	b.WriteString(footer)

	return tui.BoxStyle.Width(m.width - 4).Render(b.String())
}

// formatMessages formats the transcript for display in the viewport.
func formatMessages(messages []chat.Message) string {
	if len(messages) == 0 {
		return tui.DimStyle.Render("No messages yet. Describe what brings you in today.")
	}

	var b strings.Builder
	for i, msg := range messages {
		switch {
		case msg.Sender == chat.SenderUser:
			b.WriteString(tui.UserStyle.Render("You: "))
			b.WriteString(msg.Text)
		case msg.IsError:
			b.WriteString(tui.ErrorStyle.Render("Medogram: "))
			b.WriteString(tui.ErrorStyle.Render(msg.Text))
		default:
			b.WriteString(tui.AgentStyle.Render("Medogram: "))
			b.WriteString(msg.Text)
		}

		if i < len(messages)-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}
