package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medogram/medchat/internal/chat"
	"github.com/medogram/medchat/internal/tui"
)

// SendMessageCmd dispatches one chat message through the engine. The engine
// converts dispatch failures into an error entry in the transcript, so the
// only error surfaced here is a pre-dispatch rejection.
func SendMessageCmd(e *chat.Engine, content string) tea.Cmd {
	return func() tea.Msg {
		resolution, err := e.Send(context.Background(), content)
		if err != nil {
			return tui.ChatRejectedMsg{Err: err}
		}
		return tui.ChatResultMsg{Message: resolution}
	}
}
