// Package app assembles the TUI views into the top-level Bubble Tea model.
package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medogram/medchat/internal/auth"
	"github.com/medogram/medchat/internal/chat"
	"github.com/medogram/medchat/internal/config"
	"github.com/medogram/medchat/internal/tui"
	"github.com/medogram/medchat/internal/tui/commands"
	"github.com/medogram/medchat/internal/tui/views"
)

// App is the root Bubble Tea model. It routes messages between the views and
// the session manager / conversation engine.
type App struct {
	model   *tui.Model
	manager *auth.Manager
	engine  *chat.Engine

	login   views.LoginModel
	chat    views.ChatModel
	profile views.ProfileModel
}

// New creates the root model. The session is restored asynchronously in Init,
// so the app starts on the loading screen.
func New(cfg *config.Config, manager *auth.Manager, engine *chat.Engine) *App {
	model := tui.NewModel(cfg)
	return &App{
		model:   model,
		manager: manager,
		engine:  engine,
		login:   views.NewLoginModel(model.Width, model.Height),
	}
}

// Init restores the persisted session.
func (a *App) Init() tea.Cmd {
	return tea.Batch(commands.InitializeCmd(a.manager), a.login.Init())
}

// Update routes messages to the active view and handles view transitions.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == tui.KeyCtrlC {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		// Every view tracks its own size.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		cmds = append(cmds, cmd)
		if a.model.State == tui.StateChat || a.model.State == tui.StateProfile {
			a.chat, cmd = a.chat.Update(msg)
			cmds = append(cmds, cmd)
			a.profile, cmd = a.profile.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tui.InitDoneMsg:
		if msg.Session.Authenticated() {
			return a, a.enterChat()
		}
		a.model.State = tui.StateLogin
		return a, a.login.Init()

	case tui.SessionExpiredMsg:
		a.model.State = tui.StateLogin
		a.login = views.NewLoginModel(a.model.Width, a.model.Height)
		return a, a.login.Init()

	case views.SubmitPhoneMsg:
		return a, commands.RegisterCmd(a.manager, msg.Phone)

	case views.SubmitCodeMsg:
		return a, commands.VerifyCmd(a.manager, msg.Phone, msg.Code)

	case views.CancelCodeMsg:
		a.manager.CancelVerification()
		return a, nil

	case tui.VerifiedMsg:
		return a, a.enterChat()

	case tui.SendChatMsg:
		return a, commands.SendMessageCmd(a.engine, msg.Content)

	case tui.ChatResultMsg:
		// Re-sync from the engine's canonical transcript.
		a.chat.SetMessages(a.engine.Messages())
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd

	case tui.ChatRejectedMsg:
		// The engine did not append anything; drop the optimistic echo.
		a.chat.SetMessages(a.engine.Messages())
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd

	case tui.ToggleModeMsg:
		next := chat.ModeStandard
		if a.engine.Mode() == chat.ModeStandard {
			next = chat.ModeExtended
		}
		if err := a.engine.SetMode(next); err == nil {
			a.chat.SetMode(next)
		}
		return a, nil

	case tui.ClearChatMsg:
		if err := a.engine.Clear(); err == nil {
			a.chat.SetMessages(nil)
		}
		return a, nil

	case tui.EnterProfileMsg:
		a.model.State = tui.StateProfile
		a.profile = views.NewProfileModel(a.manager.Session().User, a.model.Width)
		return a, a.profile.Init()

	case tui.ExitProfileMsg:
		a.model.State = tui.StateChat
		return a, nil

	case tui.SaveProfileMsg:
		return a, commands.UpdateProfileCmd(a.manager, msg.Update)
	}

	var cmd tea.Cmd
	switch a.model.State {
	case tui.StateLoading, tui.StateLogin:
		a.login, cmd = a.login.Update(msg)
	case tui.StateChat:
		a.chat, cmd = a.chat.Update(msg)
	case tui.StateProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

// enterChat builds the chat view from the engine's current transcript.
func (a *App) enterChat() tea.Cmd {
	a.model.State = tui.StateChat
	a.chat = views.NewChatModel(a.engine.Messages(), a.engine.Mode(), a.model.Width, a.model.Height)
	return a.chat.Init()
}

// View renders the active screen.
func (a *App) View() string {
	switch a.model.State {
	case tui.StateLoading:
		var b strings.Builder
		b.WriteString(tui.TitleStyle.Render("Medogram"))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Restoring session..."))
		return tui.BoxStyle.Render(b.String())
	case tui.StateLogin:
		return a.login.View()
	case tui.StateProfile:
		return a.profile.View()
	default:
		return a.chat.View()
	}
}
