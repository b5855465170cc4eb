// Package cli defines Cobra command definitions for the medchat CLI.
// This file contains the root command, shared runtime wiring, and the
// TTY launch path into the TUI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/medogram/medchat/internal/api"
	"github.com/medogram/medchat/internal/auth"
	"github.com/medogram/medchat/internal/chat"
	"github.com/medogram/medchat/internal/config"
	"github.com/medogram/medchat/internal/log"
	"github.com/medogram/medchat/internal/store"
	"github.com/medogram/medchat/internal/tui"
	"github.com/medogram/medchat/internal/tui/app"
)

var version = "dev" // set via ldflags at build time

var rootCmd = &cobra.Command{
	Use:   "medchat",
	Short: "Terminal client for the Medogram medical consultation service",
	Long: `Medchat is a terminal client for Medogram. It signs you in with a
phone number and one-time code, then runs an interactive medical
consultation chat with the Medogram assistant.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch the TUI if we have a
		// terminal, show help otherwise.
		if !tui.IsTTY() {
			return cmd.Help()
		}

		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		p := tui.NewProgram(app.New(rt.Cfg, rt.Manager, rt.Engine))
		rt.Manager.Subscribe(func(ev auth.Event) {
			if ev.Unauthorized {
				p.Send(tui.SessionExpiredMsg{})
			}
		})
		_, err = p.Run()
		return err
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(settingsCmd)
}

// runtime bundles the wired application components shared by every command.
type runtime struct {
	Cfg     *config.Config
	Dir     string
	Client  *api.Client
	Manager *auth.Manager
	Engine  *chat.Engine
	History *store.History
	Logger  *log.Logger
}

// newRuntime loads config and wires client, session manager, conversation
// engine, local history cache, and event log. The logger and history cache
// are best-effort: failures opening them do not block the client.
func newRuntime() (*runtime, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.API.PrimaryURL, cfg.API.LocalURL,
		time.Duration(cfg.API.TimeoutMS)*time.Millisecond)

	logger, err := log.NewLogger(dir)
	if err != nil {
		logger = nil
	}

	manager := auth.NewManager(client, store.NewTokenFile(dir), logger)
	client.SetTokenSource(manager)
	client.OnUnauthorized(manager.HandleUnauthorized)

	history, err := store.OpenHistory(filepath.Join(dir, "history.db"))
	if err != nil {
		history = nil
	}

	engine := chat.NewEngine(client, manager, history, logger)
	_ = engine.SetMode(chat.ParseMode(cfg.Chat.Mode))
	if len(cfg.Chat.Settings) > 0 {
		_ = engine.SetSettings(chat.Settings(cfg.Chat.Settings))
	}

	return &runtime{
		Cfg:     cfg,
		Dir:     dir,
		Client:  client,
		Manager: manager,
		Engine:  engine,
		History: history,
		Logger:  logger,
	}, nil
}

// Close releases the runtime's resources.
func (rt *runtime) Close() {
	if rt.History != nil {
		rt.History.Close()
	}
}

// restoreSession loads the persisted credential and fails loudly when the
// command needs an authenticated session.
func restoreSession(rt *runtime, cmd *cobra.Command) error {
	if err := rt.Manager.Initialize(cmd.Context()); err != nil {
		return err
	}
	if !rt.Manager.Authenticated() {
		return fmt.Errorf("not signed in; run: medchat login")
	}
	return nil
}
