// settings.go implements the "medchat settings" command for the custom
// chatbot used by extended-mode sends.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medogram/medchat/internal/chat"
	"github.com/medogram/medchat/internal/config"
)

var settingsSet []string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update custom chatbot settings",
	Long: `Show the settings forwarded with extended-mode messages. With --set
key=value (repeatable), push the updated settings to the backend and
persist them in the config file.`,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringArrayVar(&settingsSet, "set", nil, "Set a key=value pair (repeatable)")
}

func runSettings(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if len(settingsSet) > 0 {
		if err := restoreSession(rt, cmd); err != nil {
			return err
		}

		settings := rt.Engine.Settings()
		if settings == nil {
			settings = chat.Settings{}
		}
		for _, pair := range settingsSet {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --set value %q; expected key=value", pair)
			}
			settings[key] = value
		}

		if err := rt.Engine.SaveSettings(cmd.Context(), settings); err != nil {
			return err
		}

		rt.Cfg.Chat.Settings = settings
		if err := config.WriteConfig(rt.Dir, rt.Cfg); err != nil {
			return fmt.Errorf("settings saved but config not persisted: %w", err)
		}
		fmt.Println("Settings saved.")
	}

	settings := rt.Engine.Settings()
	if len(settings) == 0 {
		fmt.Println("No settings configured.")
		return nil
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s = %s\n", k, settings[k])
	}
	return nil
}
