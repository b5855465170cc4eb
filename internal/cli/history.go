// history.go implements the "medchat history" command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLocal bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past consultation exchanges",
	Long: `Fetch past exchanges from the backend. With --local, list the
conversations cached on this machine instead.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyLocal, "local", false, "List locally cached conversations")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum conversations to list with --local")
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if historyLocal {
		return printLocalHistory(rt)
	}

	if err := restoreSession(rt, cmd); err != nil {
		return err
	}

	entries, err := rt.Engine.History(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No past exchanges.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("[%s]\n", e.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("  You:      %s\n", e.Message)
		fmt.Printf("  Medogram: %s\n\n", e.BotResponse)
	}
	return nil
}

func printLocalHistory(rt *runtime) error {
	if rt.History == nil {
		return fmt.Errorf("local history cache unavailable")
	}

	summaries, err := rt.History.ListConversations(historyLimit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No cached conversations.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%s  %-8s  %3d messages  %s\n",
			s.ID, s.Mode, s.Messages, s.UpdatedAt.Format("2006-01-02 15:04"))

		msgs, err := rt.History.Messages(s.ID)
		if err != nil {
			continue
		}
		for _, m := range msgs {
			label := "Medogram"
			if m.Sender == "user" {
				label = "You"
			}
			fmt.Printf("    %-8s  %s\n", label, m.Content)
		}
		fmt.Println()
	}
	return nil
}
