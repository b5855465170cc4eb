// send.go implements the one-shot "medchat send" command.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medogram/medchat/internal/chat"
)

var sendExtended bool

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and print the reply",
	Long: `Send a single message to the Medogram assistant and print the reply
to stdout. Exits non-zero when the send fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendExtended, "extended", false, "Use the custom chatbot with saved settings")
}

func runSend(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := restoreSession(rt, cmd); err != nil {
		return err
	}

	if sendExtended {
		if err := rt.Engine.SetMode(chat.ModeExtended); err != nil {
			return err
		}
	}

	resolution, err := rt.Engine.Send(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if resolution.IsError {
		return fmt.Errorf("%s", resolution.Text)
	}

	fmt.Println(resolution.Text)
	return nil
}
