// logout.go implements the "medchat logout" command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.Manager.Logout(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}
