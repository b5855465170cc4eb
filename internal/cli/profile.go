// profile.go implements the "medchat profile" command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medogram/medchat/internal/auth"
)

var (
	profileName  string
	profileEmail string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Long: `Show the signed-in user's profile. With --name or --email, push the
given fields to the backend and print the updated profile.`,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "Update the profile name")
	profileCmd.Flags().StringVar(&profileEmail, "email", "", "Update the profile email")
}

func runProfile(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := restoreSession(rt, cmd); err != nil {
		return err
	}

	if profileName != "" || profileEmail != "" {
		update := auth.ProfileUpdate{Name: profileName, Email: profileEmail}
		if err := rt.Manager.UpdateProfile(cmd.Context(), update); err != nil {
			return fmt.Errorf("%s", rt.Manager.Session().LastError)
		}
		fmt.Println("Profile updated.")
	}

	session := rt.Manager.Session()
	if session.User == nil {
		return fmt.Errorf("no profile data available")
	}

	fmt.Printf("Phone: %s\n", session.User.PhoneNumber)
	fmt.Printf("Name:  %s\n", session.User.Name)
	fmt.Printf("Email: %s\n", session.User.Email)
	return nil
}
