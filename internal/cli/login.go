// login.go implements the "medchat login" command for phone + code sign-in.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medogram/medchat/internal/validate"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a phone number and one-time code",
	Long: `Request a verification code for your mobile number, then exchange
the code for a session. The session token is persisted so subsequent
commands stay signed in.`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	reader := bufio.NewReader(os.Stdin)

	phone, err := prompt(reader, "Mobile number (09xxxxxxxxx): ")
	if err != nil {
		return err
	}
	if err := validate.PhoneNumber(phone); err != nil {
		return err
	}

	if err := rt.Manager.Register(cmd.Context(), phone); err != nil {
		return fmt.Errorf("%s", rt.Manager.Session().LastError)
	}
	fmt.Printf("Verification code sent to %s.\n", phone)

	code, err := prompt(reader, "Code: ")
	if err != nil {
		return err
	}
	if err := validate.Code(code); err != nil {
		return err
	}

	if err := rt.Manager.Verify(cmd.Context(), phone, code); err != nil {
		return fmt.Errorf("%s", rt.Manager.Session().LastError)
	}

	session := rt.Manager.Session()
	if session.User != nil && session.User.Name != "" {
		fmt.Printf("Signed in as %s (%s).\n", session.User.Name, phone)
	} else {
		fmt.Printf("Signed in as %s.\n", phone)
	}
	return nil
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
