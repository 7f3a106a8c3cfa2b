package cli

import (
	"fmt"

	"abricot/internal/model"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var (
	accountFirstName string
	accountLastName  string
	accountEmail     string

	passwordCurrent string
	passwordNew     string
	passwordConfirm string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Edit your profile and password",
}

var accountUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Change your name or email",
	Example: `  abricot account update --first-name Alice --last-name Martin`,
	RunE:    runAccountUpdate,
}

var accountPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE:  runAccountPassword,
}

func init() {
	accountCmd.AddCommand(accountUpdateCmd, accountPasswordCmd)

	accountUpdateCmd.Flags().StringVar(&accountFirstName, "first-name", "", "First name")
	accountUpdateCmd.Flags().StringVar(&accountLastName, "last-name", "", "Last name")
	accountUpdateCmd.Flags().StringVar(&accountEmail, "email", "", "Email")

	accountPasswordCmd.Flags().StringVar(&passwordCurrent, "current", "", "Current password")
	accountPasswordCmd.Flags().StringVar(&passwordNew, "new", "", "New password")
	accountPasswordCmd.Flags().StringVar(&passwordConfirm, "confirm", "", "New password again")
}

// runAccountUpdate edits the name as first/last halves, the way the
// profile form shows it, and sends it joined.
func runAccountUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	me, _ := rt.Session.RequireUser()
	flags := cmd.Flags()

	var update model.ProfileUpdate
	if flags.Changed("first-name") || flags.Changed("last-name") {
		first, last := viewmodel.SplitName(me.DisplayName())
		if me.Name == nil {
			first, last = "", ""
		}
		if flags.Changed("first-name") {
			first = accountFirstName
		}
		if flags.Changed("last-name") {
			last = accountLastName
		}
		name := viewmodel.JoinName(first, last)
		update.Name = &name
	}
	if flags.Changed("email") {
		update.Email = &accountEmail
	}

	user, err := rt.Service.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profil mis à jour: %s <%s>\n", user.DisplayName(), user.Email)
	return nil
}

func runAccountPassword(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	err := rt.Service.UpdatePassword(ctx, model.PasswordUpdate{
		CurrentPassword: passwordCurrent,
		NewPassword:     passwordNew,
		ConfirmPassword: passwordConfirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Mot de passe mis à jour")
	return nil
}
