package cli

import (
	"fmt"

	"abricot/internal/model"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	loginToken    string

	registerEmail    string
	registerPassword string
	registerConfirm  string
	registerName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Example: `  abricot login --email alice@example.com --password secret
  abricot login --token eyJhbGciOi...`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Adopt an existing token instead of signing in")

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password")
	registerCmd.Flags().StringVar(&registerConfirm, "confirm", "", "Password confirmation")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var (
		user *model.User
		err  error
	)
	if loginToken != "" {
		user, err = rt.Session.Adopt(ctx, loginToken)
	} else {
		user, err = rt.Session.Login(ctx, model.LoginPayload{Email: loginEmail, Password: loginPassword})
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connecté en tant que %s\n", user.DisplayName())
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	payload := model.RegisterPayload{
		Email:           registerEmail,
		Password:        registerPassword,
		ConfirmPassword: registerConfirm,
	}
	if registerName != "" {
		payload.Name = &registerName
	}
	user, err := rt.Session.Register(cmd.Context(), payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Compte créé, connecté en tant que %s\n", user.DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := rt.Session.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Déconnecté")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	res := rt.Service.Profile(ctx)
	if res.Err != nil {
		return res.Err
	}
	u := res.Data
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n%s\n", viewmodel.Initials(u.DisplayName()), u.DisplayName(), u.Email)
	return nil
}
