package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"abricot/internal/app"
	"abricot/internal/session"
	"abricot/internal/token"
	"abricot/pkg/config"
	"abricot/pkg/logger"
	"abricot/pkg/trace"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	configEnv string
	configDir string
	apiURL    string

	rootCmd *cobra.Command
	rt      *app.App
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "abricot",
		Short: "Abricot - projects and tasks from the terminal",
		Long: `abricot talks to an Abricot backend: sign in, browse your dashboard,
manage projects, members, tasks and comments, and draft tasks with AI.`,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configEnv, "env", config.GetConfigEnv(), "Configuration environment")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.GetEnv("CONFIG_DIR", "config"), "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend URL (overrides configuration)")
}

var registerOnce sync.Once

func registerCommands() {
	registerOnce.Do(func() {
		rootCmd.AddCommand(loginCmd)
		rootCmd.AddCommand(registerCmd)
		rootCmd.AddCommand(logoutCmd)
		rootCmd.AddCommand(whoamiCmd)
		rootCmd.AddCommand(dashboardCmd)
		rootCmd.AddCommand(projectsCmd)
		rootCmd.AddCommand(tasksCmd)
		rootCmd.AddCommand(commentsCmd)
		rootCmd.AddCommand(membersCmd)
		rootCmd.AddCommand(usersCmd)
		rootCmd.AddCommand(aiCmd)
		rootCmd.AddCommand(accountCmd)
	})
}

// Execute runs the root command
func Execute(version string) error {
	registerCommands()

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		return err
	}
	return nil
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configEnv, configDir)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.NewConsoleLogger(level)

	ctx, _ := trace.Ensure(cmd.Context())
	cmd.SetContext(ctx)

	nav := session.NavigatorFunc(func(route string) {
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "-> %s\n", route)
		}
	})
	rt = app.New(ctx, cfg, token.NewFileStore(cfg.Token.Path), nav, log)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if rt == nil {
		return nil
	}
	_ = logger.Log.Sync()
	return rt.Close()
}

// signedIn resolves the stored session and fails when nobody is logged in.
func signedIn(ctx context.Context) error {
	rt.Session.Resolve(ctx)
	if _, err := rt.Session.RequireUser(); err != nil {
		return fmt.Errorf("non connecté, lancez 'abricot login'")
	}
	return nil
}
