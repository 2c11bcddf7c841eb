package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/steamrec/internal/client"
	"github.com/felixgeelhaar/steamrec/internal/observe"
	"github.com/felixgeelhaar/steamrec/internal/ui/tui"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	ciMode      bool
	demoMode    bool
	configPath  string
	baseURL     string
	interactive bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "steamrec",
	Short: "Steam game recommendations from your own library",
	Long: `steamrec loads the games a Steam account owns, lets you pick and weight
the ones you like (or dislike), and asks the recommendation service for
similar titles.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if interactive {
			return runInteractive(cmd.Context())
		}
		return cmd.Help()
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive browser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(tuiCmd)
	RootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start the interactive browser")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&ciMode, "ci", false, "CI mode: JSON output, non-interactive")
	RootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "Use built-in sample data instead of the recommendation service")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.steamrec/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Recommendation service address, overrides the configured environment")
}

func runInteractive(ctx context.Context) error {
	if ciMode {
		return fmt.Errorf("the interactive browser is not available in CI mode")
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := loadConfig(s)
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI, so logs go to a file.
	obs, err := observe.NewFile(cfg.LogFile, verbose)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer obs.Close()

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if stub, ok := svc.(*client.StubService); ok {
		stub.Delay = 400 * time.Millisecond
	}

	runner := NewRunner(obs, s, svc, cfg, nil)
	model := tui.NewModel(ctx, runner.Orch, cfg.NicheFactor)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	runner.SetUI(tui.NewTUI(program))

	obs.Log().Info().Str("service", svc.Name()).Msg("starting interactive session")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
