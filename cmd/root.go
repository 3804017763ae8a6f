// Package cmd implements the githydra command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/githydra/internal/config"
	"github.com/zjrosen/githydra/internal/engine"
	"github.com/zjrosen/githydra/internal/git/infrastructure"
	"github.com/zjrosen/githydra/internal/log"
	"github.com/zjrosen/githydra/internal/trace"
	"github.com/zjrosen/githydra/internal/ui"
	"github.com/zjrosen/githydra/internal/ui/styles"
)

var (
	cfg config.Config

	flagRepo      string
	flagConfig    string
	flagDebug     bool
	flagTraceFile string
)

var rootCmd = &cobra.Command{
	Use:   "githydra",
	Short: "Interactive terminal controller for git repositories",
	Long: `githydra is a keyboard-driven terminal interface for everyday git work:
staging, committing, branching, stashing and syncing with remotes, with
background refresh keeping the view current.`,
	SilenceUsage: true,
	RunE:         runRoot,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.DefaultConfigPath()+")")
	rootCmd.Flags().StringVar(&flagRepo, "repo", "", "repository to open (default: current directory)")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringVar(&flagTraceFile, "trace-file", "", "write backend operation traces to this file")
}

func runRoot(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagRepo != "" {
		cfg.RepoPath = flagRepo
	}
	if cfg.RepoPath == "" {
		cfg.RepoPath = "."
	}

	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	if err := log.Init(config.DefaultLogPath(), level); err != nil {
		return fmt.Errorf("initializing log: %w", err)
	}
	defer log.Close()

	shutdownTrace, err := trace.Init(flagTraceFile, Version)
	if err != nil {
		return fmt.Errorf("initializing traces: %w", err)
	}
	defer func() { _ = shutdownTrace(context.Background()) }()

	styles.ApplyThemeMode(cfg.Theme.Mode)

	gateway := infrastructure.NewCLIGateway(cfg.RepoPath)

	ctx := context.Background()
	if _, err := gateway.RepoRoot(ctx); err != nil {
		return fmt.Errorf("%s is not inside a git repository", cfg.RepoPath)
	}
	gitDir, err := gateway.GitDir(ctx)
	if err != nil {
		return fmt.Errorf("resolving .git directory: %w", err)
	}

	eng, err := engine.New(cfg, engine.Options{Gateway: gateway, WatchDir: gitDir})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := eng.Subscribe(runCtx)
	eng.Start(runCtx)

	p := tea.NewProgram(ui.New(cfg, eng, events), tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	eng.Stop()
	return runErr
}
