package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minsupark/paperlens/agent"
	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/providers/observability/slogobs"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the paperlens CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "paperlens",
		Short: "Summarize academic papers into structured, translated markdown reports",
		Long: `paperlens runs an academic paper through a multi-stage pipeline:
conversion to markdown, paper type detection, section and metadata
extraction, parallel analysis, length control, translation, and report
generation.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	InputPath  string
	OutputPath string
	PaperType  string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the summarization pipeline on one paper",
		Long: `Run the full pipeline on the configured input paper and write the
markdown report to the configured output location.

Example:
  paperlens run --config settings.yaml
  paperlens run --config settings.yaml --input paper.pdf --output ./reports`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "settings.yaml", "path to the YAML settings file")
	cmd.Flags().StringVarP(&opts.InputPath, "input", "i", "", "input paper, overrides the settings file")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "output directory or file, overrides the settings file")
	cmd.Flags().StringVar(&opts.PaperType, "paper-type", "", "paper type (auto|standard|review), overrides the settings file")

	return cmd
}

func runPipeline(opts *RunOptions) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.InputPath != "" {
		settings.InputPath = opts.InputPath
	}
	if opts.OutputPath != "" {
		settings.OutputPath = opts.OutputPath
	}
	if opts.PaperType != "" {
		settings.PaperType = opts.PaperType
		if err := settings.Validate(); err != nil {
			return err
		}
	}

	if settings.InputPath == "" {
		return fmt.Errorf("no input paper configured, set input_path or pass --input")
	}

	a, err := agent.New(settings, agent.WithObserver(slogobs.New(logger)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Run(ctx)
	if err != nil {
		return err
	}

	if settings.OutputPath == "" {
		fmt.Println(report)
	}

	slog.Info("pipeline finished")
	return nil
}
