// Command editcore is a standalone driver for the edit/multiedit/hashline/patch
// tools: it reads a tool call's JSON input from a file or stdin, runs it
// against the working directory, and prints the JSON tool output to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"editcore.dev/anchor"
	"editcore.dev/claudetool"
	"editcore.dev/config"
	"editcore.dev/pathguard"
	"editcore.dev/skribe"
)

// options holds the flags shared across every subcommand.
type options struct {
	Cwd           string
	InputFile     string
	ConfigFile    string
	MaxFileSize   int64
	AllowSymlinks bool
	Verbose       bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}

func run() error {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "editcore",
		Short: "Run one of the file-editing tools against a JSON tool call",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd, opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.Cwd, "cwd", ".", "working directory to resolve paths against, if not the process's own")
	rootCmd.PersistentFlags().StringVar(&opts.InputFile, "input", "-", "file to read the tool's JSON input from (\"-\" for stdin)")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file of engine defaults (see config.Config); flags override it")
	rootCmd.PersistentFlags().Int64Var(&opts.MaxFileSize, "max-file-size", 0, "maximum file size, in bytes, the tool will read (0: use config/default)")
	rootCmd.PersistentFlags().BoolVar(&opts.AllowSymlinks, "allow-symlinks", false, "allow resolving paths through symlinks")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr instead of a temp file")

	rootCmd.AddCommand(editCommand(opts))
	rootCmd.AddCommand(multiEditCommand(opts))
	rootCmd.AddCommand(hashlineCommand(opts))
	rootCmd.AddCommand(patchCommand(opts))

	return rootCmd.Execute()
}

// setupLogging installs a slog handler, to a temp file by default or to
// stderr with --verbose, tagging every record with the invoked subcommand
// via skribe so a single log stream disambiguates concurrent runs.
func setupLogging(cmd *cobra.Command, opts *options) error {
	var handler slog.Handler
	if opts.Verbose {
		handler = skribe.AttrsWrap(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logFile, err := os.CreateTemp("", "editcore-log-*")
		if err != nil {
			return fmt.Errorf("create log file: %w", err)
		}
		handler = skribe.AttrsWrap(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	slog.SetDefault(slog.New(handler))
	ctx := skribe.ContextWithAttr(cmd.Context(), slog.String("subcommand", cmd.Name()))
	cmd.SetContext(ctx)
	return nil
}

// loadConfig reads opts.ConfigFile if set, else falls back to
// config.Default, then applies any explicit --max-file-size/--allow-symlinks
// flag overrides on top.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	var cfg *config.Config
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if cmd.Flags().Changed("max-file-size") && opts.MaxFileSize != 0 {
		cfg.File.MaxFileSize = opts.MaxFileSize
	}
	if cmd.Flags().Changed("allow-symlinks") {
		cfg.Path.AllowSymlinks = opts.AllowSymlinks
	}
	return cfg, nil
}

func readInput(opts *options) (json.RawMessage, error) {
	var r io.Reader = os.Stdin
	if opts.InputFile != "-" {
		f, err := os.Open(opts.InputFile)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return json.RawMessage(raw), nil
}

// newGuard roots a Guard at the process's own working directory.
// --cwd, when given, is threaded through each subcommand's context instead
// (see withCwd) so every tool's Run honors it the same way a tool call
// naming its own working directory would in a longer-lived process.
func newGuard(cfg *config.Config) (*pathguard.Guard, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	flags := pathguard.Flags{
		AllowPathTraversal: cfg.Path.AllowPathTraversal,
		AllowSymlinks:      cfg.Path.AllowSymlinks,
	}
	return pathguard.New(cwd, cfg.Path.WorkspaceRoot, flags), nil
}

// withCwd attaches opts.Cwd to ctx via claudetool.WithWorkingDir when the
// caller named one explicitly, so the tool resolves paths against it
// instead of the process's own working directory.
func withCwd(ctx context.Context, opts *options) context.Context {
	if opts.Cwd == "" || opts.Cwd == "." {
		return ctx
	}
	return claudetool.WithWorkingDir(ctx, opts.Cwd)
}

// printResult renders a tool's llm.ToolOut-shaped result as JSON to stdout,
// or the error's message to stderr with a non-zero exit.
func printResult(summary string, display any, err error) error {
	if err != nil {
		return err
	}
	out := struct {
		Summary string `json:"summary"`
		Display any    `json:"display,omitempty"`
	}{Summary: summary, Display: display}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func editCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Run the edit tool (str_replace/create/insert/view/undo_edit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(opts)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}
			tool := &claudetool.EditTool{Editor: anchor.NewEditor(guard, cfg.File.MaxFileSize)}
			out := tool.Run(withCwd(cmd.Context(), opts), input)
			return printResult(claudetool.ContentToString(out.LLMContent), out.Display, out.Error)
		},
	}
}

func multiEditCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "multiedit",
		Short: "Run the multiedit tool (a sequence of anchor-based replacements)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(opts)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}
			tool := &claudetool.MultiEditTool{Editor: anchor.NewEditor(guard, cfg.File.MaxFileSize)}
			out := tool.Run(withCwd(cmd.Context(), opts), input)
			return printResult(claudetool.ContentToString(out.LLMContent), out.Display, out.Error)
		},
	}
}

func hashlineCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hashline",
		Short: "Run the hashline_edit tool (hash-anchored batch line edits)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(opts)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}
			tool := &claudetool.HashlineEditTool{Guard: guard, MaxFileSize: cfg.File.MaxFileSize}
			out := tool.Run(withCwd(cmd.Context(), opts), input)
			return printResult(claudetool.ContentToString(out.LLMContent), out.Display, out.Error)
		},
	}
}

func patchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "patch",
		Short: "Run the patch tool (Add/Delete/Update File operations)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(opts)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}
			tool := &claudetool.PatchTool{Guard: guard, MaxFileSize: cfg.File.MaxFileSize}
			out := tool.Run(withCwd(cmd.Context(), opts), input)
			return printResult(claudetool.ContentToString(out.LLMContent), out.Display, out.Error)
		},
	}
}
