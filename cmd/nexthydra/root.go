package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/nexthydra/internal/config"
	"github.com/dgallion1/nexthydra/internal/parser"
	"github.com/dgallion1/nexthydra/internal/pipeline"
	"github.com/dgallion1/nexthydra/internal/util"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	scriptsOnly bool
	workers     int
	maxDepth    int
	compact     bool
	verbose     bool
	timeout     time.Duration
	userAgent   string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:          "nexthydra",
		Short:        "Extract Next.js hydration data from HTML pages",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&g.scriptsOnly, "scripts-only", false, "only scan inline <script> elements")
	flags.IntVar(&g.workers, "workers", 1, "number of chunks parsed in parallel")
	flags.IntVar(&g.maxDepth, "max-depth", parser.DefaultMaxDepth, "maximum nesting depth accepted by the parser")
	flags.BoolVar(&g.compact, "compact", false, "print compact JSON")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log parse failures to stderr")
	flags.DurationVar(&g.timeout, "timeout", 30*time.Second, "timeout when the source is a URL")
	flags.StringVar(&g.userAgent, "user-agent", config.DefaultUserAgent, "User-Agent header when the source is a URL")

	rootCmd.AddCommand(newParseCmd(g))
	rootCmd.AddCommand(newSearchCmd(g))
	rootCmd.AddCommand(newKeysCmd(g))
	rootCmd.AddCommand(newSummaryCmd(g))

	return rootCmd
}

func (g *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// extract reads the command's source argument and runs the full extraction.
func (g *globalOptions) extract(cmd *cobra.Command, source string) (pipeline.Result, error) {
	log := g.logger(cmd)
	html, err := readSource(cmd.Context(), source, cmd.InOrStdin(), g)
	if err != nil {
		return pipeline.Result{}, err
	}
	log.Debug("read source", "source", sourceName(source), "bytes", len(html))

	return pipeline.Extract(html, pipeline.ExtractConfig{
		Workers:     g.workers,
		MaxDepth:    g.maxDepth,
		ScriptsOnly: g.scriptsOnly,
	}, log), nil
}

func (g *globalOptions) print(cmd *cobra.Command, v any) error {
	data, err := util.MarshalNoEscape(v, !g.compact)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// sourceArg returns the optional source argument at index i.
func sourceArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
