package cmd

import (
	"context"
	"fmt"
	"io"

	"docsim/internal/analysis"
	"docsim/internal/config"
	"docsim/internal/logger"
	"docsim/internal/report"
	"docsim/internal/walker"

	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagOutput string
	flagWidth  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analyse once and print the ranked documents",
	Example: `  docsim report -q "quarterly revenue" -p ~/notes
  docsim report -q "retry budget" -e .md,.txt --format markdown
  docsim report -q "incident" -o results.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		return runReport(cmd.Context(), cmd.OutOrStdout(), cfg, reportOptions{
			Format: flagFormat,
			Output: flagOutput,
			Width:  flagWidth,
			Logger: log,
		})
	},
}

type reportOptions struct {
	// Format is "text" or "markdown".
	Format string
	// Output, when set, also receives a json or yaml document.
	Output string
	Width  int
	Logger logger.Logger
}

// runReport discovers, analyses and prints the results of one query.
func runReport(ctx context.Context, w io.Writer, cfg config.Config, opts reportOptions) error {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	if opts.Format != "text" && opts.Format != "markdown" {
		return fmt.Errorf("%w: %q (use text or markdown)", report.ErrUnsupportedFormat, opts.Format)
	}
	if opts.Output != "" {
		if _, err := report.FormatFor(opts.Output); err != nil {
			return err
		}
	}
	if err := cfg.Check(); err != nil {
		return err
	}

	res, err := walker.Discover(cfg.SearchPath, cfg.Extensions, cfg.MaxDepth)
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	if len(res.Files) == 0 {
		return walker.NoFilesError(cfg.SearchPath, cfg.Extensions)
	}
	log.Info("analysing", "files", len(res.Files), "max_depth", res.MaxDepth, "query", cfg.Query)

	var skips []analysis.Skip
	engine := analysis.New(analysis.Options{Logger: log})
	results, err := engine.Analyse(ctx, res.Files, cfg, analysis.WithSkips(func(s analysis.Skip) {
		skips = append(skips, s)
	}))
	if err != nil {
		return err
	}

	switch opts.Format {
	case "markdown":
		out, err := report.RenderMarkdown(report.Markdown(cfg.Query, results), opts.Width)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	default:
		if err := report.WriteText(w, cfg.Query, results, report.TextOptions{
			Styles: report.DefaultStyles(),
			Skips:  skips,
		}); err != nil {
			return err
		}
	}

	if opts.Output != "" {
		if err := report.WriteFile(opts.Output, report.NewDocument(cfg, results, skips)); err != nil {
			return err
		}
		log.Info("report written", "path", opts.Output, "results", len(results))
	}
	return nil
}

func init() {
	reportCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text or markdown")
	reportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "also write the results to a .json or .yaml file")
	reportCmd.Flags().IntVar(&flagWidth, "width", 100, "wrap width for markdown output")
	rootCmd.AddCommand(reportCmd)
}
