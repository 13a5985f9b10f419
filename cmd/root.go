package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"docsim/internal/config"
	"docsim/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

// configFlags maps flag names to their viper keys.
var configFlags = map[string]string{
	"query":      config.KeyQuery,
	"path":       config.KeyPath,
	"extensions": config.KeyExtensions,
	"depth":      config.KeyMaxDepth,
	"window":     config.KeyWindowSize,
	"max-window": config.KeyMaxWindowSize,
	"overlap":    config.KeyOverlap,
	"threshold":  config.KeyThreshold,
	"top-n":      config.KeyTopN,
	"threads":    config.KeyThreads,
}

var rootCmd = &cobra.Command{
	Use:   "docsim",
	Short: "Find the documents most similar to a piece of text",
	Long: `docsim walks a directory, cuts every text document into overlapping
windows and fuzzily scores each window against a query. Run without a
subcommand for the interactive browser, or use "docsim report" for a one-shot
ranked listing.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+config.DefaultFile()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "append logs to this file")
	addConfigFlags(rootCmd.PersistentFlags())
}

// addConfigFlags registers the analysis parameters. Defaults live in viper so
// that environment variables and config files can override them.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.Defaults()
	fs.StringP("query", "q", "", "text to look for")
	fs.StringP("path", "p", d.SearchPath, "directory or file to search")
	fs.StringSliceP("extensions", "e", d.Extensions, "file extensions to include")
	fs.Int("depth", d.MaxDepth, "maximum directory depth")
	fs.IntP("window", "w", d.WindowSize, "chunk window size in characters")
	fs.Int("max-window", d.MaxWindowSize, "upper bound for the window size")
	fs.Int("overlap", d.Overlap, "characters shared by consecutive windows")
	fs.Float64P("threshold", "t", d.Threshold, "minimum score for a file to be listed (0-1)")
	fs.IntP("top-n", "n", d.TopN, "chunks kept per file")
	fs.Int("threads", d.Threads, "parallel workers (0 = one per CPU)")
}

// loadConfig resolves flags > DOCSIM_* environment > config file > defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.NewViper(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if err := bindConfigFlags(v, cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	return config.FromViper(v), nil
}

func bindConfigFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range configFlags {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// newLogger writes to --log-file when set and to fallback otherwise.
func newLogger(fallback io.Writer) (logger.Logger, func(), error) {
	if flagLogFile == "" {
		return logger.New(fallback, flagLogLevel), func() {}, nil
	}
	f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(f, flagLogLevel), func() { f.Close() }, nil
}
