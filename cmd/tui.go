package cmd

import (
	"io"

	"docsim/internal/tui"

	"github.com/spf13/cobra"
)

var flagWatch bool

func runTUI(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs only go to --log-file.
	log, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	return tui.Run(tui.Config{
		App:    cfg,
		Watch:  flagWatch,
		Logger: log,
	})
}

func init() {
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-run the analysis when documents change")
}
