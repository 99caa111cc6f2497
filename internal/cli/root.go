package cli

import (
	"github.com/spf13/cobra"

	"github.com/subweaver/subweaver/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subweaver",
	Short: "Subtitle editor and translator",
	Long: `Subweaver imports subtitle files or YouTube caption tracks, converts
between subtitle formats, machine-translates cue text, and applies
styling on export.

It reads SRT, ASS/SSA, and TTML/XML and writes SRT, VTT, and ASS.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language for fetching or translating (e.g., en, Spanish)")
}
