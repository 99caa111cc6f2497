package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/exporter"
	"github.com/subweaver/subweaver/internal/parser"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Convert a subtitle file to another format",
	Long: `Convert a subtitle file to another format.

Input formats: SRT, ASS/SSA, TTML/XML. Output formats: SRT, VTT, ASS.

Examples:
  subweaver convert captions.ttml --to srt
  subweaver convert movie.srt --to ass -o movie.ass
  subweaver convert episode.ass --to vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("to", "t", "srt", "Output format (srt, vtt, ass)")
	convertCmd.Flags().String("from", "", "Input format (srt, ass, ttml); inferred from extension by default")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	toStr, _ := cmd.Flags().GetString("to")
	fromStr, _ := cmd.Flags().GetString("from")
	outputPath, _ := cmd.Flags().GetString("output")

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}

	inputFormat := cue.Format(strings.ToLower(fromStr))
	if inputFormat == "" {
		inferred, ok := cue.FormatFromExtension(inputPath)
		if !ok {
			return fmt.Errorf(
				"could not infer input format from %q: use --from (srt, ass, ttml)",
				filepath.Ext(inputPath),
			)
		}
		inputFormat = inferred
	}

	outputFormat := cue.Format(strings.ToLower(toStr))

	logger.Infow("Parsing subtitle file",
		"input", inputPath,
		"format", string(inputFormat),
	)

	cues, err := parser.Parse(string(content), inputFormat, logger)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(cues) == 0 {
		return fmt.Errorf("subtitle file contains no usable cues")
	}

	p := cue.NewProject(strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	p.SetCues(cues)

	out, err := exporter.Export(p.Cues, p, outputFormat)
	if err != nil {
		return err
	}

	if outputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = base + cue.ExtensionForFormat(outputFormat)
	}

	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Infow("Conversion complete",
		"output", outputPath,
		"cues", len(cues),
		"format", string(outputFormat),
	)
	return nil
}
