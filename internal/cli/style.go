package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/cuerange"
	"github.com/subweaver/subweaver/internal/exporter"
	"github.com/subweaver/subweaver/internal/parser"
)

var styleCmd = &cobra.Command{
	Use:   "style [subtitle_file]",
	Short: "Apply styling to cues and export",
	Long: `Apply styling to a subset of cues and export the result.

The --cues flag takes a 1-based range expression like "1,3,5-7". Without
it, the style is applied project-wide.

Examples:
  subweaver style movie.srt --cues 1-10 --italic --to ass
  subweaver style movie.srt --color "#FFD700" --font-size 32px --to ass`,
	Args: cobra.ExactArgs(1),
	RunE: runStyle,
}

func init() {
	rootCmd.AddCommand(styleCmd)

	styleCmd.Flags().String("cues", "", `Cue range expression, e.g. "1,3,5-7" (default: all cues)`)
	styleCmd.Flags().String("to", "ass", "Output format (srt, vtt, ass)")
	styleCmd.Flags().Bool("bold", false, "Bold text")
	styleCmd.Flags().Bool("italic", false, "Italic text")
	styleCmd.Flags().String("color", "", "Text color, e.g. #FFFFFF")
	styleCmd.Flags().String("font-family", "", "Font family name")
	styleCmd.Flags().String("font-size", "", "Font size with unit, e.g. 28px")
}

func runStyle(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	rangeExpr, _ := cmd.Flags().GetString("cues")
	toStr, _ := cmd.Flags().GetString("to")
	outputPath, _ := cmd.Flags().GetString("output")

	style := styleFromFlags(cmd)

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}

	inputFormat, ok := cue.FormatFromExtension(inputPath)
	if !ok {
		return fmt.Errorf("could not infer subtitle format from %q", filepath.Ext(inputPath))
	}

	cues, err := parser.Parse(string(content), inputFormat, logger)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(cues) == 0 {
		return fmt.Errorf("subtitle file contains no usable cues")
	}

	p := cue.NewProject(strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	p.SetCues(cues)

	if strings.TrimSpace(rangeExpr) == "" {
		p.GlobalStyles = p.GlobalStyles.Merge(style)
	} else {
		indices, err := cuerange.Parse(rangeExpr, len(p.Cues))
		if err != nil {
			return err
		}
		if err := p.ApplyStyleToCues(indices, style); err != nil {
			return err
		}
		logger.Infow("Applied style", "cues", len(indices))
	}

	outputFormat := cue.Format(strings.ToLower(toStr))
	out, err := exporter.Export(p.Cues, p, outputFormat)
	if err != nil {
		return err
	}

	if outputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = base + ".styled" + cue.ExtensionForFormat(outputFormat)
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Infow("Styled export complete", "output", outputPath)
	return nil
}

func styleFromFlags(cmd *cobra.Command) cue.StylingOptions {
	var style cue.StylingOptions
	if v, _ := cmd.Flags().GetBool("bold"); v {
		style.Bold = cue.Bool(true)
	}
	if v, _ := cmd.Flags().GetBool("italic"); v {
		style.Italic = cue.Bool(true)
	}
	if v, _ := cmd.Flags().GetString("color"); v != "" {
		style.Color = v
	}
	if v, _ := cmd.Flags().GetString("font-family"); v != "" {
		style.FontFamily = v
	}
	if v, _ := cmd.Flags().GetString("font-size"); v != "" {
		style.FontSize = v
	}
	return style
}
