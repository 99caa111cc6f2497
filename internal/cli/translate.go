package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subweaver/subweaver/internal/batch"
	"github.com/subweaver/subweaver/internal/config"
	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/exporter"
	"github.com/subweaver/subweaver/internal/parser"
	"github.com/subweaver/subweaver/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate a subtitle file to another language",
	Long: `Translate the cues of a subtitle file to another language.

Cues are translated one at a time. A rate limit from the backend stops
the run and the partial result is still written, so it can be resumed
later with --mode process_untranslated.

Examples:
  subweaver translate movie.srt --target-language Spanish
  subweaver translate movie.srt -t Japanese --provider anthropic
  subweaver translate movie.ttml -t French --provider google --to vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic, google)")
	translateCmd.Flags().
		String("mode", "process_untranslated", "Which cues to translate (restart_all, process_untranslated)")
	translateCmd.Flags().
		Float64("creativity", 0.5, "Creativity level for AI backends, 0 (literal) to 1 (free)")
	translateCmd.Flags().
		String("prompt", "", "Extra instructions for AI backends")
	translateCmd.Flags().String("to", "", "Output format (srt, vtt, ass); defaults to the input format")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	targetLang, _ := cmd.Flags().GetString("target-language")
	apiKey, _ := cmd.Flags().GetString("api-key")
	providerStr, _ := cmd.Flags().GetString("provider")
	modeStr, _ := cmd.Flags().GetString("mode")
	creativity, _ := cmd.Flags().GetFloat64("creativity")
	customPrompt, _ := cmd.Flags().GetString("prompt")
	toStr, _ := cmd.Flags().GetString("to")
	outputPath, _ := cmd.Flags().GetString("output")

	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if providerStr == "" {
		providerStr = cfg.DefaultProvider
	}
	provider := translate.Provider(providerStr)
	if apiKey == "" {
		apiKey = cfg.APIKeyFor(providerStr)
	}

	mode := batch.Mode(modeStr)
	if mode != batch.ModeRestartAll && mode != batch.ModeProcessUntranslated {
		return fmt.Errorf(
			"unknown mode %q: use restart_all or process_untranslated", modeStr)
	}

	content, err := os.ReadFile(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}

	inputFormat, ok := cue.FormatFromExtension(subtitlePath)
	if !ok {
		return fmt.Errorf("could not infer subtitle format from %q", filepath.Ext(subtitlePath))
	}

	cues, err := parser.Parse(string(content), inputFormat, logger)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(cues) == 0 {
		return fmt.Errorf("subtitle file contains no usable cues")
	}

	translator, err := translate.Factory(ctx, provider, apiKey)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	p := cue.NewProject(strings.TrimSuffix(filepath.Base(subtitlePath), filepath.Ext(subtitlePath)))
	p.SetCues(cues)

	driver := batch.NewDriver(logger)
	result, err := driver.Run(ctx, p, p.Cues, mode, translator, targetLang, batch.Options{
		Creativity:   creativity,
		CustomPrompt: customPrompt,
	})
	if err != nil {
		return err
	}

	switch result.State {
	case batch.StateFailed:
		return fmt.Errorf("translation failed: no cues were translated")
	case batch.StateRateLimited:
		logger.Warnw("Run stopped by a rate limit; partial result will be written",
			"processed", result.Processed,
			"total", result.Total,
		)
	case batch.StatePartiallyCompleted:
		logger.Warnw("Some cues could not be translated",
			"processed", result.Processed,
			"total", result.Total,
		)
	}

	outputFormat := cue.Format(strings.ToLower(toStr))
	if outputFormat == "" {
		outputFormat = inputFormat
		if outputFormat == cue.FormatTTML {
			// no TTML writer; fall back to the closest text format
			outputFormat = cue.FormatSRT
		}
	}

	out, err := exporter.Export(p.Cues, p, outputFormat)
	if err != nil {
		return err
	}

	if outputPath == "" {
		base := strings.TrimSuffix(subtitlePath, filepath.Ext(subtitlePath))
		outputPath = fmt.Sprintf("%s.%s%s", base, targetLang, cue.ExtensionForFormat(outputFormat))
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Infow("Translation complete",
		"output", outputPath,
		"state", string(result.State),
		"processed", result.Processed,
		"total", result.Total,
	)
	return nil
}
