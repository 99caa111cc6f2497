package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/exporter"
	"github.com/subweaver/subweaver/internal/fetch"
	"github.com/subweaver/subweaver/internal/parser"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [video_url]",
	Short: "Download a YouTube caption track",
	Long: `Download a caption track from a YouTube video.

The raw timedtext XML is parsed and re-exported in the requested
format. Use --raw to write the payload untouched instead.

Examples:
  subweaver fetch https://www.youtube.com/watch?v=VIDEO -l en --to srt
  subweaver fetch https://youtu.be/VIDEO -l es --raw -o captions.xml
  subweaver fetch https://youtu.be/VIDEO --list`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("to", "srt", "Output format (srt, vtt, ass)")
	fetchCmd.Flags().Bool("raw", false, "Write the downloaded payload without re-exporting")
	fetchCmd.Flags().Bool("list", false, "List the video's caption tracks without downloading")
}

func runFetch(cmd *cobra.Command, args []string) error {
	videoURL := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lang, _ := cmd.Flags().GetString("language")
	toStr, _ := cmd.Flags().GetString("to")
	raw, _ := cmd.Flags().GetBool("raw")
	list, _ := cmd.Flags().GetBool("list")
	outputPath, _ := cmd.Flags().GetString("output")

	if lang == "" {
		lang = "en"
	}

	client := fetch.NewClient(logger)

	if list {
		tracks, err := client.Tracks(ctx, videoURL)
		if err != nil {
			return fmt.Errorf("failed to list caption tracks: %w", err)
		}
		for _, track := range tracks {
			label := track.LanguageCode
			if track.Kind == "asr" {
				label += " (auto-generated)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", label, track.Name.SimpleText)
		}
		return nil
	}

	result, err := client.Fetch(ctx, videoURL, lang, false)
	if err != nil {
		return fmt.Errorf("failed to fetch captions: %w", err)
	}

	videoID, _ := fetch.ExtractVideoID(videoURL)

	if raw {
		if outputPath == "" {
			outputPath = videoID + "." + result.Track.LanguageCode + ".xml"
		}
		if err := os.WriteFile(outputPath, []byte(result.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Infow("Raw captions written", "output", outputPath)
		return nil
	}

	cues, err := parser.Parse(result.Content, cue.FormatTTML, logger)
	if err != nil {
		return fmt.Errorf("failed to parse downloaded captions: %w", err)
	}
	if len(cues) == 0 {
		return fmt.Errorf("downloaded track contains no usable cues")
	}

	p := cue.NewProject(videoID)
	p.SetCues(cues)

	outputFormat := cue.Format(strings.ToLower(toStr))
	out, err := exporter.Export(p.Cues, p, outputFormat)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = videoID + "." + result.Track.LanguageCode + cue.ExtensionForFormat(outputFormat)
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Infow("Captions downloaded",
		"output", outputPath,
		"language", result.Track.LanguageCode,
		"cues", len(cues),
	)
	return nil
}
