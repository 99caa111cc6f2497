// Package fetch downloads caption tracks for a YouTube video by scraping
// the player response embedded in the watch page.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/subweaver/subweaver/internal/logging"
)

// the player response is an inline JSON assignment inside a script tag
var playerResponseRegex = regexp.MustCompile(`(?s)ytInitialPlayerResponse\s*=\s*(\{.*?\});`)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// one available caption track as advertised by the watch page
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"` // "asr" marks auto-generated tracks
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// Result carries the downloaded caption payload plus the track it came from.
type Result struct {
	Content string
	Track   CaptionTrack
}

// Client fetches caption tracks over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string // watch-page host, overridable in tests
	log        *logging.Logger
}

func NewClient(log *logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://www.youtube.com",
		log:        log,
	}
}

// Fetch downloads the caption track best matching the requested language
// for the given video page URL. The payload is the raw timedtext XML by
// default; asVTT requests WebVTT instead.
func (c *Client) Fetch(ctx context.Context, videoURL, lang string, asVTT bool) (Result, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return Result{}, err
	}

	pageURL := c.baseURL + "/watch?v=" + videoID
	c.log.Infow("Fetching video page", "video_id", videoID, "language", lang)

	html, err := c.get(ctx, pageURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetching video page: %w", err)
	}

	tracks, err := extractCaptionTracks(html)
	if err != nil {
		return Result{}, err
	}
	if len(tracks) == 0 {
		return Result{}, fmt.Errorf("no subtitles available for video %s", videoID)
	}

	track := pickTrack(tracks, lang)
	if track.LanguageCode != lang {
		c.log.Warnw("Requested language unavailable, using fallback track",
			"requested", lang,
			"selected", track.LanguageCode,
		)
	}

	subURL, err := buildSubtitleURL(track.BaseURL, asVTT)
	if err != nil {
		return Result{}, err
	}

	content, err := c.get(ctx, subURL, map[string]string{
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://www.youtube.com/",
		"Accept-Encoding": "identity",
	})
	if err != nil {
		return Result{}, fmt.Errorf("downloading subtitle: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return Result{}, fmt.Errorf("empty subtitle content for video %s", videoID)
	}

	c.log.Infow("Subtitle downloaded",
		"video_id", videoID,
		"language", track.LanguageCode,
		"bytes", len(content),
	)
	return Result{Content: content, Track: track}, nil
}

// Tracks lists the caption tracks the watch page advertises, without
// downloading any payload.
func (c *Client) Tracks(ctx context.Context, videoURL string) ([]CaptionTrack, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	html, err := c.get(ctx, c.baseURL+"/watch?v="+videoID, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching video page: %w", err)
	}
	return extractCaptionTracks(html)
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ExtractVideoID pulls the 11-character video id out of the common YouTube
// URL shapes: watch?v=, youtu.be short links, and /embed/ paths.
func ExtractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("invalid video URL: %w", err)
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	if u.Hostname() == "youtu.be" {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return strings.SplitN(id, "/", 2)[0], nil
		}
	}
	if strings.HasPrefix(u.Path, "/embed/") {
		if id := strings.TrimPrefix(u.Path, "/embed/"); id != "" {
			return strings.SplitN(id, "/", 2)[0], nil
		}
	}
	return "", fmt.Errorf("could not extract video id from %q", videoURL)
}

func extractCaptionTracks(html string) ([]CaptionTrack, error) {
	matches := playerResponseRegex.FindStringSubmatch(html)
	if len(matches) < 2 {
		return nil, fmt.Errorf("could not locate ytInitialPlayerResponse in page")
	}

	var pr playerResponse
	if err := json.Unmarshal([]byte(matches[1]), &pr); err != nil {
		return nil, fmt.Errorf("parsing ytInitialPlayerResponse: %w", err)
	}
	return pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// pickTrack prefers an exact language code match, then a primary-subtag
// match (e.g. "en" matching "en-US"), then falls back to the first track.
func pickTrack(tracks []CaptionTrack, lang string) CaptionTrack {
	for _, t := range tracks {
		if strings.EqualFold(t.LanguageCode, lang) {
			return t
		}
	}
	prefix := strings.ToLower(lang) + "-"
	for _, t := range tracks {
		if strings.HasPrefix(strings.ToLower(t.LanguageCode), prefix) {
			return t
		}
	}
	return tracks[0]
}

// buildSubtitleURL optionally appends fmt=vtt so the payload comes back as
// WebVTT instead of the default timedtext XML.
func buildSubtitleURL(baseURL string, asVTT bool) (string, error) {
	if baseURL == "" || !strings.HasPrefix(baseURL, "http") {
		return "", fmt.Errorf("invalid caption track base URL %q", baseURL)
	}
	if !asVTT {
		return baseURL, nil
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "fmt=vtt", nil
}
