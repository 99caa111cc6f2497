package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/subweaver/subweaver/internal/config"
	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/logging"
	"github.com/subweaver/subweaver/internal/project"
	"github.com/subweaver/subweaver/internal/translate"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,500
Hello there

2
00:00:03,000 --> 00:00:04,000
Second line
`

type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, req translate.Request) (string, error) {
	return "[" + req.TargetLanguage + "] " + req.Text, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	repo, err := project.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := config.Config{DefaultProvider: "gemini", DefaultLanguage: "Spanish"}
	s := New(cfg, repo, logging.NewNop())
	s.newTranslator = func(context.Context, translate.Provider, string) (translate.Translator, error) {
		return echoTranslator{}, nil
	}

	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createProject(t *testing.T, ts *httptest.Server, name string) cue.Project {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project: status %d", resp.StatusCode)
	}
	return decode[cue.Project](t, resp)
}

func importSRT(t *testing.T, ts *httptest.Server, projectID string) cue.Project {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+projectID+"/import", map[string]string{
		"content": sampleSRT,
		"format":  "srt",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import: status %d", resp.StatusCode)
	}
	return decode[cue.Project](t, resp)
}

func TestProjectLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	p := createProject(t, ts, "Lifecycle")
	if p.ID == "" || p.Name != "Lifecycle" {
		t.Fatalf("created project = %+v", p)
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects", nil)
	list := decode[[]project.Summary](t, resp)
	if len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("list = %+v", list)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/projects/"+p.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestImportAndExport(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "Import")

	imported := importSRT(t, ts, p.ID)
	if len(imported.Cues) != 2 {
		t.Fatalf("imported %d cues, want 2", len(imported.Cues))
	}
	if imported.Cues[0].OriginalText != "Hello there" {
		t.Fatalf("cue 0 text = %q", imported.Cues[0].OriginalText)
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID+"/export?format=vtt", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	body := buf.String()
	if !strings.HasPrefix(body, "WEBVTT\n\n") {
		t.Fatalf("vtt export missing header: %q", body[:20])
	}
	if !strings.Contains(body, "00:00:01.000 --> 00:00:02.500") {
		t.Fatalf("vtt export missing period timecodes:\n%s", body)
	}
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "BadFormat")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+p.ID+"/import", map[string]string{
		"content": sampleSRT,
		"format":  "sub",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUpdateCueRejectsInvalidRange(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "Edit")
	imported := importSRT(t, ts, p.ID)
	target := imported.Cues[0]

	resp := doJSON(t, http.MethodPut,
		ts.URL+"/api/v1/projects/"+p.ID+"/cues/"+target.ID,
		map[string]any{"startTime": 5.0, "endTime": 2.0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// prior state untouched
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID, nil)
	got := decode[cue.Project](t, resp)
	if got.Cues[0].StartTime != 1 {
		t.Fatalf("cue mutated after rejected edit: %+v", got.Cues[0])
	}
}

func TestApplyStyleToRange(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "Style")
	importSRT(t, ts, p.ID)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+p.ID+"/style", map[string]any{
		"range": "2",
		"style": map[string]any{"italic": true},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	got := decode[cue.Project](t, resp)
	if got.Cues[0].Style != nil && got.Cues[0].Style.Italic != nil {
		t.Fatal("cue 1 styled, range named only cue 2")
	}
	if got.Cues[1].Style == nil || got.Cues[1].Style.Italic == nil || !*got.Cues[1].Style.Italic {
		t.Fatalf("cue 2 style = %+v, want italic", got.Cues[1].Style)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+p.ID+"/style", map[string]any{
		"range": "9",
		"style": map[string]any{"bold": true},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out-of-range selector: status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTranslationRunWritesBack(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "Translate")
	importSRT(t, ts, p.ID)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+p.ID+"/translate", map[string]any{
		"language": "French",
		"mode":     "restart_all",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// poll until the background run finishes and deregisters
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID+"/translate", nil)
		status := decode[map[string]any](t, resp)
		if status["state"] == "idle" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never finished, last status %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID, nil)
	got := decode[cue.Project](t, resp)
	for i, c := range got.Cues {
		if !strings.HasPrefix(c.TranslatedText, "[French] ") {
			t.Fatalf("cue %d translation = %q", i, c.TranslatedText)
		}
	}
}

// gatedTranslator signals when a call begins and blocks it until released,
// letting a test interleave HTTP requests with an in-flight run.
type gatedTranslator struct {
	started chan struct{}
	release chan struct{}
}

func (g gatedTranslator) Translate(_ context.Context, req translate.Request) (string, error) {
	g.started <- struct{}{}
	<-g.release
	return "[" + req.TargetLanguage + "] " + req.Text, nil
}

func TestTranslationRunKeepsConcurrentEdits(t *testing.T) {
	s, ts := newTestServer(t)
	gate := gatedTranslator{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	s.newTranslator = func(context.Context, translate.Provider, string) (translate.Translator, error) {
		return gate, nil
	}

	p := createProject(t, ts, "ConcurrentEdit")
	imported := importSRT(t, ts, p.ID)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+p.ID+"/translate", map[string]any{
		"language": "German",
		"mode":     "restart_all",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// wait for the run to be mid-call, then edit a cue through the API
	select {
	case <-gate.started:
	case <-time.After(5 * time.Second):
		t.Fatal("translator never called")
	}
	target := imported.Cues[0]
	resp = doJSON(t, http.MethodPut,
		ts.URL+"/api/v1/projects/"+p.ID+"/cues/"+target.ID,
		map[string]any{"originalText": "Hello there, revised", "notes": "edited mid-run"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit during run: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	close(gate.release)

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID+"/translate", nil)
		status := decode[map[string]any](t, resp)
		if status["state"] == "idle" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never finished, last status %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID, nil)
	got := decode[cue.Project](t, resp)
	edited, found := got.CueByID(target.ID)
	if !found {
		t.Fatalf("cue %s missing after run", target.ID)
	}
	if edited.OriginalText != "Hello there, revised" || edited.Notes != "edited mid-run" {
		t.Fatalf("run clobbered concurrent edit: %+v", edited)
	}
	for i, c := range got.Cues {
		if !strings.HasPrefix(c.TranslatedText, "[German] ") {
			t.Fatalf("cue %d translation = %q", i, c.TranslatedText)
		}
	}
}

func TestLanguagesListAndAdd(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/languages", nil)
	list := decode[[]cue.Language](t, resp)
	if len(list) == 0 {
		t.Fatal("no built-in languages listed")
	}
	codes := make(map[string]bool, len(list))
	for _, l := range list {
		codes[l.Code] = true
	}
	if !codes["en"] || !codes["ja"] {
		t.Fatalf("built-ins missing from %v", list)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/languages",
		cue.Language{Code: "eo", Name: "Esperanto"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/languages",
		cue.Language{Code: "EO", Name: "Esperanto again"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate code: status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/languages", nil)
	list = decode[[]cue.Language](t, resp)
	if list[len(list)-1].Code != "eo" {
		t.Fatalf("custom language missing, got %v", list)
	}
}

func TestTranslationResolvesLanguageCode(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "Code")
	importSRT(t, ts, p.ID)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects/"+p.ID+"/translate", map[string]any{
		"language": "de",
		"mode":     "restart_all",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	started := decode[map[string]any](t, resp)
	if started["language"] != "German (Deutsch)" {
		t.Fatalf("language = %v, want the code resolved to its name", started["language"])
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID+"/translate", nil)
		status := decode[map[string]any](t, resp)
		if status["state"] == "idle" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never finished, last status %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects/"+p.ID, nil)
	got := decode[cue.Project](t, resp)
	if !strings.HasPrefix(got.Cues[0].TranslatedText, "[German (Deutsch)] ") {
		t.Fatalf("translation = %q", got.Cues[0].TranslatedText)
	}
}

func TestCancelWithoutRun(t *testing.T) {
	_, ts := newTestServer(t)
	p := createProject(t, ts, "NoRun")

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/projects/"+p.ID+"/translate", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFetchRejectsBadURL(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/fetch", map[string]string{
		"url": "https://example.com/not-a-video",
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", resp.StatusCode)
	}
	resp.Body.Close()
}
