package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/autocorrect/internal/webdriver"
)

// page fakes a driver serving the correction page.
type page struct {
	mu      sync.Mutex
	log     []string
	typed   []string
	output  string
	scripts []string
}

func (p *page) record(s string) {
	p.mu.Lock()
	p.log = append(p.log, s)
	p.mu.Unlock()
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"value": v})
}

func newPage(t *testing.T) (*page, *webdriver.Session) {
	t.Helper()
	p := &page{output: "Fixed text."}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]string{"sessionId": "abc"})
	})
	mux.HandleFunc("POST /session/abc/url", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.record("navigate " + body["url"])
		reply(w, nil)
	})
	mux.HandleFunc("POST /session/abc/timeouts", func(w http.ResponseWriter, r *http.Request) {
		p.record("timeouts")
		reply(w, nil)
	})
	mux.HandleFunc("POST /session/abc/element", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(w, map[string]string{"element-6066-11e4-a52e-4f735466cecf": body["value"]})
	})
	mux.HandleFunc("POST /session/abc/element/{id}/click", func(w http.ResponseWriter, r *http.Request) {
		p.record("click " + r.PathValue("id"))
		reply(w, nil)
	})
	mux.HandleFunc("POST /session/abc/element/{id}/value", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.typed = append(p.typed, body["text"])
		p.mu.Unlock()
		reply(w, nil)
	})
	mux.HandleFunc("GET /session/abc/element/{id}/text", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		reply(w, p.output)
	})
	mux.HandleFunc("POST /session/abc/execute/async", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.scripts = append(p.scripts, body["script"].(string))
		p.mu.Unlock()
		reply(w, true)
	})
	mux.HandleFunc("DELETE /session/abc/window", func(w http.ResponseWriter, r *http.Request) {
		p.record("close window")
		reply(w, []string{})
	})
	mux.HandleFunc("DELETE /session/abc", func(w http.ResponseWriter, r *http.Request) {
		p.record("delete session")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"value": map[string]string{"error": "unknown error", "message": "gone"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s, err := webdriver.NewSession(context.Background(), srv.URL, webdriver.Browser("firefox"), srv.Client())
	require.NoError(t, err)
	return p, s
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SetupDelay = time.Millisecond
	return cfg
}

func TestOpen_RunsSetup(t *testing.T) {
	p, session := newPage(t)

	_, err := Open(context.Background(), session, testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"navigate https://www.deepl.com/write",
		"timeouts",
		"click #headlessui-listbox-button-28",
		"click #headlessui-listbox-option-32",
	}, p.log)
}

func TestOpen_UnknownPasteMode(t *testing.T) {
	_, session := newPage(t)
	cfg := testConfig()
	cfg.PasteMode = "telepathy"

	_, err := Open(context.Background(), session, cfg, nil)
	assert.Error(t, err)
}

func TestReplaceInput_Clipboard(t *testing.T) {
	p, session := newPage(t)
	s, err := Open(context.Background(), session, testConfig(), nil)
	require.NoError(t, err)

	var clip string
	s.writeClipboard = func(text string) error { clip = text; return nil }

	require.NoError(t, s.ReplaceInput(context.Background(), "Ein Satz."))

	assert.Equal(t, "Ein Satz.", clip)
	assert.Equal(t, []string{webdriver.KeyControl + "a", webdriver.KeyControl + "v"}, p.typed)
}

func TestReplaceInput_ClipboardError(t *testing.T) {
	p, session := newPage(t)
	s, err := Open(context.Background(), session, testConfig(), nil)
	require.NoError(t, err)
	s.writeClipboard = func(string) error { return errors.New("no display") }

	err = s.ReplaceInput(context.Background(), "x")
	assert.ErrorContains(t, err, "no display")
	assert.Empty(t, p.typed)
}

func TestReplaceInput_Keys(t *testing.T) {
	p, session := newPage(t)
	cfg := testConfig()
	cfg.PasteMode = PasteKeys
	s, err := Open(context.Background(), session, cfg, nil)
	require.NoError(t, err)
	s.writeClipboard = func(string) error {
		t.Fatal("clipboard used in keys mode")
		return nil
	}

	require.NoError(t, s.ReplaceInput(context.Background(), "Ein Satz."))
	assert.Equal(t, []string{webdriver.KeyControl + "a", "Ein Satz."}, p.typed)
}

func TestReadOutput(t *testing.T) {
	_, session := newPage(t)
	s, err := Open(context.Background(), session, testConfig(), nil)
	require.NoError(t, err)

	out, err := s.ReadOutput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fixed text.", out)
}

func TestAwaitConfirmation_InjectsListener(t *testing.T) {
	p, session := newPage(t)
	s, err := Open(context.Background(), session, testConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, s.AwaitConfirmation(context.Background()))

	require.Len(t, p.scripts, 1)
	assert.True(t, strings.Contains(p.scripts[0], `const key = "b";`), p.scripts[0])
	assert.Contains(t, p.scripts[0], "e.ctrlKey")
}

func TestClose_CombinesErrors(t *testing.T) {
	p, session := newPage(t)
	s, err := Open(context.Background(), session, testConfig(), nil)
	require.NoError(t, err)

	err = s.Close(context.Background())

	assert.ErrorContains(t, err, "gone")
	assert.Contains(t, p.log, "close window")
	assert.Contains(t, p.log, "delete session")
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
