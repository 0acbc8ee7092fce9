package transcript

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
)

// mockIndex is a scripted caption index.
type mockIndex struct {
	tracks    []CaptionTrack
	listErr   error
	snippets  []Snippet
	fetchErr  error
	listCalls int
}

func (m *mockIndex) ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	m.listCalls++
	return m.tracks, m.listErr
}

func (m *mockIndex) FetchTrack(ctx context.Context, videoID string, track CaptionTrack) ([]Snippet, error) {
	return m.snippets, m.fetchErr
}

// mockExtractor is a scripted fallback extractor.
type mockExtractor struct {
	snippets   []Snippet
	lang       string
	err        error
	calls      int
	cookieFile string
}

func (m *mockExtractor) Fetch(ctx context.Context, videoID string, languages []string, cookieFile string) ([]Snippet, string, error) {
	m.calls++
	m.cookieFile = cookieFile
	return m.snippets, m.lang, m.err
}

var testSnippets = []Snippet{
	{Text: "Hello", Start: 0, Duration: 2},
	{Text: "World", Start: 700, Duration: 3},
}

func TestFetchPrimarySucceeds(t *testing.T) {
	index := &mockIndex{
		tracks:   []CaptionTrack{{LanguageCode: "pt"}},
		snippets: testSnippets,
	}
	extractor := &mockExtractor{}
	a := &Acquirer{Index: index, Extractor: extractor}

	got, err := a.Fetch(context.Background(), "abc123def45", []string{"pt"}, "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Method != MethodPrimary {
		t.Errorf("Method = %q, want %q", got.Method, MethodPrimary)
	}
	if got.LanguageCode != "pt" {
		t.Errorf("LanguageCode = %q, want pt", got.LanguageCode)
	}
	if extractor.calls != 0 {
		t.Errorf("fallback called %d times, want 0", extractor.calls)
	}
}

func TestFetchFallsBackOnPrimaryFailure(t *testing.T) {
	index := &mockIndex{listErr: errors.New("captions disabled")}
	extractor := &mockExtractor{snippets: testSnippets, lang: "pt"}
	a := &Acquirer{Index: index, Extractor: extractor}

	got, err := a.Fetch(context.Background(), "abc123def45", []string{"pt"}, "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Method != MethodFallback {
		t.Errorf("Method = %q, want %q", got.Method, MethodFallback)
	}
	if extractor.calls != 1 {
		t.Errorf("fallback called %d times, want exactly 1", extractor.calls)
	}
}

func TestFetchEmptyPrimaryTranscriptIsFailure(t *testing.T) {
	index := &mockIndex{
		tracks:   []CaptionTrack{{LanguageCode: "pt"}},
		snippets: nil, // zero snippets must not count as success
	}
	extractor := &mockExtractor{snippets: testSnippets, lang: "en"}
	a := &Acquirer{Index: index, Extractor: extractor}

	got, err := a.Fetch(context.Background(), "abc123def45", nil, "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Method != MethodFallback {
		t.Errorf("empty primary transcript should trigger fallback, got method %q", got.Method)
	}
}

func TestFetchBothTiersExhausted(t *testing.T) {
	index := &mockIndex{listErr: errors.New("captions disabled")}
	extractor := &mockExtractor{err: errors.New("video restricted")}
	a := &Acquirer{Index: index, Extractor: extractor}

	_, err := a.Fetch(context.Background(), "abc123def45", nil, "")
	if !errors.Is(err, ErrTranscriptUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrTranscriptUnavailable", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Fetch() error type = %T, want *FetchError", err)
	}
	if fetchErr.VideoID != "abc123def45" {
		t.Errorf("FetchError.VideoID = %q", fetchErr.VideoID)
	}
}

func TestFetchPassesCookieFileToFallback(t *testing.T) {
	index := &mockIndex{listErr: errors.New("members only")}
	extractor := &mockExtractor{snippets: testSnippets, lang: "pt"}
	a := &Acquirer{Index: index, Extractor: extractor}

	bundle := base64.StdEncoding.EncodeToString([]byte("# Netscape HTTP Cookie File\n"))
	if _, err := a.Fetch(context.Background(), "abc123def45", nil, bundle); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if extractor.cookieFile == "" {
		t.Error("fallback did not receive a materialized cookie file")
	}
}

func TestFetchDegradesOnBadCookieBundle(t *testing.T) {
	index := &mockIndex{listErr: errors.New("members only")}
	extractor := &mockExtractor{snippets: testSnippets, lang: "pt"}
	a := &Acquirer{Index: index, Extractor: extractor}

	// Invalid base64 degrades to unauthenticated fetch, not a hard error.
	got, err := a.Fetch(context.Background(), "abc123def45", nil, "%%%not-base64%%%")
	if err != nil {
		t.Fatalf("Fetch() error = %v, want degraded success", err)
	}
	if got.Method != MethodFallback {
		t.Errorf("Method = %q, want %q", got.Method, MethodFallback)
	}
	if extractor.cookieFile != "" {
		t.Errorf("degraded fetch should be unauthenticated, got cookie file %q", extractor.cookieFile)
	}
}

func TestVideoDuration(t *testing.T) {
	tr := &Transcript{Snippets: testSnippets}
	if got := tr.VideoDuration(); got != 703 {
		t.Errorf("VideoDuration() = %v, want 703", got)
	}

	empty := &Transcript{}
	if got := empty.VideoDuration(); got != 0 {
		t.Errorf("VideoDuration() on empty transcript = %v, want 0", got)
	}
}
