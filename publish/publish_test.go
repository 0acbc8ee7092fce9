package publish

import (
	"context"
	"strings"
	"testing"
	"time"

	"livemarks/docs"
	"livemarks/segment"
	"livemarks/transcript"
	"livemarks/youtube"
)

type mockComments struct {
	posted []string
	err    error
}

func (m *mockComments) InsertComment(ctx context.Context, videoID, text string) error {
	m.posted = append(m.posted, text)
	return m.err
}

type mockDescriptions struct {
	current string
	updated []string
}

func (m *mockDescriptions) FetchVideo(ctx context.Context, videoID string) (*youtube.VideoRecord, error) {
	return &youtube.VideoRecord{VideoID: videoID, Description: m.current}, nil
}

func (m *mockDescriptions) UpdateDescription(ctx context.Context, videoID, description string) error {
	m.updated = append(m.updated, description)
	return nil
}

type mockLedger struct {
	entries []docs.Entry
}

func (m *mockLedger) AppendEntry(ctx context.Context, entry docs.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func testRecord() youtube.VideoRecord {
	return youtube.VideoRecord{
		VideoID:     "abc123def45",
		Title:       "Live de quarta",
		PublishedAt: time.Date(2026, 8, 10, 19, 0, 0, 0, time.UTC),
	}
}

func markers(ts ...float64) []segment.TopicMarker {
	out := make([]segment.TopicMarker, len(ts))
	for i, t := range ts {
		out[i] = segment.TopicMarker{Timestamp: t, Title: "Tema"}
	}
	return out
}

func TestEnsureStartMarkerSynthesizesOpener(t *testing.T) {
	got := EnsureStartMarker(markers(42, 300))
	if len(got) != 3 {
		t.Fatalf("got %d markers, want 3", len(got))
	}
	if got[0].Timestamp != 0 || got[0].Title != "Início" {
		t.Errorf("first marker = %+v, want synthesized 0:00 opener", got[0])
	}
}

func TestEnsureStartMarkerKeepsExistingZero(t *testing.T) {
	got := EnsureStartMarker(markers(0, 300))
	if len(got) != 2 {
		t.Errorf("marker at 0 present, nothing should be synthesized: got %d markers", len(got))
	}
}

func TestEnsureStartMarkerEmpty(t *testing.T) {
	if got := EnsureStartMarker(nil); got != nil {
		t.Errorf("EnsureStartMarker(nil) = %v, want nil", got)
	}
}

func TestCommentFormat(t *testing.T) {
	got := Comment([]segment.TopicMarker{
		{Timestamp: 0, Title: "Início"},
		{Timestamp: 330, Title: "Tema principal"},
	}, transcript.MethodPrimary)

	want := "📌 Timestamps:\n\n0:00 Início\n5:30 Tema principal"
	if got != want {
		t.Errorf("Comment() = %q, want %q", got, want)
	}
}

func TestCommentFallbackNote(t *testing.T) {
	got := Comment(markers(0), transcript.MethodFallback)
	if !strings.Contains(got, "legendas automáticas") {
		t.Errorf("fallback-derived comment must carry the caption note, got %q", got)
	}
}

func TestDescriptionWithTimestampsAppends(t *testing.T) {
	got := DescriptionWithTimestamps("Descrição original.\n", markers(0))
	want := "Descrição original.\n\nTimestamps:\n0:00 Tema"
	if got != want {
		t.Errorf("DescriptionWithTimestamps() = %q, want %q", got, want)
	}
}

func TestDescriptionWithTimestampsReplaces(t *testing.T) {
	existing := "Intro.\n\nTimestamps:\n0:00 Velho\n5:00 Antigo\n\nLinks:\nhttps://example.com"
	got := DescriptionWithTimestamps(existing, []segment.TopicMarker{{Timestamp: 0, Title: "Novo"}})

	if strings.Contains(got, "Velho") || strings.Contains(got, "Antigo") {
		t.Errorf("old block must be replaced, got %q", got)
	}
	if !strings.Contains(got, "Timestamps:\n0:00 Novo") {
		t.Errorf("new block missing, got %q", got)
	}
	if !strings.Contains(got, "Links:\nhttps://example.com") {
		t.Errorf("content after the block must survive, got %q", got)
	}
}

func TestDescriptionWithTimestampsEmptyDescription(t *testing.T) {
	got := DescriptionWithTimestamps("", markers(0))
	if got != "Timestamps:\n0:00 Tema" {
		t.Errorf("DescriptionWithTimestamps(\"\") = %q", got)
	}
}

func TestPublishAllArtifacts(t *testing.T) {
	comments := &mockComments{}
	descriptions := &mockDescriptions{current: "Descrição."}
	ledger := &mockLedger{}

	p := &Publisher{Comments: comments, Descriptions: descriptions, Ledger: ledger}
	analysis := &segment.Analysis{
		Markers: markers(42, 300),
		Summary: "Resumo da live.",
		QA:      []segment.QAEntry{{Question: "Como?", Answer: "Assim.", Timestamp: 120}},
	}

	if err := p.Publish(context.Background(), testRecord(), analysis, transcript.MethodPrimary); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(comments.posted) != 1 {
		t.Fatalf("posted %d comments, want 1", len(comments.posted))
	}
	if !strings.HasPrefix(comments.posted[0], "📌 Timestamps:") {
		t.Errorf("comment = %q", comments.posted[0])
	}
	if !strings.Contains(comments.posted[0], "0:00 Início") {
		t.Errorf("comment must start at 0:00, got %q", comments.posted[0])
	}
	if len(descriptions.updated) != 1 {
		t.Errorf("description updated %d times, want 1", len(descriptions.updated))
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("ledger got %d entries, want 1", len(ledger.entries))
	}
	entry := ledger.entries[0]
	if entry.VideoID != "abc123def45" || entry.URL != "https://youtube.com/watch?v=abc123def45" {
		t.Errorf("entry = %+v", entry)
	}
	if !strings.Contains(entry.Body, "Resumo da live.") || !strings.Contains(entry.Body, "[2:00] Como?") {
		t.Errorf("entry body = %q", entry.Body)
	}
}

func TestPublishNoMarkers(t *testing.T) {
	p := &Publisher{Comments: &mockComments{}}
	if err := p.Publish(context.Background(), testRecord(), &segment.Analysis{}, transcript.MethodPrimary); err == nil {
		t.Fatal("Publish() with no markers should fail")
	}
}

func TestPublishDryRunWritesNothing(t *testing.T) {
	comments := &mockComments{}
	ledger := &mockLedger{}
	p := &Publisher{Comments: comments, Ledger: ledger, DryRun: true}

	analysis := &segment.Analysis{Markers: markers(0)}
	if err := p.Publish(context.Background(), testRecord(), analysis, transcript.MethodPrimary); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(comments.posted) != 0 || len(ledger.entries) != 0 {
		t.Error("dry run must not write artifacts")
	}
}
