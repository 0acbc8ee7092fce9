package guard

import (
	"context"
	"errors"
	"testing"

	"livemarks/youtube"
)

const ownerID = "UCowner00000000000000000"

type mockComments struct {
	comments []youtube.Comment
	err      error
	calls    int
}

func (m *mockComments) TopComments(ctx context.Context, videoID string, maxResults int64) ([]youtube.Comment, error) {
	m.calls++
	return m.comments, m.err
}

func TestCoveredNoComments(t *testing.T) {
	g := New(&mockComments{}, ownerID)
	if g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("video with no comments must not count as covered")
	}
}

func TestCoveredOwnerTimestampComment(t *testing.T) {
	g := New(&mockComments{comments: []youtube.Comment{
		{AuthorChannelID: ownerID, Text: "0:00 Intro\n5:30 Tema principal\n12:45 Encerramento"},
	}}, ownerID)

	if !g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("owner comment with three offsets must count as covered")
	}
}

func TestCoveredIgnoresOtherAuthors(t *testing.T) {
	g := New(&mockComments{comments: []youtube.Comment{
		{AuthorChannelID: "UCviewer0000000000000000", Text: "0:00 Intro\n5:30 Tema\n12:45 Fim"},
	}}, ownerID)

	if g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("viewer chapter lists must not count as covered")
	}
}

func TestCoveredFailsOpenOnScanError(t *testing.T) {
	g := New(&mockComments{err: errors.New("comments disabled")}, ownerID)
	if g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("scan errors must fail open, not block the video")
	}
}

func TestCoveredDocumentedSet(t *testing.T) {
	source := &mockComments{}
	g := New(source, ownerID)
	g.Documented = map[string]struct{}{"aaaaaaaaaaa": {}}

	if !g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("documented video must count as covered")
	}
	if source.calls != 0 {
		t.Errorf("documented set should short-circuit the comment scan, got %d calls", source.calls)
	}
}

func TestCoveredWithoutOwnerID(t *testing.T) {
	// A viewer's chapter list must never count as coverage, even when no
	// owner id was configured.
	source := &mockComments{comments: []youtube.Comment{
		{AuthorChannelID: "UCviewer0000000000000000", Text: "0:00 Intro\n5:30 Tema\n12:45 Fim"},
	}}
	g := New(source, "")

	if g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("guard without an owner id must not count any comment as coverage")
	}
	if _, err := g.HasOwnerTimestampComment(context.Background(), "aaaaaaaaaaa"); err == nil {
		t.Error("HasOwnerTimestampComment() without an owner id should report an error")
	}
}

func TestCoveredWithoutCommentSource(t *testing.T) {
	g := &Guard{Documented: map[string]struct{}{"aaaaaaaaaaa": {}}}

	if !g.Covered(context.Background(), "aaaaaaaaaaa") {
		t.Error("documented video must count as covered without a comment source")
	}
	if g.Covered(context.Background(), "bbbbbbbbbbb") {
		t.Error("undocumented video must not count as covered without a comment source")
	}
}

func TestLooksLikeTimestampComment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"three offsets", "0:00 Intro\n5:30 Tema\n12:45 Fim", true},
		{"one offset with keyword", "Marcações: 5:30 tema principal", true},
		{"one offset keyword uppercase", "TIMESTAMPS 1:02:45", true},
		{"one offset no keyword", "veja em 5:30", false},
		{"no offsets", "ótima live, obrigado!", false},
		{"keyword without offset", "cadê os capítulos?", false},
		{"long offsets", "1:02:45 abertura\n2:15:00 perguntas\n3:00:01 fim", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeTimestampComment(tt.text); got != tt.want {
				t.Errorf("LooksLikeTimestampComment(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
