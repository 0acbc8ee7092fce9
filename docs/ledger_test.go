package docs

import (
	"testing"
	"time"
)

func TestCollectVideoIDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"watch url", "https://youtube.com/watch?v=dQw4w9WgXcQ", []string{"dQw4w9WgXcQ"}},
		{"short url", "veja https://youtu.be/dQw4w9WgXcQ agora", []string{"dQw4w9WgXcQ"}},
		{"live url", "https://www.youtube.com/live/abc123DEF45", []string{"abc123DEF45"}},
		{"multiple", "youtu.be/aaaaaaaaaaa e youtube.com/watch?v=bbbbbbbbbbb", []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}},
		{"no ids", "resumo da live de quarta", nil},
		{"short id ignored", "youtu.be/abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make(map[string]struct{})
			collectVideoIDs(ids, tt.text)
			if len(ids) != len(tt.want) {
				t.Fatalf("got %d ids (%v), want %d", len(ids), ids, len(tt.want))
			}
			for _, id := range tt.want {
				if _, ok := ids[id]; !ok {
					t.Errorf("missing id %s in %v", id, ids)
				}
			}
		})
	}
}

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"Live de quarta", 14},
		{"", 0},
		{"📱 Live", 7},
		{"Aula é boa", 10},
	}
	for _, tt := range tests {
		if got := utf16Len(tt.in); got != tt.want {
			t.Errorf("utf16Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHeadingText(t *testing.T) {
	published := time.Date(2026, 8, 10, 19, 0, 0, 0, time.UTC)

	if got := headingText(Entry{Title: "Live de quarta", Published: published}); got != "Live de quarta (10/08/2026)" {
		t.Errorf("headingText() = %q", got)
	}
	if got := headingText(Entry{Title: "Live avulsa"}); got != "Live avulsa" {
		t.Errorf("headingText() without date = %q", got)
	}
}
