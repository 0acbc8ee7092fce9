// Package guard decides whether a video already carries published timestamps,
// keeping the pipeline idempotent across reruns.
package guard

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"livemarks/youtube"
)

// timestampPattern matches clickable YouTube offsets such as 5:30 or 1:02:45.
var timestampPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)

// markerKeywords are the words an owner comment carrying a chapter list tends
// to include, in the channel's languages.
var markerKeywords = []string{
	"timestamp",
	"marcações",
	"marcacoes",
	"chapters",
	"capítulos",
	"capitulos",
	"índice",
	"indice",
	"tópicos",
	"topicos",
	"minutagem",
}

// minBareTimestamps is how many offsets a comment needs before it counts as a
// chapter list without any keyword.
const minBareTimestamps = 3

// CommentSource lists the top-level comments of a video.
type CommentSource interface {
	TopComments(ctx context.Context, videoID string, maxResults int64) ([]youtube.Comment, error)
}

// Guard checks a video for previously published markers.
type Guard struct {
	// Comments supplies the comment scan.
	Comments CommentSource
	// OwnerChannelID restricts the scan to comments by the channel owner.
	OwnerChannelID string
	// Documented holds video ids already recorded in the summary document.
	Documented map[string]struct{}
	// MaxComments bounds the scan. Zero means 50.
	MaxComments int64
}

// New creates a guard over the given comment source and owner channel.
func New(comments CommentSource, ownerChannelID string) *Guard {
	return &Guard{Comments: comments, OwnerChannelID: ownerChannelID}
}

// Covered reports whether the video already has published markers. Scan
// failures fail open: an unreadable comment section must not wedge the
// pipeline, and a duplicate comment is cheaper than a silently skipped video.
func (g *Guard) Covered(ctx context.Context, videoID string) bool {
	if _, ok := g.Documented[videoID]; ok {
		return true
	}

	covered, err := g.HasOwnerTimestampComment(ctx, videoID)
	if err != nil {
		log.Printf("guard: comment scan failed for %s, assuming not covered: %v", videoID, err)
		return false
	}
	return covered
}

// HasOwnerTimestampComment scans the top relevance-ordered comments for a
// chapter list posted by the channel owner.
func (g *Guard) HasOwnerTimestampComment(ctx context.Context, videoID string) (bool, error) {
	// No comment source means coverage is decided by the documented set alone.
	if g.Comments == nil {
		return false, nil
	}
	// Without an owner id the author restriction cannot be applied, and a
	// viewer's chapter list must never count as coverage.
	if g.OwnerChannelID == "" {
		return false, fmt.Errorf("guard: owner channel id not configured")
	}

	max := g.MaxComments
	if max <= 0 {
		max = 50
	}

	comments, err := g.Comments.TopComments(ctx, videoID, max)
	if err != nil {
		return false, err
	}

	for _, c := range comments {
		if c.AuthorChannelID != g.OwnerChannelID {
			continue
		}
		if LooksLikeTimestampComment(c.Text) {
			return true, nil
		}
	}
	return false, nil
}

// LooksLikeTimestampComment reports whether text reads as a chapter list:
// three or more clock offsets, or at least one offset next to a marker
// keyword.
func LooksLikeTimestampComment(text string) bool {
	matches := timestampPattern.FindAllString(text, minBareTimestamps)
	if len(matches) >= minBareTimestamps {
		return true
	}
	if len(matches) == 0 {
		return false
	}

	lower := strings.ToLower(text)
	for _, kw := range markerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
