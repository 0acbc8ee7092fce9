// Package transcript acquires timestamped transcripts for YouTube videos.
//
// Two tiers are attempted in strict order: the public caption index
// (fast, no credential) and a yt-dlp subprocess (slower, optionally
// authenticated with a cookie jar, reaches members-only videos). Both tiers
// produce the same normalized Transcript shape.
package transcript

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for transcript acquisition.
var (
	// ErrTranscriptUnavailable indicates both tiers were exhausted.
	ErrTranscriptUnavailable = errors.New("transcript: unavailable")
	// ErrNoCaptionTrack indicates the caption index has no track for the video.
	ErrNoCaptionTrack = errors.New("transcript: no caption track")
	// ErrEmptyTranscript indicates a tier produced zero snippets.
	ErrEmptyTranscript = errors.New("transcript: empty transcript")
	// ErrYtdlpNotInstalled indicates the yt-dlp binary was not found.
	ErrYtdlpNotInstalled = errors.New("transcript: yt-dlp not installed")
)

// Method records which acquisition tier produced a transcript. Fallback
// transcripts are typically auto-generated and lower fidelity; publishers
// may want to flag that.
type Method string

const (
	// MethodPrimary is the caption-index tier.
	MethodPrimary Method = "primary"
	// MethodFallback is the yt-dlp tier.
	MethodFallback Method = "fallback"
)

// Snippet is a single timed piece of transcript text.
type Snippet struct {
	// Text is the spoken text.
	Text string `json:"text"`
	// Start is the offset into the video, in seconds.
	Start float64 `json:"start"`
	// Duration is how long the snippet is on screen, in seconds.
	Duration float64 `json:"duration"`
}

// Transcript is an ordered sequence of snippets for one video.
type Transcript struct {
	VideoID      string    `json:"video_id"`
	LanguageCode string    `json:"language_code"`
	Method       Method    `json:"method"`
	Snippets     []Snippet `json:"snippets"`
}

// VideoDuration returns the end of the last snippet, in seconds.
// This is the upper bound every topic marker must respect.
func (t *Transcript) VideoDuration() float64 {
	if len(t.Snippets) == 0 {
		return 0
	}
	last := t.Snippets[len(t.Snippets)-1]
	return last.Start + last.Duration
}

// FullText joins all snippet text with single spaces.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Snippets))
	for _, s := range t.Snippets {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// FetchError wraps an acquisition failure with the video and tier context.
type FetchError struct {
	VideoID string
	Tier    Method
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("transcript fetch for %s (%s tier): %v", e.VideoID, e.Tier, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
