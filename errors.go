package livemarks

import (
	"livemarks/internal/retry"
	"livemarks/segment"
	"livemarks/transcript"
	"livemarks/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, transcript.ErrTranscriptUnavailable) {
//		fmt.Println("No transcript on either tier")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var fetchErr *transcript.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("Acquisition failed for %s on tier %s\n", fetchErr.VideoID, fetchErr.Tier)
//	}

// Exported error values from sub-packages:
//
// From transcript package:
//   - transcript.ErrTranscriptUnavailable: both acquisition tiers exhausted
//   - transcript.ErrNoCaptionTrack: no caption track matches the preferences
//   - transcript.ErrEmptyTranscript: a track resolved to zero snippets
//   - transcript.ErrYtdlpNotInstalled: yt-dlp binary not found
//
// From segment package:
//   - segment.ErrSegmentationFailed: provider reply not parseable
//
// From youtube package:
//   - youtube.ErrChannelNotFound: channel does not exist
//   - youtube.ErrVideoNotFound: video does not exist

// Type aliases for convenient error handling.
type (
	// FetchError wraps errors during transcript acquisition.
	FetchError = transcript.FetchError
	// ExhaustedError wraps errors that remained after retries.
	ExhaustedError = retry.ExhaustedError
)

// Sentinel error re-exports.
var (
	// ErrTranscriptUnavailable indicates both acquisition tiers failed.
	ErrTranscriptUnavailable = transcript.ErrTranscriptUnavailable
	// ErrSegmentationFailed indicates an unparseable provider reply.
	ErrSegmentationFailed = segment.ErrSegmentationFailed
	// ErrVideoNotFound indicates the video does not exist.
	ErrVideoNotFound = youtube.ErrVideoNotFound
)
