package transcript

import (
	"context"
	"fmt"
	"log"
)

// CaptionIndex is the primary-tier contract (satisfied by IndexClient).
type CaptionIndex interface {
	ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error)
	FetchTrack(ctx context.Context, videoID string, track CaptionTrack) ([]Snippet, error)
}

// CaptionExtractor is the fallback-tier contract (satisfied by Extractor).
type CaptionExtractor interface {
	Fetch(ctx context.Context, videoID string, languages []string, cookieFile string) ([]Snippet, string, error)
}

// Acquirer retrieves a transcript using the two-tier strategy: caption index
// first, credentialed yt-dlp on any primary failure.
type Acquirer struct {
	Index     CaptionIndex
	Extractor CaptionExtractor
}

// NewAcquirer creates an acquirer with the default tier implementations.
func NewAcquirer() *Acquirer {
	return &Acquirer{
		Index:     NewIndexClient(),
		Extractor: NewExtractor(),
	}
}

// Fetch retrieves a transcript for videoID. languages is an ordered
// preference list; empty accepts whatever track is available first.
// cookieBundle is the base64 cookie jar for the fallback tier; a bundle that
// fails to decode degrades to unauthenticated fetch rather than aborting.
//
// A transcript with zero snippets is a failure, never an empty success.
// When both tiers exhaust the error wraps ErrTranscriptUnavailable.
func (a *Acquirer) Fetch(ctx context.Context, videoID string, languages []string, cookieBundle string) (*Transcript, error) {
	primaryErr := a.fetchPrimary(ctx, videoID, languages)
	if primaryErr.err == nil {
		return primaryErr.transcript, nil
	}
	log.Printf("transcript: primary tier failed for %s: %v", videoID, primaryErr.err)

	t, fallbackErr := a.fetchFallback(ctx, videoID, languages, cookieBundle)
	if fallbackErr == nil {
		return t, nil
	}

	return nil, &FetchError{
		VideoID: videoID,
		Tier:    MethodFallback,
		Err: fmt.Errorf("%w: primary: %v; fallback: %v",
			ErrTranscriptUnavailable, primaryErr.err, fallbackErr),
	}
}

type primaryResult struct {
	transcript *Transcript
	err        error
}

func (a *Acquirer) fetchPrimary(ctx context.Context, videoID string, languages []string) primaryResult {
	tracks, err := a.Index.ListTracks(ctx, videoID)
	if err != nil {
		return primaryResult{err: err}
	}

	track, ok := SelectTrack(tracks, languages)
	if !ok {
		return primaryResult{err: fmt.Errorf("%w: no track matches languages %v", ErrNoCaptionTrack, languages)}
	}

	snippets, err := a.Index.FetchTrack(ctx, videoID, track)
	if err != nil {
		return primaryResult{err: err}
	}
	if len(snippets) == 0 {
		return primaryResult{err: ErrEmptyTranscript}
	}

	return primaryResult{transcript: &Transcript{
		VideoID:      videoID,
		LanguageCode: track.LanguageCode,
		Method:       MethodPrimary,
		Snippets:     snippets,
	}}
}

func (a *Acquirer) fetchFallback(ctx context.Context, videoID string, languages []string, cookieBundle string) (*Transcript, error) {
	cookieFile, cleanup, err := MaterializeCookies(cookieBundle)
	if err != nil {
		// Degraded, not fatal: public videos still work unauthenticated.
		log.Printf("transcript: authentication degraded for %s: %v", videoID, err)
		cookieFile = ""
	}
	defer cleanup()

	snippets, lang, err := a.Extractor.Fetch(ctx, videoID, languages, cookieFile)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, ErrEmptyTranscript
	}

	return &Transcript{
		VideoID:      videoID,
		LanguageCode: lang,
		Method:       MethodFallback,
		Snippets:     snippets,
	}, nil
}
