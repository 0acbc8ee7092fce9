package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"livemarks/httpclient"
)

const defaultTimedtextBaseURL = "https://www.youtube.com/api/timedtext"

// IndexClient is the primary acquisition tier: direct access to YouTube's
// timedtext caption index.
type IndexClient struct {
	httpClient *httpclient.Client
	baseURL    string
}

// NewIndexClient creates a caption index client with default settings.
func NewIndexClient() *IndexClient {
	return &IndexClient{
		httpClient: httpclient.New(nil),
		baseURL:    defaultTimedtextBaseURL,
	}
}

// NewIndexClientWith allows injecting the HTTP client and base URL, used by
// tests and by callers that tune rate limits.
func NewIndexClientWith(c *httpclient.Client, baseURL string) *IndexClient {
	if baseURL == "" {
		baseURL = defaultTimedtextBaseURL
	}
	return &IndexClient{httpClient: c, baseURL: baseURL}
}

// CaptionTrack describes one available caption track for a video.
type CaptionTrack struct {
	// LanguageCode is the short language code (e.g. "pt", "en").
	LanguageCode string
	// Name is the human-readable track name.
	Name string
	// AutoGenerated is true for ASR tracks. Manually-authored tracks are
	// preferred within the same language.
	AutoGenerated bool
}

// trackList mirrors the timedtext type=list XML payload.
type trackList struct {
	XMLName xml.Name `xml:"transcript_list"`
	Tracks  []struct {
		LangCode string `xml:"lang_code,attr"`
		Name     string `xml:"name,attr"`
		Kind     string `xml:"kind,attr"`
	} `xml:"track"`
}

// ListTracks fetches the available caption tracks for a video.
func (ic *IndexClient) ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video ID is required")
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("type", "list")

	resp, err := ic.httpClient.Get(ctx, fmt.Sprintf("%s?%s", ic.baseURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("track list request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption index returned status %d", resp.StatusCode)
	}

	var list trackList
	if err := xml.Unmarshal(resp.Body, &list); err != nil {
		return nil, fmt.Errorf("parse track list: %w", err)
	}

	tracks := make([]CaptionTrack, 0, len(list.Tracks))
	for _, t := range list.Tracks {
		tracks = append(tracks, CaptionTrack{
			LanguageCode:  t.LangCode,
			Name:          t.Name,
			AutoGenerated: t.Kind == "asr",
		})
	}

	if len(tracks) == 0 {
		return nil, ErrNoCaptionTrack
	}
	return tracks, nil
}

// FetchTrack fetches the snippets of one caption track as json3.
func (ic *IndexClient) FetchTrack(ctx context.Context, videoID string, track CaptionTrack) ([]Snippet, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video ID is required")
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", track.LanguageCode)
	params.Set("fmt", "json3")
	if track.AutoGenerated {
		params.Set("kind", "asr")
	}

	resp, err := ic.httpClient.Get(ctx, fmt.Sprintf("%s?%s", ic.baseURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("caption request failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Success
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: video %s language %s", ErrNoCaptionTrack, videoID, track.LanguageCode)
	case http.StatusForbidden:
		return nil, fmt.Errorf("access denied: video restricted or captions disabled")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited by caption index")
	default:
		return nil, fmt.Errorf("caption index returned status %d", resp.StatusCode)
	}

	snippets, err := ParseJSON3(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse caption payload: %w", err)
	}
	return snippets, nil
}

// SelectTrack picks the best track for the ordered language preference list.
// Preference is two-level: language rank outer, manual-over-auto inner. With
// no preferences the first available track wins.
func SelectTrack(tracks []CaptionTrack, preferred []string) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}
	if len(preferred) == 0 {
		return tracks[0], true
	}

	for _, lang := range preferred {
		var match *CaptionTrack
		for i := range tracks {
			if tracks[i].LanguageCode != lang {
				continue
			}
			if !tracks[i].AutoGenerated {
				// A manual track in this language beats everything else.
				return tracks[i], true
			}
			if match == nil {
				match = &tracks[i]
			}
		}
		if match != nil {
			return *match, true
		}
	}
	return CaptionTrack{}, false
}

// Close releases the underlying HTTP client.
func (ic *IndexClient) Close() error {
	if ic.httpClient != nil {
		return ic.httpClient.Close()
	}
	return nil
}
