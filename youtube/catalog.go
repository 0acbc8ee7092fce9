// Package youtube provides the Data API v3 catalog client: channel uploads,
// per-video metadata, top-level comments and description updates.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"livemarks/internal/retry"
)

// Sentinel errors for catalog operations.
var (
	ErrChannelNotFound = errors.New("youtube: channel not found")
	ErrVideoNotFound   = errors.New("youtube: video not found")
)

// LiveWindow is the actual start/end of a live broadcast.
type LiveWindow struct {
	Start time.Time
	End   time.Time
}

// VideoRecord is the catalog's view of one upload. Immutable once fetched;
// the pipeline re-fetches per run and never persists it.
type VideoRecord struct {
	// VideoID is the opaque 11-character video id.
	VideoID string
	// Title is the video title.
	Title string
	// PublishedAt is when the video was published.
	PublishedAt time.Time
	// Description is the full video description.
	Description string
	// ChannelID is the owning channel.
	ChannelID string
	// Live holds the broadcast window when the upload was a live stream.
	Live *LiveWindow
}

// URL returns the canonical watch URL for the record.
func (v VideoRecord) URL() string {
	return "https://youtube.com/watch?v=" + v.VideoID
}

// Comment is a top-level comment on a video.
type Comment struct {
	// AuthorChannelID identifies the comment author.
	AuthorChannelID string
	// Text is the display text of the comment.
	Text string
}

// Catalog wraps the YouTube Data API v3 service.
type Catalog struct {
	service     *yt.Service
	RetryConfig *retry.Config
}

// NewCatalog creates a catalog client from an OAuth2 token source. Token
// persistence and refresh are the caller's concern; the catalog only
// consumes the credential.
func NewCatalog(ctx context.Context, ts oauth2.TokenSource) (*Catalog, error) {
	if ts == nil {
		return nil, fmt.Errorf("youtube: token source required")
	}
	service, err := yt.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	cfg := retry.DefaultConfig()
	return &Catalog{service: service, RetryConfig: &cfg}, nil
}

// NewCatalogWithAPIKey creates a read-only catalog client. Comment insertion
// and description updates require an OAuth credential and will fail.
func NewCatalogWithAPIKey(ctx context.Context, apiKey string) (*Catalog, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: api key required")
	}
	service, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	cfg := retry.DefaultConfig()
	return &Catalog{service: service, RetryConfig: &cfg}, nil
}

func (c *Catalog) retryConfig() retry.Config {
	if c.RetryConfig != nil {
		return *c.RetryConfig
	}
	return retry.DefaultConfig()
}

// MyChannelID returns the channel id of the authenticated account.
func (c *Catalog) MyChannelID(ctx context.Context) (string, error) {
	var channelID string
	err := retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			return ErrChannelNotFound
		}
		channelID = resp.Items[0].Id
		return nil
	})
	return channelID, err
}

// ListLiveUploads pages through the channel's uploads playlist and returns
// the uploads that were live broadcasts, newest first. Listing via the
// uploads playlist (rather than search) is what surfaces members-only
// videos. since bounds the walk; maxResults of 0 means no limit.
func (c *Catalog) ListLiveUploads(ctx context.Context, channelID string, since time.Time, maxResults int) ([]VideoRecord, error) {
	uploadsID, err := c.uploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var records []VideoRecord
	pageToken := ""

	for {
		var ids []string
		err := retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
			resp, err := c.service.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(uploadsID).
				MaxResults(50).
				PageToken(pageToken).
				Context(ctx).Do()
			if err != nil {
				return err
			}
			ids = ids[:0]
			for _, item := range resp.Items {
				ids = append(ids, item.ContentDetails.VideoId)
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		page, err := c.fetchRecords(ctx, ids)
		if err != nil {
			return nil, err
		}

		reachedCutoff := false
		for _, rec := range page {
			if !since.IsZero() && rec.PublishedAt.Before(since) {
				reachedCutoff = true
				break
			}
			if rec.Live == nil {
				continue
			}
			records = append(records, rec)
			if maxResults > 0 && len(records) >= maxResults {
				return records[:maxResults], nil
			}
		}

		if reachedCutoff || pageToken == "" {
			break
		}
	}

	return records, nil
}

// uploadsPlaylistID resolves the channel's uploads playlist id.
func (c *Catalog) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	var playlistID string
	err := retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.Channels.List([]string{"contentDetails"}).
			Id(channelID).
			Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil {
			return fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
		}
		playlistID = resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
		return nil
	})
	return playlistID, err
}

// FetchVideo returns the catalog record for one video id.
func (c *Catalog) FetchVideo(ctx context.Context, videoID string) (*VideoRecord, error) {
	records, err := c.fetchRecords(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	rec := records[0]
	return &rec, nil
}

// fetchRecords resolves up to 50 video ids into records, preserving input
// order.
func (c *Catalog) fetchRecords(ctx context.Context, ids []string) ([]VideoRecord, error) {
	var records []VideoRecord
	err := retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.Videos.List([]string{"snippet", "liveStreamingDetails"}).
			Id(ids...).
			Context(ctx).Do()
		if err != nil {
			return err
		}

		records = records[:0]
		for _, item := range resp.Items {
			rec := VideoRecord{VideoID: item.Id}
			if item.Snippet != nil {
				rec.ChannelID = item.Snippet.ChannelId
				rec.Title = item.Snippet.Title
				rec.Description = item.Snippet.Description
				if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
					rec.PublishedAt = t
				}
			}
			if lsd := item.LiveStreamingDetails; lsd != nil {
				window := &LiveWindow{}
				if t, err := time.Parse(time.RFC3339, lsd.ActualStartTime); err == nil {
					window.Start = t
				}
				if t, err := time.Parse(time.RFC3339, lsd.ActualEndTime); err == nil {
					window.End = t
				}
				if !window.Start.IsZero() {
					rec.Live = window
				}
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reorderRecords(ids, records), nil
}

// reorderRecords arranges API items into the requested id order. The Videos
// endpoint does not guarantee response order, and ListLiveUploads relies on
// the uploads playlist's newest-first order for its cutoff.
func reorderRecords(ids []string, records []VideoRecord) []VideoRecord {
	byID := make(map[string]VideoRecord, len(records))
	for _, rec := range records {
		byID[rec.VideoID] = rec
	}

	ordered := make([]VideoRecord, 0, len(records))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered
}

// TopComments returns up to maxResults top-level comments ordered by
// relevance, which is where owner comments surface first.
func (c *Catalog) TopComments(ctx context.Context, videoID string, maxResults int64) ([]Comment, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	var comments []Comment
	err := retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(maxResults).
			Order("relevance").
			Context(ctx).Do()
		if err != nil {
			return err
		}

		comments = comments[:0]
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			snippet := item.Snippet.TopLevelComment.Snippet
			comment := Comment{Text: snippet.TextDisplay}
			if snippet.AuthorChannelId != nil {
				comment.AuthorChannelID = snippet.AuthorChannelId.Value
			}
			comments = append(comments, comment)
		}
		return nil
	})
	return comments, err
}

// InsertComment posts a top-level comment on the video.
func (c *Catalog) InsertComment(ctx context.Context, videoID, text string) error {
	thread := &yt.CommentThread{
		Snippet: &yt.CommentThreadSnippet{
			VideoId: videoID,
			TopLevelComment: &yt.Comment{
				Snippet: &yt.CommentSnippet{TextOriginal: text},
			},
		},
	}

	return retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		_, err := c.service.CommentThreads.Insert([]string{"snippet"}, thread).Context(ctx).Do()
		return err
	})
}

// UpdateDescription replaces the video description, preserving the title
// and category the API requires on update.
func (c *Catalog) UpdateDescription(ctx context.Context, videoID, description string) error {
	return retry.Do(ctx, c.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := c.service.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			return fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
		}

		snippet := resp.Items[0].Snippet
		snippet.Description = description

		_, err = c.service.Videos.Update([]string{"snippet"}, &yt.Video{
			Id:      videoID,
			Snippet: snippet,
		}).Context(ctx).Do()
		return err
	})
}

// apiErrorClassifier determines if a Data API error is retryable.
func apiErrorClassifier(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrChannelNotFound), errors.Is(err, ErrVideoNotFound):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	msg := err.Error()
	if strings.Contains(msg, "quotaExceeded") || strings.Contains(msg, "rateLimitExceeded") {
		return true
	}
	if strings.Contains(msg, "commentsDisabled") || strings.Contains(msg, "forbidden") {
		return false
	}

	// Default to retryable for unknown errors.
	return true
}
