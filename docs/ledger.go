// Package docs maintains the running summary document: a Google Doc with one
// entry per processed broadcast, used both as an archive and as a publish
// ledger.
package docs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf16"

	"golang.org/x/oauth2"
	gdocs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"livemarks/internal/retry"
)

// ErrDocumentEmpty indicates the configured document could not be read or has
// no body.
var ErrDocumentEmpty = errors.New("docs: document has no body")

// videoLinkPattern extracts the 11-character video id from the watch URL
// shapes that appear in entry headings.
var videoLinkPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)

// Entry is one document entry. Heading carries the hyperlink that later runs
// use to recognize the video as documented.
type Entry struct {
	// VideoID is the video the entry covers.
	VideoID string
	// Title is the heading text.
	Title string
	// URL is the watch URL the heading links to.
	URL string
	// Published is the video publish time, rendered in the heading.
	Published time.Time
	// Body is the prerendered entry text below the heading.
	Body string
}

// Ledger wraps the Docs API for a single document.
type Ledger struct {
	service     *gdocs.Service
	documentID  string
	RetryConfig *retry.Config
}

// NewLedger creates a ledger client for the given document.
func NewLedger(ctx context.Context, ts oauth2.TokenSource, documentID string) (*Ledger, error) {
	if documentID == "" {
		return nil, fmt.Errorf("docs: document id required")
	}
	service, err := gdocs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	cfg := retry.DefaultConfig()
	return &Ledger{service: service, documentID: documentID, RetryConfig: &cfg}, nil
}

func (l *Ledger) retryConfig() retry.Config {
	if l.RetryConfig != nil {
		return *l.RetryConfig
	}
	return retry.DefaultConfig()
}

// DocumentedVideoIDs reads the document and returns every video id found in
// its text or hyperlinks. The result seeds the publish guard.
func (l *Ledger) DocumentedVideoIDs(ctx context.Context) (map[string]struct{}, error) {
	var doc *gdocs.Document
	err := retry.Do(ctx, l.retryConfig(), docsErrorClassifier, func(ctx context.Context) error {
		var err error
		doc, err = l.service.Documents.Get(l.documentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", l.documentID, err)
	}
	if doc.Body == nil {
		return nil, ErrDocumentEmpty
	}

	ids := make(map[string]struct{})
	for _, elem := range doc.Body.Content {
		if elem.Paragraph == nil {
			continue
		}
		for _, pe := range elem.Paragraph.Elements {
			if pe.TextRun == nil {
				continue
			}
			collectVideoIDs(ids, pe.TextRun.Content)
			if style := pe.TextRun.TextStyle; style != nil && style.Link != nil {
				collectVideoIDs(ids, style.Link.Url)
			}
		}
	}
	return ids, nil
}

func collectVideoIDs(ids map[string]struct{}, text string) {
	for _, match := range videoLinkPattern.FindAllStringSubmatch(text, -1) {
		ids[match[1]] = struct{}{}
	}
}

// AppendEntry appends an entry to the end of the document: a bold, linked
// heading followed by the prerendered body.
func (l *Ledger) AppendEntry(ctx context.Context, entry Entry) error {
	endIndex, err := l.bodyEndIndex(ctx)
	if err != nil {
		return err
	}

	heading := headingText(entry)
	text := fmt.Sprintf("\n%s\n%s\n", heading, entry.Body)

	// Insertions land before the trailing newline of the body.
	at := endIndex - 1
	headingStart := at + 1
	headingEnd := headingStart + utf16Len(heading)

	requests := []*gdocs.Request{
		{
			InsertText: &gdocs.InsertTextRequest{
				Location: &gdocs.Location{Index: at},
				Text:     text,
			},
		},
		{
			UpdateTextStyle: &gdocs.UpdateTextStyleRequest{
				Range: &gdocs.Range{StartIndex: headingStart, EndIndex: headingEnd},
				TextStyle: &gdocs.TextStyle{
					Bold: true,
					Link: &gdocs.Link{Url: entry.URL},
				},
				Fields: "bold,link",
			},
		},
	}

	return retry.Do(ctx, l.retryConfig(), docsErrorClassifier, func(ctx context.Context) error {
		_, err := l.service.Documents.BatchUpdate(l.documentID, &gdocs.BatchUpdateDocumentRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return err
	})
}

// utf16Len measures s the way Docs API ranges do: in UTF-16 code units, so
// characters outside the basic plane (emoji in titles) count as two.
func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}

// headingText renders the entry heading, with the publish date when known.
func headingText(entry Entry) string {
	if entry.Published.IsZero() {
		return entry.Title
	}
	return fmt.Sprintf("%s (%s)", entry.Title, entry.Published.Format("02/01/2006"))
}

// bodyEndIndex returns the end index of the document body.
func (l *Ledger) bodyEndIndex(ctx context.Context) (int64, error) {
	var doc *gdocs.Document
	err := retry.Do(ctx, l.retryConfig(), docsErrorClassifier, func(ctx context.Context) error {
		var err error
		doc, err = l.service.Documents.Get(l.documentID).Fields("body(content(endIndex))").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read document %s: %w", l.documentID, err)
	}
	if doc.Body == nil || len(doc.Body.Content) == 0 {
		return 0, ErrDocumentEmpty
	}
	return doc.Body.Content[len(doc.Body.Content)-1].EndIndex, nil
}

func docsErrorClassifier(err error) bool {
	if err == nil {
		return false
	}
	return retry.IsRetryable(err)
}
