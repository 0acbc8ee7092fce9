// Package publish renders the segmentation output into its published
// artifacts (pinned comment, description block, document entry) and pushes
// them out.
package publish

import (
	"context"
	"fmt"
	"log"
	"strings"

	"livemarks/docs"
	"livemarks/segment"
	"livemarks/transcript"
	"livemarks/youtube"
)

const (
	commentHeader    = "📌 Timestamps:"
	descriptionLabel = "Timestamps:"
	// startMarkerTitle labels the synthesized opening chapter.
	startMarkerTitle = "Início"
	// fallbackNote marks output derived from auto-generated captions.
	fallbackNote = "(marcações geradas a partir de legendas automáticas)"
)

// CommentPoster posts a top-level comment.
type CommentPoster interface {
	InsertComment(ctx context.Context, videoID, text string) error
}

// DescriptionUpdater reads and rewrites a video description.
type DescriptionUpdater interface {
	FetchVideo(ctx context.Context, videoID string) (*youtube.VideoRecord, error)
	UpdateDescription(ctx context.Context, videoID, description string) error
}

// LedgerAppender appends an entry to the summary document.
type LedgerAppender interface {
	AppendEntry(ctx context.Context, entry docs.Entry) error
}

// Publisher pushes a video's analysis out to its artifacts. Nil collaborators
// disable their artifact; DryRun logs instead of writing.
type Publisher struct {
	Comments     CommentPoster
	Descriptions DescriptionUpdater
	Ledger       LedgerAppender
	DryRun       bool
}

// Publish posts the timestamp comment, rewrites the description block and
// appends the document entry for one video. Markers gain a synthesized 0:00
// opener when needed, and fallback-derived output carries a caption note.
func (p *Publisher) Publish(ctx context.Context, rec youtube.VideoRecord, analysis *segment.Analysis, method transcript.Method) error {
	markers := EnsureStartMarker(analysis.Markers)
	if len(markers) == 0 {
		return fmt.Errorf("publish: no markers to publish for %s", rec.VideoID)
	}

	comment := Comment(markers, method)
	if p.DryRun {
		log.Printf("publish: dry-run comment for %s:\n%s", rec.VideoID, comment)
	} else if p.Comments != nil {
		if err := p.Comments.InsertComment(ctx, rec.VideoID, comment); err != nil {
			return fmt.Errorf("post comment on %s: %w", rec.VideoID, err)
		}
		log.Printf("publish: posted timestamp comment on %s (%d markers)", rec.VideoID, len(markers))
	}

	if p.Descriptions != nil {
		if err := p.updateDescription(ctx, rec.VideoID, markers); err != nil {
			return err
		}
	}

	if p.Ledger != nil {
		entry := docs.Entry{
			VideoID:   rec.VideoID,
			Title:     rec.Title,
			URL:       rec.URL(),
			Published: rec.PublishedAt,
			Body:      DocEntryBody(analysis, markers, method),
		}
		if p.DryRun {
			log.Printf("publish: dry-run document entry for %s (%d bytes)", rec.VideoID, len(entry.Body))
		} else if err := p.Ledger.AppendEntry(ctx, entry); err != nil {
			return fmt.Errorf("append document entry for %s: %w", rec.VideoID, err)
		}
	}

	return nil
}

func (p *Publisher) updateDescription(ctx context.Context, videoID string, markers []segment.TopicMarker) error {
	current, err := p.Descriptions.FetchVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("fetch description of %s: %w", videoID, err)
	}

	updated := DescriptionWithTimestamps(current.Description, markers)
	if updated == current.Description {
		return nil
	}
	if p.DryRun {
		log.Printf("publish: dry-run description update for %s", videoID)
		return nil
	}
	if err := p.Descriptions.UpdateDescription(ctx, videoID, updated); err != nil {
		return fmt.Errorf("update description of %s: %w", videoID, err)
	}
	log.Printf("publish: updated description of %s", videoID)
	return nil
}

// EnsureStartMarker returns markers with a 0:00 opener, synthesizing one when
// the first marker starts later. YouTube only renders chapters when the list
// begins at zero. The input slice is not modified.
func EnsureStartMarker(markers []segment.TopicMarker) []segment.TopicMarker {
	if len(markers) == 0 {
		return nil
	}
	if markers[0].Timestamp == 0 {
		return markers
	}
	out := make([]segment.TopicMarker, 0, len(markers)+1)
	out = append(out, segment.TopicMarker{Timestamp: 0, Title: startMarkerTitle})
	return append(out, markers...)
}

// RenderMarkers formats markers as "M:SS Title" lines.
func RenderMarkers(markers []segment.TopicMarker) string {
	lines := make([]string, 0, len(markers))
	for _, m := range markers {
		lines = append(lines, fmt.Sprintf("%s %s", segment.FormatTimestamp(m.Timestamp), m.Title))
	}
	return strings.Join(lines, "\n")
}

// Comment renders the pinned timestamp comment.
func Comment(markers []segment.TopicMarker, method transcript.Method) string {
	var b strings.Builder
	b.WriteString(commentHeader)
	b.WriteString("\n\n")
	b.WriteString(RenderMarkers(markers))
	if method == transcript.MethodFallback {
		b.WriteString("\n\n")
		b.WriteString(fallbackNote)
	}
	return b.String()
}

// DescriptionWithTimestamps replaces the existing "Timestamps:" block in a
// description, or appends one. The block runs from its label to the first
// blank line after it.
func DescriptionWithTimestamps(description string, markers []segment.TopicMarker) string {
	block := descriptionLabel + "\n" + RenderMarkers(markers)

	start := strings.Index(description, descriptionLabel)
	if start < 0 {
		if strings.TrimSpace(description) == "" {
			return block
		}
		return strings.TrimRight(description, "\n") + "\n\n" + block
	}

	end := strings.Index(description[start:], "\n\n")
	if end < 0 {
		end = len(description)
	} else {
		end += start
	}
	return description[:start] + block + description[end:]
}

// DocEntryBody renders the document entry below the heading: summary, key
// topics, Q&A and the marker list.
func DocEntryBody(analysis *segment.Analysis, markers []segment.TopicMarker, method transcript.Method) string {
	var b strings.Builder

	if analysis.Summary != "" {
		b.WriteString(analysis.Summary)
		b.WriteString("\n")
	}

	if len(analysis.KeyTopics) > 0 {
		b.WriteString("\nTópicos principais:\n")
		for _, topic := range analysis.KeyTopics {
			fmt.Fprintf(&b, "• %s\n", topic)
		}
	}

	if len(analysis.QA) > 0 {
		b.WriteString("\nPerguntas e respostas:\n")
		for _, qa := range analysis.QA {
			if qa.Timestamp > 0 {
				fmt.Fprintf(&b, "[%s] %s\n%s\n", segment.FormatTimestamp(qa.Timestamp), qa.Question, qa.Answer)
			} else {
				fmt.Fprintf(&b, "%s\n%s\n", qa.Question, qa.Answer)
			}
		}
	}

	if len(markers) > 0 {
		b.WriteString("\nTimestamps:\n")
		b.WriteString(RenderMarkers(markers))
		b.WriteString("\n")
	}

	if method == transcript.MethodFallback {
		b.WriteString("\n")
		b.WriteString(fallbackNote)
		b.WriteString("\n")
	}

	return b.String()
}
