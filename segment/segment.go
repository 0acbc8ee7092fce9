// Package segment turns a raw transcript into topic markers, a summary and
// Q&A pairs using a pluggable text-generation provider.
//
// One generation request is made per video. Sibling uploads of the same
// broadcast reuse the primary's output verbatim; they never pay a second
// generation call.
package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"livemarks/transcript"
)

// ErrSegmentationFailed indicates the provider reply could not be parsed
// even after bracket recovery. It is not retried automatically: a generation
// call is expensive, so the retry decision belongs to the caller.
var ErrSegmentationFailed = errors.New("segment: provider reply not parseable")

// Provider is the text-generation capability the segmenter depends on.
// Implementations wrap one AI backend each.
type Provider interface {
	// Generate submits a prompt and returns the raw reply text, which is
	// expected (but not guaranteed) to be JSON.
	Generate(ctx context.Context, prompt string) (string, error)
}

// TopicMarker is a chapter entry anchored to a time offset into the video.
type TopicMarker struct {
	// Timestamp is the marker offset in seconds. Always within
	// [0, video duration] after filtering.
	Timestamp float64 `json:"timestamp"`
	Title     string  `json:"title"`
	// Description is a longer explanation of what is discussed.
	Description string `json:"description,omitempty"`
}

// QAEntry is one question answered during the broadcast.
type QAEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	// Timestamp is the moment the question is addressed, in seconds.
	// Zero when the provider did not anchor it.
	Timestamp float64 `json:"timestamp,omitempty"`
}

// Analysis is the full segmentation output for one video.
type Analysis struct {
	Markers   []TopicMarker `json:"markers"`
	Summary   string        `json:"summary"`
	KeyTopics []string      `json:"key_topics,omitempty"`
	QA        []QAEntry     `json:"qa,omitempty"`

	// MarkersRemoved counts markers dropped by the duration filter,
	// reported for observability.
	MarkersRemoved int `json:"markers_removed"`
}

// Segmenter runs the segmentation contract against a Provider.
type Segmenter struct {
	Provider Provider
}

// NewSegmenter creates a segmenter bound to the given provider.
func NewSegmenter(p Provider) *Segmenter {
	return &Segmenter{Provider: p}
}

// Segment renders the transcript for the provider, submits one generation
// request and parses the structured reply. Markers beyond the video duration
// are dropped (never clamped) and the removed count is recorded.
func (s *Segmenter) Segment(ctx context.Context, t *transcript.Transcript, videoTitle string) (*Analysis, error) {
	if s.Provider == nil {
		return nil, fmt.Errorf("segment: no provider configured")
	}

	duration := t.VideoDuration()
	prompt := BuildPrompt(t, videoTitle)

	reply, err := s.Provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("segment: generation request: %w", err)
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		return nil, err
	}

	analysis.Markers, analysis.MarkersRemoved = FilterMarkers(analysis.Markers, duration)
	if analysis.MarkersRemoved > 0 {
		log.Printf("segment: removed %d markers beyond video duration %.0fs for %s",
			analysis.MarkersRemoved, duration, t.VideoID)
	}

	return analysis, nil
}

// FilterMarkers drops every marker whose timestamp falls outside
// [0, videoDuration] and returns the survivors sorted by timestamp plus the
// removed count. The filter only subtracts; it never invents or clamps
// markers.
func FilterMarkers(markers []TopicMarker, videoDuration float64) ([]TopicMarker, int) {
	valid := make([]TopicMarker, 0, len(markers))
	for _, m := range markers {
		if m.Timestamp < 0 || m.Timestamp > videoDuration {
			log.Printf("segment: dropping marker %q at %.0fs (video is %.0fs)", m.Title, m.Timestamp, videoDuration)
			continue
		}
		valid = append(valid, m)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Timestamp < valid[j].Timestamp })
	return valid, len(markers) - len(valid)
}

// parseAnalysis decodes a provider reply. The happy path is a JSON object;
// if the reply is wrapped in prose or markdown fences, the outermost
// matching brace/bracket pair is located and reparsed before giving up.
func parseAnalysis(raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrSegmentationFailed)
	}

	candidate := raw
	if !gjson.Valid(candidate) {
		recovered, ok := extractOutermostJSON(raw)
		if !ok || !gjson.Valid(recovered) {
			return nil, fmt.Errorf("%w: no JSON found in reply", ErrSegmentationFailed)
		}
		candidate = recovered
	}

	root := gjson.Parse(candidate)

	// Marker array location drifts across providers: "timestamps",
	// "topics", or the whole reply being a bare array.
	markersNode := root.Get("timestamps")
	if !markersNode.Exists() {
		markersNode = root.Get("topics")
	}
	if !markersNode.Exists() && root.IsArray() {
		markersNode = root
	}

	analysis := &Analysis{
		Summary: root.Get("summary").String(),
	}

	markersNode.ForEach(func(_, item gjson.Result) bool {
		analysis.Markers = append(analysis.Markers, TopicMarker{
			Timestamp:   item.Get("timestamp").Float(),
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
		})
		return true
	})

	root.Get("key_topics").ForEach(func(_, item gjson.Result) bool {
		analysis.KeyTopics = append(analysis.KeyTopics, item.String())
		return true
	})

	root.Get("qa_list").ForEach(func(_, item gjson.Result) bool {
		qa := QAEntry{
			Question:  firstString(item, "question", "pergunta"),
			Answer:    firstString(item, "answer", "resposta"),
			Timestamp: item.Get("timestamp").Float(),
		}
		if qa.Question != "" || qa.Answer != "" {
			analysis.QA = append(analysis.QA, qa)
		}
		return true
	})

	if len(analysis.Markers) == 0 && analysis.Summary == "" && len(analysis.QA) == 0 {
		return nil, fmt.Errorf("%w: reply carried no markers, summary or Q&A", ErrSegmentationFailed)
	}
	return analysis, nil
}

// firstString returns the first non-empty string among the given keys.
func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := item.Get(k).String(); v != "" {
			return v
		}
	}
	return ""
}

// extractOutermostJSON locates the outermost matching {...} or [...] pair in
// text. It prefers whichever opens first.
func extractOutermostJSON(text string) (string, bool) {
	for _, pair := range []struct{ open, close byte }{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair.open)
		end := strings.LastIndexByte(text, pair.close)
		if start < 0 || end <= start {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
