package transcript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// json3Payload mirrors YouTube's json3 caption format, produced both by the
// caption index (fmt=json3) and by yt-dlp (--sub-format json3).
type json3Payload struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	TStartMs    int64          `json:"tStartMs"`
	DDurationMs int64          `json:"dDurationMs"`
	Segs        []json3Segment `json:"segs,omitempty"`
}

type json3Segment struct {
	UTF8 string `json:"utf8"`
}

// ParseJSON3 parses a json3 caption payload into snippets. Events without
// text segments (window styling, waveforms) are skipped, as are events whose
// combined text is blank.
func ParseJSON3(data []byte) ([]Snippet, error) {
	var payload json3Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal json3: %w", err)
	}

	var snippets []Snippet
	for _, event := range payload.Events {
		if len(event.Segs) == 0 {
			continue
		}

		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		trimmed := strings.TrimSpace(text.String())
		if trimmed == "" {
			continue
		}

		snippets = append(snippets, Snippet{
			Text:     trimmed,
			Start:    float64(event.TStartMs) / 1000.0,
			Duration: float64(event.DDurationMs) / 1000.0,
		})
	}

	return snippets, nil
}

var vttTimingRe = regexp.MustCompile(`(\d{1,2}:)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{1,2}:)?(\d{2}):(\d{2})\.(\d{3})`)

// ParseVTT parses a WebVTT subtitle file into snippets. Cue settings and
// inline markup tags are stripped; consecutive text lines of one cue are
// joined with spaces.
func ParseVTT(data []byte) ([]Snippet, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var snippets []Snippet
	var current *Snippet

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			snippets = append(snippets, *current)
		}
		current = nil
	}

	for _, line := range lines {
		if m := vttTimingRe.FindStringSubmatch(line); m != nil {
			flush()
			start := vttClock(m[1], m[2], m[3], m[4])
			end := vttClock(m[5], m[6], m[7], m[8])
			current = &Snippet{Start: start, Duration: end - start}
			continue
		}

		if current == nil {
			continue // header, cue identifier, NOTE block
		}
		text := stripVTTTags(strings.TrimSpace(line))
		if text == "" {
			flush()
			continue
		}
		if current.Text != "" {
			current.Text += " "
		}
		current.Text += text
	}
	flush()

	return snippets, nil
}

// vttClock converts captured H, MM, SS, mmm groups to seconds. The hour
// group includes a trailing colon and may be empty.
func vttClock(h, m, s, ms string) float64 {
	hours := 0
	if h != "" {
		hours, _ = strconv.Atoi(strings.TrimSuffix(h, ":"))
	}
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000.0
}

var vttTagRe = regexp.MustCompile(`<[^>]*>`)

func stripVTTTags(s string) string {
	return vttTagRe.ReplaceAllString(s, "")
}
