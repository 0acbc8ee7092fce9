package segment

import (
	"fmt"
	"strings"

	"livemarks/transcript"
)

// FormatTimestamp renders whole seconds as M:SS or H:MM:SS, the clickable
// shape YouTube recognizes.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// RenderTranscript formats snippets as "[M:SS] text" lines. The line-oriented
// rendering is what lets the provider anchor its markers to real times; a
// flat concatenation would leave it nothing to reference.
func RenderTranscript(snippets []transcript.Snippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(s.Start), s.Text))
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt assembles the single structured-generation request for a video.
func BuildPrompt(t *transcript.Transcript, videoTitle string) string {
	duration := t.VideoDuration()

	var b strings.Builder
	fmt.Fprintf(&b, `Analyze the following livestream transcript of %q (duration: %s, %d seconds) and identify the main topics discussed.

TRANSCRIPT:
%s

---

Return a COMPLETE analysis as a single JSON object with:

1. "timestamps": array of navigation markers.
   - Each object: {"timestamp": seconds, "title": "short title", "description": "what is discussed"}
   - Identify every relevant topic (10-20 markers for a long stream).
   - IMPORTANT: every timestamp must be WITHIN the video duration (at most %d seconds). Do NOT invent timestamps beyond it.
   - The first timestamp should be close to 0.

2. "summary": a detailed summary (3-5 paragraphs) of the concepts covered, practical examples cited and key insights.

3. "key_topics": array of the central themes (5-10 strings).

4. "qa_list": array of viewer questions answered during the stream.
   - Each object: {"question": "...", "answer": "...", "timestamp": seconds}
   - Minimum 5 entries when the stream contains that many.

Respond ONLY with valid JSON, no text before or after.`,
		videoTitle, FormatTimestamp(duration), int(duration),
		RenderTranscript(t.Snippets), int(duration))

	return b.String()
}
