// Package pipeline orchestrates the full run: partition the catalog into
// sibling groups, fetch and segment each group's primary transcript once, and
// publish to every member the guard reports as uncovered.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"livemarks/alert"
	"livemarks/grouping"
	"livemarks/internal/checkpoint"
	"livemarks/segment"
	"livemarks/transcript"
	"livemarks/youtube"
)

// Status classifies the outcome of one video.
type Status string

const (
	// StatusPublished means artifacts were pushed out for the video.
	StatusPublished Status = "published"
	// StatusCovered means the guard found existing markers and the video was
	// left untouched.
	StatusCovered Status = "covered"
	// StatusResumed means a checkpoint from an earlier run already recorded
	// the video.
	StatusResumed Status = "resumed"
	// StatusFailed means the video could not be processed this run.
	StatusFailed Status = "failed"
)

// Outcome is the per-video result of a run. Failures carry their error; a
// failed video never aborts the rest of the batch.
type Outcome struct {
	VideoID string
	Status  Status
	Err     error
}

// TranscriptFetcher acquires a transcript for one video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string, cookieBundle string) (*transcript.Transcript, error)
}

// Segmenter produces the analysis for one transcript.
type Segmenter interface {
	Segment(ctx context.Context, t *transcript.Transcript, videoTitle string) (*segment.Analysis, error)
}

// CoverageChecker reports whether a video already carries published markers.
type CoverageChecker interface {
	Covered(ctx context.Context, videoID string) bool
}

// ArtifactPublisher pushes an analysis out to one video's artifacts.
type ArtifactPublisher interface {
	Publish(ctx context.Context, rec youtube.VideoRecord, analysis *segment.Analysis, method transcript.Method) error
}

// Orchestrator wires the stages together. Checkpoint and Notifier are
// optional.
type Orchestrator struct {
	Transcripts TranscriptFetcher
	Segmenter   Segmenter
	Guard       CoverageChecker
	Publisher   ArtifactPublisher

	// Languages is the caption language preference order.
	Languages []string
	// CookieBundle is the base64 cookie payload for authenticated fallback.
	CookieBundle string
	// Delay is the courtesy pause between groups.
	Delay time.Duration
	// Checkpoint persists progress between batch runs.
	Checkpoint *checkpoint.Store
	// Notifier receives a summary when a batch finishes with failures.
	Notifier alert.Notifier
}

// Run processes records as a batch: partition into sibling groups, skip the
// first startFrom groups, then process the rest in chronological order. The
// returned outcomes cover every record; processing errors land in outcomes,
// not in the error return.
func (o *Orchestrator) Run(ctx context.Context, records []youtube.VideoRecord, startFrom int) ([]Outcome, error) {
	groups := grouping.Partition(records)
	runID := uuid.NewString()

	var state *checkpoint.State
	if o.Checkpoint != nil {
		var err error
		state, err = o.Checkpoint.Load()
		if err != nil {
			return nil, fmt.Errorf("pipeline: load checkpoint: %w", err)
		}
		runID = state.RunID
	}

	log.Printf("pipeline: run %s: %d records in %d groups (starting at group %d)",
		runID, len(records), len(groups), startFrom)

	var outcomes []Outcome
	failures := 0

	processed := 0
	for i, group := range groups {
		if i < startFrom {
			for _, rec := range group.Records {
				outcomes = append(outcomes, Outcome{VideoID: rec.VideoID, Status: StatusResumed})
			}
			continue
		}

		if processed > 0 && o.Delay > 0 {
			select {
			case <-time.After(o.Delay):
			case <-ctx.Done():
				return outcomes, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		processed++

		groupOutcomes := o.ProcessGroup(ctx, group, state)
		for _, out := range groupOutcomes {
			if out.Status == StatusFailed {
				failures++
			}
		}
		outcomes = append(outcomes, groupOutcomes...)

		if o.Checkpoint != nil && state != nil {
			if err := o.Checkpoint.Save(state); err != nil {
				log.Printf("pipeline: checkpoint save failed: %v", err)
			}
		}
	}

	if failures > 0 {
		alert.NotifyBestEffort(ctx, o.Notifier,
			fmt.Sprintf("livemarks: run %s finished with %d of %d videos failed", runID, failures, len(outcomes)))
	}
	return outcomes, nil
}

// ProcessGroup handles one sibling group. The guard runs per member first; a
// fully covered group pays neither a transcript fetch nor a generation call.
// The primary's transcript and analysis are shared by every uncovered member.
func (o *Orchestrator) ProcessGroup(ctx context.Context, group grouping.Group, state *checkpoint.State) []Outcome {
	outcomes := make([]Outcome, 0, len(group.Records))
	var uncovered []youtube.VideoRecord

	for _, rec := range group.Records {
		if state != nil && state.IsProcessed(rec.VideoID) {
			outcomes = append(outcomes, Outcome{VideoID: rec.VideoID, Status: StatusResumed})
			continue
		}
		if o.Guard.Covered(ctx, rec.VideoID) {
			log.Printf("pipeline: %s already covered, skipping", rec.VideoID)
			if state != nil {
				state.MarkProcessed(rec.VideoID)
			}
			outcomes = append(outcomes, Outcome{VideoID: rec.VideoID, Status: StatusCovered})
			continue
		}
		uncovered = append(uncovered, rec)
	}
	if len(uncovered) == 0 {
		return outcomes
	}

	primary := group.Primary()
	t, err := o.Transcripts.Fetch(ctx, primary.VideoID, o.Languages, o.CookieBundle)
	if err != nil {
		return append(outcomes, failAll(uncovered, fmt.Errorf("fetch transcript of %s: %w", primary.VideoID, err))...)
	}

	analysis, err := o.Segmenter.Segment(ctx, t, primary.Title)
	if err != nil {
		return append(outcomes, failAll(uncovered, fmt.Errorf("segment %s: %w", primary.VideoID, err))...)
	}

	for _, rec := range uncovered {
		if err := o.Publisher.Publish(ctx, rec, analysis, t.Method); err != nil {
			log.Printf("pipeline: publish failed for %s: %v", rec.VideoID, err)
			outcomes = append(outcomes, Outcome{VideoID: rec.VideoID, Status: StatusFailed, Err: err})
			continue
		}
		if state != nil {
			state.MarkProcessed(rec.VideoID)
		}
		outcomes = append(outcomes, Outcome{VideoID: rec.VideoID, Status: StatusPublished})
	}
	return outcomes
}

func failAll(records []youtube.VideoRecord, err error) []Outcome {
	log.Printf("pipeline: %v", err)
	outcomes := make([]Outcome, len(records))
	for i, rec := range records {
		outcomes[i] = Outcome{VideoID: rec.VideoID, Status: StatusFailed, Err: err}
	}
	return outcomes
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) map[Status]int {
	counts := make(map[Status]int)
	for _, out := range outcomes {
		counts[out.Status]++
	}
	return counts
}
