// Package livemarks turns livestream recordings into navigable videos: it
// acquires the transcript, segments it into timestamped topics with a summary
// and Q&A, and publishes the result as a pinned comment, a description block
// and an entry in a running summary document.
//
// # Overview
//
// The pipeline runs in stages, each in its own package:
//
//   - transcript: two-tier transcript acquisition (caption index, then
//     credentialed yt-dlp for members-only videos)
//   - segment: one AI generation call per broadcast, with timestamp
//     validation against the video duration
//   - grouping: partitioning uploads into sibling groups that share one
//     broadcast's content
//   - guard: idempotence checks so reruns never double-publish
//   - publish: rendering and pushing the artifacts
//   - pipeline: the orchestrator tying the stages together
//
// # Quick Start
//
// Process one video end to end:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	provider, err := segment.NewProvider(cfg.Provider, segment.ProviderConfig{APIKey: cfg.ProviderKey()})
//	if err != nil {
//		log.Fatal(err)
//	}
//	o := &pipeline.Orchestrator{
//		Transcripts: transcript.NewAcquirer(),
//		Segmenter:   segment.NewSegmenter(provider),
//		Guard:       guard.New(catalog, channelID),
//		Publisher:   &publish.Publisher{Comments: catalog},
//		Languages:   cfg.Languages,
//	}
//	outcomes, err := o.Run(ctx, records, 0)
//
// Fetch a transcript directly:
//
//	t, err := transcript.NewAcquirer().Fetch(ctx, "dQw4w9WgXcQ", []string{"pt", "en"}, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(t.FullText())
//
// The livemarks command in cli/ wires all of this from configuration; see
// its process, batch, doc-sync and check-cookies subcommands.
package livemarks
