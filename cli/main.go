package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"livemarks/alert"
	"livemarks/config"
	"livemarks/docs"
	"livemarks/guard"
	"livemarks/internal/checkpoint"
	"livemarks/pipeline"
	"livemarks/publish"
	"livemarks/segment"
	"livemarks/transcript"
	"livemarks/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "process":
		cmdProcess(args)
	case "batch":
		cmdBatch(args)
	case "doc-sync":
		cmdDocSync(args)
	case "check-cookies":
		cmdCheckCookies(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `livemarks - timestamps, summaries and Q&A for livestream recordings

Usage:
  livemarks process [flags] <video-id>   Process a single video
  livemarks batch [flags]                Process recent live uploads
  livemarks doc-sync [flags]             Backfill the summary document
  livemarks check-cookies [flags]        Probe the authenticated fallback
  livemarks help                         Show this help message

Examples:
  livemarks process dQw4w9WgXcQ                     # One video
  livemarks process dQw4w9WgXcQ --dry-run           # Render without publishing
  livemarks batch --since 2026-08-01 --max 20       # Recent streams
  livemarks batch --start-from 5                    # Resume at group 5
  livemarks check-cookies --probe dQw4w9WgXcQ       # Cookie health

For help on specific command: livemarks <command> -h
`)
}

func cmdProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	dryRun := fs.Bool("dry-run", false, "Render artifacts without publishing")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: livemarks process [flags] <video-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-id\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := mustLoadConfig(*configPath)
	ctx, cancel := signalContext()
	defer cancel()

	app := mustBuildApp(ctx, cfg, *dryRun)

	rec, err := app.catalog.FetchVideo(ctx, argv[0])
	if err != nil {
		fatal("fetch video: %v", err)
	}

	outcomes, err := app.orchestrator.Run(ctx, []youtube.VideoRecord{*rec}, 0)
	if err != nil {
		fatal("run: %v", err)
	}
	reportOutcomes(outcomes)
}

func cmdBatch(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	dryRun := fs.Bool("dry-run", false, "Render artifacts without publishing")
	since := fs.String("since", "", "Only uploads published after this date (YYYY-MM-DD)")
	maxVideos := fs.Int("max", 0, "Maximum live uploads to consider (0 = all)")
	startFrom := fs.Int("start-from", 0, "Skip the first N sibling groups")
	fresh := fs.Bool("fresh", false, "Discard the checkpoint and start a new run")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: livemarks batch [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg := mustLoadConfig(*configPath)
	ctx, cancel := signalContext()
	defer cancel()

	app := mustBuildApp(ctx, cfg, *dryRun)

	store := checkpoint.NewStore(cfg.CheckpointFile)
	if *fresh {
		if err := store.Clear(); err != nil {
			fatal("clear checkpoint: %v", err)
		}
	}
	app.orchestrator.Checkpoint = store

	var publishedAfter time.Time
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			fatal("parse --since: %v (use YYYY-MM-DD)", err)
		}
		publishedAfter = t
	}

	channelID := cfg.ChannelID
	if channelID == "" {
		var err error
		channelID, err = app.catalog.MyChannelID(ctx)
		if err != nil {
			fatal("resolve channel: %v", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Listing live uploads of %s...\n", channelID)
	records, err := app.catalog.ListLiveUploads(ctx, channelID, publishedAfter, *maxVideos)
	if err != nil {
		fatal("list uploads: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No live uploads found.")
		return
	}

	outcomes, err := app.orchestrator.Run(ctx, records, *startFrom)
	if err != nil {
		fatal("run: %v", err)
	}
	reportOutcomes(outcomes)
}

// cmdDocSync backfills the summary document: videos whose comments already
// carry timestamps but that never made it into the document get an entry,
// without touching comments or descriptions.
func cmdDocSync(args []string) {
	fs := flag.NewFlagSet("doc-sync", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	dryRun := fs.Bool("dry-run", false, "Render entries without writing the document")
	since := fs.String("since", "", "Only uploads published after this date (YYYY-MM-DD)")
	maxVideos := fs.Int("max", 0, "Maximum live uploads to consider (0 = all)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: livemarks doc-sync [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg := mustLoadConfig(*configPath)
	if cfg.DocumentID == "" {
		fatal("doc-sync requires DOCUMENT_ID")
	}

	ctx, cancel := signalContext()
	defer cancel()

	app := mustBuildApp(ctx, cfg, *dryRun)
	if app.ledger == nil {
		fatal("doc-sync requires the document ledger")
	}

	// Coverage for doc-sync is document membership only, so videos with
	// published comments still get their missing entry.
	app.guard.Comments = nil
	app.publisher.Comments = nil
	app.publisher.Descriptions = nil

	var publishedAfter time.Time
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			fatal("parse --since: %v (use YYYY-MM-DD)", err)
		}
		publishedAfter = t
	}

	channelID := cfg.ChannelID
	if channelID == "" {
		var err error
		channelID, err = app.catalog.MyChannelID(ctx)
		if err != nil {
			fatal("resolve channel: %v", err)
		}
	}

	records, err := app.catalog.ListLiveUploads(ctx, channelID, publishedAfter, *maxVideos)
	if err != nil {
		fatal("list uploads: %v", err)
	}

	outcomes, err := app.orchestrator.Run(ctx, records, 0)
	if err != nil {
		fatal("run: %v", err)
	}
	reportOutcomes(outcomes)
}

// cmdCheckCookies probes the authenticated fallback path against a known
// members-only video and alerts the operator when it stops working.
func cmdCheckCookies(args []string) {
	fs := flag.NewFlagSet("check-cookies", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	probe := fs.String("probe", "", "Members-only video id to probe")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: livemarks check-cookies --probe <video-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *probe == "" {
		fmt.Fprintf(os.Stderr, "Error: missing --probe video id\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := mustLoadConfig(*configPath)
	ctx, cancel := signalContext()
	defer cancel()

	cookieFile, cleanup, err := transcript.MaterializeCookies(cfg.CookiesBase64)
	if err != nil {
		notifyCookieFailure(ctx, cfg, fmt.Sprintf("livemarks: cookie bundle unusable: %v", err))
		fatal("cookie bundle unusable: %v", err)
	}
	defer cleanup()
	if cookieFile == "" {
		fatal("no cookie bundle configured (set YOUTUBE_COOKIES_B64)")
	}

	extractor := transcript.NewExtractor()
	extractor.Path = cfg.YtdlpPath
	extractor.Timeout = cfg.SubprocessTimeout

	if _, _, err := extractor.Fetch(ctx, *probe, cfg.Languages, cookieFile); err != nil {
		notifyCookieFailure(ctx, cfg, fmt.Sprintf("livemarks: authenticated fetch of %s failed, cookies likely expired: %v", *probe, err))
		fatal("authenticated fetch failed: %v", err)
	}
	fmt.Println("Cookies OK: authenticated fetch succeeded.")
}

func notifyCookieFailure(ctx context.Context, cfg *config.Config, message string) {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		return
	}
	alert.NotifyBestEffort(ctx, alert.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID), message)
}

// app bundles the wired collaborators of one invocation.
type app struct {
	catalog      *youtube.Catalog
	ledger       *docs.Ledger
	guard        *guard.Guard
	publisher    *publish.Publisher
	orchestrator *pipeline.Orchestrator
}

func mustBuildApp(ctx context.Context, cfg *config.Config, dryRun bool) *app {
	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		fatal("oauth credential: %v", err)
	}

	catalog, err := youtube.NewCatalog(ctx, ts)
	if err != nil {
		fatal("youtube catalog: %v", err)
	}

	var ledger *docs.Ledger
	documented := map[string]struct{}{}
	if cfg.DocumentID != "" {
		ledger, err = docs.NewLedger(ctx, ts, cfg.DocumentID)
		if err != nil {
			fatal("document ledger: %v", err)
		}
		documented, err = ledger.DocumentedVideoIDs(ctx)
		if err != nil {
			fatal("read document ledger: %v", err)
		}
	}

	ownerID := cfg.ChannelID
	if ownerID == "" {
		ownerID, err = catalog.MyChannelID(ctx)
		if err != nil {
			fatal("resolve channel: %v", err)
		}
	}

	g := guard.New(catalog, ownerID)
	g.Documented = documented

	provider, err := segment.NewProvider(cfg.Provider, segment.ProviderConfig{
		APIKey: cfg.ProviderKey(),
		Model:  cfg.Model,
	})
	if err != nil {
		fatal("generation provider: %v", err)
	}

	acquirer := transcript.NewAcquirer()
	if cfg.YtdlpPath != "" || cfg.SubprocessTimeout > 0 {
		extractor := transcript.NewExtractor()
		extractor.Path = cfg.YtdlpPath
		extractor.Timeout = cfg.SubprocessTimeout
		acquirer.Extractor = extractor
	}

	publisher := &publish.Publisher{
		Comments:     catalog,
		Descriptions: catalog,
		DryRun:       dryRun,
	}
	if ledger != nil {
		publisher.Ledger = ledger
	}

	var notifier alert.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = alert.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	}

	orchestrator := &pipeline.Orchestrator{
		Transcripts:  acquirer,
		Segmenter:    segment.NewSegmenter(provider),
		Guard:        g,
		Publisher:    publisher,
		Languages:    cfg.Languages,
		CookieBundle: cfg.CookiesBase64,
		Delay:        cfg.VideoDelay,
		Notifier:     notifier,
	}

	return &app{
		catalog:      catalog,
		ledger:       ledger,
		guard:        g,
		publisher:    publisher,
		orchestrator: orchestrator,
	}
}

// tokenSource builds a refreshing OAuth2 token source from the stored token.
func tokenSource(ctx context.Context, cfg *config.Config) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(cfg.GoogleTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", cfg.GoogleTokenFile, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", cfg.GoogleTokenFile, err)
	}

	oc := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     googleoauth.Endpoint,
	}
	return oc.TokenSource(ctx, &token), nil
}

func mustLoadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fatal("load config: %v", err)
	}
	return cfg
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func reportOutcomes(outcomes []pipeline.Outcome) {
	counts := pipeline.Summarize(outcomes)
	fmt.Printf("Done: %d published, %d covered, %d resumed, %d failed\n",
		counts[pipeline.StatusPublished], counts[pipeline.StatusCovered],
		counts[pipeline.StatusResumed], counts[pipeline.StatusFailed])

	for _, out := range outcomes {
		if out.Status == pipeline.StatusFailed {
			fmt.Fprintf(os.Stderr, "  failed %s: %v\n", out.VideoID, out.Err)
		}
	}
	if counts[pipeline.StatusFailed] > 0 {
		os.Exit(1)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
