package transcript

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 10 * time.Minute
)

// Extractor is the fallback acquisition tier. It shells out to yt-dlp, which
// writes subtitle files into a scratch directory; the requested language is
// then picked from whatever was produced. With a cookie file it can reach
// members-only videos.
type Extractor struct {
	// Path is the path to the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// Timeout is the maximum time to wait for yt-dlp. Defaults to 10 minutes.
	Timeout time.Duration

	// ExtraArgs are additional arguments to pass to yt-dlp.
	ExtraArgs []string
}

// NewExtractor creates a yt-dlp based caption extractor with defaults.
func NewExtractor() *Extractor {
	return &Extractor{
		Path:    defaultYtdlpPath,
		Timeout: defaultYtdlpTimeout,
	}
}

// subtitleFile is one subtitle artifact yt-dlp left in the scratch directory.
type subtitleFile struct {
	path string
	lang string
	ext  string
}

// Fetch extracts caption snippets for a video. cookieFile is an optional
// Netscape cookie jar passed via --cookies; empty means unauthenticated.
// The returned language code is the one actually picked, which may differ
// from every preference when the video only carries other languages.
func (e *Extractor) Fetch(ctx context.Context, videoID string, languages []string, cookieFile string) ([]Snippet, string, error) {
	if err := e.checkInstalled(ctx); err != nil {
		return nil, "", err
	}

	scratch, err := os.MkdirTemp("", "livemarks-subs-*")
	if err != nil {
		return nil, "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-format", "json3/vtt",
		"--no-warnings",
		"-o", filepath.Join(scratch, "%(id)s.%(ext)s"),
	}
	if len(languages) > 0 {
		args = append(args, "--sub-langs", strings.Join(languages, ","))
	}
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	args = append(args, e.ExtraArgs...)
	args = append(args, "--", "https://www.youtube.com/watch?v="+videoID)

	timeout := e.Timeout
	if timeout == 0 {
		timeout = defaultYtdlpTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, e.path(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return nil, "", fmt.Errorf("yt-dlp timed out after %s", timeout)
		}
		return nil, "", fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	files, err := listSubtitleFiles(scratch)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("%w: no subtitle files produced", ErrNoCaptionTrack)
	}

	chosen := pickSubtitleFile(files, languages)

	data, err := os.ReadFile(chosen.path)
	if err != nil {
		return nil, "", fmt.Errorf("read subtitle file: %w", err)
	}

	var snippets []Snippet
	switch chosen.ext {
	case "json3":
		snippets, err = ParseJSON3(data)
	case "vtt":
		snippets, err = ParseVTT(data)
	default:
		return nil, "", fmt.Errorf("unsupported subtitle format %q", chosen.ext)
	}
	if err != nil {
		return nil, "", err
	}
	if len(snippets) == 0 {
		return nil, "", ErrEmptyTranscript
	}

	return snippets, chosen.lang, nil
}

// checkInstalled verifies that yt-dlp is available.
func (e *Extractor) checkInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.path(), "--version")
	if err := cmd.Run(); err != nil {
		return ErrYtdlpNotInstalled
	}
	return nil
}

func (e *Extractor) path() string {
	if e.Path != "" {
		return e.Path
	}
	return defaultYtdlpPath
}

// listSubtitleFiles scans the scratch directory for "<id>.<lang>.<ext>"
// subtitle files.
func listSubtitleFiles(dir string) ([]subtitleFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan scratch dir: %w", err)
	}

	var files []subtitleFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		parts := strings.Split(name, ".")
		if len(parts) < 3 {
			continue
		}
		ext := parts[len(parts)-1]
		if ext != "json3" && ext != "vtt" {
			continue
		}
		files = append(files, subtitleFile{
			path: filepath.Join(dir, name),
			lang: parts[len(parts)-2],
			ext:  ext,
		})
	}

	// Deterministic order: json3 before vtt within a language.
	sort.Slice(files, func(i, j int) bool {
		if files[i].lang != files[j].lang {
			return files[i].lang < files[j].lang
		}
		return files[i].ext < files[j].ext
	})
	return files, nil
}

// pickSubtitleFile mirrors the primary tier's language selection: first
// preferred language present wins, otherwise the first available file. An
// indexed json3 payload is preferred over plain-text formats within the same
// language.
func pickSubtitleFile(files []subtitleFile, languages []string) subtitleFile {
	for _, lang := range languages {
		var match *subtitleFile
		for i := range files {
			if files[i].lang != lang {
				continue
			}
			if files[i].ext == "json3" {
				return files[i]
			}
			if match == nil {
				match = &files[i]
			}
		}
		if match != nil {
			return *match
		}
	}
	return files[0]
}
