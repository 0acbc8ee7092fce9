package transcript

import (
	"encoding/base64"
	"fmt"
	"os"
)

// MaterializeCookies decodes a base64-encoded Netscape cookie jar into a
// transient file that yt-dlp can consume. It returns the file path and a
// cleanup function that removes it; cleanup is safe to call more than once.
//
// An empty bundle returns an empty path, a no-op cleanup and no error: the
// caller simply proceeds unauthenticated. A decode failure is returned as an
// error, but callers are expected to treat it as degradation, not a hard
// stop, since unauthenticated fetch still works for public videos.
func MaterializeCookies(encoded string) (string, func(), error) {
	noop := func() {}
	if encoded == "" {
		return "", noop, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", noop, fmt.Errorf("decode cookie bundle: %w", err)
	}

	f, err := os.CreateTemp("", "livemarks-cookies-*.txt")
	if err != nil {
		return "", noop, fmt.Errorf("create cookie file: %w", err)
	}

	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", noop, fmt.Errorf("write cookie file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", noop, fmt.Errorf("close cookie file: %w", err)
	}

	path := f.Name()
	cleanup := func() { os.Remove(path) }
	return path, cleanup, nil
}
