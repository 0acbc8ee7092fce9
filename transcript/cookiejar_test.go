package transcript

import (
	"encoding/base64"
	"os"
	"testing"
)

func TestMaterializeCookiesRoundTrip(t *testing.T) {
	jar := "# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tSID\tabc\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(jar))

	path, cleanup, err := MaterializeCookies(encoded)
	if err != nil {
		t.Fatalf("MaterializeCookies() error = %v", err)
	}
	if path == "" {
		t.Fatal("MaterializeCookies() returned empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read materialized file: %v", err)
	}
	if string(data) != jar {
		t.Errorf("materialized content = %q, want %q", data, jar)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup() did not remove the cookie file")
	}

	// Cleanup must be safe to call twice.
	cleanup()
}

func TestMaterializeCookiesEmptyBundle(t *testing.T) {
	path, cleanup, err := MaterializeCookies("")
	if err != nil {
		t.Fatalf("MaterializeCookies(\"\") error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	cleanup() // no-op, must not panic
}

func TestMaterializeCookiesInvalidBase64(t *testing.T) {
	path, cleanup, err := MaterializeCookies("%%%definitely not base64%%%")
	if err == nil {
		t.Fatal("MaterializeCookies() with invalid base64 should fail")
	}
	if path != "" {
		t.Errorf("path = %q, want empty on failure", path)
	}
	cleanup() // no-op, must not panic
}
