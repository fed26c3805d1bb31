package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fetchq/internal/model"
)

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"frobnicate"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "frobnicate") {
		t.Fatalf("error should name the command, got %q", err.Error())
	}
}

func TestRunHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"--help"}} {
		if err := Run(args); err != nil {
			t.Fatalf("Run(%v) = %v, want nil", args, err)
		}
	}
}

func TestVariantFromFlags(t *testing.T) {
	cases := []struct {
		name    string
		audio   bool
		quality string
		want    model.Variant
		wantErr bool
	}{
		{name: "default video", want: model.Variant{Kind: model.KindVideo, Quality: "best"}},
		{name: "explicit best", quality: "best", want: model.Variant{Kind: model.KindVideo, Quality: "best"}},
		{name: "1080p", quality: "1080p", want: model.Variant{Kind: model.KindVideo, Quality: "1080p"}},
		{name: "audio", audio: true, want: model.Variant{Kind: model.KindAudio}},
		{name: "audio with quality", audio: true, quality: "720p", wantErr: true},
		{name: "bogus quality", quality: "4000p", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := variantFromFlags(tc.audio, tc.quality)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("variant = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://example.com/a\n\n# comment\n  https://example.com/b  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := readURLFile(path)
	if err != nil {
		t.Fatalf("readURLFile: %v", err)
	}
	want := []string{"https://example.com/a", "https://example.com/b"}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls, want %d", len(urls), len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	if _, err := readURLFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFormatBytesIEC(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{10747904, "10.2 MiB"},
	}
	for _, tc := range cases {
		if got := formatBytesIEC(tc.in); got != tc.want {
			t.Fatalf("formatBytesIEC(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
