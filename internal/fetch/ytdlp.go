package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"fetchq/internal/model"
)

const (
	defaultBinary        = "yt-dlp"
	defaultSampleEvery   = 200 * time.Millisecond
	errorTailMaxLines    = 8
	terminalErrorMaxLen  = 1200
	outputFilenameFormat = "%(title)s [%(id)s].%(ext)s"
)

// YTDLPFetcher shells out to yt-dlp for each attempt and translates its
// line-oriented output into scheduler callbacks. Progress callbacks are
// throttled so the scheduler sees at most one sample per SampleEvery.
type YTDLPFetcher struct {
	Binary      string
	SampleEvery time.Duration
}

func NewYTDLPFetcher() *YTDLPFetcher {
	return &YTDLPFetcher{
		Binary:      defaultBinary,
		SampleEvery: defaultSampleEvery,
	}
}

func (f *YTDLPFetcher) Fetch(ctx context.Context, job model.Job, proxyURL, outputDir string, cb Callbacks) error {
	bin := f.Binary
	if bin == "" {
		bin = defaultBinary
	}
	cmd := exec.CommandContext(ctx, bin, buildArgs(job, proxyURL, outputDir)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}

	every := f.SampleEvery
	if every <= 0 {
		every = defaultSampleEvery
	}
	limiter := rate.NewLimiter(rate.Every(every), 1)

	var mu sync.Mutex
	var tail []string
	var titleSent, proxyFailed bool

	handleLine := func(line string) {
		l := strings.TrimSpace(line)
		if l == "" {
			return
		}

		mu.Lock()
		tail = append(tail, l)
		if len(tail) > errorTailMaxLines {
			tail = tail[1:]
		}
		sendTitle := false
		sendProxyFail := false
		var title string
		if !titleSent {
			if t, ok := ParseDestinationTitle(l); ok {
				titleSent = true
				sendTitle = true
				title = t
			}
		}
		if !proxyFailed && proxyURL != "" && IsProxyError(l) {
			proxyFailed = true
			sendProxyFail = true
		}
		mu.Unlock()

		if sendTitle && cb.Title != nil {
			cb.Title(title)
		}
		if sendProxyFail && cb.ProxyFail != nil {
			cb.ProxyFail(proxyURL)
		}
		if sample, size, ok := ParseProgressLine(l); ok {
			if size > 0 && cb.Size != nil {
				cb.Size(size)
			}
			// Completion samples always get through the throttle.
			if cb.Progress != nil && (sample.Percent >= 100 || limiter.Allow()) {
				cb.Progress(sample)
			}
		}
	}

	var wg sync.WaitGroup
	for _, r := range []io.Reader{stdout, stderr} {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				handleLine(scanner.Text())
			}
		}(r)
	}
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		mu.Lock()
		detail := strings.Join(tail, " | ")
		mu.Unlock()
		if detail == "" {
			return fmt.Errorf("%s failed: %w", bin, err)
		}
		return fmt.Errorf("%s failed: %w: %s", bin, err, truncate(detail, terminalErrorMaxLen))
	}
	return nil
}

func buildArgs(job model.Job, proxyURL, outputDir string) []string {
	args := []string{
		"--newline",
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(outputDir, outputFilenameFormat),
	}
	if job.Variant.Kind == model.KindAudio {
		args = append(args, "-x", "--audio-format", "mp3")
	} else {
		args = append(args, "-f", formatForQuality(job.Variant.Quality))
	}
	if proxyURL != "" {
		args = append(args, "--proxy", proxyURL)
	}
	return append(args, job.SourceURL)
}

func formatForQuality(quality string) string {
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "1080p":
		return "bestvideo[height<=1080]+bestaudio/best[height<=1080]"
	case "720p":
		return "bestvideo[height<=720]+bestaudio/best[height<=720]"
	default:
		return "bestvideo*+bestaudio/best"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
