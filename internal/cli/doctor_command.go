package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fetchq/internal/config"
	"fetchq/internal/fetch"
)

type doctorReport struct {
	Dependencies  fetch.DependencyReport `json:"dependencies"`
	SettingsPath  string                 `json:"settings_path"`
	SettingsFound bool                   `json:"settings_found"`
	StateBackend  string                 `json:"state_backend"`
	StateWritable bool                   `json:"state_writable"`
	StateError    string                 `json:"state_error,omitempty"`
	OutputDir     string                 `json:"output_dir"`
	OutputOK      bool                   `json:"output_dir_writable"`
	OutputError   string                 `json:"output_dir_error,omitempty"`
	Healthy       bool                   `json:"healthy"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "settings path")
	jsonOut := fs.Bool("json", false, "print machine-readable output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	report := doctorReport{
		Dependencies: fetch.DependencyStatus(),
		SettingsPath: *configPath,
		StateBackend: settings.StateBackend,
		OutputDir:    settings.OutputDir,
	}
	if _, err := os.Stat(*configPath); err == nil {
		report.SettingsFound = true
	}

	switch settings.StateBackend {
	case config.BackendRedis:
		// NewRedisStore pings the server before accepting the backend.
		if _, closeStore, err := openStore(settings); err != nil {
			report.StateError = err.Error()
		} else {
			report.StateWritable = true
			closeStore()
		}
	default:
		if err := probeDir(filepath.Dir(settings.StatePath)); err != nil {
			report.StateError = err.Error()
		} else {
			report.StateWritable = true
		}
	}
	if err := probeDir(settings.OutputDir); err != nil {
		report.OutputError = err.Error()
	} else {
		report.OutputOK = true
	}
	report.Healthy = report.Dependencies.YTDLPFound && report.Dependencies.FFmpegFound &&
		report.StateWritable && report.OutputOK

	if *jsonOut {
		return printJSON(report)
	}

	printCheck("yt-dlp", report.Dependencies.YTDLPFound, report.Dependencies.YTDLPPath, "install yt-dlp and ensure it is on PATH")
	printCheck("ffmpeg", report.Dependencies.FFmpegFound, report.Dependencies.FFmpegPath, "install ffmpeg (required for stream merging)")
	printCheck("state ("+report.StateBackend+")", report.StateWritable, "", report.StateError)
	printCheck("output dir", report.OutputOK, report.OutputDir, report.OutputError)
	if report.SettingsFound {
		fmt.Printf("  ok  settings %s\n", report.SettingsPath)
	} else {
		fmt.Printf("  --  settings %s (not found, defaults in effect)\n", report.SettingsPath)
	}
	if !report.Healthy {
		return fmt.Errorf("preflight checks failed")
	}
	fmt.Println("all checks passed")
	return nil
}

func printCheck(name string, ok bool, detail, hint string) {
	if ok {
		if detail != "" {
			fmt.Printf("  ok  %s (%s)\n", name, detail)
		} else {
			fmt.Printf("  ok  %s\n", name)
		}
		return
	}
	fmt.Printf("  !!  %s: %s\n", name, hint)
}

// probeDir verifies the directory exists (creating it if needed) and is
// writable by dropping and removing a marker file.
func probeDir(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	marker := filepath.Join(dir, ".fetchq-write-check")
	if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(marker)
}
