package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fetchq/internal/config"
	"fetchq/internal/model"
)

func TestAdd_PersistsQueueWithUTCSaveStamp(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "settings.json")
	statePath := filepath.Join(dir, "queue.json")

	settings := config.Defaults()
	settings.StatePath = statePath
	if err := config.Save(configPath, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if err := runAdd([]string{"--config", configPath, "https://example.com/v/1"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].SourceURL != "https://example.com/v/1" {
		t.Fatalf("persisted queue: %+v", snap.Queue)
	}
	if !strings.HasSuffix(snap.LastSaved, "Z") {
		t.Fatalf("save stamp %q is not UTC", snap.LastSaved)
	}
	if _, err := time.Parse(time.RFC3339, snap.LastSaved); err != nil {
		t.Fatalf("save stamp %q: %v", snap.LastSaved, err)
	}
	if snap.StartTime == 0 {
		t.Fatalf("batch start time not initialized")
	}
}
