package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/database"
	"github.com/blotterscan/blotterscan/internal/model"
)

// TestBuildConfig tests flag parsing into a Config.
func TestBuildConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse(nil); err != nil {
			t.Fatal(err)
		}

		cfg, batch, err := buildConfig(cmd, []string{"Doe, John"})
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Workers != config.DefaultWorkers {
			t.Errorf("Workers = %d, want %d", cfg.Workers, config.DefaultWorkers)
		}
		if cfg.PageTimeout != config.DefaultPageTimeout {
			t.Errorf("PageTimeout = %v, want %v", cfg.PageTimeout, config.DefaultPageTimeout)
		}
		if !cfg.Headless {
			t.Error("Headless = false, want true by default")
		}
		if !cfg.SaveHistory {
			t.Error("SaveHistory = false, want true by default")
		}
		if len(batch) != 1 || batch[0].LastName != "Doe" || batch[0].FirstName != "John" {
			t.Errorf("batch = %+v, want one Doe/John query", batch)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse([]string{
			"--workers", "5",
			"--timeout", "30s",
			"--headed",
			"--no-history",
			"--csv",
		}); err != nil {
			t.Fatal(err)
		}

		cfg, _, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Workers != 5 {
			t.Errorf("Workers = %d, want 5", cfg.Workers)
		}
		if cfg.PageTimeout != 30*time.Second {
			t.Errorf("PageTimeout = %v, want 30s", cfg.PageTimeout)
		}
		if cfg.Headless {
			t.Error("Headless = true, want false with --headed")
		}
		if cfg.SaveHistory {
			t.Error("SaveHistory = true, want false with --no-history")
		}
		if !cfg.CSVExport {
			t.Error("CSVExport = false, want true")
		}
	})

	t.Run("credentials from environment", func(t *testing.T) {
		t.Setenv(envUsername, "deskuser")
		t.Setenv(envPassword, "hunter2")

		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse(nil); err != nil {
			t.Fatal(err)
		}

		cfg, _, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Username != "deskuser" || cfg.Password != "hunter2" {
			t.Errorf("credentials = %q/%q, want environment values", cfg.Username, cfg.Password)
		}
	})

	t.Run("flag credentials win over environment", func(t *testing.T) {
		t.Setenv(envUsername, "deskuser")

		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse([]string{"--username", "flaguser"}); err != nil {
			t.Fatal(err)
		}

		cfg, _, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Username != "flaguser" {
			t.Errorf("Username = %q, want flaguser", cfg.Username)
		}
	})

	t.Run("missing explicit profile fails", func(t *testing.T) {
		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse([]string{"--profile", "/no/such/profile.yaml"}); err != nil {
			t.Fatal(err)
		}

		if _, _, err := buildConfig(cmd, nil); err == nil {
			t.Error("buildConfig succeeded with a missing profile file, want error")
		}
	})
}

// TestSaveRunAfterCancel verifies that an interrupted run still lands in
// the history database: Ctrl-C cancels the run context before the partial
// results come back, and the save must not inherit that cancellation.
func TestSaveRunAfterCancel(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.DBDir = t.TempDir()

	q, err := model.NewSearchQuery("Doe", "John")
	if err != nil {
		t.Fatal(err)
	}
	run := model.NewRun(2)
	run.Elapsed = 3 * time.Second
	run.Results = []model.SearchResult{
		model.NewSearchResult(q, []model.BookingRecord{{
			Name:          "Doe, John",
			BookingNumber: "2025000042",
			Status:        model.StatusReleased,
		}}, time.Second),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := saveRun(ctx, cfg, run, logger); err != nil {
		t.Fatalf("saveRun with a cancelled context: %v", err)
	}

	db, err := database.Open(cfg.DBDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})

	stored, err := db.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil {
		t.Fatal("cancelled run was not saved")
	}
	if len(stored.Results) != 1 || stored.Results[0].Query.LastName != "Doe" {
		t.Errorf("stored results = %+v, want the Doe query", stored.Results)
	}
}

// TestBuildBatch tests name collection from arguments and list files.
func TestBuildBatch(t *testing.T) {
	t.Run("list file and arguments combine", func(t *testing.T) {
		listPath := filepath.Join(t.TempDir(), "names.txt")
		content := "Smith, Jane\n# watch list\nJones\n"
		if err := os.WriteFile(listPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse([]string{"--list", listPath}); err != nil {
			t.Fatal(err)
		}

		batch, err := buildBatch(cmd, []string{"Doe, John"})
		if err != nil {
			t.Fatal(err)
		}
		if len(batch) != 3 {
			t.Fatalf("len(batch) = %d, want 3", len(batch))
		}
		if batch[0].LastName != "Doe" || batch[1].LastName != "Smith" || batch[2].LastName != "Jones" {
			t.Errorf("batch order = %v, want arguments before list entries", batch)
		}
		if batch[2].FirstName != "" {
			t.Errorf("bare last name picked up first name %q", batch[2].FirstName)
		}
	})

	t.Run("missing list file fails", func(t *testing.T) {
		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse([]string{"--list", "/no/such/file"}); err != nil {
			t.Fatal(err)
		}

		if _, err := buildBatch(cmd, nil); err == nil {
			t.Error("buildBatch succeeded with a missing list file, want error")
		}
	})

	t.Run("invalid argument fails", func(t *testing.T) {
		cmd := NewSearchCmd()
		if err := cmd.Flags().Parse(nil); err != nil {
			t.Fatal(err)
		}

		if _, err := buildBatch(cmd, []string{", John"}); err == nil {
			t.Error("buildBatch accepted a name without a last name, want error")
		}
	})
}
