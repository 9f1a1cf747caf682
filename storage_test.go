package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRotation(t *testing.T) {
	logger, path := createTestLogger(t, func(cfg *Config) {
		cfg.BatchSize = 1
		cfg.MaxFileSizeBytes = 100
	})

	// Each line is well over half of the limit, so every second write crosses it
	for i := 0; i < 5; i++ {
		logger.Info(fmt.Sprintf("rotation test record %d with some padding", i))
		require.NoError(t, logger.Flush(time.Second))
	}

	stats := logger.Statistics()
	assert.Equal(t, uint64(2), stats.Rotations, "one rotation per threshold crossing")
	assert.Equal(t, uint64(5), stats.Written)

	archives, err := listArchives(path)
	require.NoError(t, err)
	require.Len(t, archives, 2)

	// Newest first
	dir := filepath.Dir(path)
	newest := readLines(t, filepath.Join(dir, archives[0].name))
	oldest := readLines(t, filepath.Join(dir, archives[1].name))
	require.Len(t, oldest, 2)
	require.Len(t, newest, 2)
	assert.Contains(t, oldest[0], "record 0")
	assert.Contains(t, newest[0], "record 2")

	active := readLines(t, path)
	require.Len(t, active, 1)
	assert.Contains(t, active[0], "record 4")
}

func TestRotationFailureKeepsWriting(t *testing.T) {
	var fallback syncBuffer
	logger, path := createTestLogger(t, func(cfg *Config) {
		cfg.MaxFileSizeBytes = 100
	})
	logger.fallbackMu.Lock()
	logger.fallback = &fallback
	logger.fallbackMu.Unlock()

	// Push the size over the limit and take the file away so the rename fails
	logger.writeMu.Lock()
	rs := logger.run.Load()
	require.NotNil(t, rs)
	rs.size = 1000
	require.NoError(t, os.Remove(path))
	logger.writeMu.Unlock()

	logger.Info("written despite the failed rotation")
	require.NoError(t, logger.Flush(time.Second))

	assert.Contains(t, fallback.String(), "rotation failed")

	stats := logger.Statistics()
	assert.Equal(t, uint64(0), stats.Rotations)
	assert.Equal(t, uint64(1), stats.Written)
	assert.Equal(t, uint64(0), stats.Failed)

	archives, err := listArchives(path)
	require.NoError(t, err)
	assert.Empty(t, archives)

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "written despite the failed rotation")

	// The reopened file keeps growing and rotates once it crosses the limit again
	logger.Info(fmt.Sprintf("second record %s", strings.Repeat("x", 100)))
	require.NoError(t, logger.Flush(time.Second))
	logger.Info("third record")
	require.NoError(t, logger.Flush(time.Second))
	assert.Equal(t, uint64(1), logger.Statistics().Rotations)
}

func TestRotationDisabled(t *testing.T) {
	logger, path := createTestLogger(t, func(cfg *Config) {
		cfg.BatchSize = 1
		cfg.MaxFileSizeBytes = 0
	})

	for i := 0; i < 5; i++ {
		logger.Info(fmt.Sprintf("no rotation record %d with some padding", i))
		require.NoError(t, logger.Flush(time.Second))
	}

	assert.Equal(t, uint64(0), logger.Statistics().Rotations)
	assert.Len(t, readLines(t, path), 5)
}

func TestRetentionPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		name := archiveName("app", ".log", base.Add(time.Duration(i)*time.Hour), 0)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old\n"), 0644))
	}
	// Unrelated files are never touched
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.log"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0644))

	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.MaxArchiveFiles = 2
	cfg.EmitStartupMarker = false

	logger, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, logger.Start())
	t.Cleanup(func() { _ = logger.Stop() })

	archives, err := listArchives(path)
	require.NoError(t, err)
	require.Len(t, archives, 2, "retention keeps min(N, k) newest archives")

	// Startup archive is the newest, then the latest of the pre-existing ones
	assert.True(t, archives[0].stamp.After(base.Add(4*time.Hour)))
	assert.Equal(t, archiveName("app", ".log", base.Add(4*time.Hour), 0), archives[1].name)

	stats := logger.Statistics()
	assert.Equal(t, uint64(1), stats.Rotations)
	assert.Equal(t, uint64(4), stats.ArchivesDeleted)

	_, err = os.Stat(filepath.Join(dir, "other.log"))
	assert.NoError(t, err)
}

func TestStartupRotation(t *testing.T) {
	t.Run("non-empty file is archived", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		require.NoError(t, os.WriteFile(path, []byte("leftover\n"), 0644))

		cfg := DefaultConfig()
		cfg.FilePath = path
		cfg.EmitStartupMarker = false

		logger, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, logger.Start())
		t.Cleanup(func() { _ = logger.Stop() })

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())

		archives, err := listArchives(path)
		require.NoError(t, err)
		require.Len(t, archives, 1)
		content, err := os.ReadFile(filepath.Join(dir, archives[0].name))
		require.NoError(t, err)
		assert.Equal(t, "leftover\n", string(content))
		assert.Equal(t, uint64(1), logger.Statistics().Rotations)
	})

	t.Run("empty file is kept", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		cfg := DefaultConfig()
		cfg.FilePath = path
		cfg.EmitStartupMarker = false

		logger, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, logger.Start())
		t.Cleanup(func() { _ = logger.Stop() })

		archives, err := listArchives(path)
		require.NoError(t, err)
		assert.Empty(t, archives)
		assert.Equal(t, uint64(0), logger.Statistics().Rotations)
	})
}

func TestArchiveNaming(t *testing.T) {
	stamp := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	assert.Equal(t, "app_20240309_140507.log", archiveName("app", ".log", stamp, 0))
	assert.Equal(t, "app_20240309_140507_2.log", archiveName("app", ".log", stamp, 2))
	assert.Equal(t, "app_20240309_140507", archiveName("app", "", stamp, 0))

	t.Run("collision adds suffix", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")

		first, err := nextArchivePath(path, stamp)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "app_20240309_140507.log"), first)
		require.NoError(t, os.WriteFile(first, nil, 0644))

		second, err := nextArchivePath(path, stamp)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "app_20240309_140507_1.log"), second)
		require.NoError(t, os.WriteFile(second, nil, 0644))

		third, err := nextArchivePath(path, stamp)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "app_20240309_140507_2.log"), third)
	})
}

func TestParseArchiveName(t *testing.T) {
	stamp := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	tests := []struct {
		name    string
		file    string
		wantOK  bool
		wantSeq int
	}{
		{"plain", "app_20240309_140507.log", true, 0},
		{"with suffix", "app_20240309_140507_3.log", true, 3},
		{"active file", "app.log", false, 0},
		{"other base", "web_20240309_140507.log", false, 0},
		{"other extension", "app_20240309_140507.txt", false, 0},
		{"bad stamp", "app_2024030_140507.log", false, 0},
		{"bad suffix", "app_20240309_140507_x.log", false, 0},
		{"zero suffix", "app_20240309_140507_0.log", false, 0},
		{"trailing garbage", "app_20240309_140507x.log", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, seq, ok := parseArchiveName(tt.file, "app", ".log")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, stamp.Equal(got))
				assert.Equal(t, tt.wantSeq, seq)
			}
		})
	}
}

func TestListArchivesOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	names := []string{
		"app_20240101_000000.log",
		"app_20240101_000000_1.log",
		"app_20240102_000000.log",
		"app_20231231_235959.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	archives, err := listArchives(path)
	require.NoError(t, err)

	var got []string
	for _, a := range archives {
		got = append(got, a.name)
	}
	assert.Equal(t, []string{
		"app_20240102_000000.log",
		"app_20240101_000000_1.log",
		"app_20240101_000000.log",
		"app_20231231_235959.log",
	}, got)

	count, total, err := archiveUsage(path)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, int64(4), total)
}

func TestListArchivesMissingDirectory(t *testing.T) {
	archives, err := listArchives(filepath.Join(t.TempDir(), "missing", "app.log"))
	assert.NoError(t, err)
	assert.Empty(t, archives)
}

func TestDiskFreeBytes(t *testing.T) {
	free, err := diskFreeBytes(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, free, int64(0))

	_, err = diskFreeBytes(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
