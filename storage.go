package logsink

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// archiveFile is a rotated file found next to the active file
type archiveFile struct {
	name  string
	stamp time.Time // Parsed from the name, file systems do not agree on creation time
	seq   int       // Collision suffix, 0 when absent
	size  int64
}

// splitLogPath returns directory, base name without extension and extension of the active file
func splitLogPath(path string) (dir, base, ext string) {
	dir = filepath.Dir(path)
	name := filepath.Base(path)
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	return dir, base, ext
}

// archiveName builds <base>_<stamp>[_seq]<ext>
func archiveName(base, ext string, stamp time.Time, seq int) string {
	name := base + "_" + stamp.UTC().Format(archiveTimeLayout)
	if seq > 0 {
		name += "_" + strconv.Itoa(seq)
	}
	return name + ext
}

// nextArchivePath returns the first archive path for stamp that does not exist yet
func nextArchivePath(path string, stamp time.Time) (string, error) {
	dir, base, ext := splitLogPath(path)
	for seq := 0; ; seq++ {
		candidate := filepath.Join(dir, archiveName(base, ext, stamp, seq))
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmtErrorf("failed to check archive path '%s': %w", candidate, err)
		}
	}
}

// parseArchiveName extracts stamp and sequence from an archive file name
func parseArchiveName(name, base, ext string) (time.Time, int, bool) {
	prefix := base + "_"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, 0, false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
	if len(middle) < len(archiveTimeLayout) {
		return time.Time{}, 0, false
	}

	stamp, err := time.ParseInLocation(archiveTimeLayout, middle[:len(archiveTimeLayout)], time.UTC)
	if err != nil {
		return time.Time{}, 0, false
	}

	rest := middle[len(archiveTimeLayout):]
	if rest == "" {
		return stamp, 0, true
	}
	if rest[0] != '_' {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(rest[1:])
	if err != nil || seq <= 0 {
		return time.Time{}, 0, false
	}
	return stamp, seq, true
}

// listArchives returns the archives of the active file, newest first
func listArchives(path string) ([]archiveFile, error) {
	dir, base, ext := splitLogPath(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmtErrorf("failed to read log directory '%s': %w", dir, err)
	}

	var archives []archiveFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stamp, seq, ok := parseArchiveName(entry.Name(), base, ext)
		if !ok {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		archives = append(archives, archiveFile{name: entry.Name(), stamp: stamp, seq: seq, size: info.Size()})
	}

	slices.SortFunc(archives, func(a, b archiveFile) int {
		if c := b.stamp.Compare(a.stamp); c != 0 {
			return c
		}
		return b.seq - a.seq
	})
	return archives, nil
}

// pruneArchives deletes archives beyond the newest keep, returning how many were removed
func (l *Logger) pruneArchives(keep int64) (int, error) {
	archives, err := listArchives(l.cfg.FilePath)
	if err != nil {
		return 0, err
	}
	if int64(len(archives)) <= keep {
		return 0, nil
	}

	dir := filepath.Dir(l.cfg.FilePath)
	var deleted int
	var errs error
	for _, archive := range archives[keep:] {
		archivePath := filepath.Join(dir, archive.name)
		if err := os.Remove(archivePath); err != nil {
			errs = combineErrors(errs, fmtErrorf("failed to remove archive '%s': %w", archivePath, err))
			continue
		}
		deleted++
	}
	l.stats.archivesDeleted.Add(uint64(deleted))
	return deleted, errs
}

// openActiveFile opens the active file for appending and returns its current size
func openActiveFile(path string) (*os.File, int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, 0, fmtErrorf("failed to create log directory '%s': %w", filepath.Dir(path), err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, 0, fmtErrorf("failed to open/create log file '%s': %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmtErrorf("failed to stat log file '%s': %w", path, err)
	}
	return file, info.Size(), nil
}

// rotateIfNeeded rotates when the active file reached the size bound.
// Runs inside the writer section.
func (l *Logger) rotateIfNeeded(rs *runtimeState) {
	maxSize := l.cfg.MaxFileSizeBytes
	if maxSize <= 0 || rs.size < maxSize {
		return
	}
	if err := l.rotateLogFile(rs); err != nil {
		l.internalLog("rotation failed, continuing with the active file: %v\n", err)
	}
}

// rotateLogFile implements the rename-on-rotate strategy.
// Closes the active file, renames it to a timestamped archive, prunes old archives
// and reopens the active path. Runs inside the writer section.
func (l *Logger) rotateLogFile(rs *runtimeState) error {
	path := l.cfg.FilePath

	if rs.file != nil {
		if err := rs.file.Close(); err != nil {
			l.internalLog("failed to close log file before rotation: %v\n", err)
			// Continue with rotation anyway
		}
		rs.file = nil
	}

	archivePath, err := nextArchivePath(path, rs.now())
	if err == nil {
		if renameErr := os.Rename(path, archivePath); renameErr != nil {
			err = fmtErrorf("failed to rename log file from '%s' to '%s': %w", path, archivePath, renameErr)
		}
	}
	if err != nil {
		// Keep appending to the original file until a later rotation succeeds
		if reopenErr := l.reopenActiveFile(rs); reopenErr != nil {
			err = combineErrors(err, reopenErr)
		}
		return err
	}

	l.stats.rotations.Add(1)

	if _, pruneErr := l.pruneArchives(l.cfg.MaxArchiveFiles); pruneErr != nil {
		l.internalLog("archive retention incomplete: %v\n", pruneErr)
	}

	return l.reopenActiveFile(rs)
}

// reopenActiveFile opens the active path into rs. Runs inside the writer section.
func (l *Logger) reopenActiveFile(rs *runtimeState) error {
	file, size, err := openActiveFile(l.cfg.FilePath)
	if err != nil {
		return err
	}
	rs.file = file
	rs.size = size
	l.fileSize.Store(size)
	return nil
}

// rotateOnStartup archives a non-empty active file left by a previous run
func (l *Logger) rotateOnStartup(rs *runtimeState) error {
	info, err := os.Stat(l.cfg.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmtErrorf("failed to stat log file '%s': %w", l.cfg.FilePath, err)
	}
	if info.Size() == 0 {
		return nil
	}
	return l.rotateLogFile(rs)
}

// acquireLock takes the exclusive guard file next to the active file
func acquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory '%s': %w", filepath.Dir(path), err)
	}

	fl := flock.New(path + lockFileSuffix)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmtErrorf("failed to lock '%s': %w", fl.Path(), err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return fl, nil
}

// diskFreeBytes retrieves available disk space for the file system holding path
func diskFreeBytes(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmtErrorf("failed to get disk stats for '%s': %w", path, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}

// archiveUsage returns the count and total size of archives of the active file
func archiveUsage(path string) (int, int64, error) {
	archives, err := listArchives(path)
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for _, archive := range archives {
		total += archive.size
	}
	return len(archives), total, nil
}
