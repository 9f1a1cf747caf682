package logsink

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pbnjay/memory"
)

// heartbeatRecord builds the periodic self-report in the internal category.
// Called from the processor, so the record goes straight into the batch instead of the queue.
func (l *Logger) heartbeatRecord(rs *runtimeState) Record {
	sequence := rs.heartbeatSeq.Add(1)
	stats := l.Statistics()

	var sb strings.Builder
	fmt.Fprintf(&sb, "heartbeat sequence=%d uptime_hours=%.2f", sequence, rs.now().Sub(stats.StartedAt).Hours())
	fmt.Fprintf(&sb, " written=%d failed=%d queue_depth=%d write_ops=%d", stats.Written, stats.Failed, stats.QueueDepth, stats.WriteOps)
	fmt.Fprintf(&sb, " rotations=%d archives_deleted=%d", stats.Rotations, stats.ArchivesDeleted)
	fmt.Fprintf(&sb, " current_file_size_mb=%.2f avg_latency=%s", toMB(stats.CurrentFileSize), stats.AverageLatency)

	count, total, err := archiveUsage(l.cfg.FilePath)
	if err == nil {
		fmt.Fprintf(&sb, " archive_count=%d archive_size_mb=%.2f", count, toMB(total))
	} else {
		l.internalLog("warning - heartbeat failed to scan archives: %v\n", err)
	}

	if free, err := diskFreeBytes(filepath.Dir(l.cfg.FilePath)); err == nil {
		fmt.Fprintf(&sb, " disk_free_mb=%.2f", toMB(free))
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	fmt.Fprintf(&sb, " num_goroutine=%d alloc_mb=%.2f", runtime.NumGoroutine(), toMB(int64(memStats.Alloc)))

	// 0 when the platform is not supported
	if totalMem := memory.TotalMemory(); totalMem > 0 {
		fmt.Fprintf(&sb, " system_memory_mb=%.2f", toMB(int64(totalMem)))
	}

	return Record{
		Timestamp: rs.now(),
		Level:     LevelInfo,
		Category:  internalCategory,
		Message:   sb.String(),
		SessionID: l.sessionID,
	}
}

// toMB converts bytes to mebibytes
func toMB(bytes int64) float64 {
	return float64(bytes) / (sizeMultiplier * sizeMultiplier)
}
