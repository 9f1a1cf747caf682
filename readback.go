package logsink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// LogsResult is the outcome of reading back the active log file
type LogsResult struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	Lines       []string  `json:"logs"`
	TotalLines  int       `json:"totalLines"`
	RetrievedAt time.Time `json:"retrievedAt"`
	Content     string    `json:"-"`
}

// ReadLogs flushes pending records when running, then returns the active file contents.
// Read failures are reported in the result, never as a panic or error.
func (l *Logger) ReadLogs(timeout time.Duration) LogsResult {
	if l.Status() == StatusRunning {
		if err := l.Flush(timeout); err != nil {
			l.internalLog("flush before read-back failed: %v\n", err)
		}
	}

	// Excludes a concurrent batch write or rotation
	l.writeMu.Lock()
	data, err := os.ReadFile(l.cfg.FilePath)
	l.writeMu.Unlock()

	result := LogsResult{RetrievedAt: time.Now()}

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Message = MessageLogsNotFound
			return result
		}
		result.Message = fmt.Sprintf("failed to read log file '%s': %v", l.cfg.FilePath, err)
		return result
	}

	content := string(data)
	result.Success = true
	result.Message = MessageLogsRetrieved
	result.Content = content
	result.Lines = splitLines(content)
	result.TotalLines = len(result.Lines)
	return result
}

// splitLines splits content into lines without a trailing empty element
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return []string{}
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
