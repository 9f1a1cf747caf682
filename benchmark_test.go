package logsink

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

// BenchmarkLoggerInfo measures submission of plain info records
func BenchmarkLoggerInfo(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}

// BenchmarkLoggerJSON measures submission with JSON output and caller context
func BenchmarkLoggerJSON(b *testing.B) {
	logger, _ := createTestLogger(b, func(c *Config) { c.Format = "json" })
	caller := &Caller{File: "bench.go", Member: "BenchmarkLoggerJSON", Line: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Log(LevelInfo, "benchmark message", nil, caller)
	}
}

// BenchmarkLoggerError measures records carrying an error detail
func BenchmarkLoggerError(b *testing.B) {
	logger, _ := createTestLogger(b)
	err := errors.Wrap(errors.New("root cause"), "benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Error("benchmark failure", err)
	}
}

// BenchmarkConcurrentLogging measures submission under concurrent load
func BenchmarkConcurrentLogging(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		cl := logger.ForCategory("parallel")
		for pb.Next() {
			cl.Info("concurrent")
		}
	})
	b.StopTimer()
	_ = logger.Flush(5 * time.Second)
}
