package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var stressOpts struct {
	workers         int
	bursts          int
	recordsPerBurst int
	maxMessageSize  int
	stopTimeout     time.Duration
}

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Flood a logger from concurrent producers",
	Long: `Submits bursts of random records from many goroutines, then stops the
logger and prints the final statistics. Use small max_file_size_bytes and
max_archive_files overrides to exercise rotation and retention.`,
	RunE: runStress,
}

func init() {
	f := stressCmd.Flags()
	f.IntVar(&stressOpts.workers, "workers", 100, "concurrent producers")
	f.IntVar(&stressOpts.bursts, "bursts", 100, "total bursts")
	f.IntVar(&stressOpts.recordsPerBurst, "records-per-burst", 500, "records per burst")
	f.IntVar(&stressOpts.maxMessageSize, "max-message-size", 1000, "upper bound of random message length")
	f.DurationVar(&stressOpts.stopTimeout, "stop-timeout", 10*time.Second, "time allowed to drain on stop")
	rootCmd.AddCommand(stressCmd)
}

var stressLevels = []logsink.Level{
	logsink.LevelDebug,
	logsink.LevelInfo,
	logsink.LevelWarn,
	logsink.LevelError,
}

func randomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.IntN(len(chars))])
	}
	return sb.String()
}

// logBurst submits one burst through a per-worker category
func logBurst(cl *logsink.CategoryLogger, burstID int) {
	for i := 0; i < stressOpts.recordsPerBurst; i++ {
		level := stressLevels[rand.IntN(len(stressLevels))]
		msg := fmt.Sprintf("bst=%d seq=%d %s", burstID, i, randomMessage(rand.IntN(stressOpts.maxMessageSize)+10))

		var err error
		if level == logsink.LevelError {
			err = errors.Errorf("synthetic failure in burst %d", burstID)
		}
		cl.Log(level, msg, err, nil)
	}
}

func runStress(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	if err := logger.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Stress test: %d workers, %d bursts, %d records/burst, file %s\n",
		stressOpts.workers, stressOpts.bursts, stressOpts.recordsPerBurst, logger.Config().FilePath)

	burstChan := make(chan int, stressOpts.workers)
	var completed atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < stressOpts.workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			cl := logger.ForCategory(fmt.Sprintf("worker-%03d", id))
			for burstID := range burstChan {
				logBurst(cl, burstID)
				if n := completed.Add(1); n%10 == 0 {
					fmt.Printf("\rProgress: %d/%d bursts", n, stressOpts.bursts)
				}
			}
		}(w)
	}

	start := time.Now()
submit:
	for i := 1; i <= stressOpts.bursts; i++ {
		select {
		case burstChan <- i:
		case <-ctx.Done():
			fmt.Println("\nSignal received, halting burst submission")
			break submit
		}
	}
	close(burstChan)
	wg.Wait()
	elapsed := time.Since(start)

	done := completed.Load()
	fmt.Printf("\nCompleted %d/%d bursts in %v", done, stressOpts.bursts, elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf(" (~%.0f records/s submitted)", float64(done*int64(stressOpts.recordsPerBurst))/elapsed.Seconds())
	}
	fmt.Println()

	stopErr := logger.Stop(stressOpts.stopTimeout)
	printStatistics(logger.Statistics())
	return stopErr
}
