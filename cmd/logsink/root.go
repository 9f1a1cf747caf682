package main

import (
	"fmt"
	"os"

	"github.com/lixenwraith/logsink"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "logsink",
	Short: "Batched durable log sink demo and load tool",
	Long: `logsink drives the logsink library: a stress command that floods
a logger from many goroutines and a serve command hosting a fasthttp
endpoint with request logging and health read-back.`,
	SilenceUsage: true,
}

var (
	configPath string
	overrides  []string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file with a [logsink] table")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "config override as key=value, repeatable")
}

// buildLogger resolves the file config and overrides into a stopped logger
func buildLogger() (*logsink.Logger, error) {
	var base *logsink.Config
	if configPath != "" {
		cfg, err := logsink.NewConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", configPath, err)
		}
		base = cfg
	}

	logger, err := logsink.NewBuilderFrom(base).
		Overrides(overrides...).
		Options(logsink.WithFallbackWriter(os.Stderr)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func printStatistics(s logsink.Statistics) {
	fmt.Printf("Session:          %s\n", s.SessionID)
	fmt.Printf("Written:          %d\n", s.Written)
	fmt.Printf("Failed:           %d\n", s.Failed)
	fmt.Printf("Write ops:        %d\n", s.WriteOps)
	fmt.Printf("Rotations:        %d\n", s.Rotations)
	fmt.Printf("Archives deleted: %d\n", s.ArchivesDeleted)
	fmt.Printf("Active file size: %d bytes\n", s.CurrentFileSize)
	fmt.Printf("Avg write latency: %v over %d writes\n", s.AverageLatency, s.LatencySampleCount)
}
