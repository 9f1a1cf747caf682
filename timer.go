package logsink

import "time"

// TimerSet holds the tickers driving the processor
type TimerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	flushChan       <-chan time.Time // nil when the periodic flush is disabled
	heartbeatChan   <-chan time.Time // nil when heartbeats are disabled
}

// setupProcessingTimers creates and configures all necessary timers for the processor
func (l *Logger) setupProcessingTimers() *TimerSet {
	timers := &TimerSet{}

	// Set up flush timer
	if interval := durationS(l.cfg.FlushIntervalS); interval > 0 {
		timers.flushTicker = time.NewTicker(interval)
		timers.flushChan = timers.flushTicker.C
	}

	// Set up heartbeat timer
	if interval := durationS(l.cfg.HeartbeatIntervalS); interval > 0 {
		timers.heartbeatTicker = time.NewTicker(interval)
		timers.heartbeatChan = timers.heartbeatTicker.C
	}

	return timers
}

// closeProcessingTimers stops all active timers
func (l *Logger) closeProcessingTimers(timers *TimerSet) {
	if timers.flushTicker != nil {
		timers.flushTicker.Stop()
	}
	if timers.heartbeatTicker != nil {
		timers.heartbeatTicker.Stop()
	}
}
