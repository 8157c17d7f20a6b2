package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
)

// StartLoop runs scan cycles on a fixed interval until the context is
// cancelled. The interval is independent of cycle duration; the re-entrancy
// guard inside RunScanCycle drops ticks that arrive mid-cycle.
func (s *Scheduler) StartLoop(ctx context.Context) error {
	config := GetConfig()

	ticker := time.NewTicker(config.ScanInterval)
	defer ticker.Stop()

	logger.WithField("interval", config.ScanInterval.String()).
		Info("starting limit order scan loop")

	for {
		select {
		case <-ctx.Done():
			logger.Info("scan loop stopped")
			return nil

		case <-ticker.C:
			s.RunScanCycle(ctx)
		}
	}
}
