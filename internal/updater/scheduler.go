// file: internal/updater/scheduler.go
// version: 2.0.0
// guid: 3b4c5d6e-7f8a-9b0c-1d2e-3f4a5b6c7d8e

package updater

import (
	"log"
	"time"
)

// SchedulerConfig is read fresh on every tick so config reloads take effect
// without restarting the scheduler.
type SchedulerConfig struct {
	Enabled     bool
	Channel     string
	CheckMins   int
	WindowStart int // hour 0-23
	WindowEnd   int // hour 0-23
}

// Scheduler checks for new releases on an interval and installs them only
// inside the configured maintenance window, so a long-running serve process
// never swaps its binary mid-day.
type Scheduler struct {
	updater *Updater
	config  func() SchedulerConfig
	ticker  *time.Ticker
	stopCh  chan struct{}
	now     func() time.Time
}

// NewScheduler wires an updater to a config getter.
func NewScheduler(u *Updater, configGetter func() SchedulerConfig) *Scheduler {
	return &Scheduler{
		updater: u,
		config:  configGetter,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
}

// Start launches the check loop. A disabled config is a no-op.
func (s *Scheduler) Start() {
	cfg := s.config()
	if !cfg.Enabled {
		log.Printf("[INFO] Auto-update disabled")
		return
	}

	interval := time.Duration(cfg.CheckMins) * time.Minute
	if interval < time.Minute {
		interval = time.Minute
	}
	s.ticker = time.NewTicker(interval)

	log.Printf("[INFO] Auto-update: every %s on %q channel, install window %02d:00-%02d:00",
		interval, cfg.Channel, cfg.WindowStart, cfg.WindowEnd)

	go func() {
		for {
			select {
			case <-s.stopCh:
				return
			case <-s.ticker.C:
				s.check()
			}
		}
	}()
}

// Stop halts the check loop.
func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	log.Printf("[INFO] Auto-update stopped")
}

func (s *Scheduler) check() {
	cfg := s.config()
	if !cfg.Enabled {
		return
	}

	info, err := s.updater.CheckForUpdate(cfg.Channel)
	if err != nil {
		log.Printf("[WARN] Update check failed: %v", err)
		return
	}
	if !info.UpdateAvailable {
		log.Printf("[DEBUG] No update (current=%s latest=%s)", info.CurrentVersion, info.LatestVersion)
		return
	}

	hour := s.now().Hour()
	if !inWindow(hour, cfg.WindowStart, cfg.WindowEnd) {
		log.Printf("[INFO] Update %s available, waiting for window %02d:00-%02d:00 (now %02d:00)",
			info.LatestVersion, cfg.WindowStart, cfg.WindowEnd, hour)
		return
	}

	log.Printf("[INFO] Installing update %s -> %s", info.CurrentVersion, info.LatestVersion)
	if err := s.updater.DownloadAndReplace(info); err != nil {
		log.Printf("[ERROR] Update install failed: %v", err)
		return
	}

	// Exits the process; the service manager restarts the new binary.
	s.updater.RestartSelf()
}

// inWindow reports whether hour falls in [start, end), wrapping midnight
// when start > end (23-4 covers 23,0,1,2,3).
func inWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
