package badger

import (
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Maintenance runs Badger value-log garbage collection on a cron schedule.
// Badger never reclaims value-log space on its own; without periodic GC the
// data directory grows unbounded under delete-and-reindex workloads.
type Maintenance struct {
	db     *BadgerDB
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewMaintenance creates the maintenance runner.
func NewMaintenance(db *BadgerDB, logger arbor.ILogger) *Maintenance {
	return &Maintenance{
		db:     db,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start schedules GC with the given cron spec. An empty spec disables
// maintenance.
func (m *Maintenance) Start(schedule string) error {
	if schedule == "" {
		m.logger.Debug().Msg("Value-log GC disabled")
		return nil
	}

	_, err := m.cron.AddFunc(schedule, m.runGC)
	if err != nil {
		return fmt.Errorf("invalid gc schedule %q: %w", schedule, err)
	}

	m.cron.Start()
	m.logger.Info().Str("schedule", schedule).Msg("Value-log GC scheduled")
	return nil
}

// Stop halts the schedule. A GC pass already running finishes.
func (m *Maintenance) Stop() {
	m.cron.Stop()
}

func (m *Maintenance) runGC() {
	// Badger rewrites at most one log file per call; loop until nothing
	// qualifies for rewrite.
	rewritten := 0
	for {
		err := m.db.Store().Badger().RunValueLogGC(0.5)
		if err == badgerdb.ErrNoRewrite {
			break
		}
		if err != nil {
			m.logger.Warn().Err(err).Msg("Value-log GC failed")
			return
		}
		rewritten++
	}
	m.logger.Debug().Int("rewritten", rewritten).Msg("Value-log GC pass completed")
}
