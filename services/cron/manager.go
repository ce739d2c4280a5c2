package cron

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// JobsConfig configures the scheduled jobs
type JobsConfig struct {
	CleanupSchedule string        // six-field spec, seconds first
	Retention       time.Duration // generated files older than this are removed
	MediaDirs       []string
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	fs   afero.Fs
	cfg  JobsConfig
	log  *logrus.Logger
	now  func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(fs afero.Fs, cfg JobsConfig, log *logrus.Logger) *CronManager {
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = "0 0 * * * *"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}

	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		fs:   fs,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info("Starting cron jobs...")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	m.log.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	m.log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("Cron jobs stopped")
}

// Entries returns the number of registered jobs
func (m *CronManager) Entries() int {
	return len(m.cron.Entries())
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	_, err := m.cron.AddFunc(m.cfg.CleanupSchedule, func() {
		m.logJobStart(jobCleanupGeneratedImages)
		m.CleanupGeneratedImages()
	})
	if err != nil {
		return err
	}

	m.log.WithField("jobs", len(m.cron.Entries())).Info("All cron jobs registered successfully")
	return nil
}

func (m *CronManager) logJobStart(jobName string) {
	m.log.WithFields(logrus.Fields{
		"job":        jobName,
		"started_at": m.now().Format(time.RFC3339),
	}).Info("[CRON] Starting job")
}

func (m *CronManager) logJobComplete(jobName string, fields logrus.Fields) {
	m.log.WithField("job", jobName).WithFields(fields).Info("[CRON] Completed job")
}

func (m *CronManager) logJobError(jobName string, err error) {
	m.log.WithField("job", jobName).WithError(err).Error("[CRON] Error in job")
}
