package cron

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const jobCleanupGeneratedImages = "cleanup_generated_images"

// CleanupGeneratedImages removes uploaded photos and generated frames older
// than the retention window. Missing directories are skipped.
func (m *CronManager) CleanupGeneratedImages() int {
	cutoff := m.now().Add(-m.cfg.Retention)
	removed := 0
	var errs []error

	for _, dir := range m.cfg.MediaDirs {
		err := afero.Walk(m.fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return err
			}
			if info.IsDir() || !info.ModTime().Before(cutoff) {
				return nil
			}
			if err := m.fs.Remove(path); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
				return nil
			}
			removed++
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("walk %s: %w", dir, err))
		}
	}

	if len(errs) > 0 {
		m.logJobError(jobCleanupGeneratedImages, errors.Join(errs...))
	}
	m.logJobComplete(jobCleanupGeneratedImages, logrus.Fields{
		"removed": removed,
		"cutoff":  cutoff,
	})
	return removed
}
