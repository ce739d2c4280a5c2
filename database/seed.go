package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/YHTerrance/UniFrames/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *logrus.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// DefaultUniversities is seeded when no import file is given
func DefaultUniversities() []model.University {
	return []model.University{
		{Name: "Carnegie Mellon University", WebsiteURL: "https://www.cmu.edu"},
		{Name: "Harvard University", WebsiteURL: "https://www.harvard.edu"},
		{Name: "Massachusetts Institute of Technology", WebsiteURL: "https://www.mit.edu"},
		{Name: "Stanford University", WebsiteURL: "https://www.stanford.edu"},
		{Name: "University of California, Berkeley", WebsiteURL: "https://www.berkeley.edu"},
	}
}

// SeedUniversities inserts the given universities, updating website and logo
// columns of names that already exist. Returns the number of rows written.
func (s *Seeder) SeedUniversities(universities []model.University) (int64, error) {
	if len(universities) == 0 {
		s.log.Info("⏭️  No universities to seed, skipping...")
		return 0, nil
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"website_url", "logo_key", "logo_url", "updated_at"}),
	}).Create(&universities)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed universities: %w", result.Error)
	}

	s.log.Infof("✅ Seeded %d universities", result.RowsAffected)
	return result.RowsAffected, nil
}

// LoadUniversitiesCSV reads universities from a CSV export. The header row
// must contain "name"; "website_url", "logo_key" and "logo_url" are optional.
func LoadUniversitiesCSV(r io.Reader) ([]model.University, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, errors.New(`CSV header must contain a "name" column`)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var universities []model.University
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		name := field(record, "name")
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		universities = append(universities, model.University{
			Name:       name,
			WebsiteURL: field(record, "website_url"),
			LogoKey:    field(record, "logo_key"),
			LogoURL:    field(record, "logo_url"),
		})
	}

	return universities, nil
}
