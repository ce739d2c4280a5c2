package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/YHTerrance/UniFrames/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UniversitySummary is the {id, name} pair listed to API consumers
type UniversitySummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FrameUpsert is one row written by a sync
type FrameUpsert struct {
	Filename  string
	URL       string
	SortOrder int
}

// FrameStore reads and writes the frame index
type FrameStore interface {
	GetFrames(ctx context.Context, universityID uint) ([]model.Frame, error)
	UpsertFrame(ctx context.Context, universityID uint, filename, url string, sortOrder int) error
	UpsertFrames(ctx context.Context, universityID uint, frames []FrameUpsert) error
	ListUniversitiesWithFrames(ctx context.Context) ([]UniversitySummary, error)
	ListUniversities(ctx context.Context) ([]model.University, error)
	GetUniversity(ctx context.Context, id uint) (*model.University, error)
}

// GormFrameStore is the FrameStore backed by gorm
type GormFrameStore struct {
	db *gorm.DB
}

// NewFrameStore creates a new frame store
func NewFrameStore(db *gorm.DB) *GormFrameStore {
	return &GormFrameStore{db: db}
}

// GetFrames returns the frames of a university ordered by sort_order, then
// filename compared byte-wise as stored.
func (s *GormFrameStore) GetFrames(ctx context.Context, universityID uint) ([]model.Frame, error) {
	var frames []model.Frame
	err := s.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("sort_order ASC").
		Order("filename ASC").
		Find(&frames).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch frames: %w", err)
	}

	// collations differ between dialects
	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].SortOrder != frames[j].SortOrder {
			return frames[i].SortOrder < frames[j].SortOrder
		}
		return frames[i].Filename < frames[j].Filename
	})

	return frames, nil
}

// UpsertFrame inserts a frame or refreshes url and sort_order of the existing
// (university_id, filename) row in a single statement.
func (s *GormFrameStore) UpsertFrame(ctx context.Context, universityID uint, filename, url string, sortOrder int) error {
	return s.upsert(s.db.WithContext(ctx), universityID, FrameUpsert{
		Filename:  filename,
		URL:       url,
		SortOrder: sortOrder,
	})
}

// UpsertFrames applies a batch of upserts in one transaction
func (s *GormFrameStore) UpsertFrames(ctx context.Context, universityID uint, frames []FrameUpsert) error {
	if len(frames) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, f := range frames {
			if err := s.upsert(tx, universityID, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormFrameStore) upsert(db *gorm.DB, universityID uint, f FrameUpsert) error {
	now := time.Now()
	frame := model.Frame{
		UniversityID: universityID,
		Filename:     f.Filename,
		URL:          f.URL,
		SortOrder:    f.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "university_id"}, {Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "sort_order", "updated_at"}),
	}).Create(&frame).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("%w: upsert %q for university %d: %w", ErrDataIntegrity, f.Filename, universityID, err)
		}
		return fmt.Errorf("failed to upsert frame %q: %w", f.Filename, err)
	}
	return nil
}

// ListUniversitiesWithFrames returns the universities having at least one frame, ordered by name
func (s *GormFrameStore) ListUniversitiesWithFrames(ctx context.Context) ([]UniversitySummary, error) {
	var out []UniversitySummary
	err := s.db.WithContext(ctx).
		Model(&model.University{}).
		Select("universities.id, universities.name").
		Where("EXISTS (SELECT 1 FROM frames WHERE frames.university_id = universities.id)").
		Order("universities.name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list universities with frames: %w", err)
	}
	return out, nil
}

// ListUniversities returns every university ordered by name
func (s *GormFrameStore) ListUniversities(ctx context.Context) ([]model.University, error) {
	var universities []model.University
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&universities).Error; err != nil {
		return nil, fmt.Errorf("failed to list universities: %w", err)
	}
	return universities, nil
}

// GetUniversity returns a university by id
func (s *GormFrameStore) GetUniversity(ctx context.Context, id uint) (*model.University, error) {
	var university model.University
	if err := s.db.WithContext(ctx).First(&university, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUniversityNotFound
		}
		return nil, fmt.Errorf("failed to fetch university: %w", err)
	}
	return &university, nil
}
