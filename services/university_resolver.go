package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/YHTerrance/UniFrames/model"
	"github.com/YHTerrance/UniFrames/utils/naming"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ResolveStrategy is one stage of university name resolution. A strategy
// that finds nothing returns found == false and a nil error.
type ResolveStrategy interface {
	Name() string
	Resolve(ctx context.Context, db *gorm.DB, query string) (id uint, found bool, err error)
}

// UniversityResolver maps free-text names onto university ids by running its
// strategies in order until one matches. It never writes.
type UniversityResolver struct {
	db         *gorm.DB
	log        *logrus.Logger
	strategies []ResolveStrategy
}

// NewUniversityResolver creates a resolver with the exact, normalized and
// substring strategies in that order.
func NewUniversityResolver(db *gorm.DB, log *logrus.Logger) *UniversityResolver {
	return NewUniversityResolverWithStrategies(db, log,
		ExactNameStrategy{},
		NormalizedNameStrategy{},
		SubstringNameStrategy{},
	)
}

// NewUniversityResolverWithStrategies creates a resolver with a custom cascade
func NewUniversityResolverWithStrategies(db *gorm.DB, log *logrus.Logger, strategies ...ResolveStrategy) *UniversityResolver {
	return &UniversityResolver{db: db, log: log, strategies: strategies}
}

// Resolve returns the id of the university best matching query
func (r *UniversityResolver) Resolve(ctx context.Context, query string) (uint, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, false, nil
	}

	db := r.db.WithContext(ctx)
	for _, s := range r.strategies {
		id, found, err := s.Resolve(ctx, db, query)
		if err != nil {
			return 0, false, fmt.Errorf("resolve %q (%s): %w", query, s.Name(), err)
		}
		if found {
			r.log.WithFields(logrus.Fields{
				"query":         query,
				"strategy":      s.Name(),
				"university_id": id,
			}).Debug("university resolved")
			return id, true, nil
		}
	}

	r.log.WithField("query", query).Debug("university not resolved")
	return 0, false, nil
}

// ExactNameStrategy matches the canonical name ignoring case
type ExactNameStrategy struct{}

func (ExactNameStrategy) Name() string { return "exact" }

func (ExactNameStrategy) Resolve(ctx context.Context, db *gorm.DB, query string) (uint, bool, error) {
	var university model.University
	err := db.Select("id").
		Where("LOWER(name) = LOWER(?)", query).
		Order("id ASC").
		Take(&university).Error
	return foundID(university.ID, err)
}

// NormalizedNameStrategy compares normalized forms, so spacing, punctuation
// and hyphenation differences are ignored. The lowest id wins.
type NormalizedNameStrategy struct{}

func (NormalizedNameStrategy) Name() string { return "normalized" }

func (NormalizedNameStrategy) Resolve(ctx context.Context, db *gorm.DB, query string) (uint, bool, error) {
	want := naming.Normalize(query)
	if want == "" {
		return 0, false, nil
	}

	var universities []model.University
	if err := db.Select("id", "name").Order("id ASC").Find(&universities).Error; err != nil {
		return 0, false, err
	}

	for _, u := range universities {
		if naming.Normalize(u.Name) == want {
			return u.ID, true, nil
		}
	}
	return 0, false, nil
}

// SubstringNameStrategy matches names containing the query, preferring the
// shortest name and then the lowest id.
type SubstringNameStrategy struct{}

func (SubstringNameStrategy) Name() string { return "substring" }

func (SubstringNameStrategy) Resolve(ctx context.Context, db *gorm.DB, query string) (uint, bool, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var university model.University
	err := db.Select("id").
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("LENGTH(name) ASC").
		Order("id ASC").
		Take(&university).Error
	return foundID(university.ID, err)
}

func foundID(id uint, err error) (uint, bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
