package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YHTerrance/UniFrames/model"
	"github.com/sirupsen/logrus"
)

// FrameCache caches serialized frame listings. utils/cache.RedisCache
// satisfies it.
type FrameCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// FramesResult is what a name lookup returns
type FramesResult struct {
	UniversityID  uint          `json:"university_id"`
	RequestedName string        `json:"university_name"`
	Frames        []model.Frame `json:"frames"`
	HasFrames     bool          `json:"has_frames"`
	Synced        *SyncResult   `json:"sync,omitempty"`
}

// FrameService runs the resolve, read, sync-if-empty, re-read flow
type FrameService struct {
	store    FrameStore
	resolver *UniversityResolver
	syncer   *FrameSyncService
	objects  ObjectStore
	cache    FrameCache
	cacheTTL time.Duration
	log      *logrus.Logger
}

// NewFrameService creates a frame service. cache may be nil.
func NewFrameService(store FrameStore, resolver *UniversityResolver, syncer *FrameSyncService, objects ObjectStore, cache FrameCache, cacheTTL time.Duration, log *logrus.Logger) *FrameService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &FrameService{
		store:    store,
		resolver: resolver,
		syncer:   syncer,
		objects:  objects,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func framesCacheKey(universityID uint) string {
	return fmt.Sprintf("frames:%d", universityID)
}

// FramesByName resolves name and returns the university's frames. When none
// are indexed and syncIfEmpty is set, the bucket is synced once and the index
// re-read.
func (s *FrameService) FramesByName(ctx context.Context, name string, syncIfEmpty bool) (*FramesResult, error) {
	id, found, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUniversityNotFound
	}

	frames, err := s.frames(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &FramesResult{UniversityID: id, RequestedName: name, Frames: frames}

	if len(frames) == 0 && syncIfEmpty {
		synced, err := s.syncer.Run(ctx, name, id, model.SyncTriggerOnDemand)
		if err != nil {
			return nil, err
		}
		result.Synced = synced

		if synced.Upserted > 0 {
			s.invalidate(ctx, id)
			if result.Frames, err = s.frames(ctx, id); err != nil {
				return nil, err
			}
		}
	}

	if result.Frames == nil {
		result.Frames = []model.Frame{}
	}
	result.HasFrames = len(result.Frames) > 0
	return result, nil
}

// SyncUniversity syncs a university by id using its canonical name
func (s *FrameService) SyncUniversity(ctx context.Context, universityID uint, trigger model.SyncTrigger) (*SyncResult, error) {
	university, err := s.store.GetUniversity(ctx, universityID)
	if err != nil {
		return nil, err
	}

	result, err := s.syncer.Run(ctx, university.Name, university.ID, trigger)
	if err != nil {
		return nil, err
	}
	if result.Upserted > 0 {
		s.invalidate(ctx, university.ID)
	}
	return result, nil
}

// SyncAll syncs every matched bucket folder and drops the affected cache entries
func (s *FrameService) SyncAll(ctx context.Context) (*BulkSyncReport, error) {
	return s.SyncAllWithProgress(ctx, nil)
}

// SyncAllWithProgress is SyncAll reporting each folder to progress
func (s *FrameService) SyncAllWithProgress(ctx context.Context, progress SyncProgressFunc) (*BulkSyncReport, error) {
	report, err := s.syncer.SyncAllWithProgress(ctx, progress)
	if report != nil {
		for _, synced := range report.Synced {
			if synced.Upserted > 0 {
				s.invalidate(ctx, synced.UniversityID)
			}
		}
	}
	return report, err
}

// UniversitiesWithFrames lists universities that have at least one frame
func (s *FrameService) UniversitiesWithFrames(ctx context.Context) ([]UniversitySummary, error) {
	return s.store.ListUniversitiesWithFrames(ctx)
}

// Universities lists every known university
func (s *FrameService) Universities(ctx context.Context) ([]model.University, error) {
	return s.store.ListUniversities(ctx)
}

// BucketFolders lists the top-level folders of the bucket
func (s *FrameService) BucketFolders(ctx context.Context) ([]string, error) {
	folders, err := s.objects.ListTopLevelFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if folders == nil {
		folders = []string{}
	}
	return folders, nil
}

// SyncRuns returns recent sync attempts for a university, or for all when id is 0
func (s *FrameService) SyncRuns(ctx context.Context, universityID uint, limit int) ([]model.SyncRun, error) {
	return s.syncer.RecentRuns(ctx, universityID, limit)
}

// frames reads through the cache. Empty listings are not cached so a later
// sync is visible immediately.
func (s *FrameService) frames(ctx context.Context, universityID uint) ([]model.Frame, error) {
	key := framesCacheKey(universityID)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("key", key).Warn("frame cache read failed")
		case ok:
			var frames []model.Frame
			if err := json.Unmarshal(raw, &frames); err == nil {
				return frames, nil
			}
			s.log.WithField("key", key).Warn("discarding malformed frame cache entry")
		}
	}

	frames, err := s.store.GetFrames(ctx, universityID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(frames) > 0 {
		raw, err := json.Marshal(frames)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
		if err != nil {
			s.log.WithError(err).WithField("key", key).Warn("frame cache write failed")
		}
	}

	return frames, nil
}

func (s *FrameService) invalidate(ctx context.Context, universityID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, framesCacheKey(universityID)); err != nil {
		s.log.WithError(err).WithField("university_id", universityID).Warn("frame cache invalidation failed")
	}
}
