package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/YHTerrance/UniFrames/model"
	"github.com/YHTerrance/UniFrames/utils/naming"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ObjectStore is the bucket the frame images live in. Keys are
// "<folder>/<filename>".
type ObjectStore interface {
	ListTopLevelFolders(ctx context.Context) ([]string, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	KeyExists(ctx context.Context, key string) (bool, error)
	PublicURLForKey(key string) string
	PresignedURL(key string, expiry time.Duration) (string, error)
}

// SyncResult describes one folder reconciliation
type SyncResult struct {
	UniversityID  uint     `json:"university_id"`
	RequestedName string   `json:"requested_name"`
	Candidates    []string `json:"candidates"`
	Folder        string   `json:"folder,omitempty"` // empty when no candidate had images
	Upserted      int      `json:"upserted"`
}

// FolderSync is a bucket folder that was matched and synced by SyncAll
type FolderSync struct {
	Folder         string `json:"folder"`
	UniversityID   uint   `json:"university_id"`
	UniversityName string `json:"university_name"`
	Upserted       int    `json:"upserted"`
}

// FolderFailure is a bucket folder whose sync returned an error
type FolderFailure struct {
	Folder       string `json:"folder"`
	UniversityID uint   `json:"university_id,omitempty"`
	Error        string `json:"error"`
}

// BulkSyncReport summarizes SyncAll
type BulkSyncReport struct {
	Folders       int             `json:"folders"`
	Synced        []FolderSync    `json:"synced"`
	Unmatched     []string        `json:"unmatched"`
	Failed        []FolderFailure `json:"failed"`
	TotalUpserted int             `json:"total_upserted"`
}

// FrameSyncService reconciles the frame index with the bucket on demand
type FrameSyncService struct {
	db       *gorm.DB
	store    FrameStore
	objects  ObjectStore
	resolver *UniversityResolver
	log      *logrus.Logger
}

// NewFrameSyncService creates a new sync service
func NewFrameSyncService(db *gorm.DB, store FrameStore, objects ObjectStore, resolver *UniversityResolver, log *logrus.Logger) *FrameSyncService {
	return &FrameSyncService{
		db:       db,
		store:    store,
		objects:  objects,
		resolver: resolver,
		log:      log,
	}
}

// Sync lists the university's folder and upserts its images. It returns the
// number of frames upserted.
func (s *FrameSyncService) Sync(ctx context.Context, universityName string, universityID uint) (int, error) {
	result, err := s.SyncFolder(ctx, universityName, universityID)
	if err != nil {
		return 0, err
	}
	return result.Upserted, nil
}

// SyncFolder tries the requested name and then the canonical name as folder
// names. The first folder with at least one image wins and later candidates
// are not listed.
func (s *FrameSyncService) SyncFolder(ctx context.Context, universityName string, universityID uint) (*SyncResult, error) {
	canonical := universityName
	university, err := s.store.GetUniversity(ctx, universityID)
	switch {
	case err == nil:
		canonical = university.Name
	case errors.Is(err, ErrUniversityNotFound):
	default:
		return nil, err
	}

	result := &SyncResult{
		UniversityID:  universityID,
		RequestedName: universityName,
		Candidates:    folderCandidates(universityName, canonical),
	}

	for _, folder := range result.Candidates {
		prefix := folder + "/"
		keys, err := s.objects.ListKeys(ctx, prefix)
		if err != nil {
			return result, fmt.Errorf("%w: list %q: %w", ErrUpstreamUnavailable, prefix, err)
		}

		batch := s.frameBatch(prefix, keys)
		if len(batch) == 0 {
			s.log.WithFields(logrus.Fields{
				"university_id": universityID,
				"folder":        folder,
				"keys":          len(keys),
			}).Debug("no frame images in folder")
			continue
		}

		if err := s.store.UpsertFrames(ctx, universityID, batch); err != nil {
			return result, err
		}

		result.Folder = folder
		result.Upserted = len(batch)
		s.log.WithFields(logrus.Fields{
			"university_id": universityID,
			"folder":        folder,
			"upserted":      result.Upserted,
		}).Info("frames synced")
		return result, nil
	}

	s.log.WithFields(logrus.Fields{
		"university_id": universityID,
		"candidates":    result.Candidates,
	}).Info("no folder with frame images")
	return result, nil
}

// frameBatch keeps the direct-child images of prefix and orders them for upsert
func (s *FrameSyncService) frameBatch(prefix string, keys []string) []FrameUpsert {
	batch := make([]FrameUpsert, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		filename := key[len(prefix):]
		if filename == "" || strings.Contains(filename, "/") || !IsImageKey(filename) {
			continue
		}
		batch = append(batch, FrameUpsert{
			Filename:  filename,
			URL:       s.objects.PublicURLForKey(key),
			SortOrder: SortRank(filename),
		})
	}

	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].SortOrder != batch[j].SortOrder {
			return batch[i].SortOrder < batch[j].SortOrder
		}
		li, lj := strings.ToLower(batch[i].Filename), strings.ToLower(batch[j].Filename)
		if li != lj {
			return li < lj
		}
		return batch[i].Filename < batch[j].Filename
	})
	return batch
}

func folderCandidates(names ...string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Run syncs one university and records the attempt in sync_runs. A failure
// to write the log entry is logged, not returned.
func (s *FrameSyncService) Run(ctx context.Context, universityName string, universityID uint, trigger model.SyncTrigger) (*SyncResult, error) {
	startedAt := time.Now()
	result, err := s.SyncFolder(ctx, universityName, universityID)
	s.recordRun(ctx, trigger, universityName, universityID, startedAt, result, err)
	return result, err
}

func (s *FrameSyncService) recordRun(ctx context.Context, trigger model.SyncTrigger, name string, universityID uint, startedAt time.Time, result *SyncResult, syncErr error) {
	if s.db == nil {
		return
	}

	completedAt := time.Now()
	run := model.SyncRun{
		UniversityID:  universityID,
		RequestedName: name,
		Status:        model.SyncRunEmpty,
		Trigger:       trigger,
		StartedAt:     startedAt,
		CompletedAt:   &completedAt,
	}
	if result != nil {
		run.Folder = result.Folder
		run.FramesUpserted = result.Upserted
		if candidates, err := json.Marshal(result.Candidates); err == nil {
			run.Candidates = datatypes.JSON(candidates)
		}
		if result.Upserted > 0 {
			run.Status = model.SyncRunCompleted
		}
	}
	if syncErr != nil {
		run.Status = model.SyncRunFailed
		run.ErrorMsg = syncErr.Error()
	}

	// record even when the request context is already cancelled
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&run).Error; err != nil {
		s.log.WithError(err).WithField("university_id", universityID).Warn("failed to record sync run")
	}
}

// RecentRuns returns the latest sync attempts, newest first
func (s *FrameSyncService) RecentRuns(ctx context.Context, universityID uint, limit int) ([]model.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []model.SyncRun
	q := s.db.WithContext(ctx).Order("started_at DESC").Order("id DESC").Limit(limit)
	if universityID != 0 {
		q = q.Where("university_id = ?", universityID)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// SyncProgressEvent reports one folder of a bulk sync
type SyncProgressEvent struct {
	Type         string `json:"type"` // synced, unmatched or failed
	Folder       string `json:"folder"`
	Index        int    `json:"index"`
	Total        int    `json:"total"`
	UniversityID uint   `json:"university_id,omitempty"`
	Upserted     int    `json:"upserted,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SyncProgressFunc receives bulk sync progress. Returning an error stops the run.
type SyncProgressFunc func(event SyncProgressEvent) error

// SyncAll matches every top-level bucket folder to a university and syncs it.
// Folders are matched by alphanumeric-only name equality first and then
// through the resolver. Unmatched folders are reported, never created.
func (s *FrameSyncService) SyncAll(ctx context.Context) (*BulkSyncReport, error) {
	return s.SyncAllWithProgress(ctx, nil)
}

// SyncAllWithProgress is SyncAll with a callback after every folder
func (s *FrameSyncService) SyncAllWithProgress(ctx context.Context, progress SyncProgressFunc) (*BulkSyncReport, error) {
	folders, err := s.objects.ListTopLevelFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list folders: %w", ErrUpstreamUnavailable, err)
	}

	universities, err := s.store.ListUniversities(ctx)
	if err != nil {
		return nil, err
	}

	byMatchKey := make(map[string]model.University, len(universities))
	byID := make(map[uint]model.University, len(universities))
	for _, u := range universities {
		byID[u.ID] = u
		key := naming.NormalizeForMatching(u.Name)
		if existing, ok := byMatchKey[key]; ok && existing.ID < u.ID {
			continue
		}
		byMatchKey[key] = u
	}

	report := &BulkSyncReport{
		Folders:   len(folders),
		Synced:    []FolderSync{},
		Unmatched: []string{},
		Failed:    []FolderFailure{},
	}

	emit := func(event SyncProgressEvent) error {
		if progress == nil {
			return nil
		}
		event.Total = len(folders)
		return progress(event)
	}

	for i, folder := range folders {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		event := s.syncMatchedFolder(ctx, folder, byMatchKey, byID, report)
		event.Index = i + 1
		if err := emit(event); err != nil {
			return report, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"folders":   report.Folders,
		"synced":    len(report.Synced),
		"unmatched": len(report.Unmatched),
		"failed":    len(report.Failed),
		"upserted":  report.TotalUpserted,
	}).Info("bulk sync finished")

	return report, nil
}

// syncMatchedFolder matches and syncs one folder, recording the outcome in report
func (s *FrameSyncService) syncMatchedFolder(ctx context.Context, folder string, byMatchKey map[string]model.University, byID map[uint]model.University, report *BulkSyncReport) SyncProgressEvent {
	university, ok := byMatchKey[naming.NormalizeForMatching(folder)]
	if !ok {
		id, found, err := s.resolver.Resolve(ctx, folder)
		if err != nil {
			report.Failed = append(report.Failed, FolderFailure{Folder: folder, Error: err.Error()})
			return SyncProgressEvent{Type: "failed", Folder: folder, Error: err.Error()}
		}
		if found {
			university, ok = byID[id]
		}
	}
	if !ok {
		s.log.WithField("folder", folder).Warn("no university matches bucket folder")
		report.Unmatched = append(report.Unmatched, folder)
		return SyncProgressEvent{Type: "unmatched", Folder: folder}
	}

	result, err := s.Run(ctx, folder, university.ID, model.SyncTriggerBulk)
	if err != nil {
		s.log.WithError(err).WithField("folder", folder).Error("folder sync failed")
		report.Failed = append(report.Failed, FolderFailure{
			Folder:       folder,
			UniversityID: university.ID,
			Error:        err.Error(),
		})
		return SyncProgressEvent{Type: "failed", Folder: folder, UniversityID: university.ID, Error: err.Error()}
	}

	report.Synced = append(report.Synced, FolderSync{
		Folder:         folder,
		UniversityID:   university.ID,
		UniversityName: university.Name,
		Upserted:       result.Upserted,
	})
	report.TotalUpserted += result.Upserted
	return SyncProgressEvent{Type: "synced", Folder: folder, UniversityID: university.ID, Upserted: result.Upserted}
}
