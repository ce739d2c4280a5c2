package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YHTerrance/UniFrames/database"
	"github.com/YHTerrance/UniFrames/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func nullLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func seedUniversities(t *testing.T, db *gorm.DB, names ...string) map[string]uint {
	t.Helper()

	ids := make(map[string]uint, len(names))
	for _, name := range names {
		u := model.University{Name: name}
		require.NoError(t, db.Create(&u).Error)
		ids[name] = u.ID
	}
	return ids
}

// fakeObjectStore is an in-memory ObjectStore. Keys listed under a prefix in
// failPrefixes return errListing.
type fakeObjectStore struct {
	mu           sync.Mutex
	keys         []string
	failPrefixes map[string]bool
	failFolders  bool
	listCalls    []string
	logos        map[string]bool
}

var errListing = errors.New("connection reset by peer")

func newFakeObjectStore(keys ...string) *fakeObjectStore {
	return &fakeObjectStore{keys: keys, failPrefixes: map[string]bool{}, logos: map[string]bool{}}
}

func (f *fakeObjectStore) ListTopLevelFolders(ctx context.Context) ([]string, error) {
	if f.failFolders {
		return nil, errListing
	}
	seen := map[string]bool{}
	var folders []string
	for _, k := range f.keys {
		if i := strings.Index(k, "/"); i > 0 && !seen[k[:i]] {
			seen[k[:i]] = true
			folders = append(folders, k[:i])
		}
	}
	sort.Strings(folders)
	return folders, nil
}

func (f *fakeObjectStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, prefix)
	f.mu.Unlock()

	if f.failPrefixes[prefix] {
		return nil, errListing
	}
	var out []string
	for _, k := range f.keys {
		if strings.HasPrefix(k, prefix) && !strings.HasSuffix(k, "/") {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeObjectStore) KeyExists(ctx context.Context, key string) (bool, error) {
	for _, k := range f.keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeObjectStore) PublicURLForKey(key string) string {
	return "https://cdn.test/" + strings.ReplaceAll(key, " ", "%20")
}

func (f *fakeObjectStore) PresignedURL(key string, expiry time.Duration) (string, error) {
	if !f.logos[key] {
		return "", errors.New("presign failed")
	}
	return "https://signed.test/" + key + "?expires=" + expiry.String(), nil
}

// memoryCache is an in-memory FrameCache
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}
