package models

import (
	"context"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/moyoez/mediaupload/store"
	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
	"github.com/moyoez/mediaupload/uploader"
)

// DefaultResultTTL is how long a file's final record stays queryable after its batch closed.
const DefaultResultTTL = 300 * time.Second

var (
	trackerMu   sync.RWMutex
	tracker     = uploader.New()
	sourceStore store.Store
	fileResults = ttlworker.NewCache[string, types.UploadFile](DefaultResultTTL)
)

func SetTracker(t *uploader.Uploader) {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	tracker = t
}

func GetTracker() *uploader.Uploader {
	trackerMu.RLock()
	defer trackerMu.RUnlock()
	return tracker
}

func SetStore(s store.Store) {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	sourceStore = s
}

// GetStore returns the payload store, or nil if not set.
func GetStore() store.Store {
	trackerMu.RLock()
	defer trackerMu.RUnlock()
	return sourceStore
}

// SetResultTTL replaces the result cache; records kept so far are dropped.
func SetResultTTL(d time.Duration) {
	if d <= 0 {
		d = DefaultResultTTL
	}
	trackerMu.Lock()
	defer trackerMu.Unlock()
	fileResults = ttlworker.NewCache[string, types.UploadFile](d)
}

func LookupResult(fileId string) (types.UploadFile, bool) {
	trackerMu.RLock()
	defer trackerMu.RUnlock()
	f := fileResults.Get(fileId)
	return f, f.ID != ""
}

// RecordBatchResult is a tracker subscriber that keeps the final record of
// every file of a closed batch.
func RecordBatchResult(event types.UploadEvent) {
	if event.Type != types.EventAllComplete {
		return
	}
	trackerMu.RLock()
	defer trackerMu.RUnlock()
	for _, f := range event.Files {
		fileResults.Set(f.ID, f)
	}
	tool.DefaultLogger.Debugf("[Result] Recorded %d closed files", len(event.Files))
}

// RemoveAbortedSources is a tracker subscriber that deletes the stored payloads
// of aborted files, whether the batch was aborted or the plugin reported it.
func RemoveAbortedSources(event types.UploadEvent) {
	var aborted []types.UploadFile
	switch {
	case event.Type == types.EventAbort:
		aborted = event.Files
	case event.Type == types.EventStatus && event.Status == types.StatusAborted && event.File != nil:
		aborted = []types.UploadFile{*event.File}
	default:
		return
	}
	s := GetStore()
	if s == nil {
		return
	}
	keys := make([]string, 0, len(aborted))
	for _, f := range aborted {
		if f.Source.Key != "" {
			keys = append(keys, f.Source.Key)
		}
	}
	if len(keys) == 0 {
		return
	}
	go func() {
		for _, key := range keys {
			if err := s.Delete(context.Background(), key); err != nil {
				tool.DefaultLogger.Warnf("[Store] Failed to delete aborted source %s: %v", key, err)
			}
		}
	}()
}
