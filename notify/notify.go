package notify

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

// MaxNotifyFiles is the maximum number of files to include in notify payload (truncate if exceeded)
const MaxNotifyFiles = 20

const MaxNotifyFileNameLen = 128

// Sink delivers a notification to one destination.
type Sink interface {
	Name() string
	Send(notification *types.Notification) error
}

// Forwarder turns batch level tracker events into notifications and hands them
// to every sink. Per-file progress and status events are not forwarded.
type Forwarder struct {
	mu    sync.RWMutex
	sinks []Sink
	wg    sync.WaitGroup
}

func NewForwarder(sinks ...Sink) *Forwarder {
	return &Forwarder{sinks: sinks}
}

func (f *Forwarder) AddSink(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

// Handle is meant to be passed to Uploader.Subscribe. Sends happen in the
// background so a slow sink never holds up the tracker.
func (f *Forwarder) Handle(event types.UploadEvent) {
	notification, ok := BuildNotification(event)
	if !ok {
		return
	}
	f.mu.RLock()
	sinks := append([]Sink(nil), f.sinks...)
	f.mu.RUnlock()

	for _, s := range sinks {
		f.wg.Add(1)
		go func(s Sink) {
			defer f.wg.Done()
			tool.DefaultLogger.Debugf("[Notify] Sending %s via %s", notification.Type, s.Name())
			if err := s.Send(notification); err != nil {
				tool.DefaultLogger.Errorf("[Notify] Failed to send %s via %s: %v", notification.Type, s.Name(), err)
			}
		}(s)
	}
}

// Wait blocks until every in-flight send has returned.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}

// BuildNotification maps a batch event to a notification. ok is false for
// per-file events.
func BuildNotification(event types.UploadEvent) (*types.Notification, bool) {
	var notification types.Notification
	switch event.Type {
	case types.EventAbort:
		notification = types.Notification{
			Type:    types.NotifyTypeAbort,
			Title:   "Upload Aborted",
			Message: fmt.Sprintf("%d file(s) aborted", len(event.Files)),
		}
	case types.EventAllComplete:
		notification = types.Notification{
			Type:    types.NotifyTypeAllComplete,
			Title:   "Upload Completed",
			Message: fmt.Sprintf("Batch of %d file(s) finished", len(event.Files)),
		}
	case types.EventError:
		notification = types.Notification{
			Type:    types.NotifyTypeError,
			Title:   "Upload Failed",
			Message: fmt.Sprintf("%d file(s) failed", len(event.Files)),
		}
	default:
		return nil, false
	}

	counts := make(map[types.UploadStatus]int)
	files := make([]map[string]any, 0, min(len(event.Files), MaxNotifyFiles))
	for i, f := range event.Files {
		counts[f.Status]++
		if i >= MaxNotifyFiles {
			continue
		}
		entry := map[string]any{
			"id":       f.ID,
			"fileName": truncate(f.Source.Name, MaxNotifyFileNameLen),
			"status":   string(f.Status),
		}
		if f.Err != nil {
			entry["error"] = f.Err.Error()
		}
		files = append(files, entry)
	}

	notification.Data = map[string]any{
		"files":         files,
		"totalFiles":    len(event.Files),
		"completeFiles": counts[types.StatusComplete] + counts[types.StatusAlreadyExists],
		"failedFiles":   counts[types.StatusError],
		"abortedFiles":  counts[types.StatusAborted],
	}
	return &notification, true
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
