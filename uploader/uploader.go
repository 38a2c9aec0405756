package uploader

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

// Subscriber receives tracker events in the order they were produced.
type Subscriber func(event types.UploadEvent)

type subscription struct {
	fn     Subscriber
	active atomic.Bool
}

type delivery struct {
	event types.UploadEvent
	to    []*subscription
}

// stagedUpdate holds a deferred terminal status until SignalCompletion.
type stagedUpdate struct {
	status   types.UploadStatus
	progress *float64
}

// Uploader tracks one batch of uploads at a time and reports, exactly once per
// batch, when every file in it has reached a terminal status.
//
// complete and alreadyExists are staged rather than applied; they only become
// visible after SignalCompletion, so a batch cannot close before the uploader
// has confirmed its side of the handshake. error and aborted apply at once.
type Uploader struct {
	mu       sync.Mutex
	files    []types.UploadFile
	index    map[string]int
	deferred map[string]stagedUpdate
	subs     []*subscription

	// events are queued under mu and delivered outside of it by whichever
	// caller is not already draining, which keeps ordering and lets
	// subscribers call back into the tracker.
	queue    []delivery
	draining bool
}

// New returns an empty tracker.
func New() *Uploader {
	return &Uploader{
		index:    make(map[string]int),
		deferred: make(map[string]stagedUpdate),
	}
}

// Upload appends one pending file per source to the current batch and returns
// the whole batch.
func (u *Uploader) Upload(sources []types.SourceFile) []types.UploadFile {
	u.mu.Lock()
	for _, src := range sources {
		file := types.UploadFile{
			ID:     tool.GenerateRandomUUID(),
			Source: src,
			Status: types.StatusPending,
		}
		u.index[file.ID] = len(u.files)
		u.files = append(u.files, file)
	}
	batch := slices.Clone(u.files)
	u.mu.Unlock()

	tool.DefaultLogger.Debugf("[Uploader] Added %d files, batch size %d", len(sources), len(batch))
	return batch
}

// UpdateFile applies a partial update reported for the file with the given id.
// Unknown ids are ignored.
func (u *Uploader) UpdateFile(id string, update types.FileUpdate) {
	u.mu.Lock()
	if i, ok := u.index[id]; ok {
		file := &u.files[i]
		if update.Err != nil {
			file.Err = update.Err
		}
		if update.Progress != nil && *update.Progress != file.Progress {
			file.Progress = *update.Progress
			u.emitLocked(types.UploadEvent{
				Type:     types.EventProgress,
				File:     fileRef(*file),
				Progress: file.Progress * 100,
			})
		}
		if update.Status != nil && *update.Status != file.Status {
			status := *update.Status
			if status.Deferred() {
				staged := stagedUpdate{status: status}
				if update.Progress != nil {
					p := *update.Progress
					staged.progress = &p
				}
				u.deferred[id] = staged
			} else {
				file.Status = status
				if status == types.StatusError || status == types.StatusAborted {
					delete(u.deferred, id)
				}
				u.emitLocked(types.UploadEvent{
					Type:   types.EventStatus,
					File:   fileRef(*file),
					Status: status,
				})
			}
		}
	} else {
		tool.DefaultLogger.Debugf("[Uploader] Ignoring update for unknown file: %s", id)
	}
	u.checkCompleteLocked()
	u.unlockAndFlush()
}

// SignalCompletion applies every staged terminal status without emitting
// per-file events, then closes the batch if it is done.
func (u *Uploader) SignalCompletion() {
	u.mu.Lock()
	for id, staged := range u.deferred {
		i, ok := u.index[id]
		if !ok {
			continue
		}
		u.files[i].Status = staged.status
		if staged.progress != nil {
			u.files[i].Progress = *staged.progress
		}
	}
	clear(u.deferred)
	u.checkCompleteLocked()
	u.unlockAndFlush()
}

// Abort marks the pending or uploading file with the given id as aborted, or
// every such file when fileID is empty. It does not cancel any transfer.
func (u *Uploader) Abort(fileID string) {
	u.mu.Lock()
	if len(u.files) == 0 {
		u.mu.Unlock()
		return
	}
	for i := range u.files {
		file := &u.files[i]
		if fileID != "" && file.ID != fileID {
			continue
		}
		if file.Status.Active() {
			file.Status = types.StatusAborted
			delete(u.deferred, file.ID)
		}
	}
	u.emitLocked(types.UploadEvent{
		Type:  types.EventAbort,
		Files: u.filterLocked(types.StatusAborted),
	})
	u.checkCompleteLocked()
	u.unlockAndFlush()
}

// Subscribe registers fn and replays the current status and progress of every
// tracked file to it before returning. The returned func removes fn; no event
// is delivered to it afterwards.
func (u *Uploader) Subscribe(fn Subscriber) func() {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	u.mu.Lock()
	u.subs = append(u.subs, sub)
	for _, file := range u.files {
		u.queue = append(u.queue,
			delivery{
				event: types.UploadEvent{Type: types.EventStatus, File: fileRef(file), Status: file.Status},
				to:    []*subscription{sub},
			},
			delivery{
				event: types.UploadEvent{Type: types.EventProgress, File: fileRef(file), Progress: file.Progress * 100},
				to:    []*subscription{sub},
			},
		)
	}
	u.checkCompleteLocked()
	u.unlockAndFlush()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			u.mu.Lock()
			u.subs = slices.DeleteFunc(u.subs, func(s *subscription) bool { return s == sub })
			u.mu.Unlock()
		})
	}
}

// Files returns a snapshot of the current batch.
func (u *Uploader) Files() []types.UploadFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.files)
}

// Reset drops every file and staged update without emitting events.
func (u *Uploader) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resetLocked()
}

func (u *Uploader) resetLocked() {
	u.files = nil
	clear(u.index)
	clear(u.deferred)
}

func (u *Uploader) checkCompleteLocked() {
	if len(u.files) == 0 {
		return
	}
	for _, file := range u.files {
		if !file.Status.Terminal() {
			return
		}
	}

	u.emitLocked(types.UploadEvent{
		Type:  types.EventAllComplete,
		Files: slices.Clone(u.files),
	})
	if failed := u.filterLocked(types.StatusError); len(failed) > 0 {
		u.emitLocked(types.UploadEvent{
			Type:  types.EventError,
			Files: failed,
		})
	}
	tool.DefaultLogger.Debugf("[Uploader] Batch closed with %d files", len(u.files))
	u.resetLocked()
}

func (u *Uploader) filterLocked(status types.UploadStatus) []types.UploadFile {
	var out []types.UploadFile
	for _, file := range u.files {
		if file.Status == status {
			out = append(out, file)
		}
	}
	return out
}

func (u *Uploader) emitLocked(event types.UploadEvent) {
	if len(u.subs) == 0 {
		return
	}
	u.queue = append(u.queue, delivery{event: event, to: slices.Clone(u.subs)})
}

// unlockAndFlush releases mu and delivers queued events unless another call
// up the stack (or another goroutine) is already doing so.
func (u *Uploader) unlockAndFlush() {
	if u.draining {
		u.mu.Unlock()
		return
	}
	u.draining = true
	for len(u.queue) > 0 {
		d := u.queue[0]
		u.queue[0] = delivery{}
		u.queue = u.queue[1:]
		u.mu.Unlock()
		for _, sub := range d.to {
			deliver(sub, d.event)
		}
		u.mu.Lock()
	}
	u.queue = nil
	u.draining = false
	u.mu.Unlock()
}

func deliver(sub *subscription, event types.UploadEvent) {
	if !sub.active.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			tool.DefaultLogger.Errorf("[Uploader] Subscriber panicked on %s event: %v", event.Type, r)
		}
	}()
	sub.fn(event)
}

func fileRef(file types.UploadFile) *types.UploadFile {
	return &file
}
