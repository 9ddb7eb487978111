package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/piwi3910/TruckLoad/internal/engine"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("sink closed")

// ErrQueueFull is returned when the submission buffer is full.
var ErrQueueFull = errors.New("submission queue full")

var (
	_ engine.Sink         = (*Store)(nil)
	_ engine.DeferredSink = (*AsyncSink)(nil)
	_ Writer              = (*Store)(nil)
)

// Writer persists one submission.
type Writer interface {
	Save(ctx context.Context, sub engine.Submission) error
}

// WriteStatus tracks a queued submission.
type WriteStatus string

const (
	WriteQueued WriteStatus = "queued"
	WriteSaved  WriteStatus = "saved"
	WriteFailed WriteStatus = "failed"
)

// WriteRecord is the outcome of one submission, keyed by its sequence
// number.
type WriteRecord struct {
	Seq     uint64
	Version uint64
	Status  WriteStatus
	Err     error
}

// AsyncSink hands submissions to a background goroutine and returns
// immediately. Write failures are logged and recorded, never returned to
// the submitter.
type AsyncSink struct {
	writer Writer
	logger *slog.Logger

	queue chan engine.Submission
	mu    sync.RWMutex
	jobs  map[uint64]*WriteRecord
	order []uint64

	closeOnce sync.Once
	closed    bool
	wg        sync.WaitGroup
}

// NewAsyncSink starts a sink writing to w with a buffer of size submissions.
func NewAsyncSink(w Writer, logger *slog.Logger, size int) *AsyncSink {
	if size <= 0 {
		size = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &AsyncSink{
		writer: w,
		logger: logger,
		queue:  make(chan engine.Submission, size),
		jobs:   make(map[uint64]*WriteRecord),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// Submit queues sub. It never waits for the write.
func (s *AsyncSink) Submit(ctx context.Context, sub engine.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- sub:
	default:
		return ErrQueueFull
	}
	if _, seen := s.jobs[sub.Seq]; !seen {
		s.order = append(s.order, sub.Seq)
	}
	s.jobs[sub.Seq] = &WriteRecord{Seq: sub.Seq, Version: sub.Version, Status: WriteQueued}
	s.logger.Debug("submission queued", "seq", sub.Seq, "version", sub.Version, "full", sub.Full,
		"units_added", len(sub.Units.Added), "units_modified", len(sub.Units.Modified),
		"units_deleted", len(sub.Units.DeletedIDs), "pallets_modified", len(sub.Pallets.Modified))
	return nil
}

// Close stops accepting submissions and waits until the queue is drained
// or ctx is done.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining submissions: %w", ctx.Err())
	}
}

// Record returns the outcome of the submission with sequence number seq.
func (s *AsyncSink) Record(seq uint64) (WriteRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.jobs[seq]
	if !ok {
		return WriteRecord{}, false
	}
	return *r, true
}

// Outcome reports whether submission seq has been written. A sequence
// number the sink never accepted counts as failed.
func (s *AsyncSink) Outcome(seq uint64) (bool, error) {
	r, ok := s.Record(seq)
	switch {
	case !ok:
		return true, fmt.Errorf("submission %d: %w", seq, ErrNotFound)
	case r.Status == WriteQueued:
		return false, nil
	default:
		return true, r.Err
	}
}

// Records returns all outcomes in submission order.
func (s *AsyncSink) Records() []WriteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WriteRecord, 0, len(s.order))
	for _, v := range s.order {
		out = append(out, *s.jobs[v])
	}
	return out
}

func (s *AsyncSink) loop() {
	defer s.wg.Done()
	for sub := range s.queue {
		s.process(sub)
	}
}

func (s *AsyncSink) process(sub engine.Submission) {
	err := s.writer.Save(context.Background(), sub)

	s.mu.Lock()
	rec := s.jobs[sub.Seq]
	if rec == nil {
		rec = &WriteRecord{Seq: sub.Seq, Version: sub.Version}
		s.jobs[sub.Seq] = rec
		s.order = append(s.order, sub.Seq)
	}
	if err != nil {
		rec.Status, rec.Err = WriteFailed, err
	} else {
		rec.Status, rec.Err = WriteSaved, nil
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("saving submission", "seq", sub.Seq, "version", sub.Version, "error", err)
		return
	}
	s.logger.Info("submission saved", "seq", sub.Seq, "version", sub.Version, "tuples", len(sub.Tuples))
}
