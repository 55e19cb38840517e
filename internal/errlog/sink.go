package errlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/joseluismolina/BPMaster/internal/job"
	"github.com/joseluismolina/BPMaster/internal/logging"
)

// Sink appends failure records to a durable log file. Appends are serialized
// across processes with a lock file next to the log, so concurrent runs never
// interleave partial lines.
type Sink struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	mu       sync.Mutex
	file     *os.File
	degraded bool
	recorded int
}

// Open prepares the sink for appending. A sink that cannot open its file is
// still returned: it operates degraded, keeping counts so no failure is
// silently dropped.
func Open(path string, logger *slog.Logger) *Sink {
	sink := &Sink{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "errlog"),
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			sink.degrade(err)
			return sink
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		sink.degrade(err)
		return sink
	}
	sink.file = file
	return sink
}

// Path returns the log file location.
func (s *Sink) Path() string {
	return s.path
}

// Record appends one failure record. Records are durable before Close
// returns; on write failure the sink degrades and keeps counting.
func (s *Sink) Record(record job.FailureRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded++

	if s.degraded || s.file == nil {
		return
	}

	if err := s.lock.Lock(); err != nil {
		s.degrade(err)
		return
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	if _, err := fmt.Fprintln(s.file, record.String()); err != nil {
		s.degrade(err)
		return
	}
	if err := s.file.Sync(); err != nil {
		s.degrade(err)
	}
}

// Degraded reports whether the sink lost access to its file at any point.
func (s *Sink) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Recorded returns how many records were handed to the sink.
func (s *Sink) Recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded
}

// Close flushes and releases the log file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *Sink) degrade(err error) {
	if !s.degraded {
		s.logger.Warn("error log unavailable; failures will only appear in the run report",
			logging.String("path", s.path),
			logging.Error(err),
		)
	}
	s.degraded = true
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}
