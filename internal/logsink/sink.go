// Package logsink provides per-run and per-artifact log streams. Lines use the
// same layout as the debug log so both can be searched the same way.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
)

// DefaultTailLines is how many recent lines each stream keeps in memory.
const DefaultTailLines = 200

// RunLogFile is the run-level log inside a run directory.
const RunLogFile = "run.log"

// ArtifactsDir holds one log per artifact inside a run directory.
const ArtifactsDir = "artifacts"

// Stream is one append-only log. Writes are serialized per stream so lines from
// concurrent tasks never interleave within a file.
type Stream struct {
	cat  log.Category
	path string
	mu   sync.Mutex
	w    io.Writer
	tail *Ring
	now  func() time.Time
}

var _ promotion.LogStream = (*Stream)(nil)

func newStream(cat log.Category, w io.Writer, tailLines int) *Stream {
	return &Stream{cat: cat, w: w, tail: NewRing(tailLines), now: time.Now}
}

func (s *Stream) Info(msg string, fields ...any)  { s.write(log.LevelInfo, msg, fields...) }
func (s *Stream) Error(msg string, fields ...any) { s.write(log.LevelError, msg, fields...) }

// Path is the file backing the stream; empty when it is memory-only.
func (s *Stream) Path() string { return s.path }

// Tail returns the newest n lines.
func (s *Stream) Tail(n int) []string { return s.tail.Last(n) }

func (s *Stream) write(level log.Level, msg string, fields ...any) {
	line := log.FormatEntry(s.now(), level, s.cat, msg, fields...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tail.Add(line)
	if s.w != nil {
		_, _ = io.WriteString(s.w, line+"\n")
	}
}

// Sink hands out streams for one run. Streams are created on first use and
// reused afterwards.
type Sink struct {
	runID     string
	dir       string // empty for memory-only sinks
	tailLines int

	mu        sync.Mutex
	run       *Stream
	artifacts map[string]*Stream
	fileNames map[string]string // artifact file name -> artifact name
	files     []*os.File
}

var _ promotion.LogSink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithTailLines sets how many lines each stream keeps in memory.
func WithTailLines(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.tailLines = n
		}
	}
}

// NewFileSink writes the run log to <dir>/<runID>/run.log and artifact logs to
// <dir>/<runID>/artifacts/<name>.log.
func NewFileSink(dir, runID string, opts ...Option) (*Sink, error) {
	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, ArtifactsDir), 0o750); err != nil {
		return nil, fmt.Errorf("creating run log directory: %w", err)
	}
	s := newSink(runID, runDir, DefaultTailLines)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewMemorySink keeps streams in memory only.
func NewMemorySink(runID string, tailLines int) *Sink {
	return newSink(runID, "", tailLines)
}

func newSink(runID, dir string, tailLines int) *Sink {
	return &Sink{
		runID:     runID,
		dir:       dir,
		tailLines: tailLines,
		artifacts: make(map[string]*Stream),
		fileNames: make(map[string]string),
	}
}

// Run returns the run-level stream.
func (s *Sink) Run() promotion.LogStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		s.run = s.open(s.RunLogPath(), log.CatRun)
	}
	return s.run
}

// Artifact returns the stream for one artifact. Artifact streams never share
// a stream or a file with the run log or with each other.
func (s *Sink) Artifact(name string) promotion.LogStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.artifacts[name]; ok {
		return st
	}
	var path string
	if s.dir != "" {
		path = filepath.Join(s.dir, ArtifactsDir, s.claimFileName(name))
	}
	st := s.open(path, log.CatTask)
	s.artifacts[name] = st
	return st
}

// RunStream returns the run-level stream, or nil if nothing was written to it.
func (s *Sink) RunStream() *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// ArtifactStream returns an artifact's stream, or nil if nothing was written
// to it.
func (s *Sink) ArtifactStream(name string) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts[name]
}

// Dir is the directory holding this run's files; empty for memory sinks.
func (s *Sink) Dir() string { return s.dir }

// RunLogPath is the run-level log file; empty for memory sinks.
func (s *Sink) RunLogPath() string {
	if s.dir == "" {
		return ""
	}
	return filepath.Join(s.dir, RunLogFile)
}

// Close closes every open file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = nil
	return firstErr
}

// open creates a stream backed by path, or memory-only when path is empty.
// Callers hold s.mu.
func (s *Sink) open(path string, cat log.Category) *Stream {
	var w io.Writer
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640) //nolint:gosec // G304: path built from run dir and sanitized name
		if err != nil {
			log.ErrorErr(log.CatRun, "Cannot open run log, keeping in memory", err, "path", path)
			path = ""
		} else {
			s.files = append(s.files, f)
			w = f
		}
	}
	st := newStream(cat, w, s.tailLines)
	st.path = path
	return st
}

// claimFileName picks a file name for an artifact that no other artifact in
// this run uses. Names that sanitize to the same file get a numeric suffix.
// Callers hold s.mu.
func (s *Sink) claimFileName(name string) string {
	base := unsafeName.ReplaceAllString(name, "_")
	candidate := base + ".log"
	for i := 2; ; i++ {
		if _, taken := s.fileNames[candidate]; !taken {
			s.fileNames[candidate] = name
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.log", base, i)
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
