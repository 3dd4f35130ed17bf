package ingestion

import (
	"time"

	"github.com/guttosm/fiscalpulse/internal/logger"
)

// EventType names a progress notification of a run.
type EventType string

const (
	EventFileStart     EventType = "file_start"
	EventFileDone      EventType = "file_done"
	EventFragmentError EventType = "fragment_error"
	EventRunDone       EventType = "run_done"
)

// Event is published to a Sink while a run progresses. Fields not relevant to
// the event type are zero.
type Event struct {
	Type    EventType
	RunID   string
	Archive string

	File      string
	FileIndex int // 1-based
	FileTotal int

	Fragment  int // container index in File, fragment_error only
	Fragments int
	Malformed int
	Sales     int
	Returns   int

	Status  Status
	Elapsed time.Duration
	Err     error
}

// Sink receives run progress. Publish is called from the run's goroutine and
// must not block for long.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// LogSink writes progress events to the process logger.
type LogSink struct{}

func (LogSink) Publish(e Event) {
	l := logger.ForRun(e.RunID, e.Archive)
	switch e.Type {
	case EventFileStart:
		l.Info().Int("idx", e.FileIndex).Int("total", e.FileTotal).Str("file", e.File).Msg("file start")
	case EventFileDone:
		l.Info().Int("idx", e.FileIndex).Int("total", e.FileTotal).Str("file", e.File).
			Int("fragments", e.Fragments).Int("malformed", e.Malformed).
			Int("sales", e.Sales).Int("returns", e.Returns).
			Dur("elapsed", e.Elapsed).Msg("file done")
	case EventFragmentError:
		l.Warn().Str("file", e.File).Int("fragment", e.Fragment).Err(e.Err).Msg("malformed fragment skipped")
	case EventRunDone:
		l.Info().Str("status", string(e.Status)).Int("files", e.FileTotal).
			Int("fragments", e.Fragments).Int("malformed", e.Malformed).
			Int("sales", e.Sales).Int("returns", e.Returns).
			Dur("elapsed", e.Elapsed).Msg("run done")
	}
}
