// Package logx is the log sink the core accepts (spec §6, "Optional log
// sink"). It is threaded explicitly into the facade, the orchestrator,
// and the MCU hardware backend, in the teacher's style of passing a *log.Logger into a
// constructor rather than reaching for a package-level global
// (wut4/exer/cex/main.go constructs nanoLog and hands it to dev.NewArduino).
package logx

import (
	"io"
	"log"
)

// Sink is the logging surface the core depends on.
type Sink interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdSink wraps a *log.Logger with INFO/WARN/ERROR prefixes.
type StdSink struct {
	logger *log.Logger
}

// NewStdSink builds a Sink writing to w with the given prefix.
func NewStdSink(w io.Writer, prefix string) *StdSink {
	return &StdSink{logger: log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)}
}

func (s *StdSink) Infof(format string, args ...any)  { s.logger.Printf("INFO  "+format, args...) }
func (s *StdSink) Warnf(format string, args ...any)  { s.logger.Printf("WARN  "+format, args...) }
func (s *StdSink) Errorf(format string, args ...any) { s.logger.Printf("ERROR "+format, args...) }

// Noop discards every message; useful in tests that don't care about logs.
type Noop struct{}

func (Noop) Infof(string, ...any)  {}
func (Noop) Warnf(string, ...any)  {}
func (Noop) Errorf(string, ...any) {}
