// Package logging configures the standard logger for the CLI.
package logging

import (
	"bytes"
	"io"
	"log"
	"sync"
)

const debugPrefix = "DEBUG: "

// Setup routes the standard logger to w without timestamps. DEBUG: lines
// are dropped unless verbose is set.
func Setup(w io.Writer, verbose bool) {
	log.SetFlags(0)
	log.SetPrefix("")
	if verbose {
		log.SetOutput(w)
		return
	}
	log.SetOutput(&filter{w: w})
}

// filter drops whole log lines that start with the debug prefix. The log
// package writes each entry with a single Write call.
type filter struct {
	mu sync.Mutex
	w  io.Writer
}

func (f *filter) Write(p []byte) (int, error) {
	if bytes.HasPrefix(p, []byte(debugPrefix)) {
		return len(p), nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w.Write(p)
}
