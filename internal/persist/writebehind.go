// Package persist implements the write-behind snapshot worker shared by
// every durable store: a single background goroutine per store that
// coalesces consecutive persist requests, writes atomically via a sibling
// .tmp file plus rename, and best-effort flushes on shutdown.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type command struct {
	kind     kind
	snapshot []byte
	ack      chan<- error
}

type kind int

const (
	kindPersist kind = iota
	kindFlush
	kindShutdown
)

// Worker owns a single background goroutine writing snapshots for one store
// to one path. Callers send commands; the worker coalesces queued Persist
// messages so only the latest snapshot at the moment of drain is ever
// written to disk.
type Worker struct {
	path string
	cmds chan command
	done chan struct{}
}

// NewWorker starts the background goroutine and returns a handle to it.
func NewWorker(path string) *Worker {
	w := &Worker{
		path: path,
		cmds: make(chan command, 64),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// Persist enqueues snapshot for eventual write. It blocks while the queue
// is full and returns without enqueuing once the worker has shut down.
// Queued snapshots are coalesced, so only the latest one in the channel at
// drain time is written.
func (w *Worker) Persist(snapshot []byte) {
	select {
	case w.cmds <- command{kind: kindPersist, snapshot: snapshot}:
	case <-w.done:
	}
}

// Flush forces an immediate write of the most recently enqueued snapshot
// and blocks until it completes (or the worker has shut down).
func (w *Worker) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.cmds <- command{kind: kindFlush, ack: ack}:
	case <-w.done:
		return fmt.Errorf("persist: worker already shut down")
	}
	return <-ack
}

// Shutdown stops the worker after a best-effort final flush.
func (w *Worker) Shutdown() {
	select {
	case w.cmds <- command{kind: kindShutdown}:
	case <-w.done:
		return
	}
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	var latest []byte
	var hasLatest bool

	writeLatest := func() error {
		if !hasLatest {
			return nil
		}
		return atomicWrite(w.path, latest)
	}

	for cmd := range w.cmds {
		switch cmd.kind {
		case kindPersist:
			latest = cmd.snapshot
			hasLatest = true
			// Drain any further queued commands opportunistically so a
			// burst of Persist calls collapses to one disk write.
			if shutdown := w.drainCoalesce(&latest, &hasLatest); shutdown {
				_ = writeLatest()
				return
			}
		case kindFlush:
			err := writeLatest()
			cmd.ack <- err
		case kindShutdown:
			_ = writeLatest()
			return
		}
	}
}

// drainCoalesce non-blockingly absorbs any Persist/Flush/Shutdown commands
// already queued behind the one just received, keeping only the newest
// snapshot. Returns true if a Shutdown command was observed, in which case
// the caller must perform the final flush and stop the worker.
func (w *Worker) drainCoalesce(latest *[]byte, hasLatest *bool) bool {
	for {
		select {
		case next := <-w.cmds:
			switch next.kind {
			case kindPersist:
				*latest = next.snapshot
				*hasLatest = true
			case kindFlush:
				err := atomicWrite(w.path, *latest)
				next.ack <- err
			case kindShutdown:
				return true
			}
		default:
			return false
		}
	}
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persist: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persist: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persist: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persist: rename: %w", err)
	}
	return nil
}

// LoadOrDefault loads path into dest via json.Unmarshal. An absent file
// leaves dest untouched (empty state); a present-but-corrupt file is a hard
// error.
func LoadOrDefault(path string, dest any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("persist: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("persist: corrupt snapshot %s: %w", path, err)
	}
	return nil
}
