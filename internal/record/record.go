// Package record captures session input/output events into a compressed,
// replayable log. Recording is fire-and-forget: write failures are logged
// and never disturb the session.
package record

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/antonkrylov/shellpane/internal/session"
)

// Event is one recorded step of a session.
type Event struct {
	Type    string    `json:"type"` // "input" or "output"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Meta describes one recording directory.
type Meta struct {
	RecordingID string    `json:"recordingId"`
	ServerID    string    `json:"serverId"`
	Name        string    `json:"name,omitempty"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Username    string    `json:"username"`
	StartedAt   time.Time `json:"startedAt"`
}

const (
	metaFile   = "meta.json"
	eventsFile = "events.jsonl.zst"
)

// FileRecorder writes events as zstd-compressed JSON lines under its own
// directory inside rootDir, next to a plain-JSON meta file.
type FileRecorder struct {
	dir string

	mu   sync.Mutex
	file *os.File
	zw   *zstd.Encoder
	enc  *json.Encoder
}

// NewFileRecorder creates a fresh recording directory for the session and
// opens its event log.
func NewFileRecorder(rootDir string, sc session.Context) (*FileRecorder, error) {
	id := uuid.NewString()
	dir := filepath.Join(rootDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	meta := Meta{
		RecordingID: id,
		ServerID:    sc.ServerID,
		Name:        sc.Name,
		Host:        sc.Host,
		Port:        sc.Port,
		Username:    sc.Username,
		StartedAt:   time.Now(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), data, 0o644); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileRecorder{dir: dir, file: f, zw: zw, enc: json.NewEncoder(zw)}, nil
}

// Dir is the recording directory.
func (r *FileRecorder) Dir() string { return r.dir }

// RecordInput appends an input event.
func (r *FileRecorder) RecordInput(content string) { r.record("input", content) }

// RecordOutput appends an output event.
func (r *FileRecorder) RecordOutput(content string) { r.record("output", content) }

func (r *FileRecorder) record(kind, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return
	}
	if err := r.enc.Encode(Event{Type: kind, Content: content, At: time.Now()}); err != nil {
		log.Printf("record: %v", err)
	}
}

// Close flushes and seals the event log. Further records are dropped.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}
	r.enc = nil
	zerr := r.zw.Close()
	ferr := r.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// ReadEvents replays the event log of a recording directory.
func ReadEvents(dir string) ([]Event, error) {
	f, err := os.Open(filepath.Join(dir, eventsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var events []Event
	dec := json.NewDecoder(zr)
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, err
		}
		events = append(events, ev)
	}
}

// ReadMeta loads the meta file of a recording directory.
func ReadMeta(dir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Nop is a recorder that drops everything.
type Nop struct{}

func (Nop) RecordInput(string)  {}
func (Nop) RecordOutput(string) {}
