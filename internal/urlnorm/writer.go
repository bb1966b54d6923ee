package urlnorm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// Writer appends Documents to per-source JSONL logs under a root directory:
// forums go to forum_{site}.jsonl, everything else to {source}.jsonl. One
// os.File (and mutex) is kept open per log name for the lifetime of the
// Writer.
type Writer struct {
	root string

	mu    sync.Mutex
	files map[string]*logFile
}

type logFile struct {
	mu sync.Mutex
	f  *os.File
}

func NewWriter(root string) *Writer {
	return &Writer{root: root, files: map[string]*logFile{}}
}

// LogName returns the jsonl file name for a Document: forum_{site}.jsonl for
// forum sources, {source}.jsonl otherwise.
func LogName(doc *model.Document) string {
	if fe, ok := doc.Extra.(*model.ForumExtra); ok && fe != nil {
		return fmt.Sprintf("forum_%s.jsonl", fe.Site)
	}
	if doc.DiscoveredVia.Type == "forum" {
		return fmt.Sprintf("forum_%s.jsonl", doc.DiscoveredVia.Site)
	}
	return doc.Source + ".jsonl"
}

// Append writes doc as one UTF-8, \n-terminated JSON line to its source log,
// opening the file on first use.
func (w *Writer) Append(doc *model.Document) error {
	name := LogName(doc)
	lf, err := w.fileFor(name)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	data = append(data, '\n')

	lf.mu.Lock()
	defer lf.mu.Unlock()
	if _, err := lf.f.Write(data); err != nil {
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return nil
}

func (w *Writer) fileFor(name string) (*logFile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if lf, ok := w.files[name]; ok {
		return lf, nil
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output root: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(w.root, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", name, err)
	}
	lf := &logFile{f: f}
	w.files[name] = lf
	return lf, nil
}

// Close closes every open log file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, lf := range w.files {
		if err := lf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
