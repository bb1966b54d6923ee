package urlnorm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kdevcrawl/corpuscrawler/internal/logger"
)

// indexFile is the on-disk shape of _index.json.
type indexFile struct {
	IDs  []string `json:"ids"`
	URLs []string `json:"urls"`
}

// Index is the persistent twin-set {ids, urls} that gates storage so a
// Document is stored at most once per normalized URL (C2).
type Index struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	urls  map[string]struct{}
	dirty bool
	path  string
	log   logger.Interface
}

// minimalDocRecord is the subset of Document fields the index needs to
// self-heal from an existing *.jsonl log.
type minimalDocRecord struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Open loads _index.json from outputRoot if present, then scans every
// *.jsonl file in outputRoot and unions any id/normalized-url pair found
// in-record that the index file is missing — making the index self-healing
// if it is deleted or edited out of band.
func Open(outputRoot string, log logger.Interface) (*Index, error) {
	if log == nil {
		log = logger.NewNoOp()
	}
	idx := &Index{
		ids:  map[string]struct{}{},
		urls: map[string]struct{}{},
		path: filepath.Join(outputRoot, "_index.json"),
		log:  log,
	}

	if data, err := os.ReadFile(idx.path); err == nil {
		var f indexFile
		if jsonErr := json.Unmarshal(data, &f); jsonErr != nil {
			log.Warn("index file corrupt, treating as empty", "path", idx.path, "error", jsonErr)
		} else {
			for _, id := range f.IDs {
				idx.ids[id] = struct{}{}
			}
			for _, u := range f.URLs {
				idx.urls[u] = struct{}{}
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	if err := idx.reconcileFromLogs(outputRoot); err != nil {
		return nil, err
	}
	return idx, nil
}

// reconcileFromLogs unions every id/url recorded in any *.jsonl file under
// root into the in-memory sets. Malformed lines are warned once and
// skipped, never fatal.
func (idx *Index) reconcileFromLogs(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read output root: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := idx.reconcileFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) reconcileFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var rec minimalDocRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			idx.log.Warn("skipping malformed jsonl line", "file", path, "line", lineNo, "error", err)
			continue
		}
		normalized, normErr := Normalize(rec.URL)
		if normErr != nil {
			normalized = rec.URL
		}
		if rec.ID != "" {
			idx.ids[rec.ID] = struct{}{}
		}
		if normalized != "" {
			idx.urls[normalized] = struct{}{}
		}
	}
	return scanner.Err()
}

// Contains reports whether id is already in the index.
func (idx *Index) Contains(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, ok := idx.ids[id]
	return ok
}

// ContainsURL reports whether the (already-normalized) url is already in
// the index.
func (idx *Index) ContainsURL(normalizedURL string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, ok := idx.urls[normalizedURL]
	return ok
}

// Add records id as stored. Call exactly once per stored Document.
func (idx *Index) Add(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.ids[id]; ok {
		return
	}
	idx.ids[id] = struct{}{}
	idx.dirty = true
}

// AddURL records normalizedURL as stored. Call exactly once per stored
// Document.
func (idx *Index) AddURL(normalizedURL string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.urls[normalizedURL]; ok {
		return
	}
	idx.urls[normalizedURL] = struct{}{}
	idx.dirty = true
}

// Flush persists the index to disk atomically (write to a temp file, then
// rename), but only when dirty — flush is monotone.
func (idx *Index) Flush() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	f := indexFile{
		IDs:  setKeys(idx.ids),
		URLs: setKeys(idx.urls),
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("mkdir output root: %w", err)
	}

	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return fmt.Errorf("rename temp index: %w", err)
	}
	idx.dirty = false
	return nil
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
