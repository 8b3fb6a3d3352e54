package index

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jarredhawkins/velocity-lsp/internal/parser"
	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

// DefaultExtensions are the file extensions treated as Velocity templates
var DefaultExtensions = []string{".vm", ".vtl", ".vsl"}

// entry is the folding ranges of one file as of the modtime and size it was scanned at
type entry struct {
	ranges  []types.FoldingRange
	modTime time.Time
	size    int64
}

// matches reports whether info still describes the scanned file
func (e entry) matches(info fs.FileInfo) bool {
	return e.modTime.Equal(info.ModTime()) && e.size == info.Size()
}

// Index caches folding ranges for the template files under a root path
type Index struct {
	mu sync.RWMutex

	// File index: FilePath -> folding ranges in file
	byFile map[string]entry

	rootPath   string
	extensions map[string]struct{}
	scanner    *parser.Scanner
}

// New creates a new index for the given root path. An empty exts uses DefaultExtensions.
func New(rootPath string, scanner *parser.Scanner, exts []string) *Index {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extensions := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}

	return &Index{
		byFile:     make(map[string]entry),
		rootPath:   rootPath,
		extensions: extensions,
		scanner:    scanner,
	}
}

// Build performs the initial indexing of all template files
func (idx *Index) Build(ctx context.Context) error {
	log.Printf("building index for %s", idx.rootPath)

	var files []string
	err := filepath.WalkDir(idx.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		// Check for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != idx.rootPath && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if idx.IsTemplateFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("found %d template files", len(files))

	// Index files concurrently
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8) // Limit concurrency

	for _, file := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := idx.addFile(ctx, path); err != nil {
				log.Printf("failed to index %s: %v", path, err)
			}
		}(file)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("indexed %d files", idx.FileCount())
	return nil
}

// AddFile reads a file and caches its folding ranges
func (idx *Index) AddFile(path string) error {
	return idx.addFile(context.Background(), path)
}

func (idx *Index) addFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ranges, err := idx.scanner.FoldingRanges(parser.NewTextDocument(string(content)), parser.ContextCanceller(ctx))
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byFile[path] = entry{ranges: ranges, modTime: info.ModTime(), size: info.Size()}
	return nil
}

// RemoveFile drops the cached ranges of a file
func (idx *Index) RemoveFile(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byFile, path)
}

// UpdateFile removes then re-adds a file
func (idx *Index) UpdateFile(path string) error {
	idx.RemoveFile(path)
	return idx.AddFile(path)
}

// RangesInFile returns a copy of the cached folding ranges for path.
// ok is false when the file is not indexed or has changed on disk since it was scanned.
func (idx *Index) RangesInFile(path string) ([]types.FoldingRange, bool) {
	idx.mu.RLock()
	e, ok := idx.byFile[path]
	idx.mu.RUnlock()
	if !ok {
		return nil, false
	}

	info, err := os.Stat(path)
	if err != nil || !e.matches(info) {
		return nil, false
	}

	result := make([]types.FoldingRange, len(e.ranges))
	copy(result, e.ranges)
	return result, true
}

// Files returns the indexed file paths in sorted order
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	files := make([]string, 0, len(idx.byFile))
	for path := range idx.byFile {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// FileCount returns the number of indexed files
func (idx *Index) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byFile)
}

// IsTemplateFile checks if a file has one of the configured template extensions
func (idx *Index) IsTemplateFile(path string) bool {
	_, ok := idx.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SkipDir reports whether a directory is never scanned or watched
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "target"
}
