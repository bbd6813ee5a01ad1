// Package storage persists finished articles: Markdown files on disk plus a
// best-effort record in the articles table.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	nonWordRuns = regexp.MustCompile(`[^\w-]+`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL-safe identifier from a title: lower-cased, runs of
// non-word characters collapsed to single hyphens, at most 80 characters,
// never empty.
func Slugify(title string) string {
	slug := nonWordRuns.ReplaceAllString(strings.ToLower(title), "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		return "article"
	}
	return slug
}

// FileStore writes articles under Dir, one Markdown file per article.
type FileStore struct {
	Dir string
	// Now is swapped out in tests to pin the filename hour bucket.
	Now func() time.Time
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, Now: time.Now}
}

// SaveResult reports where an article landed.
type SaveResult struct {
	Path      string
	Slug      string
	SizeBytes int
}

type frontMatter struct {
	Title   string `yaml:"title"`
	Created string `yaml:"created"`
}

// Save writes the article with a front-matter header. Filenames bucket by
// hour; a name collision appends -1, -2, ... to the slug until a free name
// is found, so an existing file is never overwritten.
func (f *FileStore) Save(title, body string) (SaveResult, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return SaveResult{}, err
	}
	now := f.now()
	base := Slugify(title)
	slug := base
	var path string
	for i := 1; ; i++ {
		path = filepath.Join(f.Dir, fmt.Sprintf("%s-%s.md", now.Format("2006-01-02_15"), slug))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	header, err := yaml.Marshal(frontMatter{Title: title, Created: now.Format(time.RFC3339)})
	if err != nil {
		return SaveResult{}, err
	}
	content := fmt.Sprintf("---\n%s---\n\n%s\n", header, strings.TrimRight(body, "\n"))

	// O_EXCL so a racing writer in the same hour bucket fails loudly instead
	// of clobbering.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return SaveResult{}, err
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return SaveResult{}, err
	}
	if err := file.Close(); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Path: path, Slug: slug, SizeBytes: len(content)}, nil
}

// List returns the saved article filenames, newest name first.
func (f *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Read returns the raw content of one saved article. The name must be a bare
// .md filename; anything path-like is rejected.
func (f *FileStore) Read(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".md") {
		return nil, fmt.Errorf("invalid article name %q", name)
	}
	return os.ReadFile(filepath.Join(f.Dir, name))
}

func (f *FileStore) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
