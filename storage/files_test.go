package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation runs", "Go: Tips & Tricks!!", "go-tips-tricks"},
		{"keeps underscores and digits", "my_tool v2 guide", "my_tool-v2-guide"},
		{"leading and trailing junk", "  --What is Go?-- ", "what-is-go"},
		{"empty", "", "article"},
		{"only symbols", "!!??**", "article"},
		{"non-ascii only", "初心者向け生成AI活用ガイド", "ai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugifyProperties(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9_]+(-[a-z0-9_]+)*$`)
	titles := []string{
		"Hello World",
		strings.Repeat("very long title segment ", 20),
		"----",
		"A",
		"Ünïcödé Tïtle with Æccents",
		"ends with symbol!",
		strings.Repeat("x", 79) + "-suffix spills over the limit",
	}
	for _, title := range titles {
		slug := Slugify(title)
		assert.NotEmpty(t, slug, "title %q", title)
		assert.LessOrEqual(t, len(slug), 80, "title %q", title)
		assert.Regexp(t, valid, slug, "title %q", title)
	}
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store := NewFileStore(t.TempDir())
	store.Now = func() time.Time {
		return time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	}
	return store
}

func TestSaveWritesFrontMatterAndBody(t *testing.T) {
	store := newTestStore(t)

	res, err := store.Save("Go Tips for Beginners", "## Intro\n\nSome body text.\n")
	require.NoError(t, err)
	assert.Equal(t, "go-tips-for-beginners", res.Slug)
	assert.Equal(t, filepath.Join(store.Dir, "2025-06-01_14-go-tips-for-beginners.md"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "title: Go Tips for Beginners")
	assert.Contains(t, content, "2025-06-01T14:30:00Z")
	assert.Contains(t, content, "## Intro")
	assert.Equal(t, len(content), res.SizeBytes)
}

func TestSaveCollisionAppendsSuffix(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save("Same Title", "first body")
	require.NoError(t, err)
	second, err := store.Save("Same Title", "second body")
	require.NoError(t, err)
	third, err := store.Save("Same Title", "third body")
	require.NoError(t, err)

	assert.Equal(t, "same-title", first.Slug)
	assert.Equal(t, "same-title-1", second.Slug)
	assert.Equal(t, "same-title-2", third.Slug)
	assert.NotEqual(t, first.Path, second.Path)
	assert.NotEqual(t, second.Path, third.Path)

	// The first file keeps its original body.
	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first body")
}

func TestListAndRead(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save("Alpha", strings.Repeat("a", 20))
	require.NoError(t, err)
	_, err = store.Save("Beta", strings.Repeat("b", 20))
	require.NoError(t, err)

	names, err := store.List()
	require.NoError(t, err)
	require.Len(t, names, 2)

	raw, err := store.Read(names[0])
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestReadRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"", "../secret.md", "sub/dir.md", "note.txt"} {
		_, err := store.Read(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
