package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStore_WriteAndEnsure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewDiskStore(filepath.Join(root, "news"))
	require.NoError(t, err)

	require.NoError(t, store.EnsureDir("12345"))
	require.NoError(t, store.WriteFile(filepath.Join("12345", "news_example_com.html"), []byte("<html></html>")))

	data, err := os.ReadFile(filepath.Join(root, "news", "12345", "news_example_com.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(data))
}

func TestDiskStore_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.WriteFile("../outside.html", []byte("x")))
	require.Error(t, store.EnsureDir("../../etc"))
}

func TestDiskStore_RequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := NewDiskStore("   ")
	require.Error(t, err)
}

func TestFileName_Deterministic(t *testing.T) {
	t.Parallel()

	a := FileName("news", "https://example.com/posts/42", "text/html; charset=utf-8")
	b := FileName("news", "https://example.com/posts/42", "text/html; charset=utf-8")
	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, "news_example_com_posts_42_"))
	require.True(t, strings.HasSuffix(a, ".html"))
}

func TestFileName_DistinctURLsDoNotCollide(t *testing.T) {
	t.Parallel()

	// Same sanitized slug, different raw URLs.
	a := FileName("comm", "https://example.com/a/b", "text/html")
	b := FileName("comm", "https://example.com/a_b", "text/html")
	require.NotEqual(t, a, b)

	c := FileName("comm", "https://example.com/x?page=1", "text/html")
	d := FileName("comm", "https://example.com/x?page=2", "text/html")
	require.NotEqual(t, c, d)
}

func TestFileName_LongPathsAreTruncated(t *testing.T) {
	t.Parallel()

	long := "https://example.com/" + strings.Repeat("segment/", 40) + "end"
	name := FileName("comm", long, "text/html")
	require.Less(t, len(name), 160)
	require.True(t, strings.HasSuffix(name, ".html"))
}

func TestExtension(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"text/html; charset=utf-8": ".html",
		"text/html":                ".html",
		"application/pdf":          ".pdf",
		"text/plain; charset=iso":  ".txt",
		"application/json":         ".json",
		"":                         ".html",
		"application/x-unknown":    ".html",
	}
	for contentType, want := range cases {
		require.Equal(t, want, Extension(contentType), "content type %q", contentType)
	}
}
