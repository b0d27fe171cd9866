package ingest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashContentIsStable(t *testing.T) {
	a := hashContent([]byte("hello world"))
	b := hashContent([]byte("hello world"))
	c := hashContent([]byte("hello there"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDiscoverFilesWalksDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/a.pdf", "irrelevant")
	writeFile(t, dir+"/b.docx", "irrelevant")

	paths, err := discoverFiles(dir)
	assert.NoError(t, err)
	assert.Len(t, paths, 2)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture file: %v", err)
	}
}
