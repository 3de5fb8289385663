package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligible(t *testing.T) {
	assert.True(t, eligible("/r/01 PEREZ/FormatoCV.xlsx"))
	assert.True(t, eligible("/r/01 PEREZ/cv.pdf"))
	assert.False(t, eligible("/r/01 PEREZ/~$FormatoCV.xlsx"))
	assert.False(t, eligible("/r/01 PEREZ/notas.txt"))
}

func TestCandidateFolder(t *testing.T) {
	root := filepath.Join("/data", "009. EDI RECIBIDAS")

	folder, ok := candidateFolder(root, filepath.Join(root, "01 PEREZ", "cv.pdf"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "01 PEREZ"), folder)

	// deeper nesting still maps to the first-level folder
	folder, ok = candidateFolder(root, filepath.Join(root, "01 PEREZ", "anexos", "cv.pdf"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "01 PEREZ"), folder)

	// files at the root itself have no candidate folder
	_, ok = candidateFolder(root, filepath.Join(root, "listado.xlsx"))
	assert.False(t, ok)

	// paths outside the root are ignored
	_, ok = candidateFolder(root, "/otro/lugar/cv.pdf")
	assert.False(t, ok)
}

func TestStartRequiresRoot(t *testing.T) {
	_, _, err := Start(context.Background(), Config{Debounce: time.Second}, nil)
	require.Error(t, err)
}

func TestStartDeliversChangedFolder(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "01 PEREZ")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Start(ctx, Config{Root: root}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(folder, "cv.pdf"), []byte("%PDF"), 0o644))

	select {
	case got := <-events:
		assert.Equal(t, folder, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the changed folder")
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("events channel did not close on cancel")
		}
	}
}
