package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPathMatchesExportPath(t *testing.T) {
	t.Parallel()

	cc := &ClipCapture{basePath: t.TempDir(), duration: 15 * time.Second}
	triggered := time.Date(2026, 6, 7, 8, 9, 10, 0, time.Local)

	// SnapshotPath must name the exact file CaptureSnapshot writes
	want := cc.SnapshotPath(triggered)
	got, err := cc.exportPath(triggered, "jpg")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t,
		filepath.Join(cc.basePath, "2026", "06", "motion-20260607-080910.jpg"),
		want,
	)

	// exportPath creates the month directory, SnapshotPath never does
	info, err := os.Stat(filepath.Dir(got))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSnapshotPathIsSideEffectFree(t *testing.T) {
	t.Parallel()

	cc := &ClipCapture{basePath: t.TempDir()}
	path := cc.SnapshotPath(time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local))

	_, err := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err))
}
