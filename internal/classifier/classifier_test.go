package classifier

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResultFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	content := "Start (s),End (s),Scientific name,Common name,Confidence\n" +
		"0.0,3.0,Cyanocitta cristata,Blue Jay,0.91\n" +
		"3.0,6.0,Cardinalis cardinalis,Northern Cardinal\n" + // four columns
		"6.0,9.0,Poecile atricapillus,Black-capped Chickadee,0.65\n" +
		"9.0,12.0,Sitta carolinensis,White-breasted Nuthatch,not-a-number\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, dropped, err := parseResultFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	// surviving rows preserve file order
	require.Len(t, rows, 2)
	assert.Equal(t, "Blue Jay", rows[0].CommonName)
	assert.Equal(t, "Cyanocitta cristata", rows[0].ScientificName)
	assert.InDelta(t, 0.91, rows[0].Confidence, 1e-9)
	assert.InDelta(t, 3.0, rows[0].End, 1e-9)
	assert.Equal(t, "Black-capped Chickadee", rows[1].CommonName)
}

func TestParseResultFileHeaderOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("Start (s),End (s),Scientific name,Common name,Confidence\n"), 0o644))

	rows, dropped, err := parseResultFile(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, dropped)
}

func TestParseResultFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := parseResultFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

// fakeAnalyzer writes a shell script standing in for the python interpreter.
// The script fails when invoked with -m and succeeds via the legacy script
// path, writing a canned result table to the --o argument.
func fakeAnalyzer(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}

	script := `#!/bin/sh
if [ "$1" = "-m" ]; then
  echo "No module named birdnet_analyzer" >&2
  exit 1
fi
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--o" ]; then out="$arg"; fi
  prev="$arg"
done
if [ -n "$out" ]; then
  printf 'Start (s),End (s),Scientific name,Common name,Confidence\n0.0,3.0,Cyanocitta cristata,Blue Jay,0.91\n' > "$out"
fi
exit 0
`
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestClassifyFallsBackToLegacyScript(t *testing.T) {
	t.Parallel()

	b := NewBirdNET(Options{
		Python:        fakeAnalyzer(t),
		MinConfidence: 0.5,
	})

	audio := filepath.Join(t.TempDir(), "sample.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	result, err := b.Classify(t.Context(), audio)
	require.NoError(t, err)
	assert.Equal(t, InvocationScript, result.Invocation)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Blue Jay", result.Rows[0].CommonName)
}

func TestClassifyBothInvocationsFail(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}

	script := "#!/bin/sh\nexit 2\n"
	python := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(python, []byte(script), 0o755))

	b := NewBirdNET(Options{Python: python})

	_, err := b.Classify(t.Context(), filepath.Join(t.TempDir(), "sample.wav"))
	assert.Error(t, err)
}

func TestProbeUnreachable(t *testing.T) {
	t.Parallel()

	b := NewBirdNET(Options{Python: filepath.Join(t.TempDir(), "no-such-python")})
	assert.False(t, b.Probe(t.Context()))
}

func TestYearWeek(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, yearWeek(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, yearWeek(time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 45, yearWeek(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)))
	// day 29+ clamps into the year's last week
	assert.Equal(t, 48, yearWeek(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
}
