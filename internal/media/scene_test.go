package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/birdwatch-go/internal/conf"
)

func TestParseSceneScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		line      string
		wantScore float64
		wantOK    bool
	}{
		{
			name:      "plain score line",
			line:      "[Parsed_metadata_1 @ 0x55d] lavfi.scene_score=0.008761",
			wantScore: 0.008761,
			wantOK:    true,
		},
		{
			name:      "score with trailing whitespace",
			line:      "lavfi.scene_score=0.42  ",
			wantScore: 0.42,
			wantOK:    true,
		},
		{
			name:   "frame header line",
			line:   "[Parsed_metadata_1 @ 0x55d] frame:12 pts:48128 pts_time:3.008",
			wantOK: false,
		},
		{
			name:   "malformed score",
			line:   "lavfi.scene_score=banana",
			wantOK: false,
		},
		{
			name:   "score out of range",
			line:   "lavfi.scene_score=1.5",
			wantOK: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			score, ok := parseSceneScore(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantScore, score, 1e-9)
			}
		})
	}
}

func TestSceneScorerFilterChain(t *testing.T) {
	t.Parallel()

	full := &SceneScorer{}
	assert.Equal(t, `select=gt(scene\,0),metadata=print`, full.filterChain())
	assert.Empty(t, full.Region())

	region := &SceneScorer{region: &conf.MotionRegion{
		Name: "feeder", X: 100, Y: 50, Width: 640, Height: 480,
	}}
	assert.Equal(t, `crop=640:480:100:50,select=gt(scene\,0),metadata=print`, region.filterChain())
	assert.Equal(t, "feeder", region.Region())
}

func TestByteSliceToInts(t *testing.T) {
	t.Parallel()

	// two little-endian 16-bit samples: 1 and -2
	pcm := []byte{0x01, 0x00, 0xFE, 0xFF}
	assert.Equal(t, []int{1, -2}, byteSliceToInts(pcm))

	// trailing odd byte is dropped
	assert.Equal(t, []int{1}, byteSliceToInts([]byte{0x01, 0x00, 0xAA}))
	assert.Empty(t, byteSliceToInts(nil))
}
