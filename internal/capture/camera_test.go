package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNewCamera_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantFPS int
	}{
		{name: "zero options", opts: Options{}, wantFPS: DefaultFPS},
		{name: "default options", opts: DefaultOptions(), wantFPS: DefaultFPS},
		{name: "custom fps", opts: Options{DeviceID: 1, FPS: 30}, wantFPS: 30},
		{name: "negative fps", opts: Options{FPS: -4}, wantFPS: DefaultFPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.opts)
			require.NotNil(t, cam)
			assert.Equal(t, tt.wantFPS, cam.FPS())
			assert.False(t, cam.IsOpen())
		})
	}
}

func TestDefaultOptions_Mirrored(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.Mirror)
	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	cam.SetFPS(10)
	assert.Equal(t, 10, cam.FPS())

	cam.SetFPS(0)
	assert.Equal(t, 10, cam.FPS(), "zero keeps the previous value")

	cam.SetFPS(-5)
	assert.Equal(t, 10, cam.FPS(), "negative keeps the previous value")
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultOptions())
	frame, err := cam.ReadFrame()
	assert.ErrorIs(t, err, ErrCameraNotOpen)
	assert.Nil(t, frame)
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultOptions())
	assert.NoError(t, cam.Close())
	assert.NoError(t, cam.Close())
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultOptions())
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	defer cam.Close()

	assert.True(t, cam.IsOpen())
	require.NoError(t, cam.Open(), "opening twice is a no-op")

	frame, err := cam.ReadFrame()
	if err != nil {
		t.Skipf("skipping test - camera produced no frame: %v", err)
	}
	defer frame.Close()
	assert.False(t, frame.Empty())

	require.NoError(t, cam.Close())
	assert.False(t, cam.IsOpen())
}

func TestMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV8U)
	defer m.Close()
	m.SetUCharAt(0, 0, 200)

	Mirror(&m)

	assert.Equal(t, uint8(0), m.GetUCharAt(0, 0))
	assert.Equal(t, uint8(200), m.GetUCharAt(0, 2))
}

func TestMirror_Empty(t *testing.T) {
	Mirror(nil)
}
