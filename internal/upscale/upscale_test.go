package upscale

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUpscaler fails for names listed in failFor and otherwise returns the
// input with a marker appended.
type mockUpscaler struct {
	failFor map[string]bool
	names   chan string
	calls   atomic.Int64
}

func (m *mockUpscaler) Upscale(ctx context.Context, img []byte, scale int) ([]byte, error) {
	m.calls.Add(1)
	if m.names != nil {
		m.names <- string(img)
	}
	if m.failFor[string(img)] {
		return nil, errors.New("upscaler exploded")
	}
	return append(append([]byte{}, img...), []byte("-upscaled")...), nil
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func testImages(n int) []Image {
	imgs := make([]Image, n)
	for i := range imgs {
		name := fmt.Sprintf("img_%d", i)
		imgs[i] = Image{Name: name, Data: []byte(name)}
	}
	return imgs
}

func TestUpscaleAllPreservesOrderAndLength(t *testing.T) {
	m := &mockUpscaler{}
	pool := NewPool(m, 3, 4, setupTestLogger())

	imgs := testImages(7)
	out := pool.UpscaleAll(context.Background(), imgs)

	require.Len(t, out, len(imgs))
	for i, o := range out {
		assert.Equal(t, imgs[i].Name, o.Name)
		assert.False(t, o.Degraded)
		assert.Equal(t, imgs[i].Name+"-upscaled", string(o.Data))
	}
}

func TestUpscaleAllDegradesToOriginal(t *testing.T) {
	// Failures on an arbitrary subset must yield originals in those
	// positions and upscaled images elsewhere, with no pipeline failure.
	m := &mockUpscaler{failFor: map[string]bool{"img_1": true, "img_4": true}}
	pool := NewPool(m, 2, 4, setupTestLogger())

	imgs := testImages(5)
	out := pool.UpscaleAll(context.Background(), imgs)

	require.Len(t, out, 5)
	for i, o := range out {
		assert.NotEmpty(t, o.Data, "every outcome must carry image data")
		if i == 1 || i == 4 {
			assert.True(t, o.Degraded)
			assert.Equal(t, imgs[i].Data, o.Data, "degraded entry keeps the original bytes")
			assert.Error(t, o.Err)
		} else {
			assert.False(t, o.Degraded)
			assert.NoError(t, o.Err)
		}
	}
}

func TestUpscaleAllEmptyInput(t *testing.T) {
	pool := NewPool(&mockUpscaler{}, 2, 4, setupTestLogger())
	out := pool.UpscaleAll(context.Background(), nil)
	assert.Empty(t, out)
}

func TestUpscaleAllBoundedWorkers(t *testing.T) {
	// With a single worker, images are processed strictly one at a time.
	m := &mockUpscaler{names: make(chan string, 16)}
	pool := NewPool(m, 1, 4, setupTestLogger())

	done := make(chan struct{})
	go func() {
		pool.UpscaleAll(context.Background(), testImages(4))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not finish")
	}
	assert.EqualValues(t, 4, m.calls.Load())
}

func TestLocalUpscale(t *testing.T) {
	// Encode a small PNG, upscale 2x, and verify the dimensions doubled.
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	local := NewLocal()
	out, err := local.Upscale(context.Background(), buf.Bytes(), 2)
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 12, decoded.Bounds().Dy())
}

func TestLocalUpscaleRejectsGarbage(t *testing.T) {
	local := NewLocal()
	_, err := local.Upscale(context.Background(), []byte("not an image"), 2)
	require.Error(t, err)

	_, err = local.Upscale(context.Background(), nil, 2)
	require.Error(t, err)
}
