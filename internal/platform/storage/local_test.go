package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselle/lookbook-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/", testLogger())
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "req-1", domain.Artifact{
		Name:        "frontside_studio.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("jpeg-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/req-1/frontside_studio.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "req-1", "frontside_studio.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestLocalStoreURLForMatchesSave(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://files.example.com", testLogger())
	require.NoError(t, err)

	planned := store.URLFor("req-2", "report.xlsx")

	actual, err := store.Save(context.Background(), "req-2", domain.Artifact{
		Name: "report.xlsx",
		Data: []byte{0x50, 0x4b},
	})
	require.NoError(t, err)
	assert.Equal(t, planned, actual)
}

func TestLocalStoreSaveCancelled(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost", testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, "req-3", domain.Artifact{Name: "a.jpg", Data: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
}
