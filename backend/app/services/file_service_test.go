package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"sagiri-relay/backend/app/repo"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func newTestFileService(t *testing.T, clk Clock, max int64) (*FileService, *repo.DiskBlobRepository) {
	t.Helper()
	blobs, err := repo.NewDiskBlobRepository(t.TempDir())
	require.NoError(t, err)
	return NewFileService(clk, blobs, max, zerolog.Nop()), blobs
}

func TestFileService_RoundTripIsRepeatable(t *testing.T) {
	s, _ := newTestFileService(t, newFakeClock(), 0)
	content := []byte("line one\nline two\n\x00\xff")

	rec, err := s.Store(context.Background(), "report.txt", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "report.txt", rec.Filename)
	assert.Equal(t, int64(len(content)), rec.Size)
	sum := blake3.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), rec.Digest)

	for i := 0; i < 2; i++ {
		got, rc, err := s.Retrieve(context.Background(), rec.ID)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, content, data)
		assert.Equal(t, rec.ID, got.ID)
	}

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
}

func TestFileService_UnknownID(t *testing.T) {
	s, _ := newTestFileService(t, newFakeClock(), 0)
	_, _, err := s.Retrieve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Metadata("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileService_TooLarge(t *testing.T) {
	s, blobs := newTestFileService(t, newFakeClock(), 8)
	_, err := s.Store(context.Background(), "big.bin", strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, s.List())

	entries, err := os.ReadDir(blobs.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected upload leaves nothing behind")

	_, err = s.Store(context.Background(), "ok.bin", strings.NewReader("01234567"))
	require.NoError(t, err)
}

func TestFileService_EvictionRemovesBacking(t *testing.T) {
	clk := newFakeClock()
	s, blobs := newTestFileService(t, clk, 0)
	rec, err := s.Store(context.Background(), "old.txt", strings.NewReader("old"))
	require.NoError(t, err)
	path, err := blobs.Path(rec.Handle)
	require.NoError(t, err)
	require.FileExists(t, path)

	clk.Advance(30 * time.Minute)
	fresh, err := s.Store(context.Background(), "fresh.txt", strings.NewReader("fresh"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.EvictBefore(context.Background(), clk.Now().Add(-10*time.Minute)))
	assert.NoFileExists(t, path)
	_, _, err = s.Retrieve(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Metadata(fresh.ID)
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.txt":           "report.txt",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\notes.md`: "notes.md",
		"my file (1).txt":      "my_file_1.txt",
		".hidden":              "hidden",
		"..":                   "",
		"данные.csv":           "csv",
		"a;rm -rf *.sh":        "arm_-rf_.sh",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}
