package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sagiri-relay/backend/app/mailbox"
	"sagiri-relay/backend/app/models"
	"sagiri-relay/backend/app/repo"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
)

// FileService is the file transfer store. Unlike the control channels a
// download does not consume the file: it stays available until evicted.
type FileService struct {
	clock     Clock
	blobs     repo.BlobRepository
	maxUpload int64
	log       zerolog.Logger
	records   *mailbox.Slot[string, models.FileRecord]
}

func NewFileService(clock Clock, blobs repo.BlobRepository, maxUpload int64, log zerolog.Logger) *FileService {
	return &FileService{
		clock:     clock,
		blobs:     blobs,
		maxUpload: maxUpload,
		log:       log,
		records:   mailbox.NewSlot[string, models.FileRecord](),
	}
}

func (s *FileService) Name() string { return "files" }

func (s *FileService) MaxUpload() int64 { return s.maxUpload }

func (s *FileService) Store(ctx context.Context, filename string, src io.Reader) (models.FileRecord, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return models.FileRecord{}, fmt.Errorf("%w: no usable filename in %q", ErrInvalid, filename)
	}
	id := newID()
	handle := id + "_" + name

	hasher := blake3.New()
	if s.maxUpload > 0 {
		src = io.LimitReader(src, s.maxUpload+1)
	}
	n, err := s.blobs.Put(ctx, handle, io.TeeReader(src, hasher))
	if err != nil {
		return models.FileRecord{}, fmt.Errorf("store %s: %w", name, err)
	}
	if s.maxUpload > 0 && n > s.maxUpload {
		_ = s.blobs.Delete(ctx, handle)
		return models.FileRecord{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, s.maxUpload)
	}
	rec := models.FileRecord{
		ID:        id,
		Filename:  name,
		Handle:    handle,
		Size:      n,
		Digest:    hex.EncodeToString(hasher.Sum(nil)),
		Status:    models.FileAvailable,
		CreatedAt: s.clock.Now(),
	}
	s.records.Put(id, rec)
	return rec, nil
}

// Retrieve opens the file for reading. The caller closes the reader.
func (s *FileService) Retrieve(ctx context.Context, id string) (models.FileRecord, io.ReadCloser, error) {
	rec, ok := s.records.Peek(id)
	if !ok {
		return models.FileRecord{}, nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	rc, err := s.blobs.Open(ctx, rec.Handle)
	if errors.Is(err, repo.ErrBlobNotFound) {
		return models.FileRecord{}, nil, fmt.Errorf("file %s content: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.FileRecord{}, nil, fmt.Errorf("file %s: %w", id, err)
	}
	return rec, rc, nil
}

func (s *FileService) Metadata(id string) (models.FileRecord, error) {
	rec, ok := s.records.Peek(id)
	if !ok {
		return models.FileRecord{}, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// List returns every available file, oldest first.
func (s *FileService) List() []models.FileRecord {
	var out []models.FileRecord
	for _, rec := range s.records.Values() {
		if rec.Status == models.FileAvailable {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EvictBefore drops expired records and their blobs. A blob that cannot be
// deleted is logged and skipped; the record is gone regardless.
func (s *FileService) EvictBefore(ctx context.Context, cutoff time.Time) int {
	gone := s.records.Evict(func(_ string, rec models.FileRecord) bool {
		return rec.CreatedAt.Before(cutoff)
	})
	for _, rec := range gone {
		if err := s.blobs.Delete(ctx, rec.Handle); err != nil && !errors.Is(err, repo.ErrBlobNotFound) {
			s.log.Warn().Err(err).Str("file", rec.ID).Str("filename", rec.Filename).Msg("evict blob failed")
		}
	}
	return len(gone)
}

// SanitizeFilename reduces name to a safe base name made of ASCII letters,
// digits, dot, dash and underscore.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}
