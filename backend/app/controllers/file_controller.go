package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/services"
	"sagiri-relay/backend/global"
)

// multipartSlack covers multipart headers and boundaries on top of the
// file size limit.
const multipartSlack = 1 << 20

type FileController struct {
	Files *services.FileService
}

func NewFileController(files *services.FileService) *FileController {
	return &FileController{Files: files}
}

// Upload handles POST /files. The "file" part is streamed straight into
// storage without buffering the whole body.
func (c *FileController) Upload(w http.ResponseWriter, r *http.Request) {
	if max := c.Files.MaxUpload(); max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max+multipartSlack)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			writeJSONError(w, http.StatusBadRequest, "missing file")
			return
		}
		if err != nil {
			writeUploadError(w, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		rec, err := c.Files.Store(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			writeUploadError(w, err)
			return
		}
		global.Logger.Info().Str("file", rec.ID).Str("filename", rec.Filename).Int64("size", rec.Size).Msg("file stored")
		writeJSON(w, http.StatusOK, dto.FileUploadResponse{
			ID:       rec.ID,
			Filename: rec.Filename,
			Status:   "uploaded",
			Size:     rec.Size,
			Blake3:   rec.Digest,
		})
		return
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	if errors.Is(err, services.ErrTooLarge) || errors.Is(err, services.ErrInvalid) {
		writeServiceError(w, err)
		return
	}
	writeJSONError(w, http.StatusBadRequest, "upload failed: "+err.Error())
}

// Download handles GET /files/{id}. Downloads do not consume the file.
func (c *FileController) Download(w http.ResponseWriter, r *http.Request) {
	rec, rc, err := c.Files.Retrieve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer rc.Close()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.Filename}))
	h.Set("Content-Length", strconv.FormatInt(rec.Size, 10))
	h.Set("X-Content-Blake3", rec.Digest)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		global.Logger.Warn().Err(err).Str("file", rec.ID).Msg("download interrupted")
	}
}

// List handles GET /files.
func (c *FileController) List(w http.ResponseWriter, r *http.Request) {
	recs := c.Files.List()
	out := make(dto.FileListResponse, len(recs))
	for _, rec := range recs {
		out[rec.ID] = dto.FileEntry{Filename: rec.Filename, Size: rec.Size, Blake3: rec.Digest, CreatedAt: rec.CreatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}
