package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sagiri-relay/network"

	"github.com/dustin/go-humanize"
)

// FileClient is the part of the relay client file commands need.
type FileClient interface {
	UploadFile(ctx context.Context, filename string, src io.Reader) (network.FileUpload, error)
	DownloadFile(ctx context.Context, id string, dst io.Writer) (network.FileDownload, error)
	ListFiles(ctx context.Context) (map[string]network.FileEntry, error)
}

// DownloadHandler implements "!download <file_id> <destination>". When the
// destination is a directory the relay's filename is used inside it.
type DownloadHandler struct{ Files FileClient }

func (DownloadHandler) Usage() string { return "!download <file_id> <destination_path>" }

func (h DownloadHandler) Handle(ctx context.Context, args []string) Output {
	if len(args) < 2 {
		return stderrf("Invalid download command format. Use: %s", h.Usage())
	}
	id, dest := args[0], strings.Join(args[1:], " ")
	dir, target := dest, ""
	if st, err := os.Stat(dest); err != nil || !st.IsDir() {
		dir, target = filepath.Dir(dest), dest
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return stderrf("Failed to download file %s: %v", id, err)
	}
	defer os.Remove(tmp.Name())

	info, err := h.Files.DownloadFile(ctx, id, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return stderrf("Failed to download file %s: %v", id, err)
	}
	if target == "" {
		name := filepath.Base(info.Filename)
		if name == "." || name == string(filepath.Separator) || name == "" {
			name = "file_" + id
		}
		target = filepath.Join(dir, name)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return stderrf("Failed to download file %s: %v", id, err)
	}
	return stdoutf("File downloaded to %s (%s)", target, humanize.IBytes(uint64(info.Size)))
}

// UploadHandler implements "!upload <path>".
type UploadHandler struct{ Files FileClient }

func (UploadHandler) Usage() string { return "!upload <file_path>" }

func (h UploadHandler) Handle(ctx context.Context, args []string) Output {
	if len(args) == 0 {
		return stderrf("Invalid upload command format. Use: %s", h.Usage())
	}
	path := strings.Join(args, " ")
	f, err := os.Open(path)
	if err != nil {
		return stderrf("File not found: %s", path)
	}
	defer f.Close()
	up, err := h.Files.UploadFile(ctx, filepath.Base(path), f)
	if err != nil {
		return stderrf("Failed to upload file %s: %v", path, err)
	}
	return stdoutf("File uploaded successfully. File ID: %s\nName: %s\nSize: %s", up.ID, up.Filename, humanize.IBytes(uint64(up.Size)))
}

// ListFilesHandler implements "!listfiles".
type ListFilesHandler struct{ Files FileClient }

func (ListFilesHandler) Usage() string { return "!listfiles" }

func (h ListFilesHandler) Handle(ctx context.Context, _ []string) Output {
	files, err := h.Files.ListFiles(ctx)
	if err != nil {
		return stderrf("Failed to list files: %v", err)
	}
	if len(files) == 0 {
		return stdoutf("No files available")
	}
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return files[ids[i]].CreatedAt.Before(files[ids[j]].CreatedAt) })

	var b strings.Builder
	b.WriteString("Available files:\n")
	for _, id := range ids {
		f := files[id]
		fmt.Fprintf(&b, "ID: %s, Name: %s, Size: %s, Uploaded: %s\n", id, f.Filename, humanize.IBytes(uint64(f.Size)), humanize.Time(f.CreatedAt))
	}
	return Output{Stdout: b.String()}
}
