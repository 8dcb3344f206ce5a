package models

import "time"

const FileAvailable = "available"

// FileRecord describes an uploaded blob. Handle is the key inside the blob
// repository, never exposed over HTTP.
type FileRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Handle    string    `json:"-"`
	Size      int64     `json:"size"`
	Digest    string    `json:"blake3"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
