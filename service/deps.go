// Package service holds the file lifecycle state machine and everything
// deriving from it. It talks to the stores and external collaborators
// through the interfaces below so concrete clients stay swappable.
package service

import (
	"context"
	"io"
	"time"

	"hearly/transcription-api/model"
)

// MetadataStore is the files table: keyed point operations plus a
// per-user listing. The lifecycle manager is its only writer.
type MetadataStore interface {
	GetFile(ctx context.Context, userID, fileID string) (*model.FileRecord, error)
	PutFile(ctx context.Context, rec *model.FileRecord) error
	SetResult(ctx context.Context, userID, fileID, status, language string) error
	DeleteFile(ctx context.Context, userID, fileID string) error
	ListFiles(ctx context.Context, userID string) ([]model.FileRecord, error)
}

// BlobStore is one bucket of the object store.
type BlobStore interface {
	BucketName() string
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PutBytes(ctx context.Context, key string, b []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// JobLocator tells the job runner where the audio lives.
type JobLocator struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Username string `json:"username"`
}

// JobStatus is one entry of the runner's best-effort job listing.
type JobStatus struct {
	Name           string
	State          string
	OutputLocation string
}

// Terminal success state reported by the job listing. Anything else is
// treated as still in flight.
const JobStateCompleted = "COMPLETED"

// JobRunner is the external transcription collaborator: a synchronous
// dispatch that acknowledges work has started, and a rate-limited,
// eventually-consistent job listing. The listing must never be treated
// as authoritative; the result document is.
type JobRunner interface {
	Dispatch(ctx context.Context, loc JobLocator) (string, error)
	ListRecentJobs(ctx context.Context) ([]JobStatus, error)
}

// Summarizer is the single-shot text-in/text-out chat completion call.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
