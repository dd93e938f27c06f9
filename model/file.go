// Package model defines database models
package model

import "fmt"

// Lifecycle states of an uploaded file. PENDING is assigned at ingest,
// COMPLETED and ERROR are terminal.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusError     = "ERROR"
)

// FileRecord is one row of the files table, keyed by (user_id, file_id).
// It is the single source of truth for lifecycle status; the transcript
// itself lives in the blob store.
type FileRecord struct {
	UserID    string `dynamodbav:"user_id" json:"-"`
	FileID    string `dynamodbav:"file_id" json:"id"`
	Filename  string `dynamodbav:"filename" json:"filename"`
	Extension string `dynamodbav:"extension" json:"extension"`

	// Unix seconds, set once at ingest
	UploadTime int64 `dynamodbav:"upload_time" json:"upload_time"`

	// Hex-encoded SHA-256 of the raw bytes, set once at ingest
	Hash string `dynamodbav:"hash" json:"-"`

	// Whole seconds. nil means unknown, which is not the same as 0
	Duration *int64 `dynamodbav:"duration" json:"duration"`

	Status string `dynamodbav:"status" json:"status"`

	// Set only after a successful transcription has been retrieved
	Language string `dynamodbav:"language,omitempty" json:"language,omitempty"`

	// Informational only. The bucket is private, so reads must go through
	// presigned URLs, never through this stored value
	URL string `dynamodbav:"url" json:"url"`
}

// AudioKey is where the raw upload lives in the blob store. FileID is
// globally unique, so keys never collide across users either.
func (f *FileRecord) AudioKey() string {
	return fmt.Sprintf("%s/%s_%s", f.UserID, f.FileID, f.Filename)
}

// ResultKey is where the job runner writes the transcription result.
// Its presence is the durable completion signal.
func (f *FileRecord) ResultKey() string {
	return ResultKey(f.UserID, f.FileID)
}

// SummaryKey is where generated summaries are stored, overwritten on
// every recompute.
func (f *FileRecord) SummaryKey() string {
	return fmt.Sprintf("%s/%s_summary.txt", f.UserID, f.FileID)
}

func ResultKey(userID, fileID string) string {
	return fmt.Sprintf("%s/%s.json", userID, fileID)
}
