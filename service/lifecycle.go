package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"hearly/transcription-api/apperr"
	"hearly/transcription-api/auth"
	"hearly/transcription-api/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// How long presigned read URLs stay valid for file listings
const presignExpiry = 2 * time.Hour

// Lifecycle owns the file state machine: ingest, job dispatch, status
// reconciliation, result retrieval and deletion. It is the only writer
// of file records. There is no in-process locking; the metadata store's
// per-item atomicity plus idempotent status writes carry concurrent
// polls, and a delete racing a poll may surface a transient not-found.
type Lifecycle struct {
	Files     MetadataStore
	Audio     BlobStore
	Results   BlobStore
	Summaries BlobStore
	Jobs      JobRunner
	LLM       Summarizer

	now func() time.Time
}

func NewLifecycle(files MetadataStore, audio, results, summaries BlobStore, jobs JobRunner, llm Summarizer) *Lifecycle {
	return &Lifecycle{
		Files:     files,
		Audio:     audio,
		Results:   results,
		Summaries: summaries,
		Jobs:      jobs,
		LLM:       llm,
		now:       time.Now,
	}
}

// IngestResult is what upload responds with.
type IngestResult struct {
	Filename string `json:"filename"`
	ID       string `json:"id"`
	URL      string `json:"url"`
}

// Ingest stores the raw bytes and creates the PENDING record. The blob
// goes in first: a failed blob write creates no record, while a failed
// record write after a successful blob write leaves an orphan blob.
// That window is accepted and logged, never silently retried.
func (l *Lifecycle) Ingest(ctx context.Context, id auth.Identity, filename string, raw []byte) (*IngestResult, error) {
	sum := sha256.Sum256(raw)

	rec := &model.FileRecord{
		UserID:     id.Username(),
		FileID:     uuid.NewString(),
		Filename:   filename,
		Extension:  strings.ToLower(path.Ext(filename)),
		UploadTime: l.now().Unix(),
		Hash:       hex.EncodeToString(sum[:]),
		Status:     model.StatusPending,
	}
	rec.URL = fmt.Sprintf("https://%s.s3.amazonaws.com/%s", l.Audio.BucketName(), rec.AudioKey())

	// Best effort only. An unreadable container leaves duration unknown,
	// it never fails the ingest
	if secs, ok := ProbeDuration(raw); ok {
		rec.Duration = &secs
	}

	contentType := mimetype.Detect(raw).String()

	err := l.Audio.Put(ctx, rec.AudioKey(), bytes.NewReader(raw), int64(len(raw)), contentType)
	if err != nil {
		return nil, err
	}

	if err := l.Files.PutFile(ctx, rec); err != nil {
		zap.L().Error("Orphan blob left behind after failed record write",
			zap.String("key", rec.AudioKey()),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("File ingested",
		zap.String("userID", rec.UserID),
		zap.String("fileID", rec.FileID),
		zap.Int("size", len(raw)))

	return &IngestResult{
		Filename: rec.Filename,
		ID:       rec.FileID,
		URL:      rec.URL,
	}, nil
}

// DispatchResult acknowledges that transcription work has started.
type DispatchResult struct {
	Status  string `json:"status"`
	JobName string `json:"job_name"`
	FileID  string `json:"file_id"`
	FileKey string `json:"file_key"`
}

// Dispatch hands the stored audio to the job runner. The record's
// status is left untouched; completion is only ever observed by Poll.
func (l *Lifecycle) Dispatch(ctx context.Context, id auth.Identity, fileID string) (*DispatchResult, error) {
	rec, err := l.Files.GetFile(ctx, id.Username(), fileID)
	if err != nil {
		return nil, err
	}

	// A record without a filename can't be mapped back to its blob.
	// That's a data integrity problem, not a missing file
	if rec.Filename == "" {
		return nil, apperr.New(apperr.KindIntegrity, "Filename not found in database")
	}

	// Confirm the blob actually exists before paying for an external
	// job against a missing object
	if err := l.Audio.Head(ctx, rec.AudioKey()); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Newf(apperr.KindNotFound, "File not found in storage: %s", rec.AudioKey())
		}
		return nil, err
	}

	jobName, err := l.Jobs.Dispatch(ctx, JobLocator{
		Bucket:   l.Audio.BucketName(),
		Key:      rec.AudioKey(),
		Username: id.Username(),
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transcription dispatched",
		zap.String("fileID", fileID),
		zap.String("job", jobName))

	return &DispatchResult{
		Status:  "processing",
		JobName: jobName,
		FileID:  fileID,
		FileKey: rec.AudioKey(),
	}, nil
}

// PollResult is the envelope returned while a transcription is pending
// or once it completed. "Still working on it" is a status, not an error.
type PollResult struct {
	FileID        string `json:"file_id"`
	Status        string `json:"status"`
	Transcription string `json:"transcription,omitempty"`
	Language      string `json:"language,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Shape of the result document the job runner writes. Only the pieces
// needed here are decoded.
type transcriptDoc struct {
	Results struct {
		LanguageCode string `json:"language_code"`
		Transcripts  []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Poll reports the current state of a transcription. With checkStatus
// set it consults the runner's job listing first, but a listing miss is
// never proof of absence: jobs age out of the listing while their result
// documents live on, so it always falls back to reading the result blob.
func (l *Lifecycle) Poll(ctx context.Context, id auth.Identity, fileID string, checkStatus bool) (*PollResult, error) {
	if !checkStatus {
		return l.fetchResult(ctx, id, fileID)
	}

	resultKey := model.ResultKey(id.Username(), fileID)

	jobs, err := l.Jobs.ListRecentJobs(ctx)
	if err != nil {
		// Best-effort view, the result document decides anyway
		zap.L().Warn("Job listing unavailable, falling back to result document", zap.Error(err))
	} else if job, ok := matchJob(jobs, resultKey); ok && job.State != JobStateCompleted {
		return &PollResult{
			FileID:  fileID,
			Status:  job.State,
			Message: "Processing in progress: " + job.State,
		}, nil
	}

	res, err := l.fetchResult(ctx, id, fileID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return &PollResult{
				FileID:  fileID,
				Status:  "UNKNOWN",
				Message: "Transcription still in progress",
			}, nil
		}
		return nil, err
	}
	return res, nil
}

func matchJob(jobs []JobStatus, resultKey string) (JobStatus, bool) {
	for _, j := range jobs {
		if j.OutputLocation != "" && strings.HasSuffix(j.OutputLocation, resultKey) {
			return j, true
		}
	}
	return JobStatus{}, false
}

// fetchResult reads the durable result document and, when it is well
// formed, persists language and COMPLETED onto the record. The write is
// idempotent: repeated polls rewrite the same values.
func (l *Lifecycle) fetchResult(ctx context.Context, id auth.Identity, fileID string) (*PollResult, error) {
	key := model.ResultKey(id.Username(), fileID)

	raw, err := l.Results.Get(ctx, key)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.New(apperr.KindNotFound, "Transcription not found")
		}
		return nil, err
	}

	var doc transcriptDoc
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.Results.Transcripts) == 0 {
		// Malformed documents are reported, the record is deliberately
		// not forced into a terminal state here
		zap.L().Error("Result document is malformed", zap.String("key", key), zap.Error(err))
		return &PollResult{
			FileID:  fileID,
			Status:  model.StatusError,
			Message: "The transcript format is invalid",
		}, nil
	}

	transcript := doc.Results.Transcripts[0].Transcript
	language := doc.Results.LanguageCode

	if err := l.Files.SetResult(ctx, id.Username(), fileID, model.StatusCompleted, language); err != nil {
		return nil, err
	}

	return &PollResult{
		FileID:        fileID,
		Status:        model.StatusCompleted,
		Transcription: transcript,
		Language:      language,
	}, nil
}

// SummaryResult is what the summarize endpoint responds with.
type SummaryResult struct {
	Summary string `json:"summary"`
	FileID  string `json:"file_id"`
}

// Summarize generates (or regenerates) a summary for a completed
// transcription and stores it, overwriting any previous one. Summarizer
// failures are shielded: details go to the log, callers get a generic
// service error.
func (l *Lifecycle) Summarize(ctx context.Context, id auth.Identity, fileID string) (*SummaryResult, error) {
	res, err := l.fetchResult(ctx, id, fileID)
	if err != nil {
		return nil, err
	}

	if res.Status != model.StatusCompleted || res.Transcription == "" {
		return nil, apperr.New(apperr.KindNotFound, "Transcription not found")
	}

	summary, err := l.LLM.Summarize(ctx, res.Transcription)
	if err != nil {
		zap.L().Error("Summarizer call failed", zap.String("fileID", fileID), zap.Error(err))
		return nil, apperr.New(apperr.KindService, "Error generating summary")
	}

	key := fmt.Sprintf("%s/%s_summary.txt", id.Username(), fileID)
	if err := l.Summaries.PutBytes(ctx, key, []byte(summary), "text/plain"); err != nil {
		zap.L().Error("Failed to store summary", zap.String("key", key), zap.Error(err))
		return nil, apperr.New(apperr.KindService, "Error saving summary")
	}

	return &SummaryResult{Summary: summary, FileID: fileID}, nil
}

// DeleteResult confirms a deletion.
type DeleteResult struct {
	Message  string `json:"message"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// Delete removes the blobs first and the record last, so a crash mid
// way leaves a record pointing at partially deleted blobs (re-driveable
// by calling Delete again) rather than undiscoverable dangling blobs.
// Blobs that are already gone are tolerated; any other blob error
// aborts before the record is touched.
func (l *Lifecycle) Delete(ctx context.Context, id auth.Identity, fileID string) (*DeleteResult, error) {
	rec, err := l.Files.GetFile(ctx, id.Username(), fileID)
	if err != nil {
		return nil, err
	}

	if rec.Filename == "" {
		return nil, apperr.New(apperr.KindIntegrity, "Filename not found in database")
	}

	if err := l.Audio.Delete(ctx, rec.AudioKey()); err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	// A result document or summary may never have been produced,
	// that's fine
	if err := l.Results.Delete(ctx, rec.ResultKey()); err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	if err := l.Summaries.Delete(ctx, rec.SummaryKey()); err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	if err := l.Files.DeleteFile(ctx, id.Username(), fileID); err != nil {
		return nil, err
	}

	zap.L().Info("File deleted",
		zap.String("userID", id.Username()),
		zap.String("fileID", fileID))

	return &DeleteResult{
		Message:  "File deleted successfully",
		FileID:   fileID,
		Filename: rec.Filename,
	}, nil
}

// List returns the user's records newest first, each carrying a fresh
// presigned read URL. The stored url column is never handed out since
// the bucket is private.
func (l *Lifecycle) List(ctx context.Context, id auth.Identity) ([]model.FileRecord, error) {
	recs, err := l.Files.ListFiles(ctx, id.Username())
	if err != nil {
		return nil, err
	}

	for i := range recs {
		if recs[i].URL == "" {
			continue
		}

		signed, err := l.Audio.PresignGet(ctx, recs[i].AudioKey(), presignExpiry)
		if err != nil {
			zap.L().Warn("Failed to presign file URL", zap.String("fileID", recs[i].FileID), zap.Error(err))
			recs[i].URL = ""
			continue
		}
		recs[i].URL = signed
	}

	return recs, nil
}

// RecordsFor exposes the raw record set for the read-only reporters.
func (l *Lifecycle) RecordsFor(ctx context.Context, id auth.Identity) ([]model.FileRecord, error) {
	return l.Files.ListFiles(ctx, id.Username())
}
