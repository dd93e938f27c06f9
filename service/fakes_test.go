package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"hearly/transcription-api/apperr"
	"hearly/transcription-api/model"
)

// In-memory stand-ins for the managed services. They also record the
// order of writes so the ingest and delete orderings can be asserted.

type fakeMetadataStore struct {
	mu   sync.Mutex
	recs map[string]*model.FileRecord
	log  *[]string

	putErr    error
	setErr    error
	deleteErr error
}

func newFakeMetadataStore(log *[]string) *fakeMetadataStore {
	return &fakeMetadataStore{recs: make(map[string]*model.FileRecord), log: log}
}

func recKey(userID, fileID string) string {
	return userID + "/" + fileID
}

func (s *fakeMetadataStore) GetFile(_ context.Context, userID, fileID string) (*model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[recKey(userID, fileID)]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "File not found in database")
	}

	cp := *rec
	return &cp, nil
}

func (s *fakeMetadataStore) PutFile(_ context.Context, rec *model.FileRecord) error {
	if s.putErr != nil {
		return s.putErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.recs[recKey(rec.UserID, rec.FileID)] = &cp
	if s.log != nil {
		*s.log = append(*s.log, "meta.put "+rec.FileID)
	}
	return nil
}

func (s *fakeMetadataStore) SetResult(_ context.Context, userID, fileID, status, language string) error {
	if s.setErr != nil {
		return s.setErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[recKey(userID, fileID)]
	if !ok {
		return apperr.New(apperr.KindNotFound, "File not found in database")
	}

	rec.Status = status
	if language != "" {
		rec.Language = language
	}
	if s.log != nil {
		*s.log = append(*s.log, fmt.Sprintf("meta.set %s %s %s", fileID, status, language))
	}
	return nil
}

func (s *fakeMetadataStore) DeleteFile(_ context.Context, userID, fileID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.recs, recKey(userID, fileID))
	if s.log != nil {
		*s.log = append(*s.log, "meta.delete "+fileID)
	}
	return nil
}

func (s *fakeMetadataStore) ListFiles(_ context.Context, userID string) ([]model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.FileRecord
	for _, rec := range s.recs {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	log     *[]string

	putErr    error
	getErr    error
	headErr   error
	deleteErr error
}

func newFakeBlobStore(bucket string, log *[]string) *fakeBlobStore {
	return &fakeBlobStore{bucket: bucket, objects: make(map[string][]byte), log: log}
}

func (s *fakeBlobStore) BucketName() string {
	return s.bucket
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return s.PutBytes(ctx, key, b, contentType)
}

func (s *fakeBlobStore) PutBytes(_ context.Context, key string, b []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = b
	if s.log != nil {
		*s.log = append(*s.log, "blob.put "+key)
	}
	return nil
}

func (s *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.objects[key]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "failed to read '%s'", key)
	}
	return b, nil
}

func (s *fakeBlobStore) Head(_ context.Context, key string) error {
	if s.headErr != nil {
		return s.headErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return apperr.Newf(apperr.KindNotFound, "object '%s' not reachable", key)
	}
	return nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return apperr.Newf(apperr.KindNotFound, "failed to delete '%s'", key)
	}

	delete(s.objects, key)
	if s.log != nil {
		*s.log = append(*s.log, "blob.delete "+key)
	}
	return nil
}

func (s *fakeBlobStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type fakeJobRunner struct {
	jobs    []JobStatus
	listErr error

	jobName     string
	dispatchErr error
	dispatched  []JobLocator
}

func (r *fakeJobRunner) Dispatch(_ context.Context, loc JobLocator) (string, error) {
	if r.dispatchErr != nil {
		return "", r.dispatchErr
	}
	r.dispatched = append(r.dispatched, loc)
	return r.jobName, nil
}

func (r *fakeJobRunner) ListRecentJobs(_ context.Context) ([]JobStatus, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.jobs, nil
}

type fakeSummarizer struct {
	out string
	err error
}

func (s *fakeSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}

type lifecycleFixture struct {
	files     *fakeMetadataStore
	audio     *fakeBlobStore
	results   *fakeBlobStore
	summaries *fakeBlobStore
	jobs      *fakeJobRunner
	llm       *fakeSummarizer
	log       []string

	l *Lifecycle
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{}
	f.files = newFakeMetadataStore(&f.log)
	f.audio = newFakeBlobStore("cc-bucket-audio", &f.log)
	f.results = newFakeBlobStore("cc-transcribe-output", &f.log)
	f.summaries = newFakeBlobStore("cc-summaries", &f.log)
	f.jobs = &fakeJobRunner{jobName: "u1__job"}
	f.llm = &fakeSummarizer{out: "a short summary"}

	f.l = NewLifecycle(f.files, f.audio, f.results, f.summaries, f.jobs, f.llm)
	return f
}
