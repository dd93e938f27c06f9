package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hearly/transcription-api/apperr"
	"hearly/transcription-api/auth"
	"hearly/transcription-api/middleware"
	"hearly/transcription-api/model"
	"hearly/transcription-api/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Map-backed stand-ins, just enough surface for the handler tests.

type memMeta struct {
	recs map[string]*model.FileRecord
}

func (m *memMeta) key(u, f string) string { return u + "/" + f }

func (m *memMeta) GetFile(_ context.Context, u, f string) (*model.FileRecord, error) {
	rec, ok := m.recs[m.key(u, f)]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "File not found in database")
	}
	cp := *rec
	return &cp, nil
}

func (m *memMeta) PutFile(_ context.Context, rec *model.FileRecord) error {
	cp := *rec
	m.recs[m.key(rec.UserID, rec.FileID)] = &cp
	return nil
}

func (m *memMeta) SetResult(_ context.Context, u, f, status, language string) error {
	rec, ok := m.recs[m.key(u, f)]
	if !ok {
		return apperr.New(apperr.KindNotFound, "File not found in database")
	}
	rec.Status = status
	if language != "" {
		rec.Language = language
	}
	return nil
}

func (m *memMeta) DeleteFile(_ context.Context, u, f string) error {
	delete(m.recs, m.key(u, f))
	return nil
}

func (m *memMeta) ListFiles(_ context.Context, u string) ([]model.FileRecord, error) {
	out := []model.FileRecord{}
	for _, rec := range m.recs {
		if rec.UserID == u {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type memBlob struct {
	bucket  string
	objects map[string][]byte
}

func (b *memBlob) BucketName() string { return b.bucket }

func (b *memBlob) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.objects[key] = raw
	return nil
}

func (b *memBlob) PutBytes(_ context.Context, key string, raw []byte, _ string) error {
	b.objects[key] = raw
	return nil
}

func (b *memBlob) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := b.objects[key]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "failed to read '%s'", key)
	}
	return raw, nil
}

func (b *memBlob) Head(_ context.Context, key string) error {
	if _, ok := b.objects[key]; !ok {
		return apperr.Newf(apperr.KindNotFound, "object '%s' not reachable", key)
	}
	return nil
}

func (b *memBlob) Delete(_ context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

func (b *memBlob) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type memRunner struct{}

func (memRunner) Dispatch(_ context.Context, _ service.JobLocator) (string, error) {
	return "u1__f1", nil
}

func (memRunner) ListRecentJobs(_ context.Context) ([]service.JobStatus, error) {
	return nil, nil
}

type memSummarizer struct{}

func (memSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return "a summary", nil
}

type testFixture struct {
	api     *API
	router  *gin.Engine
	meta    *memMeta
	audio   *memBlob
	results *memBlob
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Set("auth.allow_unverified", true)
	t.Cleanup(func() { viper.Set("auth.allow_unverified", false) })

	verifier, err := auth.NewVerifier(context.Background())
	require.NoError(t, err)

	f := &testFixture{
		meta:    &memMeta{recs: make(map[string]*model.FileRecord)},
		audio:   &memBlob{bucket: "audio", objects: make(map[string][]byte)},
		results: &memBlob{bucket: "out", objects: make(map[string][]byte)},
	}
	summaries := &memBlob{bucket: "summaries", objects: make(map[string][]byte)}

	lifecycle := service.NewLifecycle(f.meta, f.audio, f.results, summaries, memRunner{}, memSummarizer{})

	f.api = &API{
		Files:    lifecycle,
		Stats:    service.NewStats(lifecycle),
		Verifier: verifier,
	}

	router := gin.New()
	router.Use(middleware.NewRequestIDMiddleware())

	bearer := middleware.NewAuthMiddleware(verifier)

	router.GET("/files/", bearer, f.api.FileList)
	router.POST("/files/:fileID/delete", bearer, f.api.FileDelete)
	router.POST("/transcribe/:fileID", bearer, f.api.Transcribe)
	router.GET("/transcription/:fileID", bearer, f.api.Transcription)
	router.GET("/summarize/:fileID", bearer, f.api.Summarize)
	router.GET("/users/:username/language-distribution", f.api.LanguageDistribution)
	router.GET("/users/:username/recent-activity", f.api.RecentActivity)
	router.GET("/users/:username/total-duration", f.api.TotalDuration)

	f.router = router
	return f
}

func bearerToken(t *testing.T, username string) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + raw
}

func (f *testFixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestMissingTokenIsRejected(t *testing.T) {
	f := newTestFixture(t)

	for _, path := range []string{"/files/", "/transcription/f1", "/summarize/f1"} {
		w := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestTranscribeUnknownFileIs404(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, http.MethodPost, "/transcribe/nope", bearerToken(t, "u1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscribeDispatches(t *testing.T) {
	f := newTestFixture(t)
	rec := &model.FileRecord{UserID: "u1", FileID: "f1", Filename: "a.wav", Status: model.StatusPending}
	f.meta.recs["u1/f1"] = rec
	f.audio.objects[rec.AudioKey()] = []byte("audio")

	w := f.do(t, http.MethodPost, "/transcribe/f1", bearerToken(t, "u1"))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "processing", body["status"])
	assert.Equal(t, "f1", body["file_id"])
	assert.NotEmpty(t, body["job_name"])
}

func TestTranscriptionPollCompletes(t *testing.T) {
	f := newTestFixture(t)
	f.meta.recs["u1/f1"] = &model.FileRecord{UserID: "u1", FileID: "f1", Filename: "a.wav", Status: model.StatusPending}
	f.results.objects["u1/f1.json"] = []byte(`{"results":{"language_code":"en","transcripts":[{"transcript":"hello world"}]}}`)

	w := f.do(t, http.MethodGet, "/transcription/f1?check_status=true", bearerToken(t, "u1"))
	require.Equal(t, http.StatusOK, w.Code)

	var body service.PollResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hello world", body.Transcription)
	assert.Equal(t, "en", body.Language)
	assert.Equal(t, model.StatusCompleted, body.Status)

	assert.Equal(t, model.StatusCompleted, f.meta.recs["u1/f1"].Status)
}

func TestTranscriptionTrulyAbsentIs404(t *testing.T) {
	f := newTestFixture(t)
	f.meta.recs["u1/f1"] = &model.FileRecord{UserID: "u1", FileID: "f1", Filename: "a.wav", Status: model.StatusPending}

	w := f.do(t, http.MethodGet, "/transcription/f1", bearerToken(t, "u1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteThenListEmpty(t *testing.T) {
	f := newTestFixture(t)
	rec := &model.FileRecord{UserID: "u1", FileID: "f1", Filename: "a.wav", Status: model.StatusPending}
	f.meta.recs["u1/f1"] = rec
	f.audio.objects[rec.AudioKey()] = []byte("audio")

	w := f.do(t, http.MethodPost, "/files/f1/delete", bearerToken(t, "u1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/files/", bearerToken(t, "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestStatsRoutesArePublic(t *testing.T) {
	f := newTestFixture(t)
	lang := "en"
	dur := int64(60)
	f.meta.recs["u1/f1"] = &model.FileRecord{
		UserID: "u1", FileID: "f1", Filename: "a.wav",
		Status: model.StatusCompleted, Language: lang, Duration: &dur,
	}

	w := f.do(t, http.MethodGet, "/users/u1/language-distribution", "")
	require.Equal(t, http.StatusOK, w.Code)

	var dist service.LanguageDistribution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))
	assert.Equal(t, map[string]float64{"en": 100.0}, dist.Languages)

	w = f.do(t, http.MethodGet, "/users/u1/total-duration", "")
	require.Equal(t, http.StatusOK, w.Code)

	var total service.TotalDuration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &total))
	assert.Equal(t, "00:01:00", total.TotalDuration)
}
