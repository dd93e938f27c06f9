package service

import (
	"context"
	"testing"
	"time"

	"hearly/transcription-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatsFixture() (*lifecycleFixture, *Stats) {
	f := newLifecycleFixture()
	s := NewStats(f.l)
	return f, s
}

func seedCompleted(f *lifecycleFixture, fileID, language string, uploadTime int64, duration int64) {
	rec := model.FileRecord{
		UserID:     "u1",
		FileID:     fileID,
		Filename:   fileID + ".wav",
		Status:     model.StatusCompleted,
		Language:   language,
		UploadTime: uploadTime,
	}
	if duration >= 0 {
		rec.Duration = &duration
	}
	f.files.recs[recKey("u1", fileID)] = &rec
}

func TestLanguageDistribution(t *testing.T) {
	f, s := newStatsFixture()
	now := time.Now().Unix()

	seedCompleted(f, "f1", "en", now, 10)
	seedCompleted(f, "f2", "en", now, 10)
	seedCompleted(f, "f3", "en", now, 10)
	seedCompleted(f, "f4", "it", now, 10)

	// Pending records never count
	seedRecord(f, model.FileRecord{UserID: "u1", FileID: "f5", Filename: "p.wav"})

	dist, err := s.LanguageDistribution(context.Background(), u1)
	require.NoError(t, err)
	assert.Equal(t, 4, dist.TotalTranscriptions)
	assert.Equal(t, map[string]float64{"en": 75.0, "it": 25.0}, dist.Languages)
}

func TestLanguageDistributionUnknownBucket(t *testing.T) {
	f, s := newStatsFixture()
	seedCompleted(f, "f1", "", time.Now().Unix(), 10)

	dist, err := s.LanguageDistribution(context.Background(), u1)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"unknown": 100.0}, dist.Languages)
}

func TestLanguageDistributionEmpty(t *testing.T) {
	_, s := newStatsFixture()

	dist, err := s.LanguageDistribution(context.Background(), u1)
	require.NoError(t, err, "no data is not an error")
	assert.Equal(t, 0, dist.TotalTranscriptions)
	assert.Empty(t, dist.Languages)
}

func TestRecentActivityWindowShape(t *testing.T) {
	f, s := newStatsFixture()
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }

	// Two uploads today, one 10 days ago, one outside the window
	seedCompleted(f, "f1", "en", now.Unix(), 10)
	seedCompleted(f, "f2", "en", now.Add(-2*time.Hour).Unix(), 10)
	seedCompleted(f, "f3", "en", now.AddDate(0, 0, -10).Unix(), 10)
	seedCompleted(f, "f4", "en", now.AddDate(0, 0, -45).Unix(), 10)

	activity, err := s.RecentActivity(context.Background(), u1)
	require.NoError(t, err)

	require.Len(t, activity.ActivityData, 30, "always exactly 30 buckets, zero-filled")
	assert.Equal(t, 3, activity.TotalUploads)
	assert.Equal(t, 2, activity.ActiveDays)

	// Oldest to newest
	for i := 1; i < len(activity.ActivityData); i++ {
		assert.Less(t, activity.ActivityData[i-1].Date, activity.ActivityData[i].Date)
	}

	last := activity.ActivityData[len(activity.ActivityData)-1]
	assert.Equal(t, now.Format("2006-01-02"), last.Date)
	assert.Equal(t, 2, last.Uploads)
}

func TestRecentActivityEmpty(t *testing.T) {
	_, s := newStatsFixture()

	activity, err := s.RecentActivity(context.Background(), u1)
	require.NoError(t, err)
	require.Len(t, activity.ActivityData, 30)
	assert.Equal(t, 0, activity.TotalUploads)
	assert.Equal(t, 0, activity.ActiveDays)
}

func TestTotalDuration(t *testing.T) {
	f, s := newStatsFixture()

	seedCompleted(f, "f1", "en", 1000, 3600)
	seedCompleted(f, "f2", "en", 2000, 125)
	seedCompleted(f, "f3", "en", 1500, -1) // unknown duration, still counted as a file

	// Pending files contribute nothing
	seedRecord(f, model.FileRecord{UserID: "u1", FileID: "f4", Filename: "p.wav", UploadTime: 9999})

	total, err := s.TotalDuration(context.Background(), u1)
	require.NoError(t, err)
	assert.Equal(t, "01:02:05", total.TotalDuration)
	assert.EqualValues(t, 3725, total.TotalSeconds)
	assert.Equal(t, 3, total.CompletedFiles)
	assert.EqualValues(t, 2000, total.LatestTranscription)
}

func TestTotalDurationEmpty(t *testing.T) {
	_, s := newStatsFixture()

	total, err := s.TotalDuration(context.Background(), u1)
	require.NoError(t, err)
	assert.Equal(t, "00:00:00", total.TotalDuration)
	assert.Equal(t, 0, total.CompletedFiles)
	assert.EqualValues(t, 0, total.LatestTranscription)
}
