package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"hearly/transcription-api/auth"
	"hearly/transcription-api/model"
)

const activityWindowDays = 30

// Stats derives usage reports from the lifecycle manager's read surface.
// Everything here is read-only and tolerant of empty input: no data
// means zeroed reports, never an error.
type Stats struct {
	Files *Lifecycle

	now func() time.Time
}

func NewStats(files *Lifecycle) *Stats {
	return &Stats{Files: files, now: time.Now}
}

type LanguageDistribution struct {
	Username            string             `json:"username"`
	TotalTranscriptions int                `json:"total_transcriptions"`
	Languages           map[string]float64 `json:"languages"`
	Message             string             `json:"message"`
}

// LanguageDistribution buckets COMPLETED records by detected language
// and converts counts to percentages rounded to two decimals. Records
// without a language land in the "unknown" bucket.
func (s *Stats) LanguageDistribution(ctx context.Context, id auth.Identity) (*LanguageDistribution, error) {
	recs, err := s.Files.RecordsFor(ctx, id)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	total := 0

	for _, r := range recs {
		if r.Status != model.StatusCompleted {
			continue
		}

		lang := r.Language
		if lang == "" {
			lang = "unknown"
		}
		counts[lang]++
		total++
	}

	if total == 0 {
		return &LanguageDistribution{
			Username:  id.Username(),
			Languages: map[string]float64{},
			Message:   "No completed transcriptions found",
		}, nil
	}

	dist := make(map[string]float64, len(counts))
	for lang, n := range counts {
		dist[lang] = math.Round(float64(n)/float64(total)*100*100) / 100
	}

	return &LanguageDistribution{
		Username:            id.Username(),
		TotalTranscriptions: total,
		Languages:           dist,
		Message:             "Data retrieved successfully",
	}, nil
}

type ActivityDay struct {
	Date    string `json:"date"`
	Day     string `json:"day"`
	Uploads int    `json:"uploads"`
}

type RecentActivity struct {
	Username     string        `json:"username"`
	PeriodDays   int           `json:"period_days"`
	ActivityData []ActivityDay `json:"activity_data"`
	TotalUploads int           `json:"total_uploads"`
	ActiveDays   int           `json:"active_days"`
	Message      string        `json:"message"`
}

// RecentActivity buckets uploads of the trailing 30 days by calendar
// day (local day boundary), zero-filled and ordered oldest to newest.
func (s *Stats) RecentActivity(ctx context.Context, id auth.Identity) (*RecentActivity, error) {
	recs, err := s.Files.RecordsFor(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	counts := make(map[string]int, activityWindowDays)

	for i := 0; i < activityWindowDays; i++ {
		counts[now.AddDate(0, 0, -i).Format("2006-01-02")] = 0
	}

	for _, r := range recs {
		if r.UploadTime == 0 {
			continue
		}

		day := time.Unix(r.UploadTime, 0).Format("2006-01-02")
		if _, inWindow := counts[day]; inWindow {
			counts[day]++
		}
	}

	days := make([]ActivityDay, 0, activityWindowDays)
	total := 0
	active := 0

	for i := activityWindowDays - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		n := counts[d.Format("2006-01-02")]

		days = append(days, ActivityDay{
			Date:    d.Format("2006-01-02"),
			Day:     d.Format("02/01"),
			Uploads: n,
		})

		total += n
		if n > 0 {
			active++
		}
	}

	return &RecentActivity{
		Username:     id.Username(),
		PeriodDays:   activityWindowDays,
		ActivityData: days,
		TotalUploads: total,
		ActiveDays:   active,
		Message:      "Activity data retrieved successfully",
	}, nil
}

type TotalDuration struct {
	Username       string `json:"username"`
	TotalDuration  string `json:"total_duration"`
	TotalSeconds   int64  `json:"total_seconds"`
	CompletedFiles int    `json:"completed_files"`

	// Unix seconds of the most recent completed upload, 0 when none
	LatestTranscription int64 `json:"latest_transcription_date"`
}

// TotalDuration sums the known durations of COMPLETED records, formats
// the total as HH:MM:SS and reports the newest completed upload time.
func (s *Stats) TotalDuration(ctx context.Context, id auth.Identity) (*TotalDuration, error) {
	recs, err := s.Files.RecordsFor(ctx, id)
	if err != nil {
		return nil, err
	}

	var totalSecs, latest int64
	completed := 0

	for _, r := range recs {
		if r.Status != model.StatusCompleted {
			continue
		}

		completed++
		if r.Duration != nil {
			totalSecs += *r.Duration
		}
		if r.UploadTime > latest {
			latest = r.UploadTime
		}
	}

	return &TotalDuration{
		Username:            id.Username(),
		TotalDuration:       formatHMS(totalSecs),
		TotalSeconds:        totalSecs,
		CompletedFiles:      completed,
		LatestTranscription: latest,
	}, nil
}

func formatHMS(secs int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
