// Package store persists finished interview sessions. Persistence is a single
// insert into Supabase's REST interface; schema design lives on the other side.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/report"
)

var ErrNotConfigured = errors.New("supabase is not configured")

// InterviewRow mirrors the interview_sessions table.
type InterviewRow struct {
	CandidateID    string        `json:"candidate_id,omitempty"`
	CandidateName  string        `json:"candidate_name"`
	CandidateEmail string        `json:"candidate_email,omitempty"`
	Score10        float64       `json:"score_10"`
	StatusLabel    string        `json:"status_label"`
	ReportJSON     report.Report `json:"report_json"`
}

type Supabase struct {
	http *resty.Client
}

func NewSupabase(url, serviceKey string) *Supabase {
	if url == "" || serviceKey == "" {
		return &Supabase{}
	}
	client := resty.New().
		SetBaseURL(url).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetHeader("Content-Type", "application/json")
	return &Supabase{http: client}
}

// InsertInterview writes one finished session and returns the created row id.
func (s *Supabase) InsertInterview(ctx context.Context, row InterviewRow) (string, error) {
	if s.http == nil {
		return "", ErrNotConfigured
	}

	var created []struct {
		ID string `json:"id"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(row).
		SetResult(&created).
		Post("/rest/v1/interview_sessions")
	if err != nil {
		return "", fmt.Errorf("supabase insert: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("supabase insert: %s", resp.Status())
	}
	if len(created) == 0 {
		return "", errors.New("supabase insert returned no rows")
	}
	log.Info().Str("module", "store.supabase").Str("id", created[0].ID).Msg("interview session stored")
	return created[0].ID, nil
}
