package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/report"
	"github.com/eakgun/intervo/internal/store"
)

// InterviewAPI serves the request/response endpoints around a finished
// interview: report generation + persistence, and follow-up questions.
type InterviewAPI struct {
	Reports *report.Generator
	Store   *store.Supabase
}

func NewInterviewAPI(reports *report.Generator, st *store.Supabase) *InterviewAPI {
	return &InterviewAPI{Reports: reports, Store: st}
}

type createInterviewRequest struct {
	CandidateID    string `json:"candidate_id"`
	CandidateName  string `json:"candidate_name" binding:"required"`
	CandidateEmail string `json:"candidate_email"`
	Transcript     string `json:"transcript" binding:"required"`
	Language       string `json:"language"`
}

type createInterviewResponse struct {
	ID          string        `json:"id"`
	Score10     float64       `json:"score_10"`
	StatusLabel string        `json:"status_label"`
	ReportJSON  report.Report `json:"report_json"`
}

// CreateInterview generates the evaluation report from the transcript and
// stores the finished session.
func (a *InterviewAPI) CreateInterview(c *gin.Context) {
	var req createInterviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if a.Reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report generation is not configured"})
		return
	}

	rep, err := a.Reports.Generate(c.Request.Context(), req.Transcript)
	if err != nil {
		if errors.Is(err, report.ErrTranscriptTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transcript too short"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("report generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}

	score10 := report.Score10(rep.OverallScore)
	label := report.StatusLabel(score10)

	id, err := a.Store.InsertInterview(c.Request.Context(), store.InterviewRow{
		CandidateID:    req.CandidateID,
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		Score10:        score10,
		StatusLabel:    label,
		ReportJSON:     rep,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("interview insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store interview session"})
		return
	}

	log.Info().Str("module", "adapters.http").Str("id", id).Float64("score_10", score10).Str("status", label).Msg("interview session created")
	c.JSON(http.StatusOK, createInterviewResponse{
		ID:          id,
		Score10:     score10,
		StatusLabel: label,
		ReportJSON:  rep,
	})
}

type questionsRequest struct {
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
}

// SuggestQuestions returns follow-up question suggestions for the interviewer.
func (a *InterviewAPI) SuggestQuestions(c *gin.Context) {
	var req questionsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if a.Reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "question generation is not configured"})
		return
	}

	questions, err := a.Reports.Questions(c.Request.Context(), req.Transcript)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("question generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "question generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}
