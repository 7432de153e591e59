package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/p-n-ai/koulutus-bot/internal/content"
	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/education"
	"github.com/p-n-ai/koulutus-bot/internal/export"
)

func (s *Server) handleContentTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"contentTypes": education.ContentTypes(),
		"subjects":     education.Subjects(),
		"gradeLevels":  education.GradeLevels(),
	})
}

type parseRequest struct {
	ContentType string `json:"contentType"`
	Raw         string `json:"raw"`
}

type parseResponse struct {
	Content    education.Content           `json:"content"`
	Validation *education.ValidationResult `json:"validation,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaParse)
	if !ok {
		return
	}
	var req parseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	ct, err := education.ParseContentType(req.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported content type")
		return
	}

	parsed, err := education.Parse(req.Raw, ct)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Failed to parse generated content", err.Error())
		return
	}
	resp := parseResponse{Content: parsed}
	if q, ok := parsed.(*education.Quiz); ok {
		v := education.ValidateQuiz(q)
		resp.Validation = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	recs, err := s.repo.ListByUser(r.Context(), userFrom(r.Context()), limit)
	if err != nil {
		slog.Error("list content failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": recs})
}

// loadRecord fetches a record the caller may read: their own, or one
// shared publicly or by link.
func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (content.Record, bool) {
	rec, err := s.repo.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, content.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Content not found")
		return content.Record{}, false
	}
	if err != nil {
		slog.Error("get content failed", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return content.Record{}, false
	}
	sharing := rec.Data.SharingSettings
	if rec.UserID != userFrom(r.Context()) && !sharing.Public && !sharing.LinkSharing {
		writeError(w, http.StatusNotFound, "Content not found")
		return content.Record{}, false
	}
	return rec, true
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaGrade)
	if !ok {
		return
	}
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	var req struct {
		Answers map[int]json.RawMessage `json:"answers"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid answers")
		return
	}

	switch c := rec.Data.ContentData.(type) {
	case *education.Quiz:
		answers := make(map[int]int, len(req.Answers))
		for id, raw := range req.Answers {
			var idx int
			if err := json.Unmarshal(raw, &idx); err != nil {
				writeError(w, http.StatusBadRequest, "Quiz answers must be option indexes")
				return
			}
			answers[id] = idx
		}
		writeJSON(w, http.StatusOK, education.GradeQuiz(c, answers))
	case *education.ExerciseSet:
		answers := make(map[int]string, len(req.Answers))
		for id, raw := range req.Answers {
			answers[id] = answerText(raw)
		}
		writeJSON(w, http.StatusOK, education.GradeExercises(c, answers))
	default:
		writeError(w, http.StatusBadRequest, "Content type cannot be graded")
	}
}

// answerText accepts a JSON string or a bare number.
func answerText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rec.Data.ContentData); err != nil {
		slog.Error("export failed", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleSharing updates a record's sharing settings. Fields left out of
// the body keep their current value. Only the owner may change them.
func (s *Server) handleSharing(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaSharing)
	if !ok {
		return
	}
	var req struct {
		Public      *bool `json:"public"`
		LinkSharing *bool `json:"link_sharing"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}

	sharing := rec.Data.SharingSettings
	if req.Public != nil {
		sharing.Public = *req.Public
	}
	if req.LinkSharing != nil {
		sharing.LinkSharing = *req.LinkSharing
	}
	updated, err := s.repo.UpdateSharing(r.Context(), rec.ID, userFrom(r.Context()), sharing)
	if errors.Is(err, content.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Content not found")
		return
	}
	if err != nil {
		slog.Error("update sharing failed", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type saveContentRequest struct {
	ContentDetails *struct {
		ContentType         string          `json:"contentType"`
		Title               string          `json:"title"`
		Description         string          `json:"description"`
		Subject             string          `json:"subject"`
		GradeLevel          string          `json:"gradeLevel"`
		Language            string          `json:"language"`
		CurriculumStandards []string        `json:"curriculumStandards"`
		ContentData         json.RawMessage `json:"contentData"`
	} `json:"contentDetails"`
	CreditCost int `json:"creditCost"`
}

func (s *Server) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r, schemaSaveContent)
	if !ok {
		return
	}
	var req saveContentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ContentDetails == nil || req.CreditCost <= 0 {
		writeError(w, http.StatusBadRequest, "Missing content details or credit cost")
		return
	}
	d := req.ContentDetails

	ct, err := education.ParseContentType(d.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported content type")
		return
	}
	data, err := education.DecodeContent(ct, d.ContentData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid content data", err.Error())
		return
	}

	language := d.Language
	if language == "" {
		language = education.DefaultLanguage
	}
	rec := content.Record{
		UserID:      userFrom(r.Context()),
		Description: d.Description,
		Data: education.StorageRecord{
			ContentType:         ct,
			Title:               d.Title,
			Subject:             d.Subject,
			GradeLevel:          d.GradeLevel,
			Language:            language,
			CurriculumStandards: d.CurriculumStandards,
			ContentData:         data,
		},
	}
	saved, remaining, err := s.repo.SaveWithDeduction(r.Context(), rec, req.CreditCost, credits.Details{
		ContentType: string(ct),
		Subject:     d.Subject,
		GradeLevel:  d.GradeLevel,
	})
	if err != nil {
		var insufficient *credits.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			writeError(w, http.StatusPaymentRequired, insufficient.Error())
			return
		}
		slog.Error("save content failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save content")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contentId":        saved.ID,
		"creditsUsed":      req.CreditCost,
		"creditsRemaining": remaining,
	})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.Balance(r.Context(), userFrom(r.Context()))
	if err != nil {
		slog.Error("read balance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch user profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"creditsRemaining": balance})
}
