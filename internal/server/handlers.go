package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lcdkit/internal/evaluation"
	"lcdkit/internal/priority"
	"lcdkit/internal/rating"
	"lcdkit/internal/report"
	"lcdkit/internal/session"
	"lcdkit/internal/taxonomy"
)

type errorBody struct {
	Error string `json:"error"`
}

type checklistResponse struct {
	Concept   rating.Concept           `json:"concept"`
	Checklist evaluation.Data          `json:"checklist"`
	Editable  map[evaluation.Kind]bool `json:"editable"`
	Radar     map[string]float64       `json:"radar"`
}

type levelRequest struct {
	Level string `json:"level"`
}

type ratingRequest struct {
	Kind          string `json:"kind"`
	StrategyID    string `json:"strategy_id"`
	SubStrategyID string `json:"sub_strategy_id"`
	GuidelineID   string `json:"guideline_id"`
	Level         string `json:"level"`
}

type priorityRequest struct {
	StrategyID    string  `json:"strategy_id"`
	SubStrategyID string  `json:"sub_strategy_id"`
	Priority      *string `json:"priority"`
	Answer        *string `json:"answer"`
}

type prioritiesResponse struct {
	Evaluation priority.Evaluation             `json:"evaluation"`
	Display    map[string]rating.PriorityLevel `json:"display"`
	Computed   []string                        `json:"computed"`
}

type ideaUpdateRequest struct {
	Text *string  `json:"text"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
}

type insightRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	loaded := s.sess.Loaded()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "loaded": loaded})
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	strategies := s.sess.Taxonomy().Strategies()
	if strategies == nil {
		strategies = []taxonomy.Strategy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"strategies": strategies,
		"options":    s.vocab.Options(),
	})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subStrategyID")
	questions := s.sess.Questions(subID)
	if questions == nil {
		questions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sub_strategy_id": subID, "questions": questions})
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	concept, ok := conceptParam(w, r)
	if !ok {
		return
	}
	s.writeChecklist(w, concept)
}

func (s *Server) handleChecklistLevel(w http.ResponseWriter, r *http.Request) {
	concept, ok := conceptParam(w, r)
	if !ok {
		return
	}
	var req levelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	level, err := rating.ParseChecklistLevel(req.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sess.SetChecklistLevel(concept, level); err != nil {
		writeError(w, err)
		return
	}
	s.writeChecklist(w, concept)
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	concept, ok := conceptParam(w, r)
	if !ok {
		return
	}
	var req ratingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := req.ref()
	if err != nil {
		writeError(w, err)
		return
	}
	level, err := rating.ParseEvaluationLevel(req.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sess.SetEvaluation(concept, ref, level); err != nil {
		writeError(w, err)
		return
	}
	s.writeChecklist(w, concept)
}

func (s *Server) handleResetConcept(w http.ResponseWriter, r *http.Request) {
	concept, ok := conceptParam(w, r)
	if !ok {
		return
	}
	if err := s.sess.ResetConcept(concept); err != nil {
		writeError(w, err)
		return
	}
	s.writeChecklist(w, concept)
}

func (s *Server) handleRadar(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.RadarScores())
}

func (s *Server) handlePriorities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.priorities())
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.StrategyID) == "" {
		writeError(w, fmt.Errorf("strategy_id is required"))
		return
	}
	if req.Answer != nil && req.SubStrategyID == "" {
		writeError(w, fmt.Errorf("answer requires sub_strategy_id"))
		return
	}
	if req.Priority != nil {
		level, err := rating.ParsePriorityLevel(*req.Priority)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.sess.SetPriority(req.StrategyID, req.SubStrategyID, level); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Answer != nil {
		s.sess.SetAnswer(req.StrategyID, req.SubStrategyID, *req.Answer)
	}
	writeJSON(w, http.StatusOK, s.priorities())
}

func (s *Server) handleProject(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Project())
}

func (s *Server) handleSetProject(w http.ResponseWriter, r *http.Request) {
	var data session.ProjectData
	if !decodeJSON(w, r, &data) {
		return
	}
	s.sess.SetProjectData(data)
	writeJSON(w, http.StatusOK, s.sess.Project())
}

func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	var ideas []session.EcoIdea
	if strategyID := r.URL.Query().Get("strategy"); strategyID != "" {
		ideas = s.sess.IdeasFor(strategyID)
	} else {
		ideas = s.sess.Ideas()
	}
	if ideas == nil {
		ideas = []session.EcoIdea{}
	}
	writeJSON(w, http.StatusOK, ideas)
}

func (s *Server) handleAddIdea(w http.ResponseWriter, r *http.Request) {
	var idea session.EcoIdea
	if !decodeJSON(w, r, &idea) {
		return
	}
	created, err := s.sess.AddIdea(idea)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ideaUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		writeError(w, fmt.Errorf("x and y must be set together"))
		return
	}

	var (
		idea session.EcoIdea
		err  error
	)
	if req.Text != nil {
		if idea, err = s.sess.UpdateIdeaText(id, *req.Text); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.X != nil {
		if idea, err = s.sess.MoveIdea(id, *req.X, *req.Y); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Text == nil && req.X == nil {
		writeError(w, fmt.Errorf("nothing to update"))
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *Server) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.DeleteIdea(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetInsight(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyID")
	var req insightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.sess.SetInsight(strategyID, req.Text)
	writeJSON(w, http.StatusOK, s.sess.Insights())
}

func (s *Server) handleResetSection(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.ResetSection(chi.URLParam(r, "section")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetAll(w http.ResponseWriter, _ *http.Request) {
	s.sess.ResetAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.report())
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, s.report()); err != nil {
		fmt.Fprintf(s.logw, "export workbook: %v\n", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "export failed"})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="lcd-report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Markdown(s.report())))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.HTML(s.report()))
}

func (s *Server) writeChecklist(w http.ResponseWriter, concept rating.Concept) {
	data, err := s.sess.Checklist(concept)
	if err != nil {
		writeError(w, err)
		return
	}
	editable := make(map[evaluation.Kind]bool, 3)
	for _, kind := range []evaluation.Kind{evaluation.KindStrategy, evaluation.KindSubStrategy, evaluation.KindGuideline} {
		editable[kind], _ = s.sess.Editable(concept, kind)
	}
	writeJSON(w, http.StatusOK, checklistResponse{
		Concept:   concept,
		Checklist: data,
		Editable:  editable,
		Radar:     s.sess.RadarScores()[concept],
	})
}

func (s *Server) priorities() prioritiesResponse {
	display := make(map[string]rating.PriorityLevel)
	for _, st := range s.sess.Taxonomy().Strategies() {
		display[st.ID] = s.sess.DisplayPriority(st.ID)
	}
	return prioritiesResponse{
		Evaluation: s.sess.Qualitative(),
		Display:    display,
		Computed:   s.sess.Policy().ComputedIDs(),
	}
}

func (s *Server) report() report.Report {
	return report.Build(s.sess, s.hidden)
}

func (req ratingRequest) ref() (evaluation.Ref, error) {
	kind, err := evaluation.ParseKind(req.Kind)
	if err != nil {
		return evaluation.Ref{}, err
	}
	switch kind {
	case evaluation.KindStrategy:
		if req.StrategyID == "" {
			return evaluation.Ref{}, fmt.Errorf("strategy_id is required")
		}
		return evaluation.StrategyRef(req.StrategyID), nil
	case evaluation.KindSubStrategy:
		if req.SubStrategyID == "" {
			return evaluation.Ref{}, fmt.Errorf("sub_strategy_id is required")
		}
		return evaluation.SubStrategyRef(req.SubStrategyID), nil
	default:
		if req.GuidelineID == "" {
			return evaluation.Ref{}, fmt.Errorf("guideline_id is required")
		}
		subID := req.SubStrategyID
		if subID == "" {
			if i := strings.LastIndex(req.GuidelineID, "."); i > 0 {
				subID = req.GuidelineID[:i]
			}
		}
		return evaluation.GuidelineRef(subID, req.GuidelineID), nil
	}
}

func conceptParam(w http.ResponseWriter, r *http.Request) (rating.Concept, bool) {
	concept, err := rating.ParseConcept(chi.URLParam(r, "concept"))
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return concept, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, evaluation.ErrDerivedCell), errors.Is(err, priority.ErrComputedPriority):
		return http.StatusConflict
	case errors.Is(err, session.ErrIdeaNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
