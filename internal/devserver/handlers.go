// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/chart"
	"github.com/jeranaias/chatbi-tui/internal/model"
)

// ============================================================================
// ANSWER PIPELINE
// ============================================================================

// businessError is a failure reported inside a 200 response: no matching
// template, unresolved parameters, a rejected or failing query.
type businessError struct {
	code int
	msg  string
	err  error
}

func (e *businessError) Error() string { return e.msg }
func (e *businessError) Unwrap() error { return e.err }

// answerData is what a question resolves to before history is recorded.
// It is what the cache holds.
type answerData struct {
	template model.Template
	rows     []model.Row
	kind     model.ChartKind
	fields   model.FieldMapping
}

// answer is one answered question.
type answer struct {
	queryID string
	text    string
	answerData
}

func (s *Server) answer(ctx context.Context, question string) (*answer, error) {
	key := normalizeQuestion(question)
	caching := s.opts.CacheTTL > 0 && key != ""

	var data *answerData
	if caching {
		if v, ok := s.cache.Get(key); ok {
			data = v.(*answerData)
			log.Debug().Str("key", key).Msg("answer cache hit")
		}
	}
	if data == nil {
		var err error
		if data, err = s.resolve(ctx, question); err != nil {
			return nil, err
		}
		if caching {
			s.cache.Set(key, data, cache.DefaultExpiration)
		}
	}

	queryID := uuid.NewString()
	if err := s.store.RecordHistory(ctx, queryID, question, data.template.SQL, time.Now()); err != nil {
		return nil, err
	}

	return &answer{
		queryID:    queryID,
		text:       fmt.Sprintf("%s: %d record(s) found.", data.template.Description, len(data.rows)),
		answerData: *data,
	}, nil
}

// resolve matches a template, checks it and runs it.
func (s *Server) resolve(ctx context.Context, question string) (*answerData, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	t, score, ok := matchTemplate(question, templates)
	if !ok {
		return nil, &businessError{code: http.StatusNotFound, msg: "No SQL template matches the question."}
	}
	log.Debug().Int("template", t.ID).Int("score", score).Msg("template matched")

	if params := Placeholders(t.SQL); len(params) > 0 {
		return nil, &businessError{
			code: http.StatusUnprocessableEntity,
			msg:  fmt.Sprintf("Template %q needs parameters: %s.", t.Name, strings.Join(params, ", ")),
			err:  ErrUnresolvedParams,
		}
	}
	if err := ValidateSelect(t.SQL); err != nil {
		return nil, &businessError{code: http.StatusBadRequest, msg: err.Error(), err: err}
	}

	rows, err := s.store.RunQuery(ctx, t.SQL)
	if err != nil {
		return nil, &businessError{code: http.StatusInternalServerError, msg: "Query execution failed.", err: err}
	}

	kind := chart.Suggest(rows)
	return &answerData{
		template: t,
		rows:     rows,
		kind:     kind,
		fields:   chart.DefaultFields(kind, rows),
	}, nil
}

// ============================================================================
// QUERY HANDLERS
// ============================================================================

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeDetail(w, http.StatusBadRequest, "question is required")
		return
	}

	ans, err := s.answer(r.Context(), question)
	var be *businessError
	switch {
	case errors.As(err, &be):
		log.Info().Err(be.err).Str("question", question).Msg(be.msg)
		writeJSON(w, http.StatusOK, envelope{Error: &envelopeError{Code: be.code, Message: be.msg}})
		return
	case err != nil:
		log.Error().Err(err).Msg("chat failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: api.ChatResponse{
			QueryID:     ans.queryID,
			Answer:      ans.text,
			SQL:         ans.template.SQL,
			RecordCount: len(ans.rows),
			ChartData: api.ChartData{
				Type:   string(ans.kind),
				Data:   ans.rows,
				Config: ans.fields,
			},
		},
	})
}

// handleQuery handles the legacy POST /api/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	question := strings.TrimSpace(req.UserInput)
	if question == "" {
		writeDetail(w, http.StatusBadRequest, "user_input is required")
		return
	}

	ans, err := s.answer(r.Context(), question)
	var be *businessError
	switch {
	case errors.As(err, &be):
		writeJSON(w, http.StatusOK, api.LegacyQueryResponse{Status: "error", Message: be.msg, Data: []model.Row{}})
		return
	case err != nil:
		log.Error().Err(err).Msg("query failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, api.LegacyQueryResponse{
		Status:                 "success",
		QueryID:                ans.queryID,
		SQLQuery:               ans.template.SQL,
		Data:                   ans.rows,
		SuggestedVisualization: string(ans.kind),
		Message:                ans.text,
	})
}

// ============================================================================
// FEEDBACK AND HISTORY
// ============================================================================

// handleSatisfaction handles POST /api/satisfaction.
func (s *Server) handleSatisfaction(w http.ResponseWriter, r *http.Request) {
	var req api.SatisfactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.QueryID) == "" {
		writeDetail(w, http.StatusBadRequest, "query_id is required")
		return
	}
	level, ok := model.ParseSatisfaction(string(req.SatisfactionLevel))
	if !ok {
		writeDetail(w, http.StatusBadRequest, "satisfaction_level must be satisfied, neutral or unsatisfied")
		return
	}

	err := s.store.SetSatisfaction(r.Context(), req.QueryID, level)
	switch {
	case errors.Is(err, ErrNotFound):
		writeDetail(w, http.StatusNotFound, "query not found")
	case err != nil:
		log.Error().Err(err).Msg("satisfaction update failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// handleHistory handles GET /api/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.store.ListHistory(r.Context(), HistoryQuery{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Keyword:   q.Get("keyword"),
	})
	switch {
	case errors.Is(err, ErrBadFilter):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("history failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, entries)
	}
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeDetail(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"cached_items": s.cache.ItemCount(),
	})
}

// ============================================================================
// TEMPLATE HANDLERS
// ============================================================================

// templateBody is the create/update request body.
type templateBody struct {
	Scenario    string `json:"scenario" validate:"required"`
	Description string `json:"description" validate:"required"`
	SQLText     string `json:"sql_text" validate:"required"`
}

func (s *Server) decodeTemplate(w http.ResponseWriter, r *http.Request) (model.Template, bool) {
	var body templateBody
	if err := decodeBody(w, r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return model.Template{}, false
	}
	body.Scenario = strings.TrimSpace(body.Scenario)
	body.Description = strings.TrimSpace(body.Description)
	body.SQLText = strings.TrimSpace(body.SQLText)
	if err := s.validate.Struct(body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "scenario, description and sql_text are required")
		return model.Template{}, false
	}
	return model.Template{Name: body.Scenario, Description: body.Description, SQL: body.SQLText}, true
}

func templateID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "invalid template id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListTemplates(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list templates failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	wire := make([]api.TemplateWire, len(list))
	for i, t := range list {
		wire[i] = api.TemplateToWire(t)
	}
	writeJSON(w, http.StatusOK, wire)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTemplate(r.Context(), id)
	s.writeTemplate(w, http.StatusOK, t, err)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.decodeTemplate(w, r)
	if !ok {
		return
	}
	created, err := s.store.CreateTemplate(r.Context(), t)
	if err == nil {
		s.cache.Flush()
	}
	s.writeTemplate(w, http.StatusCreated, created, err)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}
	t, ok := s.decodeTemplate(w, r)
	if !ok {
		return
	}
	t.ID = id
	updated, err := s.store.UpdateTemplate(r.Context(), t)
	if err == nil {
		s.cache.Flush()
	}
	s.writeTemplate(w, http.StatusOK, updated, err)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}
	err := s.store.DeleteTemplate(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		writeDetail(w, http.StatusNotFound, "template not found")
	case err != nil:
		log.Error().Err(err).Int("id", id).Msg("delete template failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
	default:
		s.cache.Flush()
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func (s *Server) writeTemplate(w http.ResponseWriter, status int, t model.Template, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeDetail(w, http.StatusNotFound, "template not found")
	case err != nil:
		log.Error().Err(err).Msg("template operation failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, status, api.TemplateToWire(t))
	}
}
