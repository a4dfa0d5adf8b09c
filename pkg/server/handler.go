package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/service/article"
	"github.com/mochisura/marketer/pkg/usecase/promote"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

type generateRequest struct {
	Path string `json:"path"`
}

type generateResponse struct {
	Raw       string   `json:"raw,omitempty"`
	Patterns  []string `json:"patterns"`
	ModelUsed string   `json:"model_used"`
}

type curateRequest struct {
	Topic string `json:"topic"`
}

type curateResponse struct {
	Structured bool     `json:"structured,omitempty"`
	Analysis   string   `json:"analysis,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Source     string   `json:"source,omitempty"`
	Commentary string   `json:"commentary,omitempty"`
	Patterns   []string `json:"patterns,omitempty"`
	ModelUsed  string   `json:"model_used"`
	Archived   bool     `json:"archived"`
}

type saveRequest struct {
	Analysis   string `json:"analysis"`
	Summary    string `json:"summary"`
	Source     string `json:"source"`
	Commentary string `json:"commentary"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type archiveResponse struct {
	Archive []*model.Record `json:"archive"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logging.From(r.Context()).Error("failed to write response", "error", err)
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	analyses, err := s.cache.Load(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load analysis cache", "error", err)
	}

	articles, err := article.List(ctx, s.articlesDir, analyses)
	if err != nil {
		logging.From(ctx).Error("failed to list articles", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, articles)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Path == "" {
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "File not found"})
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "File not found"})
		return
	}

	promo, err := s.promoter.Generate(ctx, req.Path)
	if err != nil {
		logging.From(ctx).Error("failed to generate promotion", "path", req.Path, "error", err)
		if errors.Is(err, promote.ErrEmptyArticle) {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{
			Error: "全てのモデルで制限に達しました。 (Last Error: " + err.Error() + ")",
		})
		return
	}

	resp := generateResponse{
		Patterns:  promo.Patterns,
		ModelUsed: promo.ModelUsed,
	}
	if !promo.Structured {
		resp.Raw = promo.Raw
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleCurateNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req curateRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	c, err := s.curator.Curate(ctx, req.Topic)
	if err != nil {
		logging.From(ctx).Error("failed to curate news", "topic", req.Topic, "error", err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "ニュースの取得または解析に失敗しました。"})
		return
	}

	resp := curateResponse{
		ModelUsed: c.ModelUsed,
		Archived:  c.Archived,
	}
	if c.Structured {
		resp.Structured = true
		resp.Analysis = c.Analysis
		resp.Summary = c.Summary
		resp.Source = c.Source
		resp.Commentary = c.Commentary
	} else {
		resp.Patterns = []string{c.Raw}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleSaveToArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req saveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, saveResponse{Error: "invalid request body"})
		return
	}

	added, err := s.curator.Save(ctx, &model.Record{
		Analysis:   req.Analysis,
		Summary:    req.Summary,
		Source:     req.Source,
		Commentary: req.Commentary,
	})
	switch {
	case errors.Is(err, model.ErrEmptySummary):
		writeJSON(w, r, http.StatusBadRequest, saveResponse{Error: err.Error()})
	case err != nil:
		logging.From(ctx).Error("failed to write to archive", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, saveResponse{Error: err.Error()})
	case !added:
		logging.From(ctx).Info("archive entry already exists", "summary", model.DedupKey(req.Summary, 20))
		writeJSON(w, r, http.StatusOK, saveResponse{Success: true, Message: "Already exist"})
	default:
		logging.From(ctx).Info("saved to archive", "summary", model.DedupKey(req.Summary, 20))
		writeJSON(w, r, http.StatusOK, saveResponse{Success: true})
	}
}

func (s *Server) handleNewsArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := s.curator.History(ctx)
	if err != nil {
		logging.From(ctx).Error("failed to load archive", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to load archive: " + err.Error()})
		return
	}
	if records == nil {
		records = []*model.Record{}
	}

	writeJSON(w, r, http.StatusOK, archiveResponse{Archive: records})
}
