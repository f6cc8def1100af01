package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/semscout/semscout/pkg/types"
)

type searchRequest struct {
	Query     string  `json:"query"`
	TopK      int     `json:"top_k,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Language  string  `json:"language,omitempty"`
	Kind      string  `json:"kind,omitempty"`
	FilePath  string  `json:"file_path,omitempty"`
}

type searchHit struct {
	ID        string  `json:"id"`
	FilePath  string  `json:"file_path"`
	Language  string  `json:"language"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Signature string  `json:"signature,omitempty"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

type fileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"` // empty reads from disk
}

type indexTreeRequest struct {
	Root string `json:"root"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	opts := types.SearchOptions{
		TopK:      req.TopK,
		Threshold: req.Threshold,
		Language:  req.Language,
		Kind:      types.ChunkKind(req.Kind),
		FilePath:  req.FilePath,
	}
	results, err := s.engine.Search(r.Context(), req.Query, opts)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		c := res.Chunk
		hits = append(hits, searchHit{
			ID:        c.ID,
			FilePath:  c.FilePath,
			Language:  c.Language,
			Kind:      string(c.Kind),
			Name:      c.Name,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Signature: c.Signature,
			Content:   c.Content,
			Score:     res.Score,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": hits})
}

func (s *Server) handleIndexFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	var err error
	if req.Content != "" {
		err = s.engine.AddOrUpdateFile(r.Context(), req.Path, []byte(req.Content))
	} else {
		content, readErr := readFileForRequest(req.Path)
		if readErr != nil {
			s.respondError(w, http.StatusUnprocessableEntity, readErr.Error())
			return
		}
		err = s.engine.AddOrUpdateFile(r.Context(), req.Path, content)
	}
	if err != nil {
		s.logger.Error("index file failed", zap.String("path", req.Path), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	resp := map[string]any{"path": req.Path, "status": "indexed"}
	if rec, ok := s.engine.FileRecord(req.Path); ok {
		resp["chunks"] = len(rec.ChunkIDs)
		resp["last_indexed_at"] = rec.LastIndexedAt
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := s.engine.RemoveFile(r.Context(), req.Path); err != nil {
		s.logger.Error("remove file failed", zap.String("path", req.Path), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"path": req.Path, "status": "removed"})
}

func (s *Server) handleIndexTree(w http.ResponseWriter, r *http.Request) {
	var req indexTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Root == "" {
		s.respondError(w, http.StatusBadRequest, "root is required")
		return
	}
	report, err := s.engine.IndexTree(r.Context(), req.Root)
	if err != nil {
		s.logger.Error("batch index failed", zap.String("root", req.Root), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.engine.Clear()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readFileForRequest(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFileUnreadable, path, err)
	}
	return content, nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnsupportedFile),
		errors.Is(err, types.ErrFileTooLarge),
		errors.Is(err, types.ErrFileUnreadable),
		errors.Is(err, types.ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
