// Package api exposes one merkle tree over HTTP/JSON.
package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/frankonly/uptree/crypto"
	"github.com/frankonly/uptree/merkle"
)

// Server serves a single merkle.Tree. It owns the tree and serializes all
// access with one mutex, as the tree itself is not safe for concurrent use.
type Server struct {
	logger *zap.SugaredLogger
	hasher merkle.Hasher

	mu   sync.Mutex
	tree *merkle.Tree

	metrics  metrics
	registry *prometheus.Registry
	handler  http.Handler
}

// BuildRequest is the body of POST /v1/tree. Leaves are arbitrary JSON
// values; the server canonicalizes and digests each one.
type BuildRequest struct {
	Leaves []json.RawMessage `json:"leaves"`
}

// UpdateRequest is the body of PUT /v1/leaves/{index}.
type UpdateRequest struct {
	Value json.RawMessage `json:"value"`
}

// TreeResponse reports the tree after a build or update. Root is hex encoded
// and omitted when the tree is empty.
type TreeResponse struct {
	LeafCount int    `json:"leafCount"`
	Root      string `json:"root,omitempty"`
}

// RootResponse carries the hex encoded root digest.
type RootResponse struct {
	Root string `json:"root"`
}

// LeafResponse carries one hex encoded leaf digest.
type LeafResponse struct {
	Index int    `json:"index"`
	Leaf  string `json:"leaf"`
}

// StatusResponse is the body of every error response.
type StatusResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewServer returns a server around an empty tree digesting with hasher.
func NewServer(hasher merkle.Hasher, logger *zap.SugaredLogger) *Server {
	s := &Server{
		logger:  logger,
		hasher:  hasher,
		tree:    merkle.New(hasher),
		metrics: newMetrics(),
	}
	s.registry = s.newMetricsRegistry()
	s.setupRouting()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) buildHandler(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	leaves := make([][]byte, len(req.Leaves))
	for i, raw := range req.Leaves {
		canonical, err := crypto.CanonicalRaw(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid leaf value")
			return
		}
		leaves[i] = s.hasher.Leaf(canonical)
	}

	s.mu.Lock()
	s.tree.Build(leaves)
	root, err := s.tree.Root()
	s.mu.Unlock()

	s.metrics.BuildCount.Inc()
	s.metrics.LeafCount.Set(float64(len(leaves)))

	resp := TreeResponse{LeafCount: len(leaves)}
	if err == nil {
		resp.Root = hex.EncodeToString(root)
	}

	s.logger.Infow("tree built", "leaves", len(leaves))
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) rootHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	root, err := s.tree.Root()
	s.mu.Unlock()

	switch {
	case errors.Is(err, merkle.ErrEmptyTree):
		s.respondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusOK, RootResponse{Root: hex.EncodeToString(root)})
	}
}

func (s *Server) updateLeafHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid leaf index")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Value) == 0 {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	canonical, err := crypto.CanonicalRaw(req.Value)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid leaf value")
		return
	}

	s.mu.Lock()
	err = s.tree.Update(index, canonical)
	root, rootErr := s.tree.Root()
	leafCount := s.tree.LeafCount()
	s.mu.Unlock()

	switch {
	case errors.Is(err, merkle.ErrOutOfRange):
		s.respondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	case rootErr != nil:
		s.respondError(w, http.StatusInternalServerError, rootErr.Error())
	default:
		s.metrics.UpdateCount.Inc()
		s.logger.Infow("leaf updated", "index", index)
		s.respondJSON(w, http.StatusOK, TreeResponse{
			LeafCount: leafCount,
			Root:      hex.EncodeToString(root),
		})
	}
}

func (s *Server) getLeafHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid leaf index")
		return
	}

	s.mu.Lock()
	leaf, err := s.tree.Leaf(index)
	s.mu.Unlock()

	switch {
	case errors.Is(err, merkle.ErrOutOfRange):
		s.respondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusOK, LeafResponse{
			Index: index,
			Leaf:  hex.EncodeToString(leaf),
		})
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respondJSON(w, code, StatusResponse{Message: message, Code: code})
}
