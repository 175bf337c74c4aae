package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/synapseos/hybridstore/internal/authtoken"
	"github.com/synapseos/hybridstore/internal/hybridstore"
	"github.com/synapseos/hybridstore/internal/jsonx"
	"github.com/synapseos/hybridstore/internal/lock"
	"github.com/synapseos/hybridstore/internal/namespace"
	"github.com/synapseos/hybridstore/internal/quadstore"
	"github.com/synapseos/hybridstore/internal/reasoner"
	"go.uber.org/zap"
)

type server struct {
	namespaces *namespace.Manager
	lockMgr    *lock.Manager
	auth       *authtoken.Auth
	logger     *zap.Logger
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *server) authorize(w http.ResponseWriter, r *http.Request, namespaceName, operation string) bool {
	if err := s.auth.Check(bearerToken(r), namespaceName, operation); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := jsonx.Marshal(v)
	if err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type ingestRequest struct {
	Namespace string                    `json:"namespace"`
	Triples   []quadstore.IngestTriple `json:"triples"`
}

type ingestResponse struct {
	Added int `json:"added"`
}

func (s *server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.authorize(w, r, req.Namespace, "write") {
		return
	}

	store, err := s.namespaces.GetStore(req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	nsLock, err := s.lockMgr.Acquire(r.Context(), req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	defer nsLock.Release()

	added, err := store.Ingest(req.Triples)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Added: added})
}

type searchRequest struct {
	Namespace string `json:"namespace"`
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.authorize(w, r, req.Namespace, "read") {
		return
	}

	store, err := s.namespaces.GetStore(req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	results, err := store.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type hybridSearchRequest struct {
	Namespace  string `json:"namespace"`
	Query      string `json:"query"`
	VectorK    int    `json:"vector_k"`
	GraphDepth int    `json:"graph_depth"`
}

func (s *server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	var req hybridSearchRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.authorize(w, r, req.Namespace, "read") {
		return
	}

	store, err := s.namespaces.GetStore(req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	results, err := store.HybridSearch(r.Context(), req.Query, req.VectorK, req.GraphDepth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type neighborsRequest struct {
	Namespace     string `json:"namespace"`
	URI           string `json:"uri"`
	Direction     string `json:"direction"`
	Depth         int    `json:"depth"`
	LimitPerLayer int    `json:"limit_per_layer"`
	EdgeFilter    string `json:"edge_filter"`
	Scoring       string `json:"scoring"`
}

func (s *server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	var req neighborsRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.authorize(w, r, req.Namespace, "read") {
		return
	}

	store, err := s.namespaces.GetStore(req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	startID, err := store.ResolveID(req.URI)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	opts := hybridstore.NeighborOptions{
		Direction:     hybridstore.Direction(req.Direction),
		Depth:         req.Depth,
		LimitPerLayer: req.LimitPerLayer,
		EdgeFilter:    req.EdgeFilter,
		Scoring:       hybridstore.Scoring(req.Scoring),
	}

	results, err := store.Neighbors(startID, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type sparqlRequest struct {
	Namespace string `json:"namespace"`
	Query     string `json:"query"`
}

func (s *server) handleSPARQL(w http.ResponseWriter, r *http.Request) {
	var req sparqlRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.authorize(w, r, req.Namespace, "read") {
		return
	}

	store, err := s.namespaces.GetStore(req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out, err := store.QuerySPARQL(req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(out))
}

type reasonRequest struct {
	Namespace   string `json:"namespace"`
	Strategy    string `json:"strategy"` // "none", "rdfs", "owlrl"
	Materialize bool   `json:"materialize"`
}

type reasonResponse struct {
	Inferred []reasoner.Inferred `json:"inferred,omitempty"`
	Inserted int                 `json:"inserted,omitempty"`
}

func parseStrategy(s string) reasoner.Strategy {
	switch strings.ToLower(s) {
	case "rdfs":
		return reasoner.RDFS
	case "owlrl", "owl-rl":
		return reasoner.OWLRL
	default:
		return reasoner.None
	}
}

func (s *server) handleReason(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := jsonx.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.authorize(w, r, req.Namespace, "reason") {
		return
	}

	store, err := s.namespaces.GetStore(req.Namespace)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	inferred, inserted, err := store.ApplyReasoning(parseStrategy(req.Strategy), req.Materialize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reasonResponse{Inferred: inferred, Inserted: inserted})
}

func (s *server) handleDeleteNamespace(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !s.authorize(w, r, name, "delete") {
		return
	}

	if err := s.namespaces.DeleteNamespace(name); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
