package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/blockberries/freezeguard/consensus"
	"github.com/blockberries/freezeguard/types"
)

// adminAPI exposes the operator control surface (spec.md §6) over HTTP:
// per-height threshold and hash overrides, their snapshots, and a pool
// purge. It adds no semantics of its own beyond routing to *consensus.Manager.
type adminAPI struct {
	manager  *consensus.Manager
	diagPath string
	logger   zerolog.Logger
}

func newAdminAPI(manager *consensus.Manager, diagPath string, logger zerolog.Logger) *adminAPI {
	return &adminAPI{manager: manager, diagPath: diagPath, logger: logger}
}

func (a *adminAPI) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/overrides/threshold/{height}", a.setThresholdOverride).Methods(http.MethodPut)
	r.HandleFunc("/overrides/threshold", a.getThresholdOverrides).Methods(http.MethodGet)
	r.HandleFunc("/overrides/hash/{height}", a.setHashOverride).Methods(http.MethodPut)
	r.HandleFunc("/overrides/hash", a.getHashOverrides).Methods(http.MethodGet)
	r.HandleFunc("/purge", a.purge).Methods(http.MethodPost)
	r.HandleFunc("/pool/heights", a.poolHeights).Methods(http.MethodGet)
	r.HandleFunc("/diagnostics", a.diagnostics).Methods(http.MethodGet)
	return r
}

type thresholdOverrideRequest struct {
	Percent int `json:"percent"`
}

func (a *adminAPI) setThresholdOverride(w http.ResponseWriter, r *http.Request) {
	height, err := heightFromVars(r)
	if err != nil {
		a.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	var req thresholdOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	a.manager.SetThresholdOverride(height, req.Percent)
	w.WriteHeader(http.StatusNoContent)
}

func (a *adminAPI) getThresholdOverrides(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, a.manager.GetThresholdOverrides())
}

type hashOverrideRequest struct {
	Hash string `json:"hash"`
}

func (a *adminAPI) setHashOverride(w http.ResponseWriter, r *http.Request) {
	height, err := heightFromVars(r)
	if err != nil {
		a.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	var req hashOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	hash, err := decodeHexHash(req.Hash)
	if err != nil {
		a.errorResponse(w, http.StatusBadRequest, err)
		return
	}

	a.manager.SetHashOverride(height, hash)
	w.WriteHeader(http.StatusNoContent)
}

func (a *adminAPI) getHashOverrides(w http.ResponseWriter, r *http.Request) {
	overrides := a.manager.GetHashOverrides()
	out := make(map[string]string, len(overrides))
	for height, hash := range overrides {
		out[strconv.FormatUint(height, 10)] = hash.String()
	}
	a.jsonResponse(w, out)
}

func (a *adminAPI) purge(w http.ResponseWriter, r *http.Request) {
	a.manager.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (a *adminAPI) poolHeights(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, a.manager.Heights())
}

func (a *adminAPI) diagnostics(w http.ResponseWriter, r *http.Request) {
	if a.diagPath == "" {
		a.errorResponse(w, http.StatusNotFound, errors.New("diagnostic sink not configured"))
		return
	}
	records, err := consensus.ReadDiagnostics(a.diagPath)
	if err != nil {
		a.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	a.jsonResponse(w, records)
}

func (a *adminAPI) jsonResponse(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error().Err(err).Msg("failed to encode admin response")
	}
}

func (a *adminAPI) errorResponse(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func heightFromVars(r *http.Request) (uint64, error) {
	raw, ok := mux.Vars(r)["height"]
	if !ok {
		return 0, errors.New("missing height path segment")
	}
	return strconv.ParseUint(raw, 10, 64)
}

func decodeHexHash(s string) (types.Hash, error) {
	if s == "" {
		return types.ZeroHash, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return types.Hash{}, err
	}
	hash, ok := types.NewHash(raw)
	if !ok {
		return types.Hash{}, errors.New("hash must be exactly 32 bytes hex-encoded")
	}
	return hash, nil
}
