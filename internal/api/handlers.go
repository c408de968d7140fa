package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dhruvsaxena/splitsight/internal/ingest"
	"github.com/dhruvsaxena/splitsight/internal/models"
	"github.com/dhruvsaxena/splitsight/internal/storage"
)

// maxUploadBytes caps snapshot uploads; a decade of ledger history fits in
// a few megabytes.
const maxUploadBytes = 32 << 20

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSession exchanges a ledger API token for a session token. The
// ledger token is proven by resolving the current user against the ledger
// service; it is never stored or embedded in the session.
func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken string `json:"api_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIToken == "" {
		writeError(w, http.StatusBadRequest, "api_token is required")
		return
	}

	client := ingest.NewClient(a.cfg.SplitwiseURL, req.APIToken)
	raw, err := client.CurrentUser(r.Context())
	if err != nil {
		slog.Warn("session exchange failed", "error", err)
		writeError(w, http.StatusUnauthorized, "ledger token rejected")
		return
	}

	user := &models.User{
		ID:    raw.ID,
		Name:  strings.TrimSpace(raw.FirstName + " " + raw.LastName),
		Email: raw.Email,
	}
	token, err := a.jwt.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handlePull fetches a fresh snapshot from the ledger API with the
// server-configured token and runs the full pipeline on it.
func (a *API) handlePull(w http.ResponseWriter, r *http.Request) {
	if a.cfg.SplitwiseToken == "" {
		writeError(w, http.StatusServiceUnavailable, "live ingestion is not configured")
		return
	}

	client := ingest.NewClient(a.cfg.SplitwiseURL, a.cfg.SplitwiseToken)
	snap, err := client.FetchAll(r.Context())
	if err != nil {
		slog.Error("ledger fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch from ledger service")
		return
	}
	a.runPipeline(w, r, snap, "api")
}

// handleUpload accepts an exported snapshot, JSON or CSV by Content-Type,
// and runs the full pipeline on it.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)

	ctype := r.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ctype); err == nil {
		ctype = mt
	}

	var snap *ingest.Snapshot
	var err error
	var source string
	switch ctype {
	case "text/csv":
		snap, err = ingest.ParseCSV(body)
		source = "csv"
	case "application/json", "":
		snap, err = ingest.ParseJSON(body)
		source = "json"
	default:
		writeError(w, http.StatusUnsupportedMediaType, "expected application/json or text/csv")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.runPipeline(w, r, snap, source)
}

func (a *API) runPipeline(w http.ResponseWriter, r *http.Request, snap *ingest.Snapshot, source string) {
	insights, err := a.analysis.Analyze(r.Context(), snap, source)
	if err != nil {
		var merr *ingest.MalformedRecordError
		if errors.As(err, &merr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("analysis failed", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

// handleLatestInsights returns the most recently archived report in full.
func (a *API) handleLatestInsights(w http.ResponseWriter, r *http.Request) {
	runs, err := a.analysis.ListRuns(r.Context(), 1)
	if err != nil {
		slog.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load latest insights")
		return
	}
	if len(runs) == 0 {
		writeError(w, http.StatusNotFound, "no analysis runs archived yet")
		return
	}

	run, err := a.analysis.GetRun(r.Context(), runs[0].ID)
	if err != nil {
		slog.Error("failed to get run", "report_id", runs[0].ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load latest insights")
		return
	}
	writeJSON(w, http.StatusOK, run.Insights)
}

func (a *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := a.analysis.ListRuns(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (a *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := a.analysis.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		slog.Error("failed to get run", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
