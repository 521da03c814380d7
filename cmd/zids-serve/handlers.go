package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sjieng123/zids/internal/logger"
	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/session"
)

type initSessionResponse struct {
	SessionID string `json:"session_id"`
}

// handleInitSession implements init_session: it allocates a session sized
// to the loaded artifact's row-alphabet partition, deriving GK[row][col]
// (or the direct master-key stand-in, for ModeMasterToSeed) under the
// server's configured seed schedule.
func (st *serveState) handleInitSession(w http.ResponseWriter, r *http.Request) {
	var sess *session.Session
	var err error

	colsPerRow := st.partition.ColsPerRow
	switch st.sched.Mode {
	case seedschedule.ModeMasterToGKToSeed:
		sess, err = st.mgr.InitSession(st.sched, colsPerRow, st.kBytes)
	case seedschedule.ModeMasterToSeed:
		sess, err = st.mgr.InitSessionDirect(st.sched, colsPerRow, st.kBytes)
	default:
		http.Error(w, "server seed mode does not support session serving", http.StatusInternalServerError)
		return
	}
	if err != nil {
		st.log.Error("init session failed", logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, initSessionResponse{SessionID: sess.GetID()})
}

type rowPayloadResponse struct {
	AAD     string   `json:"aad"`
	Payload []string `json:"payload"`
}

// handleRowPayload implements ot_row_payload: it returns the fixed AAD for
// (session, row) plus every column's group-key payload entry, base64
// encoded for JSON transport.
func (st *serveState) handleRowPayload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := st.mgr.GetSession(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	row, err := parseRow(r.PathValue("row"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	aad, payload, err := sess.RowPayload(row)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := rowPayloadResponse{
		AAD:     base64.StdEncoding.EncodeToString(aad),
		Payload: make([]string, len(payload)),
	}
	for i, gk := range payload {
		resp.Payload[i] = base64.StdEncoding.EncodeToString(gk)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (st *serveState) handleHealthz(w http.ResponseWriter, r *http.Request) {
	sys := st.checker.GetSystemHealth(r.Context())

	status := http.StatusOK
	if sys.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, sys)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
