package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sjieng123/zids/chooser"
)

// httpChooser is a remote chooser.Chooser talking to a running zids-serve
// over its plain init_session/ot_row_payload HTTP API (SPEC_FULL.md §6). It
// is not an oblivious-transfer transport in the cryptographic sense - that
// protected path is package ot's sealed envelope exchange - it simply gives
// zids-scan a second, network-backed way to drive the engine against a
// server that already holds the group-key table, mirroring how chooser.Local
// drives it in-process.
type httpChooser struct {
	baseURL   string
	sessionID string
	client    *http.Client

	rowCache map[uint32][][]byte
}

var _ chooser.Chooser = (*httpChooser)(nil)

type initSessionResp struct {
	SessionID string `json:"session_id"`
}

type rowPayloadResp struct {
	AAD     string   `json:"aad"`
	Payload []string `json:"payload"`
}

// newRemoteChooser calls POST /sessions on serverAddr to allocate a session
// (sized by the server's own row-alphabet partition; colsPerRow is not
// sent), then returns a chooser.Chooser that fetches each row's payload
// over GET /sessions/{id}/rows/{row} on demand.
func newRemoteChooser(serverAddr string, colsPerRow []int) (chooser.Chooser, string, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(serverAddr+"/sessions", "application/json", nil)
	if err != nil {
		return nil, "", fmt.Errorf("init session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("init session: server returned %s", resp.Status)
	}

	var initResp initSessionResp
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, "", fmt.Errorf("init session: decode response: %w", err)
	}

	hc := &httpChooser{
		baseURL:   serverAddr,
		sessionID: initResp.SessionID,
		client:    client,
		rowCache:  make(map[uint32][][]byte),
	}
	return hc, initResp.SessionID, nil
}

// EnsureRowCached fetches and caches row's payload if not already held.
func (h *httpChooser) EnsureRowCached(row uint32) error {
	if _, ok := h.rowCache[row]; ok {
		return nil
	}
	return h.fetchRow(row)
}

// ChooseOne returns GK[row][col] from the cached (or freshly fetched) row
// payload.
func (h *httpChooser) ChooseOne(row uint32, col int) ([]byte, error) {
	payload, ok := h.rowCache[row]
	if !ok {
		if err := h.fetchRow(row); err != nil {
			return nil, fmt.Errorf("chooser: remote choose_one: %w", err)
		}
		payload = h.rowCache[row]
	}
	if col < 0 || col >= len(payload) {
		return nil, &chooser.ProtocolError{Reason: fmt.Sprintf("column %d out of range for row %d (m=%d)", col, row, len(payload))}
	}
	return payload[col], nil
}

// AcquireGK is unsupported: httpChooser only implements the ChooseOne
// calling convention, like chooser.Local.
func (h *httpChooser) AcquireGK(row uint32, m int, col int, aad []byte) ([]byte, error) {
	return nil, fmt.Errorf("chooser: remote acquire_gk: %w", chooser.ErrNoMethodAvailable)
}

// SupportsAcquireGK reports false.
func (h *httpChooser) SupportsAcquireGK() bool { return false }

func (h *httpChooser) fetchRow(row uint32) error {
	url := fmt.Sprintf("%s/sessions/%s/rows/%d", h.baseURL, h.sessionID, row)
	resp, err := h.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("row %d: server returned %s", row, resp.Status)
	}

	var rp rowPayloadResp
	if err := json.NewDecoder(resp.Body).Decode(&rp); err != nil {
		return fmt.Errorf("row %d: decode response: %w", row, err)
	}

	payload := make([][]byte, len(rp.Payload))
	for i, enc := range rp.Payload {
		gk, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return fmt.Errorf("row %d: decode payload[%d]: %w", row, i, err)
		}
		payload[i] = gk
	}
	h.rowCache[row] = payload
	return nil
}
