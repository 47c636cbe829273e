package controlplane

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/agentchaos/chaosproxy/internal/runmode"
)

type healthzResponse struct {
	Mode                string `json:"mode"`
	PlanRevision        int    `json:"plan_revision"`
	UptimeS             int64  `json:"uptime_s"`
	OTelTracingEnabled  bool   `json:"otel_tracing_enabled"`
	DashboardSubscriber int    `json:"dashboard_subscribers"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthzResponse{
		UptimeS: int64(time.Since(s.startedAt).Seconds()),
	}

	if s.mode != nil {
		resp.Mode = string(s.mode.CurrentMode())
	}
	if s.planStore != nil {
		if p := s.planStore.Current(); p != nil {
			resp.PlanRevision = p.Revision
		}
	}
	if s.tracer != nil {
		resp.OTelTracingEnabled = s.tracer.Enabled()
	}
	if s.dashboard != nil {
		resp.DashboardSubscriber = s.dashboard.SubscriberCount()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePostPlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	newPlan, err := plan.ValidatePlan(body, s.cfg.Strict)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.planStore != nil {
		if current := s.planStore.Current(); current != nil && newPlan.Revision <= current.Revision {
			writeError(w, http.StatusConflict, "plan revision must increase on reload")
			return
		}
		s.planStore.Install(newPlan)
	}

	s.auditRecord(r, "plan_reload", map[string]interface{}{
		"revision": newPlan.Revision,
		"name":     newPlan.Metadata.Name,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revision": newPlan.Revision,
		"name":     newPlan.Metadata.Name,
	})
}

type modeRequest struct {
	Mode     string `json:"mode"`
	TapePath string `json:"tape_path,omitempty"`
}

func (s *Server) handlePostMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	target := runmode.Mode(req.Mode)
	if !target.Valid() {
		writeError(w, http.StatusBadRequest, "mode must be one of live, record, playback")
		return
	}

	if s.mode == nil {
		writeError(w, http.StatusServiceUnavailable, "mode controller not wired")
		return
	}

	if s.mode.CurrentMode() == runmode.ModeRecord && target == runmode.ModePlayback && req.TapePath == "" {
		writeError(w, http.StatusBadRequest, "record to playback transition requires tape_path")
		return
	}

	if err := s.mode.SwitchMode(r.Context(), target, req.TapePath); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.auditRecord(r, "mode_switch", map[string]interface{}{
		"target":    string(target),
		"tape_path": req.TapePath,
	})

	writeJSON(w, http.StatusOK, map[string]string{"mode": string(target)})
}

func (s *Server) handleGetScorecard(w http.ResponseWriter, r *http.Request) {
	if s.scorecard == nil {
		writeError(w, http.StatusServiceUnavailable, "scorecard not wired")
		return
	}
	writeJSON(w, http.StatusOK, s.scorecard.Snapshot())
}

func (s *Server) auditRecord(r *http.Request, kind string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(AuditEntry{
		Timestamp: time.Now(),
		Kind:      kind,
		RemoteIP:  r.RemoteAddr,
		Detail:    detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
