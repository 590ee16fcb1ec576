package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bastionworks/garrison/internal/bulletin"
	"github.com/bastionworks/garrison/internal/engine"
	"github.com/bastionworks/garrison/internal/world"
)

var playerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{1,64}$`)

func playerID(r *http.Request) (string, error) {
	id := mux.Vars(r)["player_id"]
	if !playerIDPattern.MatchString(id) {
		return "", fmt.Errorf("player id %q: %w", id, engine.ErrInvalidInput)
	}
	return id, nil
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.Create(r.Context(), id)
	if errors.Is(err, world.ErrWorldExists) {
		// Registration raced an existing world; hand back the current one.
		if cur, serr := s.game.Snapshot(r.Context(), id); serr == nil {
			writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), World: cur})
			return
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wld)
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, fmt.Errorf("since %q: %w", raw, engine.ErrInvalidInput))
			return
		}
	}

	res, err := s.game.SyncSince(r.Context(), id, since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		TTLMS int64 `json:"ttl_ms"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TTLMS > s.maxHeartbeatMS {
		req.TTLMS = s.maxHeartbeatMS
	}

	wld, err := s.game.Heartbeat(r.Context(), id, req.TTLMS)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, wld, err := s.game.Pause(r.Context(), id, world.PauseReason(req.Reason))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token string       `json:"token"`
		World *world.World `json:"world"`
	}{Token: token, World: wld})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.Resume(r.Context(), id, req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		DecisionID string `json:"decision_id"`
		Choice     string `json:"choice"`
		Token      string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.SubmitDecision(r.Context(), id, req.DecisionID, req.Choice, req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleCeremony(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.AcknowledgeCeremony(r.Context(), id, req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		MissionID string      `json:"mission_id"`
		Accept    bool        `json:"accept"`
		Squad     []world.Ref `json:"squad"`
		Token     string      `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.AnswerMissionCall(r.Context(), id, req.MissionID, req.Accept, req.Squad, req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleTimeScale(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		TimeScale int `json:"time_scale"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.SetTimeScale(r.Context(), id, req.TimeScale)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.Reset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wld)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wld, err := s.game.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bulletins, err := s.game.RecentBulletins(r.Context(), id, 20)
	if err != nil {
		writeError(w, r, err)
		return
	}

	text, err := bulletin.RenderDispatch(bulletin.BuildReport(wld, bulletins))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleTrooperHistory(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slot, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil {
		writeError(w, r, fmt.Errorf("slot: %w", engine.ErrInvalidInput))
		return
	}

	history, err := s.game.TrooperHistory(r.Context(), id, slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSchedulerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Stats())
}
