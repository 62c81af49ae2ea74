package api

import (
	"fmt"
	"net/http"

	"github.com/okian/meerkat/internal/adapters/repository"
	"github.com/okian/meerkat/internal/domain/model"
)

type addGameRequest struct {
	HomeCompetitor string `json:"home_competitor" validate:"notblank,max=128"`
	AwayCompetitor string `json:"away_competitor" validate:"notblank,max=128"`
	StartTime      int64  `json:"start_time" validate:"gte=0"`
}

type updateGameRequest struct {
	HomeCompetitor string `json:"home_competitor" validate:"notblank,max=128"`
	AwayCompetitor string `json:"away_competitor" validate:"notblank,max=128"`
	StartTime      int64  `json:"start_time" validate:"gte=0"`
	HomeScore      int    `json:"home_score" validate:"gte=0"`
	AwayScore      int    `json:"away_score" validate:"gte=0"`
	IsFinalized    bool   `json:"is_finalized"`
}

// gameResponse renders a slot; absent slots carry id 0 and deleted=true.
type gameResponse struct {
	ID             uint64 `json:"id"`
	HomeCompetitor string `json:"home_competitor"`
	AwayCompetitor string `json:"away_competitor"`
	StartTime      int64  `json:"start_time"`
	HomeScore      int    `json:"home_score"`
	AwayScore      int    `json:"away_score"`
	IsFinalized    bool   `json:"is_finalized"`
	Deleted        bool   `json:"deleted"`
}

func toGameResponse(slot model.GameSlot) gameResponse {
	g, ok := slot.Game()
	if !ok {
		return gameResponse{Deleted: true}
	}
	return gameResponse{
		ID:             g.ID,
		HomeCompetitor: g.HomeCompetitor,
		AwayCompetitor: g.AwayCompetitor,
		StartTime:      g.StartTime,
		HomeScore:      g.HomeScore,
		AwayScore:      g.AwayScore,
		IsFinalized:    g.IsFinalized,
	}
}

// GameHandler serves the game registry of a competition.
type GameHandler struct {
	deps GameDependencies
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps GameDependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

// HandleAdd handles POST /competitions/{cid}/games.
func (h *GameHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cid, err := uintParam(r, "cid")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req addGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	caller, _ := CallerFrom(ctx)
	scope := fmt.Sprintf("games:%d", cid)
	id, replayed, err := h.deps.Once(ctx, caller, scope, r.Header.Get(IdempotencyHeader), func() (uint64, error) {
		return h.deps.AddGame(ctx, caller, cid, req.HomeCompetitor, req.AwayCompetitor, req.StartTime)
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if replayed {
		w.Header().Set(ReplayedHeader, "true")
	}

	slot, err := h.deps.Game(ctx, cid, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/competitions/%d/games/%d", cid, id))
	writeJSON(w, http.StatusCreated, toGameResponse(slot))
}

// HandleList handles GET /competitions/{cid}/games.
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cid, err := uintParam(r, "cid")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	slots, err := h.deps.Games(r.Context(), cid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]gameResponse, len(slots))
	for i, s := range slots {
		out[i] = toGameResponse(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /competitions/{cid}/games/{gid}.
func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cid, gid, err := gameParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	slot, err := h.deps.Game(r.Context(), cid, gid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameResponse(slot))
}

// HandleUpdate handles PUT /competitions/{cid}/games/{gid}.
func (h *GameHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cid, gid, err := gameParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req updateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	caller, _ := CallerFrom(ctx)
	err = h.deps.UpdateGame(ctx, caller, cid, gid, repository.GameInput{
		HomeCompetitor: req.HomeCompetitor,
		AwayCompetitor: req.AwayCompetitor,
		StartTime:      req.StartTime,
		HomeScore:      req.HomeScore,
		AwayScore:      req.AwayScore,
		IsFinalized:    req.IsFinalized,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slot, err := h.deps.Game(ctx, cid, gid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameResponse(slot))
}

// HandleDelete handles DELETE /competitions/{cid}/games/{gid}.
func (h *GameHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cid, gid, err := gameParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	caller, _ := CallerFrom(ctx)
	if err := h.deps.DeleteGame(ctx, caller, cid, gid); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func gameParams(r *http.Request) (cid, gid uint64, err error) {
	if cid, err = uintParam(r, "cid"); err != nil {
		return 0, 0, err
	}
	if gid, err = uintParam(r, "gid"); err != nil {
		return 0, 0, err
	}
	return cid, gid, nil
}
