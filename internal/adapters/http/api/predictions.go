package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/meerkat/internal/app"
	"github.com/okian/meerkat/internal/domain/model"
)

type predictionRequest struct {
	HomeScore int `json:"home_score" validate:"gte=0"`
	AwayScore int `json:"away_score" validate:"gte=0"`
}

// predictionResponse renders a forecast; the zero value means none was made.
type predictionResponse struct {
	GameID    uint64 `json:"game_id"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

func toPredictionResponse(p model.Prediction) predictionResponse {
	return predictionResponse{GameID: p.GameID, HomeScore: p.HomeScore, AwayScore: p.AwayScore}
}

// PredictionHandler serves the prediction registry of a competition.
type PredictionHandler struct {
	deps PredictionDependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

// HandleSubmit handles PUT /competitions/{cid}/games/{gid}/prediction.
func (h *PredictionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cid, gid, err := gameParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req predictionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	caller, _ := CallerFrom(ctx)
	if err := h.deps.SubmitPrediction(ctx, caller, cid, gid, req.HomeScore, req.AwayScore); err != nil {
		writeServiceError(w, err)
		return
	}

	p, err := h.deps.Prediction(ctx, caller, cid, gid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(p))
}

// HandleGetOwn handles GET /competitions/{cid}/games/{gid}/prediction.
func (h *PredictionHandler) HandleGetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cid, gid, err := gameParams(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	caller, ok := CallerFrom(ctx)
	if !ok {
		writeServiceError(w, service.ErrMissingCaller)
		return
	}
	p, err := h.deps.Prediction(ctx, caller, cid, gid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(p))
}

// HandleListForUser handles GET /competitions/{cid}/predictions/{user}.
func (h *PredictionHandler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	cid, err := uintParam(r, "cid")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	raw := chi.URLParam(r, "user")
	if err := validateCaller(raw); err != nil {
		writeServiceError(w, err)
		return
	}

	list, err := h.deps.Predictions(r.Context(), cid, model.NormalizeAddress(raw))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]predictionResponse, len(list))
	for i, p := range list {
		out[i] = toPredictionResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}
