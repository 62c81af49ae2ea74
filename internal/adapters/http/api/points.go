package api

import (
	"net/http"

	"github.com/okian/meerkat/internal/domain/model"
)

type userPointsResponse struct {
	User                     string `json:"user"`
	Score                    int    `json:"score"`
	CorrectPredictions       int    `json:"correct_predictions"`
	CorrectOutcomes          int    `json:"correct_outcomes"`
	TotalNumberOfPredictions int    `json:"total_number_of_predictions"`
}

// PointsHandler serves competition standings.
type PointsHandler struct {
	deps PointsDependencies
}

// NewPointsHandler creates a new points handler.
func NewPointsHandler(deps PointsDependencies) *PointsHandler {
	return &PointsHandler{deps: deps}
}

// HandleGetPoints handles GET /competitions/{cid}/points. Rows keep the
// first-appearance order of users and are not sorted by score.
func (h *PointsHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	cid, err := uintParam(r, "cid")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rows, err := h.deps.Points(r.Context(), cid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPointsResponse(rows))
}

func toPointsResponse(rows []model.UserPoints) []userPointsResponse {
	out := make([]userPointsResponse, len(rows))
	for i, p := range rows {
		out[i] = userPointsResponse{
			User:                     p.User.String(),
			Score:                    p.Score,
			CorrectPredictions:       p.CorrectPredictions,
			CorrectOutcomes:          p.CorrectOutcomes,
			TotalNumberOfPredictions: p.TotalNumberOfPredictions,
		}
	}
	return out
}
