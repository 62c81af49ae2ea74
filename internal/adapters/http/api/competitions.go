package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/okian/meerkat/internal/domain/model"
)

type createCompetitionRequest struct {
	Name string `json:"name" validate:"notblank,max=128"`
}

type competitionResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

func toCompetitionResponse(c model.Competition) competitionResponse {
	return competitionResponse{
		ID:        c.ID,
		Name:      c.Name,
		Owner:     c.Owner.String(),
		CreatedAt: c.CreatedAt,
	}
}

// CompetitionHandler serves the competition directory.
type CompetitionHandler struct {
	deps CompetitionDependencies
}

// NewCompetitionHandler creates a new competition handler.
func NewCompetitionHandler(deps CompetitionDependencies) *CompetitionHandler {
	return &CompetitionHandler{deps: deps}
}

// HandleCreate handles POST /competitions.
func (h *CompetitionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	caller, _ := CallerFrom(ctx)
	var created model.Competition
	id, replayed, err := h.deps.Once(ctx, caller, "competitions", r.Header.Get(IdempotencyHeader), func() (uint64, error) {
		c, err := h.deps.CreateCompetition(ctx, caller, req.Name)
		if err != nil {
			return 0, err
		}
		created = c
		return c.ID, nil
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if replayed {
		w.Header().Set(ReplayedHeader, "true")
		if created, err = h.deps.Competition(ctx, id); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	w.Header().Set("Location", fmt.Sprintf("/competitions/%d", id))
	writeJSON(w, http.StatusCreated, toCompetitionResponse(created))
}

// HandleList handles GET /competitions.
func (h *CompetitionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list := h.deps.Competitions(r.Context())
	out := make([]competitionResponse, len(list))
	for i, c := range list {
		out[i] = toCompetitionResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /competitions/{cid}.
func (h *CompetitionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cid, err := uintParam(r, "cid")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c, err := h.deps.Competition(r.Context(), cid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompetitionResponse(c))
}
