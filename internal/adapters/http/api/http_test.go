package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meerkat/internal/adapters/http/api"
	service "github.com/okian/meerkat/internal/app"
	"github.com/okian/meerkat/pkg/logger"
)

const (
	owner  = "0x00000000000000000000000000000000000000A1"
	player = "0x00000000000000000000000000000000000000b2"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type harness struct {
	handler http.Handler
	now     time.Time
}

func newHarness() *harness {
	h := &harness{now: epoch}
	svc := service.New(service.WithClock(func() time.Time { return h.now }))
	h.handler = api.NewRouter(context.Background(), api.NewServer(svc, svc), []string{"*"})
	return h
}

func (h *harness) do(method, path, caller, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type gameBody struct {
	ID          uint64 `json:"id"`
	HomeScore   int    `json:"home_score"`
	AwayScore   int    `json:"away_score"`
	IsFinalized bool   `json:"is_finalized"`
	Deleted     bool   `json:"deleted"`
}

type pointsBody struct {
	User                     string `json:"user"`
	Score                    int    `json:"score"`
	CorrectPredictions       int    `json:"correct_predictions"`
	CorrectOutcomes          int    `json:"correct_outcomes"`
	TotalNumberOfPredictions int    `json:"total_number_of_predictions"`
}

func gameJSON(home, away string, start int64) string {
	return fmt.Sprintf(`{"home_competitor":%q,"away_competitor":%q,"start_time":%d}`, home, away, start)
}

func TestCompetitionRoutes(t *testing.T) {
	Convey("Given the league API", t, func() {
		h := newHarness()

		Convey("Creating a competition without a caller is rejected", func() {
			w := h.do(http.MethodPost, "/competitions", "", `{"name":"cup"}`)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decode[errorBody](w).Code, ShouldEqual, "missing_caller")
		})

		Convey("A malformed caller address is rejected", func() {
			w := h.do(http.MethodPost, "/competitions", "0x123", `{"name":"cup"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Code, ShouldEqual, "invalid_caller")
		})

		Convey("A blank name fails validation", func() {
			w := h.do(http.MethodPost, "/competitions", owner, `{"name":"   "}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errorBody](w).Message, ShouldContainSubstring, "name")
		})

		Convey("Unknown body fields are rejected", func() {
			w := h.do(http.MethodPost, "/competitions", owner, `{"name":"cup","extra":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A competition is created with a lowercased owner", func() {
			w := h.do(http.MethodPost, "/competitions", owner, `{"name":"cup"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Location"), ShouldEqual, "/competitions/1")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			body := decode[map[string]any](w)
			So(body["id"], ShouldEqual, float64(1))
			So(body["owner"], ShouldEqual, strings.ToLower(owner))

			Convey("And it is listed and readable", func() {
				list := decode[[]map[string]any](h.do(http.MethodGet, "/competitions", "", ""))
				So(len(list), ShouldEqual, 1)
				So(list[0]["name"], ShouldEqual, "cup")

				So(h.do(http.MethodGet, "/competitions/1", "", "").Code, ShouldEqual, http.StatusOK)
				So(h.do(http.MethodGet, "/competitions/2", "", "").Code, ShouldEqual, http.StatusNotFound)
				So(h.do(http.MethodGet, "/competitions/abc", "", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("Repeating a creation with the same idempotency key replays it", func() {
			first := h.do(http.MethodPost, "/competitions", owner, `{"name":"cup"}`, api.IdempotencyHeader, "k1")
			second := h.do(http.MethodPost, "/competitions", owner, `{"name":"cup"}`, api.IdempotencyHeader, "k1")

			So(first.Code, ShouldEqual, http.StatusCreated)
			So(second.Code, ShouldEqual, http.StatusCreated)
			So(first.Header().Get(api.ReplayedHeader), ShouldBeEmpty)
			So(second.Header().Get(api.ReplayedHeader), ShouldEqual, "true")
			So(decode[map[string]any](second)["id"], ShouldEqual, float64(1))
			So(len(decode[[]map[string]any](h.do(http.MethodGet, "/competitions", "", ""))), ShouldEqual, 1)
		})
	})
}

func TestGameAndPredictionRoutes(t *testing.T) {
	Convey("Given a competition with one upcoming game", t, func() {
		h := newHarness()
		start := epoch.Add(time.Hour).UnixMilli()

		So(h.do(http.MethodPost, "/competitions", owner, `{"name":"cup"}`).Code, ShouldEqual, http.StatusCreated)
		w := h.do(http.MethodPost, "/competitions/1/games", owner, gameJSON("Lions", "Tigers", start))
		So(w.Code, ShouldEqual, http.StatusCreated)
		So(decode[gameBody](w).ID, ShouldEqual, uint64(1))

		Convey("Only the owner may add games", func() {
			w := h.do(http.MethodPost, "/competitions/1/games", player, gameJSON("A", "B", start))
			So(w.Code, ShouldEqual, http.StatusForbidden)
			So(decode[errorBody](w).Code, ShouldEqual, "competition_not_owned")
		})

		Convey("Adding to an unknown competition reports it as not owned", func() {
			w := h.do(http.MethodPost, "/competitions/9/games", owner, gameJSON("A", "B", start))
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("A player can predict before kickoff and read it back", func() {
			w := h.do(http.MethodPut, "/competitions/1/games/1/prediction", player, `{"home_score":2,"away_score":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			own := decode[map[string]any](h.do(http.MethodGet, "/competitions/1/games/1/prediction", player, ""))
			So(own["game_id"], ShouldEqual, float64(1))
			So(own["home_score"], ShouldEqual, float64(2))

			list := decode[[]map[string]any](h.do(http.MethodGet, "/competitions/1/predictions/"+player, "", ""))
			So(len(list), ShouldEqual, 1)
		})

		Convey("Reading an own prediction needs a caller", func() {
			So(h.do(http.MethodGet, "/competitions/1/games/1/prediction", "", "").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("A missing prediction reads as the zero value", func() {
			own := decode[map[string]any](h.do(http.MethodGet, "/competitions/1/games/1/prediction", player, ""))
			So(own["game_id"], ShouldEqual, float64(0))
		})

		Convey("Negative forecasts fail validation", func() {
			w := h.do(http.MethodPut, "/competitions/1/games/1/prediction", player, `{"home_score":-1,"away_score":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Predictions after kickoff conflict", func() {
			h.now = epoch.Add(time.Hour)
			w := h.do(http.MethodPut, "/competitions/1/games/1/prediction", player, `{"home_score":2,"away_score":1}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decode[errorBody](w).Code, ShouldEqual, "game_already_started")
		})

		Convey("Predicting on an unknown game is not found", func() {
			w := h.do(http.MethodPut, "/competitions/1/games/7/prediction", player, `{"home_score":2,"away_score":1}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("A finalized game scores the exact prediction", func() {
			h.do(http.MethodPut, "/competitions/1/games/1/prediction", player, `{"home_score":2,"away_score":1}`)
			w := h.do(http.MethodPut, "/competitions/1/games/1", owner,
				fmt.Sprintf(`{"home_competitor":"Lions","away_competitor":"Tigers","start_time":%d,"home_score":2,"away_score":1,"is_finalized":true}`, start))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[gameBody](w).IsFinalized, ShouldBeTrue)

			rows := decode[[]pointsBody](h.do(http.MethodGet, "/competitions/1/points", "", ""))
			So(len(rows), ShouldEqual, 1)
			So(rows[0].User, ShouldEqual, player)
			So(rows[0].Score, ShouldEqual, 3)
			So(rows[0].CorrectPredictions, ShouldEqual, 1)
			So(rows[0].CorrectOutcomes, ShouldEqual, 1)
			So(rows[0].TotalNumberOfPredictions, ShouldEqual, 1)
		})

		Convey("Deleting a game leaves an absent slot", func() {
			So(h.do(http.MethodDelete, "/competitions/1/games/1", player, "").Code, ShouldEqual, http.StatusForbidden)
			So(h.do(http.MethodDelete, "/competitions/1/games/1", owner, "").Code, ShouldEqual, http.StatusNoContent)

			slot := decode[gameBody](h.do(http.MethodGet, "/competitions/1/games/1", "", ""))
			So(slot.ID, ShouldEqual, uint64(0))
			So(slot.Deleted, ShouldBeTrue)

			slots := decode[[]gameBody](h.do(http.MethodGet, "/competitions/1/games", "", ""))
			So(len(slots), ShouldEqual, 1)

			So(h.do(http.MethodDelete, "/competitions/1/games/1", owner, "").Code, ShouldEqual, http.StatusNotFound)
			w := h.do(http.MethodPut, "/competitions/1/games/1", owner, `{"home_competitor":"A","away_competitor":"B","start_time":1}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[errorBody](w).Code, ShouldEqual, "game_not_found")
		})

		Convey("Points of an unknown competition are not found", func() {
			w := h.do(http.MethodGet, "/competitions/5/points", "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[errorBody](w).Code, ShouldEqual, "competition_not_found")
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the league API", t, func() {
		h := newHarness()

		Convey("Health reports ok", func() {
			w := h.do(http.MethodGet, "/healthz", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w)["status"], ShouldEqual, "ok")
		})

		Convey("Stats are served as JSON", func() {
			w := h.do(http.MethodGet, "/stats", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w), ShouldContainKey, "competitions")
		})

		Convey("Metrics are exposed", func() {
			h.do(http.MethodGet, "/healthz", "", "")
			w := h.do(http.MethodGet, "/metrics", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "meerkat_league_http_requests_total")
		})

		Convey("Unknown routes return a JSON 404", func() {
			w := h.do(http.MethodGet, "/nope", "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[errorBody](w).Code, ShouldEqual, "not_found")
		})

		Convey("An incoming request id is echoed", func() {
			w := h.do(http.MethodGet, "/healthz", "", "", api.RequestIDHeader, "req-1")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-1")
		})

		Convey("CORS preflight is answered", func() {
			w := h.do(http.MethodOptions, "/competitions", "", "",
				"Origin", "http://localhost:3000",
				"Access-Control-Request-Method", http.MethodPost,
				"Access-Control-Request-Headers", api.CallerHeader)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}
