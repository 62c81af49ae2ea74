package simulate_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meerkat/internal/adapters/http/api"
	service "github.com/okian/meerkat/internal/app"
	"github.com/okian/meerkat/internal/simulate"
	"github.com/okian/meerkat/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func newServer(opts ...service.Option) *httptest.Server {
	svc := service.New(opts...)
	return httptest.NewServer(api.NewRouter(context.Background(), api.NewServer(svc, svc), []string{"*"}))
}

func TestRun(t *testing.T) {
	Convey("Given a running league server", t, func() {
		srv := newServer()
		defer srv.Close()
		ctx := context.Background()

		Convey("A simulation verifies the standings", func() {
			report, err := simulate.Run(ctx, &simulate.Config{
				BaseURL: srv.URL,
				Players: 6,
				Games:   4,
				Workers: 3,
				Seed:    42,
			})
			So(err, ShouldBeNil)
			So(report.CompetitionID, ShouldEqual, uint64(1))
			So(report.PredictionsFailed, ShouldEqual, 0)
			So(report.PredictionsSubmitted, ShouldBeGreaterThan, 0)
			So(len(report.Standings), ShouldBeLessThanOrEqualTo, 6)
		})

		Convey("A simulation with a deleted game still verifies", func() {
			report, err := simulate.Run(ctx, &simulate.Config{
				BaseURL:    srv.URL,
				Players:    5,
				Games:      3,
				Seed:       7,
				DeleteGame: true,
			})
			So(err, ShouldBeNil)
			So(report.DeletedGameID, ShouldEqual, uint64(2))
		})

		Convey("Custom point values are picked up from the server", func() {
			custom := newServer(service.WithScoringPoints(5, 2))
			defer custom.Close()

			_, err := simulate.Run(ctx, &simulate.Config{BaseURL: custom.URL, Players: 4, Games: 3, Seed: 3})
			So(err, ShouldBeNil)
		})

		Convey("An empty plan is rejected", func() {
			_, err := simulate.Run(ctx, &simulate.Config{BaseURL: srv.URL})
			So(errors.Is(err, simulate.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given an unreachable server", t, func() {
		_, err := simulate.Run(context.Background(), &simulate.Config{
			BaseURL: "http://127.0.0.1:1",
			Players: 1,
			Games:   1,
			Timeout: time.Second,
		})
		So(err, ShouldNotBeNil)
	})
}

func TestClient(t *testing.T) {
	Convey("Given a server that rejects everything", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"code":"internal"}`, http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := simulate.NewClient(srv.URL, time.Second)

		Convey("Calls surface the unexpected status", func() {
			_, err := c.CreateCompetition(context.Background(), simulate.OwnerWallet(), "cup")
			So(errors.Is(err, simulate.ErrUnexpectedStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "500")
		})
	})

	Convey("Wallets are valid hex addresses", t, func() {
		So(simulate.Wallet(0), ShouldEqual, "0x0000000000000000000000000000000000000001")
		So(len(simulate.OwnerWallet()), ShouldEqual, 42)
	})
}
