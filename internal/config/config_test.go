package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/meerkat/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ExactScorePoints, convey.ShouldEqual, 3)
			convey.So(cfg.CorrectOutcomePoints, convey.ShouldEqual, 1)
			convey.So(cfg.FeedWorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.IdempotencyTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.RedisURL, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the origin list is split and trimmed", func() {
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"*"})
			cfg.CORSAllowedOrigins = " https://a.example , ,https://b.example"
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("An empty address is rejected", func() {
			cfg.Addr = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Non-positive point values are rejected", func() {
			cfg.CorrectOutcomePoints = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Exact points must exceed outcome points", func() {
			cfg.ExactScorePoints = 1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A bootstrap competition needs an owner", func() {
			cfg.BootstrapCompetitionName = "La Liga"
			convey.So(cfg.HasBootstrapCompetition(), convey.ShouldBeTrue)
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)

			cfg.BootstrapCompetitionOwner = "0x00000000000000000000000000000000000000a1"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
