package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/meerkat/internal/adapters/repository"
	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	owner    model.Address = "0x00000000000000000000000000000000000000a1"
	stranger model.Address = "0x00000000000000000000000000000000000000b2"
	other    model.Address = "0x00000000000000000000000000000000000000c3"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func fixedClock() time.Time { return epoch }

// future is a start time one hour after the fixed clock.
var future = epoch.Add(time.Hour).UnixMilli()

func newLedger() *repository.MemoryLedger {
	return repository.NewMemoryLedger(owner, repository.WithClock(fixedClock))
}

func TestMemoryLedger_Games(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty ledger", t, func() {
		l := newLedger()
		So(l.Owner(), ShouldEqual, owner)
		So(l.Games(ctx), ShouldBeEmpty)

		Convey("When the owner adds games", func() {
			id1, err1 := l.AddGame(ctx, owner, "Real", "Betis", future)
			id2, err2 := l.AddGame(ctx, owner, "Barcelona", "Girona", future)

			Convey("Then ids start at 1 and increase", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(id1, ShouldEqual, uint64(1))
				So(id2, ShouldEqual, uint64(2))
			})

			Convey("Then new games have zero scores and are not finalized", func() {
				g, ok := l.Game(ctx, 1).Game()
				So(ok, ShouldBeTrue)
				So(g, ShouldResemble, model.Game{ID: 1, HomeCompetitor: "Real", AwayCompetitor: "Betis", StartTime: future})
			})

			Convey("Then the version advances", func() {
				So(l.Version(), ShouldEqual, uint64(2))
			})
		})

		Convey("When a stranger adds a game", func() {
			_, err := l.AddGame(ctx, stranger, "Real", "Betis", future)

			Convey("Then the call is unauthorized and nothing changes", func() {
				So(errors.Is(err, repository.ErrUnauthorized), ShouldBeTrue)
				So(l.Games(ctx), ShouldBeEmpty)
				So(l.Version(), ShouldEqual, uint64(0))
			})
		})

		Convey("When a competitor name is blank", func() {
			_, err := l.AddGame(ctx, owner, " ", "Betis", future)
			So(errors.Is(err, repository.ErrInvalidGame), ShouldBeTrue)
			So(l.Games(ctx), ShouldBeEmpty)
		})

		Convey("When reading an id that was never assigned", func() {
			So(l.Game(ctx, 0).Live(), ShouldBeFalse)
			So(l.Game(ctx, 9).ID(), ShouldEqual, uint64(0))
		})
	})

	Convey("Given a ledger with three games", t, func() {
		l := newLedger()
		for _, pair := range [][2]string{{"Real", "Betis"}, {"Barcelona", "Girona"}, {"Atletico", "Elche"}} {
			_, err := l.AddGame(ctx, owner, pair[0], pair[1], future)
			So(err, ShouldBeNil)
		}

		Convey("When the owner updates a game", func() {
			err := l.UpdateGame(ctx, owner, 2, repository.GameInput{
				HomeCompetitor: "Barca", AwayCompetitor: "Girona", StartTime: future + 1,
				HomeScore: 2, AwayScore: 0, IsFinalized: true,
			})

			Convey("Then every field is overwritten", func() {
				So(err, ShouldBeNil)
				g, _ := l.Game(ctx, 2).Game()
				So(g, ShouldResemble, model.Game{
					ID: 2, HomeCompetitor: "Barca", AwayCompetitor: "Girona", StartTime: future + 1,
					HomeScore: 2, AwayScore: 0, IsFinalized: true,
				})
			})
		})

		Convey("When a stranger updates or deletes a game", func() {
			errU := l.UpdateGame(ctx, stranger, 1, repository.GameInput{HomeCompetitor: "x", AwayCompetitor: "y"})
			errD := l.DeleteGame(ctx, stranger, 1)

			So(errors.Is(errU, repository.ErrUnauthorized), ShouldBeTrue)
			So(errors.Is(errD, repository.ErrUnauthorized), ShouldBeTrue)
			So(l.Game(ctx, 1).Live(), ShouldBeTrue)
		})

		Convey("When an update carries a negative score", func() {
			err := l.UpdateGame(ctx, owner, 1, repository.GameInput{HomeCompetitor: "Real", AwayCompetitor: "Betis", HomeScore: -1})
			So(errors.Is(err, repository.ErrInvalidGame), ShouldBeTrue)
			g, _ := l.Game(ctx, 1).Game()
			So(g.HomeScore, ShouldEqual, 0)
		})

		Convey("When the owner deletes the second game", func() {
			So(l.DeleteGame(ctx, owner, 2), ShouldBeNil)

			Convey("Then the slot reads back as absent and the length is unchanged", func() {
				games := l.Games(ctx)
				So(len(games), ShouldEqual, 3)
				So(games[0].ID(), ShouldEqual, uint64(1))
				So(games[1].ID(), ShouldEqual, uint64(0))
				So(games[1].Live(), ShouldBeFalse)
				So(games[2].ID(), ShouldEqual, uint64(3))
			})

			Convey("Then the deleted id cannot be updated or deleted again", func() {
				err := l.UpdateGame(ctx, owner, 2, repository.GameInput{HomeCompetitor: "a", AwayCompetitor: "b"})
				So(errors.Is(err, repository.ErrGameNotFound), ShouldBeTrue)
				So(errors.Is(l.DeleteGame(ctx, owner, 2), repository.ErrGameNotFound), ShouldBeTrue)
			})

			Convey("Then the next id is not reused", func() {
				id, err := l.AddGame(ctx, owner, "Sevilla", "Cadiz", future)
				So(err, ShouldBeNil)
				So(id, ShouldEqual, uint64(4))
			})
		})

		Convey("When the id does not exist", func() {
			So(errors.Is(l.DeleteGame(ctx, owner, 111), repository.ErrGameNotFound), ShouldBeTrue)
		})

		Convey("When the caller is not the owner and the id does not exist", func() {
			So(errors.Is(l.DeleteGame(ctx, stranger, 111), repository.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("Then returned slices are copies", func() {
			games := l.Games(ctx)
			games[0] = model.AbsentSlot()
			So(l.Game(ctx, 1).Live(), ShouldBeTrue)
		})
	})
}

func TestMemoryLedger_Predictions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger with an upcoming and a started game", t, func() {
		l := newLedger()
		upcoming, _ := l.AddGame(ctx, owner, "Real", "Betis", future)
		started, _ := l.AddGame(ctx, owner, "Barcelona", "Girona", epoch.UnixMilli())
		later, _ := l.AddGame(ctx, owner, "Atletico", "Elche", future)

		Convey("When any user predicts an upcoming game", func() {
			So(l.AddOrUpdatePrediction(ctx, stranger, upcoming, 2, 1), ShouldBeNil)

			Convey("Then the prediction is readable", func() {
				So(l.Prediction(ctx, stranger, upcoming), ShouldResemble, model.Prediction{GameID: upcoming, HomeScore: 2, AwayScore: 1})
			})

			Convey("Then other users see the zero sentinel", func() {
				So(l.Prediction(ctx, other, upcoming).IsZero(), ShouldBeTrue)
			})
		})

		Convey("When a user updates an earlier prediction", func() {
			So(l.AddOrUpdatePrediction(ctx, stranger, upcoming, 1, 0), ShouldBeNil)
			So(l.AddOrUpdatePrediction(ctx, stranger, later, 0, 0), ShouldBeNil)
			So(l.AddOrUpdatePrediction(ctx, stranger, upcoming, 3, 3), ShouldBeNil)

			Convey("Then it keeps its first-submitted position", func() {
				So(l.Predictions(ctx, stranger), ShouldResemble, []model.Prediction{
					{GameID: upcoming, HomeScore: 3, AwayScore: 3},
					{GameID: later, HomeScore: 0, AwayScore: 0},
				})
			})
		})

		Convey("When predicting a game at its start time", func() {
			err := l.AddOrUpdatePrediction(ctx, stranger, started, 1, 1)
			So(errors.Is(err, repository.ErrGameAlreadyStarted), ShouldBeTrue)
			So(l.Prediction(ctx, stranger, started).IsZero(), ShouldBeTrue)
		})

		Convey("When predicting an unknown or deleted game", func() {
			So(errors.Is(l.AddOrUpdatePrediction(ctx, stranger, 42, 1, 1), repository.ErrGameNotFound), ShouldBeTrue)
			So(l.DeleteGame(ctx, owner, later), ShouldBeNil)
			So(errors.Is(l.AddOrUpdatePrediction(ctx, stranger, later, 1, 1), repository.ErrGameNotFound), ShouldBeTrue)
		})

		Convey("When a forecast score is negative", func() {
			err := l.AddOrUpdatePrediction(ctx, stranger, upcoming, -1, 0)
			So(errors.Is(err, repository.ErrInvalidPrediction), ShouldBeTrue)
			So(l.Predictions(ctx, stranger), ShouldBeEmpty)
		})

		Convey("When the game is deleted after a prediction", func() {
			So(l.AddOrUpdatePrediction(ctx, stranger, later, 1, 1), ShouldBeNil)
			So(l.DeleteGame(ctx, owner, later), ShouldBeNil)

			Convey("Then the prediction stays in storage", func() {
				So(len(l.Predictions(ctx, stranger)), ShouldEqual, 1)
			})
		})

		Convey("When a prior prediction exists and the game has started", func() {
			clock := epoch
			l := repository.NewMemoryLedger(owner, repository.WithClock(func() time.Time { return clock }))
			id, _ := l.AddGame(ctx, owner, "Real", "Betis", future)
			So(l.AddOrUpdatePrediction(ctx, stranger, id, 2, 0), ShouldBeNil)

			clock = epoch.Add(2 * time.Hour)
			err := l.AddOrUpdatePrediction(ctx, stranger, id, 0, 2)

			Convey("Then the stored prediction is unchanged", func() {
				So(errors.Is(err, repository.ErrGameAlreadyStarted), ShouldBeTrue)
				So(l.Prediction(ctx, stranger, id), ShouldResemble, model.Prediction{GameID: id, HomeScore: 2, AwayScore: 0})
			})
		})
	})
}

func TestMemoryLedger_Points(t *testing.T) {
	ctx := context.Background()
	userA, userB, userC := owner, stranger, other

	Convey("Given three games predicted by three users", t, func() {
		clock := epoch
		l := repository.NewMemoryLedger(owner,
			repository.WithClock(func() time.Time { return clock }),
			repository.WithEngine(scoring.NewEngine()),
		)
		for _, pair := range [][2]string{{"Real", "Betis"}, {"Barcelona", "Girona"}, {"Atletico", "Elche"}} {
			_, err := l.AddGame(ctx, owner, pair[0], pair[1], future)
			So(err, ShouldBeNil)
		}
		predict := func(u model.Address, id uint64, h, a int) {
			So(l.AddOrUpdatePrediction(ctx, u, id, h, a), ShouldBeNil)
		}
		predict(userA, 1, 2, 1)
		predict(userA, 2, 1, 1)
		predict(userA, 3, 1, 2)
		predict(userB, 1, 3, 1)
		predict(userB, 2, 2, 2)
		predict(userB, 3, 1, 3)
		predict(userC, 1, 1, 1)
		predict(userC, 2, 1, 1)
		predict(userC, 3, 1, 1)

		Convey("Before any game is finalized", func() {
			rows, _ := l.Points(ctx)
			So(len(rows), ShouldEqual, 3)
			for _, r := range rows {
				So(r.Score, ShouldEqual, 0)
				So(r.TotalNumberOfPredictions, ShouldEqual, 3)
			}
		})

		Convey("When all games are finalized", func() {
			clock = epoch.Add(2 * time.Hour)
			finals := map[uint64][2]int{1: {3, 1}, 2: {1, 1}, 3: {1, 2}}
			for id, s := range finals {
				g, _ := l.Game(ctx, id).Game()
				So(l.UpdateGame(ctx, owner, id, repository.GameInput{
					HomeCompetitor: g.HomeCompetitor, AwayCompetitor: g.AwayCompetitor, StartTime: g.StartTime,
					HomeScore: s[0], AwayScore: s[1], IsFinalized: true,
				}), ShouldBeNil)
			}

			rows, version := l.Points(ctx)

			Convey("Then the standings match in first-appearance order", func() {
				So(version, ShouldEqual, l.Version())
				So(rows, ShouldResemble, []model.UserPoints{
					{User: userA, Score: 7, CorrectPredictions: 2, CorrectOutcomes: 3, TotalNumberOfPredictions: 3},
					{User: userB, Score: 5, CorrectPredictions: 1, CorrectOutcomes: 3, TotalNumberOfPredictions: 3},
					{User: userC, Score: 3, CorrectPredictions: 1, CorrectOutcomes: 1, TotalNumberOfPredictions: 3},
				})
			})

			Convey("Then deleting the second game removes its credit", func() {
				So(l.DeleteGame(ctx, owner, 2), ShouldBeNil)
				rows, _ := l.Points(ctx)
				So(rows[0].Score, ShouldEqual, 4)
				So(rows[0].CorrectPredictions, ShouldEqual, 1)
				So(rows[0].CorrectOutcomes, ShouldEqual, 2)
				So(rows[1].Score, ShouldEqual, 4)
				So(rows[1].CorrectPredictions, ShouldEqual, 1)
				So(rows[1].CorrectOutcomes, ShouldEqual, 2)
				So(rows[2].Score, ShouldEqual, 0)
				So(rows[2].CorrectPredictions, ShouldEqual, 0)
				So(rows[2].CorrectOutcomes, ShouldEqual, 0)
			})

			Convey("Then repeated calls without mutation are identical", func() {
				again, v := l.Points(ctx)
				So(again, ShouldResemble, rows)
				So(v, ShouldEqual, version)
			})

			Convey("Then stats describe the ledger", func() {
				st := l.Stats(ctx)
				So(st.Slots, ShouldEqual, 3)
				So(st.LiveGames, ShouldEqual, 3)
				So(st.Finalized, ShouldEqual, 3)
				So(st.Users, ShouldEqual, 3)
				So(st.Predictions, ShouldEqual, 9)
			})
		})
	})
}

func TestMemoryLedger_Concurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given concurrent writers and readers", t, func() {
		l := newLedger()
		id, _ := l.AddGame(ctx, owner, "Real", "Betis", future)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				user := model.Address(string(rune('a'+i%26)) + "-user")
				_ = l.AddOrUpdatePrediction(ctx, user, id, i%4, i%3)
			}(i)
			go func() {
				defer wg.Done()
				_, _ = l.Points(ctx)
			}()
		}
		wg.Wait()

		Convey("Then every distinct user appears once", func() {
			rows, _ := l.Points(ctx)
			So(len(rows), ShouldEqual, 26)
		})
	})
}
