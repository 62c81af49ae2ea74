package dedupe_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/meerkat/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		calls := 0
		create := func() (uint64, error) {
			calls++
			return uint64(calls * 10), nil
		}

		Convey("When a key is used for the first time", func() {
			id, replayed, err := d.Do(ctx, "k1", create)

			Convey("Then fn runs and the result is remembered", func() {
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(id, ShouldEqual, uint64(10))
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same key is repeated", func() {
			first, _, _ := d.Do(ctx, "k1", create)
			second, replayed, err := d.Do(ctx, "k1", create)

			Convey("Then the first result is replayed", func() {
				So(err, ShouldBeNil)
				So(replayed, ShouldBeTrue)
				So(second, ShouldEqual, first)
				So(calls, ShouldEqual, 1)
			})
		})

		Convey("When fn fails", func() {
			boom := errors.New("boom")
			_, _, err := d.Do(ctx, "k2", func() (uint64, error) { return 0, boom })

			Convey("Then the failure is not remembered", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 0)
				id, replayed, err := d.Do(ctx, "k2", create)
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(id, ShouldEqual, uint64(10))
			})
		})

		Convey("When a key is forgotten", func() {
			_, _, _ = d.Do(ctx, "k1", create)
			d.Forget(ctx, "k1")
			id, replayed, _ := d.Do(ctx, "k1", create)

			So(replayed, ShouldBeFalse)
			So(id, ShouldEqual, uint64(20))
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, _, err := d.Do(cctx, "k3", create)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(calls, ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		for i := 0; i < 5; i++ {
			_, _, err := d.Do(ctx, fmt.Sprintf("k%d", i), func() (uint64, error) { return uint64(i), nil })
			So(err, ShouldBeNil)
		}

		Convey("Then the oldest keys are evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			_, replayed, _ := d.Do(ctx, "k0", func() (uint64, error) { return 100, nil })
			So(replayed, ShouldBeFalse)
		})
	})

	Convey("Given a deduper with a short TTL", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithTTL(20 * time.Millisecond))
		_, _, _ = d.Do(ctx, "k", func() (uint64, error) { return 1, nil })

		time.Sleep(60 * time.Millisecond)

		Convey("Then the key expires", func() {
			id, replayed, _ := d.Do(ctx, "k", func() (uint64, error) { return 2, nil })
			So(replayed, ShouldBeFalse)
			So(id, ShouldEqual, uint64(2))
		})
	})

	Convey("Given concurrent requests with the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var created atomic.Int32
		var wg sync.WaitGroup
		ids := make([]uint64, 20)

		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], _, _ = d.Do(ctx, "same", func() (uint64, error) {
					return uint64(created.Add(1)), nil
				})
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one creation happens", func() {
			So(created.Load(), ShouldEqual, int32(1))
			for _, id := range ids {
				So(id, ShouldEqual, uint64(1))
			}
		})
	})
}
