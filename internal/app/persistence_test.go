package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/reviewdesk/internal/adapters/repository"
	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/internal/domain/model"
	"github.com/okian/reviewdesk/internal/domain/state"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_Persistence(t *testing.T) {
	ctx := context.Background()

	Convey("Given a coordinator backed by a memory store", t, func() {
		clock := newFakeClock()
		store := repository.NewMemoryStore()
		svc := service.New(testCatalog(6), store, service.WithClock(clock.Now))
		So(svc.Start(ctx), ShouldBeNil)

		_, _ = svc.RegisterUsername(ctx, "h1", "ann")
		got, _ := svc.GetAssignment(ctx, "h1", 1)
		_, err := svc.RecordVerdict(ctx, "h1", got.Current.Position, true)
		So(err, ShouldBeNil)
		_, _ = svc.GetAssignment(ctx, "h2", 0)

		Convey("Then every mutation was saved", func() {
			So(store.Saves(), ShouldBeGreaterThanOrEqualTo, 4)
			doc, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(doc.Version, ShouldEqual, state.Version)
			So(len(doc.Completed.Liked), ShouldEqual, 1)
			So(len(doc.Assignments), ShouldEqual, 2)
			So(doc.Leaderboard[0].Username, ShouldEqual, "ann")
		})

		Convey("Then read-only calls do not save", func() {
			before := store.Saves()
			_ = svc.Progress()
			_ = svc.Leaderboard()
			_ = svc.AdminStats()
			_, _ = svc.GetAssignment(ctx, "h2", 0)
			So(store.Saves(), ShouldEqual, before)
		})

		Convey("When a new coordinator starts on the same store", func() {
			svc.Stop()
			restored := service.New(testCatalog(6), store, service.WithClock(clock.Now))
			So(restored.Start(ctx), ShouldBeNil)

			Convey("Then holders keep their items and counters survive", func() {
				again, err := restored.GetAssignment(ctx, "h2", 0)
				So(err, ShouldBeNil)
				So(again.Current.Position, ShouldEqual, 2)
				So(restored.HeldBy("h1"), ShouldResemble, []int{1})
				stats, ok := restored.UserStats("ann")
				So(ok, ShouldBeTrue)
				So(stats.Liked, ShouldEqual, 1)
				name, ok := restored.Username("h1")
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "ann")
				So(restored.Progress().Completed, ShouldEqual, 1)
			})

			Convey("And the reviewed item is never reissued", func() {
				for i := 0; i < 3; i++ {
					next, err := restored.GetAssignment(ctx, "fresh", 0)
					So(err, ShouldBeNil)
					So(next.Current.Position, ShouldNotEqual, 0)
					_, err = restored.RecordVerdict(ctx, "fresh", next.Current.Position, false)
					So(err, ShouldBeNil)
				}
			})
		})
	})

	Convey("Given a saved document with inconsistent entries", t, func() {
		store := repository.NewMemoryStore()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		cur := 1
		stale := 9
		doc := state.New()
		doc.Cursor = 3
		doc.Sessions = []state.Session{
			{Holder: "known", LastActive: now, Current: &cur},
			{Holder: "other", LastActive: now, Current: &stale},
		}
		doc.Assignments = []state.Assignment{
			{Position: 1, Holder: "known", AssignedAt: now},
			{Position: 0, Holder: "ghost", AssignedAt: now},
			{Position: 40, Holder: "known", AssignedAt: now},
			{Position: 2, Holder: "other", AssignedAt: now},
		}
		doc.Completed.Disliked = []model.CompletedReview{{Position: 2, Fields: map[string]string{}}}
		doc.Leaderboard = []state.LeaderboardEntry{{Username: "x", Reviews: 7, Liked: 1}}
		So(store.Save(ctx, doc), ShouldBeNil)

		svc := service.New(testCatalog(5), store, service.WithClock(func() time.Time { return now }))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then only valid assignments survive", func() {
			views := svc.Assignments()
			So(len(views), ShouldEqual, 1)
			So(views[0].Position, ShouldEqual, 1)
			So(views[0].Holder, ShouldEqual, "known")
		})

		Convey("Then the dropped position below the cursor is offered again", func() {
			So(svc.AdminStats().Reclaimed, ShouldEqual, 1)
			got, err := svc.GetAssignment(ctx, "newcomer", 0)
			So(err, ShouldBeNil)
			So(got.Current.Position, ShouldEqual, 0)
		})

		Convey("Then leaderboard counters are repaired", func() {
			rows := svc.Leaderboard()
			So(rows[0].Reviews, ShouldEqual, 1)
		})

		Convey("Then the holder keeps its current item", func() {
			got, err := svc.GetAssignment(ctx, "known", 0)
			So(err, ShouldBeNil)
			So(got.Current.Position, ShouldEqual, 1)
		})
	})

	Convey("Given a cursor sitting on a held position with a small window", t, func() {
		store := repository.NewMemoryStore()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		doc := state.New()
		doc.Sessions = []state.Session{{Holder: "h1", LastActive: now}}
		doc.Assignments = []state.Assignment{
			{Position: 0, Holder: "h1", AssignedAt: now},
			{Position: 1, Holder: "h1", AssignedAt: now},
		}
		So(store.Save(ctx, doc), ShouldBeNil)

		svc := service.New(testCatalog(3), store,
			service.WithClock(func() time.Time { return now }),
			service.WithSearchWindow(2))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When the window is full the cursor moves once and the search retries", func() {
			got, err := svc.GetAssignment(ctx, "h2", 0)
			So(err, ShouldBeNil)
			So(got.Current.Position, ShouldEqual, 2)
			So(svc.AdminStats().Cursor, ShouldEqual, 1)

			Convey("And with nothing free the holder is finished", func() {
				_, err := svc.GetAssignment(ctx, "h3", 0)
				So(err, ShouldEqual, service.ErrCatalogExhausted)
				So(svc.AdminStats().Cursor, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a store that always fails", t, func() {
		store := &failingStore{}
		svc := service.New(testCatalog(3), store)

		Convey("Then starting and mutating still succeed", func() {
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.RegisterUsername(ctx, "h1", "ann")
			So(err, ShouldBeNil)
			got, err := svc.GetAssignment(ctx, "h1", 0)
			So(err, ShouldBeNil)
			v, err := svc.RecordVerdict(ctx, "h1", got.Current.Position, true)
			So(err, ShouldBeNil)
			So(v.Stats.Reviews, ShouldEqual, 1)
			So(svc.Progress().Completed, ShouldEqual, 1)
			So(store.saves, ShouldBeGreaterThanOrEqualTo, 3)
		})

		Convey("Then the failure is kept for operators", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(errors.Is(svc.PersistError(), service.ErrPersistence), ShouldBeTrue)
			So(errors.Is(svc.PersistError(), errStoreDown), ShouldBeTrue)

			_, _ = svc.GetAssignment(ctx, "h1", 0)
			err := svc.PersistError()
			So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "save to failing")
			So(svc.AdminStats().PersistError, ShouldEqual, err.Error())
		})
	})

	Convey("Given a store that recovers after an outage", t, func() {
		store := &flakyStore{MemoryStore: repository.NewMemoryStore(), down: true}
		svc := service.New(testCatalog(3), store)
		So(svc.Start(ctx), ShouldBeNil)

		_, err := svc.GetAssignment(ctx, "h1", 0)
		So(err, ShouldBeNil)
		So(errors.Is(svc.PersistError(), service.ErrPersistence), ShouldBeTrue)

		Convey("When the next save succeeds", func() {
			store.down = false
			_, err := svc.GetAssignment(ctx, "h2", 0)
			So(err, ShouldBeNil)

			Convey("Then the failure is cleared", func() {
				So(svc.PersistError(), ShouldBeNil)
				So(svc.AdminStats().PersistError, ShouldBeEmpty)
				doc, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(len(doc.Assignments), ShouldEqual, 2)
			})
		})
	})
}

// flakyStore fails every save while down is set.
type flakyStore struct {
	*repository.MemoryStore
	down bool
}

func (f *flakyStore) Save(ctx context.Context, doc *state.Document) error {
	if f.down {
		return errStoreDown
	}
	return f.MemoryStore.Save(ctx, doc)
}
