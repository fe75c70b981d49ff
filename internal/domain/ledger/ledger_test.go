package ledger_test

import (
	"testing"
	"time"

	"github.com/okian/reviewdesk/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	Convey("Given a ledger with five slots", t, func() {
		l := ledger.New(5)
		now := time.Unix(1_700_000_000, 0)

		Convey("When a holder claims a free position", func() {
			err := l.Assign(2, "h1", now)

			Convey("Then the holder owns it", func() {
				So(err, ShouldBeNil)
				owner, ok := l.OwnerOf(2)
				So(ok, ShouldBeTrue)
				So(owner, ShouldEqual, "h1")
				So(l.IsAssigned(2), ShouldBeTrue)
				So(l.Taken(2), ShouldBeTrue)
				So(l.AssignedCount(), ShouldEqual, 1)
			})

			Convey("And the same holder can claim it again", func() {
				So(l.Assign(2, "h1", now.Add(time.Minute)), ShouldBeNil)
				So(l.AssignedCount(), ShouldEqual, 1)
				So(l.Assignments()[0].AssignedAt, ShouldEqual, now)
			})

			Convey("And another holder is refused", func() {
				So(l.Assign(2, "h2", now), ShouldEqual, ledger.ErrAlreadyAssigned)
				owner, _ := l.OwnerOf(2)
				So(owner, ShouldEqual, "h1")
			})

			Convey("And releasing frees it", func() {
				l.Release(2)
				So(l.IsAssigned(2), ShouldBeFalse)
				So(l.Taken(2), ShouldBeFalse)
				So(l.AssignedCount(), ShouldEqual, 0)
			})
		})

		Convey("When releasing an unheld position", func() {
			Convey("Then nothing happens", func() {
				So(func() { l.Release(1) }, ShouldNotPanic)
				So(func() { l.Release(99) }, ShouldNotPanic)
				So(l.AssignedCount(), ShouldEqual, 0)
			})
		})

		Convey("When positions are out of range", func() {
			Convey("Then assignment and completion fail", func() {
				So(l.Assign(5, "h1", now), ShouldEqual, ledger.ErrOutOfRange)
				So(l.Assign(-1, "h1", now), ShouldEqual, ledger.ErrOutOfRange)
				So(l.Complete(7), ShouldEqual, ledger.ErrOutOfRange)
				So(l.Taken(7), ShouldBeTrue)
				_, ok := l.OwnerOf(7)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a held position is completed", func() {
			So(l.Assign(1, "h1", now), ShouldBeNil)
			So(l.Complete(1), ShouldBeNil)

			Convey("Then the assignment is gone and the slot is closed", func() {
				So(l.IsAssigned(1), ShouldBeFalse)
				So(l.IsCompleted(1), ShouldBeTrue)
				So(l.AssignedCount(), ShouldEqual, 0)
				So(l.CompletedCount(), ShouldEqual, 1)
				So(l.Assign(1, "h2", now), ShouldEqual, ledger.ErrCompleted)
				So(l.Complete(1), ShouldEqual, ledger.ErrCompleted)
			})
		})

		Convey("When one holder owns several positions", func() {
			So(l.Assign(0, "h1", now), ShouldBeNil)
			So(l.Assign(3, "h1", now), ShouldBeNil)
			So(l.Assign(4, "h2", now), ShouldBeNil)

			Convey("Then they are listed in order", func() {
				So(l.HeldBy("h1"), ShouldResemble, []int{0, 3})
				So(l.Holders(), ShouldResemble, []string{"h1", "h2"})
			})

			Convey("And releasing the holder frees all of them", func() {
				So(l.ReleaseHolder("h1"), ShouldResemble, []int{0, 3})
				So(l.HeldBy("h1"), ShouldBeEmpty)
				So(l.AssignedCount(), ShouldEqual, 1)
				assignments := l.Assignments()
				So(len(assignments), ShouldEqual, 1)
				So(assignments[0].Position, ShouldEqual, 4)
				So(assignments[0].Holder, ShouldEqual, "h2")
			})
		})

		Convey("When the ledger is reset", func() {
			So(l.Assign(0, "h1", now), ShouldBeNil)
			So(l.Complete(1), ShouldBeNil)
			l.Reset()

			Convey("Then every slot is free again", func() {
				So(l.Len(), ShouldEqual, 5)
				So(l.AssignedCount(), ShouldEqual, 0)
				So(l.CompletedCount(), ShouldEqual, 0)
				So(l.Taken(1), ShouldBeFalse)
			})
		})

		Convey("When the ledger is empty-sized", func() {
			empty := ledger.New(-3)

			Convey("Then every position is taken", func() {
				So(empty.Len(), ShouldEqual, 0)
				So(empty.Taken(0), ShouldBeTrue)
			})
		})
	})
}
