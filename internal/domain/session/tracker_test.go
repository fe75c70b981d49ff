package session_test

import (
	"testing"
	"time"

	"github.com/okian/reviewdesk/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given an empty tracker", t, func() {
		tr := session.NewTracker()
		start := time.Unix(1_700_000_000, 0)

		Convey("When a holder is touched", func() {
			tr.Touch("h1", start)

			Convey("Then a session exists with no current item", func() {
				s, ok := tr.Get("h1")
				So(ok, ShouldBeTrue)
				So(s.LastActive, ShouldEqual, start)
				So(s.Current, ShouldEqual, session.NoItem)
				_, ok = tr.Current("h1")
				So(ok, ShouldBeFalse)
				So(tr.Len(), ShouldEqual, 1)
			})
		})

		Convey("When sessions go idle", func() {
			tr.Touch("old", start)
			tr.Touch("fresh", start.Add(100*time.Second))
			tr.Touch("older", start.Add(-time.Second))
			now := start.Add(121 * time.Second)

			Convey("Then only the ones past the timeout are removed", func() {
				So(tr.ActiveCount(now, 120*time.Second), ShouldEqual, 1)
				expired := tr.ExpireOlderThan(now, 120*time.Second)
				So(expired, ShouldResemble, []string{"old", "older"})
				So(tr.Has("old"), ShouldBeFalse)
				So(tr.Has("fresh"), ShouldBeTrue)
			})

			Convey("And an exact-timeout idle period is kept", func() {
				expired := tr.ExpireOlderThan(start.Add(120*time.Second), 120*time.Second)
				So(expired, ShouldResemble, []string{"older"})
			})
		})

		Convey("When a username is set", func() {
			tr.SetUsername("h1", "alice", start)

			Convey("Then it can be read back", func() {
				name, ok := tr.Username("h1")
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "alice")
				_, ok = tr.Username("h2")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a current item is tracked", func() {
			tr.Touch("h1", start)
			tr.SetCurrent("h1", 4)

			Convey("Then clearing a different position keeps it", func() {
				tr.ClearCurrentIf("h1", 3)
				pos, ok := tr.Current("h1")
				So(ok, ShouldBeTrue)
				So(pos, ShouldEqual, 4)
			})

			Convey("And clearing the same position unsets it", func() {
				tr.ClearCurrentIf("h1", 4)
				_, ok := tr.Current("h1")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When restoring sessions", func() {
			tr.Touch("stale", start)
			tr.Restore([]session.Session{
				{Holder: "b", LastActive: start, Current: 2},
				{Holder: "a", LastActive: start, Username: "ann", Current: session.NoItem},
				{Holder: ""},
			})

			Convey("Then the tracker holds exactly those sessions", func() {
				So(tr.Has("stale"), ShouldBeFalse)
				all := tr.Sessions()
				So(len(all), ShouldEqual, 2)
				So(all[0].Holder, ShouldEqual, "a")
				So(all[1].Current, ShouldEqual, 2)
			})

			Convey("And reset empties it", func() {
				tr.Reset()
				So(tr.Len(), ShouldEqual, 0)
			})
		})
	})
}
