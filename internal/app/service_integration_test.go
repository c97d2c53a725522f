package service

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestService_WithSQLite(t *testing.T) {
	Convey("Given a service backed by a real database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "data", "leaderboard.db")
		svc := New(WithDBPath(path), WithMaxOpenConns(2))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("When three players submit", func() {
			_, err := svc.Submit(ctx, submission("A", "100", "5", "0"))
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, submission("B", "100", "10", "0"))
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, submission("C", "200", "0", "0"))
			So(err, ShouldBeNil)

			entries, err := svc.TopN(ctx)

			Convey("Then they come back ranked", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
				So(entries[0].Name, ShouldEqual, "C")
				So(entries[1].Name, ShouldEqual, "B")
				So(entries[2].Name, ShouldEqual, "A")
			})
		})

		Convey("When the service restarts on the same file", func() {
			_, err := svc.Submit(ctx, submission("kept", "1", "1", "1"))
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			restarted := New(WithDBPath(path))
			So(restarted.Start(ctx), ShouldBeNil)
			defer func() { _ = restarted.Stop(ctx) }()
			entries, err := restarted.TopN(ctx)

			Convey("Then earlier entries are still there", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Name, ShouldEqual, "kept")
			})
		})
	})

	Convey("Given a database path that cannot be opened", t, func() {
		svc := New(WithDBPath(t.TempDir()))
		err := svc.Start(context.Background())

		Convey("Then the service fails to start", func() {
			So(err, ShouldNotBeNil)
			So(svc.Phase(), ShouldEqual, PhaseFailed)
		})
	})
}
