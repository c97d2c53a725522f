package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/okian/gauntlet/internal/adapters/http/api"
	service "github.com/okian/gauntlet/internal/app"
	"github.com/okian/gauntlet/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	svc := service.New(service.WithDBPath(filepath.Join(t.TempDir(), "lb.db")))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc).Router())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv.URL
}

func execute(url string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", url}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		url := startServer(t)

		convey.Convey("When health is checked", func() {
			out, err := execute(url, "health")

			convey.Convey("Then storage is reported ready", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, `"db": true`)
			})
		})

		convey.Convey("When runs are submitted and listed", func() {
			_, err := execute(url, "submit", "--name", "Ada", "--cash", "12.7", "--sales", "3", "--burn", "1")
			convey.So(err, convey.ShouldBeNil)
			out, err := execute(url, "list")

			convey.Convey("Then the table shows the rounded entry", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "NAME")
				convey.So(out, convey.ShouldContainSubstring, "Ada")
				convey.So(out, convey.ShouldContainSubstring, "13")
			})
		})

		convey.Convey("When submit is missing the name", func() {
			_, err := execute(url, "submit", "--cash", "1")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When reset is not confirmed", func() {
			_, err := execute(url, "reset")
			convey.So(errors.Is(err, errResetNotConfirmed), convey.ShouldBeTrue)
		})

		convey.Convey("When reset is confirmed", func() {
			_, _ = execute(url, "submit", "--name", "x")
			out, err := execute(url, "reset", "--yes")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "deleted 1 entries")
		})

		convey.Convey("When a load run is executed", func() {
			out, err := execute(url, "load", "--entries", "30", "--workers", "3", "--reset-first", "--seed", "5")

			convey.Convey("Then the report is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, `"submitted": 30`)
				convey.So(out, convey.ShouldContainSubstring, `"listed": 30`)
			})
		})
	})
}
