package site

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	. "github.com/smartystreets/goconvey/convey"
)

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given the embedded site", t, func() {
		h := NewHandler()

		Convey("When the root is requested", func() {
			w := get(h, "/")

			Convey("Then the index page is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "/api/leaderboard")
			})
		})

		Convey("When an embedded asset is requested", func() {
			w := get(h, "/style.css")

			Convey("Then the asset itself is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
			})
		})

		Convey("When an unknown path is requested", func() {
			w := get(h, "/runs/42")

			Convey("Then the index page is the fallback", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "<html")
			})
		})

		Convey("When the path tries to escape the site root", func() {
			w := get(h, "/../../etc/passwd")

			Convey("Then nothing outside the site is served", func() {
				So(w.Code, ShouldBeIn, []int{http.StatusOK, http.StatusBadRequest})
				So(w.Body.String(), ShouldNotContainSubstring, "root:")
			})
		})
	})
}

func TestSiteHandlerFS(t *testing.T) {
	Convey("Given a custom filesystem", t, func() {
		files := fstest.MapFS{
			IndexFile:         {Data: []byte("<html>home</html>")},
			"assets/app.js":   {Data: []byte("console.log(1)")},
			"assets/sub/x.md": {Data: []byte("# x")},
		}
		h := NewHandlerFS(files)

		Convey("Then directories fall back to the index", func() {
			w := get(h, "/assets")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "<html>home</html>")
		})

		Convey("Then nested files are served", func() {
			w := get(h, "/assets/app.js")
			So(w.Body.String(), ShouldEqual, "console.log(1)")
		})
	})

	Convey("Given a nil filesystem", t, func() {
		So(func() { NewHandlerFS(nil) }, ShouldPanic)
	})
}
