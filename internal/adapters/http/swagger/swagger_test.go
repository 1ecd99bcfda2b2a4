package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should serve the OpenAPI document", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/projects:")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/project:")
			})

			convey.Convey("And it should serve the ReDoc page", func() {
				req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
			})
		})
	})
}

func TestSwaggerHandlerRedocScript(t *testing.T) {
	convey.Convey("Given the default registration", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		convey.Convey("Then the page should load a pinned bundle and no local route should exist", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/api-docs", http.NoBody))
			convey.So(w.Body.String(), convey.ShouldContainSubstring, DefaultRedocURL)
			convey.So(w.Body.String(), convey.ShouldNotContainSubstring, "latest")

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", redocPath, http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})

	convey.Convey("Given a local ReDoc bundle", t, func() {
		mux := http.NewServeMux()
		js := []byte("window.Redoc = {init: function() {}};")
		Register(context.Background(), mux, WithRedocScript(js))

		convey.Convey("Then the page should reference it", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/api-docs", http.NoBody))
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `src="`+redocPath+`"`)
			convey.So(w.Body.String(), convey.ShouldNotContainSubstring, "cdn.")
		})

		convey.Convey("And it should be served locally", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", redocPath, http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/javascript; charset=utf-8")
			convey.So(w.Body.Bytes(), convey.ShouldResemble, js)
		})
	})
}

func TestSwaggerHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.Convey("Then registering should panic", func() {
			convey.So(func() {
				Register(context.Background(), nil)
			}, convey.ShouldPanic)
		})
	})
}
