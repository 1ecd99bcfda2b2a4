package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/okian/househunt/internal/adapters/remote"
	"github.com/okian/househunt/internal/domain/criteria"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, bool) {
	return string(s), s != ""
}

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
}

func newServer(status int, response string) (*httptest.Server, *[]recorded, *int32) {
	var calls int32
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   b,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	return srv, &reqs, &calls
}

func TestClient_ListProjects(t *testing.T) {
	Convey("Given a server returning one project", t, func() {
		srv, reqs, _ := newServer(http.StatusOK, `{"projects":[{"projectId":"p1","project":{
			"title":"Search","description":"first home",
			"criteria":[{"id":"g1","category":"Kitchen","items":["Counters"]},{"id":"","category":"bad"}],
			"houseEntries":[{"address":"1 Elm","scores":[{"score":4,"criteriaId":"g1"}],"notes":["No notes"]}]}}]}`)
		defer srv.Close()
		c, err := remote.New(srv.URL, staticToken("tok"))
		So(err, ShouldBeNil)

		Convey("When listing projects", func() {
			ps, err := c.ListProjects(context.Background())

			Convey("Then the payload should be converted and the token attached", func() {
				So(err, ShouldBeNil)
				So(ps, ShouldHaveLength, 1)
				So(ps[0].ID, ShouldEqual, "p1")
				So(ps[0].Schema.Len(), ShouldEqual, 1)
				So(ps[0].Entries[0].Address, ShouldEqual, "1 Elm")
				So((*reqs)[0].method, ShouldEqual, http.MethodGet)
				So((*reqs)[0].path, ShouldEqual, "/projects")
				So((*reqs)[0].auth, ShouldEqual, "Bearer tok")
			})
		})
	})

	Convey("Given a server returning the empty signal", t, func() {
		srv, _, _ := newServer(http.StatusOK, `{"message": "No projects found"}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("When listing projects", func() {
			ps, err := c.ListProjects(context.Background())

			Convey("Then an empty result without error should be returned", func() {
				So(err, ShouldBeNil)
				So(ps, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a server returning a bare array", t, func() {
		srv, _, _ := newServer(http.StatusOK, `[{"projectId":"p9","project":{"title":"t","description":"d","criteria":[],"houseEntries":[]}}]`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("Then it should be accepted", func() {
			ps, err := c.ListProjects(context.Background())
			So(err, ShouldBeNil)
			So(ps, ShouldHaveLength, 1)
			So(ps[0].ID, ShouldEqual, "p9")
		})
	})

	Convey("Given a list where one project has a non-string legacy detail", t, func() {
		srv, _, _ := newServer(http.StatusOK, `{"projects":[
			{"projectId":"good","project":{"title":"Good","description":"","criteria":[{"id":"k","category":"Kitchen","items":["Counters"]}],"houseEntries":[]}},
			{"projectId":"bad","project":{"title":"Bad","description":"","criteria":[{"id":"y","details":{"Yard":5}},{"id":"g","category":"Garage"}],"houseEntries":[]}}]}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("When listing projects", func() {
			ps, err := c.ListProjects(context.Background())

			Convey("Then both projects should load and only the bad criterion should be skipped", func() {
				So(err, ShouldBeNil)
				So(ps, ShouldHaveLength, 2)
				So(ps[0].ID, ShouldEqual, "good")
				So(ps[0].Schema.Len(), ShouldEqual, 1)
				So(ps[1].ID, ShouldEqual, "bad")
				So(ps[1].Schema.Len(), ShouldEqual, 1)
				_, ok := ps[1].Schema.Group("g")
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given a list where one score value is a string", t, func() {
		srv, _, _ := newServer(http.StatusOK, `{"projects":[{"projectId":"p1","project":{"title":"Search","description":"",
			"criteria":[{"id":"k","category":"Kitchen"},{"id":"y","category":"Yard"}],
			"houseEntries":[{"address":"1 Elm","scores":[{"score":"4","criteriaId":"k"},{"score":3,"criteriaId":"y"}],"notes":["ok",7]},
				"not an entry",
				{"address":"2 Oak","scores":[],"notes":[]}]}}]}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("When listing projects", func() {
			ps, err := c.ListProjects(context.Background())

			Convey("Then the project should load with the valid scores and entries", func() {
				So(err, ShouldBeNil)
				So(ps, ShouldHaveLength, 1)
				So(ps[0].Entries, ShouldHaveLength, 2)
				e := ps[0].Entries[0]
				So(e.Address, ShouldEqual, "1 Elm")
				So(e.Scores.Len(), ShouldEqual, 1)
				v, _ := e.Scores.Get("y")
				So(v, ShouldEqual, 3)
				So(e.Notes, ShouldResemble, []string{"ok"})
				So(ps[0].Entries[1].Address, ShouldEqual, "2 Oak")
			})
		})
	})

	Convey("Given a list with an envelope that is not an object", t, func() {
		srv, _, _ := newServer(http.StatusOK, `{"projects":[42,{"projectId":"p1","project":{"title":"t"}},{"projectId":"p2","project":"x"}]}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("Then only the usable envelope should be kept", func() {
			ps, err := c.ListProjects(context.Background())
			So(err, ShouldBeNil)
			So(ps, ShouldHaveLength, 1)
			So(ps[0].ID, ShouldEqual, "p1")
		})
	})

	Convey("Given a server returning an unexpected body", t, func() {
		srv, _, _ := newServer(http.StatusOK, `{"message":"something else"}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("Then a data shape error should be returned", func() {
			_, err := c.ListProjects(context.Background())
			So(errors.Is(err, remote.ErrDataShape), ShouldBeTrue)
		})
	})

	Convey("Given a server failing with 500", t, func() {
		srv, _, _ := newServer(http.StatusInternalServerError, `{"code":"internal","message":"boom"}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("Then a transport error carrying the status should be returned", func() {
			_, err := c.ListProjects(context.Background())
			So(errors.Is(err, remote.ErrTransport), ShouldBeTrue)
			var se *remote.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, 500)
			So(se.Message, ShouldEqual, "boom")
		})
	})

	Convey("Given a server rejecting the credential", t, func() {
		srv, _, _ := newServer(http.StatusUnauthorized, `{"message":"Unauthorized"}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("expired"))

		Convey("Then an auth error should be returned", func() {
			_, err := c.ListProjects(context.Background())
			So(errors.Is(err, remote.ErrAuth), ShouldBeTrue)
			So(errors.Is(err, remote.ErrTransport), ShouldBeFalse)
		})
	})

	Convey("Given an unreachable server", t, func() {
		srv, _, _ := newServer(http.StatusOK, `{}`)
		url := srv.URL
		srv.Close()
		c, _ := remote.New(url, staticToken("tok"))

		Convey("Then a transport error should be returned", func() {
			_, err := c.ListProjects(context.Background())
			So(errors.Is(err, remote.ErrTransport), ShouldBeTrue)
		})
	})
}

func TestClient_NoToken(t *testing.T) {
	Convey("Given a client without a credential", t, func() {
		srv, _, calls := newServer(http.StatusOK, `{}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken(""))

		Convey("When any call is made", func() {
			_, listErr := c.ListProjects(context.Background())
			createErr := c.CreateProject(context.Background(), model.ProjectDraft{Title: "t"})
			addErr := c.AddEntry(context.Background(), "p1", model.Entry{Address: "a"})

			Convey("Then it should fail with ErrAuth and send nothing", func() {
				So(errors.Is(listErr, remote.ErrAuth), ShouldBeTrue)
				So(errors.Is(createErr, remote.ErrAuth), ShouldBeTrue)
				So(errors.Is(addErr, remote.ErrAuth), ShouldBeTrue)
				So(atomic.LoadInt32(calls), ShouldEqual, 0)
			})
		})
	})
}

func TestClient_Mutations(t *testing.T) {
	Convey("Given a server accepting writes", t, func() {
		srv, reqs, _ := newServer(http.StatusOK, `{"projectId":"abc"}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL+"/", staticToken("tok"), remote.WithRateLimit(0, 0))

		Convey("When creating a project", func() {
			schema := criteria.New()
			g, _ := schema.AddGroup("Bedroom", "Size")
			_ = schema.AddItem(g.ID, "Closet space")
			err := c.CreateProject(context.Background(), model.ProjectDraft{Title: "123 Main", Description: "test", Schema: schema})

			Convey("Then the criteria should be posted under project", func() {
				So(err, ShouldBeNil)
				r := (*reqs)[0]
				So(r.method, ShouldEqual, http.MethodPost)
				So(r.path, ShouldEqual, "/project")
				var body types.CreateProjectRequest
				So(json.Unmarshal(r.body, &body), ShouldBeNil)
				So(body.Project.Title, ShouldEqual, "123 Main")
				So(body.Project.Criteria, ShouldHaveLength, 1)
				So(body.Project.Criteria[0].Items, ShouldResemble, []string{"Size", "Closet space"})
			})
		})

		Convey("When adding an entry", func() {
			var e model.Entry
			e.Address = "1 Elm"
			e.Notes = []string{"No notes"}
			e.Scores.Set("g1", 4.5)
			err := c.AddEntry(context.Background(), "p 1", e)

			Convey("Then the entry should be put with the project id in the query", func() {
				So(err, ShouldBeNil)
				r := (*reqs)[0]
				So(r.method, ShouldEqual, http.MethodPut)
				So(r.query, ShouldEqual, "projectId=p+1")
				var body types.HouseEntry
				So(json.Unmarshal(r.body, &body), ShouldBeNil)
				So(body.Scores, ShouldResemble, []types.Score{{Score: 4.5, CriteriaID: "g1"}})
			})
		})
	})

	Convey("Given an invalid base url", t, func() {
		_, err := remote.New("not a url", staticToken("tok"))

		Convey("Then construction should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClient_GetProject(t *testing.T) {
	Convey("Given a server returning one envelope", t, func() {
		srv, reqs, _ := newServer(http.StatusOK, `{"projectId":"p1","project":{"title":"t","description":"d","criteria":[{"id":"a","details":{"Yard":["Fence"]}}],"houseEntries":[]}}`)
		defer srv.Close()
		c, _ := remote.New(srv.URL, staticToken("tok"))

		Convey("When fetching it", func() {
			p, err := c.GetProject(context.Background(), "p1")

			Convey("Then the legacy criteria shape should be understood", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, "p1")
				g, ok := p.Schema.Group("a")
				So(ok, ShouldBeTrue)
				So(g.Category, ShouldEqual, "Yard")
				So((*reqs)[0].query, ShouldEqual, "projectId=p1")
			})
		})
	})
}
