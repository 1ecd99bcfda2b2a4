package projects_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/househunt/internal/adapters/remote"
	"github.com/okian/househunt/internal/domain/criteria"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/projects"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeRemote is an in-memory project store that counts calls.
type fakeRemote struct {
	mu        sync.Mutex
	projects  []model.Project
	listErr   error
	writeErr  error
	lists     int
	creates   int
	adds      int
	lastDraft model.ProjectDraft
	block     chan struct{}
}

func (f *fakeRemote) ListProjects(ctx context.Context) ([]model.Project, error) {
	f.mu.Lock()
	f.lists++
	block := f.block
	out := append([]model.Project(nil), f.projects...)
	err := f.listErr
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, err
}

func (f *fakeRemote) CreateProject(_ context.Context, d model.ProjectDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.lastDraft = d
	if f.writeErr != nil {
		return f.writeErr
	}
	f.projects = append(f.projects, model.Project{
		ID:          "p-" + d.Title,
		Title:       d.Title,
		Description: d.Description,
		Schema:      d.Schema,
	})
	return nil
}

func (f *fakeRemote) AddEntry(_ context.Context, id string, e model.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects[i].Entries = append(f.projects[i].Entries, e)
			return nil
		}
	}
	return remote.ErrTransport
}

func (f *fakeRemote) counts() (lists, creates, adds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.creates, f.adds
}

func waitCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func bedroomSchema() *criteria.Schema {
	s := criteria.New()
	g, _ := s.AddGroup("Bedroom", "Size")
	_ = s.AddItem(g.ID, "Closet space")
	return s
}

func TestController_Mount(t *testing.T) {
	Convey("Given a remote reporting no projects", t, func() {
		fr := &fakeRemote{}
		c := projects.NewController(fr)
		So(c.Snapshot().State, ShouldEqual, projects.NotLoaded)
		So(c.Mount(context.Background()), ShouldBeNil)
		defer c.Unmount()

		Convey("When the initial load settles", func() {
			ctx, cancel := waitCtx()
			defer cancel()
			snap, err := c.Wait(ctx, 0)

			Convey("Then the state should be loaded-empty, not failed", func() {
				So(err, ShouldBeNil)
				So(snap.State, ShouldEqual, projects.LoadedEmpty)
				So(snap.Err, ShouldBeNil)
			})
		})

		Convey("When mounting twice", func() {
			Convey("Then the second mount should be rejected", func() {
				So(c.Mount(context.Background()), ShouldEqual, projects.ErrAlreadyMounted)
			})
		})
	})

	Convey("Given a remote whose read fails", t, func() {
		fr := &fakeRemote{listErr: remote.ErrTransport}
		c := projects.NewController(fr)
		So(c.Mount(context.Background()), ShouldBeNil)
		defer c.Unmount()

		Convey("When the initial load settles", func() {
			ctx, cancel := waitCtx()
			defer cancel()
			snap, err := c.Wait(ctx, 0)

			Convey("Then the failure should be recorded but shown as empty", func() {
				So(err, ShouldBeNil)
				So(snap.State, ShouldEqual, projects.LoadFailed)
				So(errors.Is(snap.Err, remote.ErrTransport), ShouldBeTrue)
				So(snap.Visible(), ShouldEqual, projects.LoadedEmpty)
				So(snap.Projects, ShouldBeEmpty)
			})
		})
	})
}

func TestController_CreateProject(t *testing.T) {
	Convey("Given a mounted controller", t, func() {
		fr := &fakeRemote{}
		c := projects.NewController(fr)
		So(c.Mount(context.Background()), ShouldBeNil)
		defer c.Unmount()
		ctx, cancel := waitCtx()
		defer cancel()
		_, err := c.Wait(ctx, 0)
		So(err, ShouldBeNil)

		Convey("When a project with one group of two items is created", func() {
			rev, err := c.CreateProject(ctx, "123 Main", "test", bedroomSchema())
			So(err, ShouldBeNil)
			snap, err := c.Wait(ctx, rev)
			So(err, ShouldBeNil)

			Convey("Then the remote should receive a criteria array of length 1", func() {
				fr.mu.Lock()
				draft := fr.lastDraft
				fr.mu.Unlock()
				So(draft.Schema.Len(), ShouldEqual, 1)
				So(draft.Schema.Groups()[0].Items, ShouldResemble, []string{"Size", "Closet space"})
			})

			Convey("And the refetched project should be visible", func() {
				So(snap.State, ShouldEqual, projects.LoadedNonEmpty)
				So(snap.Projects, ShouldHaveLength, 1)
				So(snap.Projects[0].Title, ShouldEqual, "123 Main")
			})
		})

		Convey("When two projects are created in sequence", func() {
			before := c.Snapshot().Revision
			lists0, _, _ := fr.counts()

			rev1, err := c.CreateProject(ctx, "First", "d", bedroomSchema())
			So(err, ShouldBeNil)
			_, err = c.Wait(ctx, rev1)
			So(err, ShouldBeNil)
			lists1, _, _ := fr.counts()

			rev2, err := c.CreateProject(ctx, "Second", "d", bedroomSchema())
			So(err, ShouldBeNil)
			snap, err := c.Wait(ctx, rev2)
			So(err, ShouldBeNil)
			lists2, _, _ := fr.counts()

			Convey("Then each should bump the revision by one and refetch once", func() {
				So(rev1, ShouldEqual, before+1)
				So(rev2, ShouldEqual, before+2)
				So(lists1-lists0, ShouldEqual, 1)
				So(lists2-lists1, ShouldEqual, 1)
			})

			Convey("And the second refetch should be the one rendered", func() {
				So(snap.LoadedRevision, ShouldEqual, rev2)
				So(snap.Projects, ShouldHaveLength, 2)
				So(snap.Projects[1].Title, ShouldEqual, "Second")
			})
		})

		Convey("When required fields are missing", func() {
			_, errTitle := c.CreateProject(ctx, "", "d", bedroomSchema())
			_, errDesc := c.CreateProject(ctx, "t", " ", bedroomSchema())
			_, errSchema := c.CreateProject(ctx, "t", "d", criteria.New())

			Convey("Then validation errors should be raised and nothing sent", func() {
				So(errors.Is(errTitle, model.ErrValidation), ShouldBeTrue)
				So(errors.Is(errDesc, model.ErrValidation), ShouldBeTrue)
				So(errors.Is(errSchema, model.ErrEmptySchema), ShouldBeTrue)
				_, creates, _ := fr.counts()
				So(creates, ShouldEqual, 0)
				So(c.Snapshot().Revision, ShouldEqual, 0)
			})
		})

		Convey("When the remote rejects the write", func() {
			fr.mu.Lock()
			fr.writeErr = remote.ErrTransport
			fr.mu.Unlock()
			lists0, _, _ := fr.counts()
			_, err := c.CreateProject(ctx, "t", "d", bedroomSchema())

			Convey("Then the error should surface and no refetch be scheduled", func() {
				So(errors.Is(err, remote.ErrTransport), ShouldBeTrue)
				So(c.Snapshot().Revision, ShouldEqual, 0)
				time.Sleep(20 * time.Millisecond)
				lists1, _, _ := fr.counts()
				So(lists1, ShouldEqual, lists0)
			})
		})
	})
}

func TestController_AddEntry(t *testing.T) {
	Convey("Given a mounted controller with one project", t, func() {
		schema := bedroomSchema()
		groupID := schema.IDs()[0]
		fr := &fakeRemote{projects: []model.Project{{ID: "p1", Title: "Search", Description: "d", Schema: schema}}}
		c := projects.NewController(fr)
		So(c.Mount(context.Background()), ShouldBeNil)
		defer c.Unmount()
		ctx, cancel := waitCtx()
		defer cancel()
		_, err := c.Wait(ctx, 0)
		So(err, ShouldBeNil)

		Convey("When the address is empty", func() {
			_, err := c.AddEntry(ctx, "p1", &model.EntryDraft{Address: ""})

			Convey("Then a validation error should be raised and no call issued", func() {
				So(errors.Is(err, model.ErrEmptyAddress), ShouldBeTrue)
				_, _, adds := fr.counts()
				So(adds, ShouldEqual, 0)
			})
		})

		Convey("When the project id is empty", func() {
			_, err := c.AddEntry(ctx, "", &model.EntryDraft{Address: "1 Elm"})

			Convey("Then a validation error should be raised", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				_, _, adds := fr.counts()
				So(adds, ShouldEqual, 0)
			})
		})

		Convey("When a scored entry without notes is added", func() {
			draft := &model.EntryDraft{Address: "1 Elm"}
			draft.SetScore(groupID, 4)
			draft.SetScore("other", 6)
			rev, err := c.AddEntry(ctx, "p1", draft)
			So(err, ShouldBeNil)
			snap, err := c.Wait(ctx, rev)
			So(err, ShouldBeNil)

			Convey("Then the entry should appear only after the refetch, with default notes", func() {
				p, ok := snap.Project("p1")
				So(ok, ShouldBeTrue)
				So(p.Entries, ShouldHaveLength, 1)
				So(p.Entries[0].Notes, ShouldResemble, []string{model.DefaultNote})
			})

			Convey("And summaries should be recomputed with clamping and labels", func() {
				sums, ok := c.Summaries("p1")
				So(ok, ShouldBeTrue)
				So(sums[0].Aggregate, ShouldEqual, 4.5)
				So(sums[0].Scores[0].Label, ShouldEqual, "Bedroom")
				So(sums[0].Scores[1].Orphaned, ShouldBeTrue)
			})
		})

		Convey("When the remote fails the write", func() {
			fr.mu.Lock()
			fr.writeErr = remote.ErrTransport
			fr.mu.Unlock()
			_, err := c.AddEntry(ctx, "p1", &model.EntryDraft{Address: "1 Elm"})

			Convey("Then local state should be untouched", func() {
				So(err, ShouldNotBeNil)
				snap := c.Snapshot()
				So(snap.Revision, ShouldEqual, 0)
				p, _ := snap.Project("p1")
				So(p.Entries, ShouldBeEmpty)
			})
		})

		Convey("When looking up an unknown project", func() {
			_, ok := c.Summaries("missing")

			Convey("Then it should report absence", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

type flagAuth struct{ ok bool }

func (f flagAuth) Authenticated() bool { return f.ok }

func TestController_Unauthenticated(t *testing.T) {
	Convey("Given a controller whose session has expired", t, func() {
		fr := &fakeRemote{}
		c := projects.NewController(fr, projects.WithAuthenticator(flagAuth{ok: false}))

		Convey("When mutating", func() {
			_, err := c.CreateProject(context.Background(), "t", "d", bedroomSchema())

			Convey("Then an auth error should be returned without a call", func() {
				So(errors.Is(err, remote.ErrAuth), ShouldBeTrue)
				_, creates, _ := fr.counts()
				So(creates, ShouldEqual, 0)
			})
		})
	})
}

func TestController_Unmount(t *testing.T) {
	Convey("Given a controller whose read is in flight", t, func() {
		fr := &fakeRemote{block: make(chan struct{})}
		c := projects.NewController(fr)
		var mu sync.Mutex
		var states []projects.State
		c.Subscribe(func(s projects.Snapshot) {
			mu.Lock()
			states = append(states, s.State)
			mu.Unlock()
		})
		So(c.Mount(context.Background()), ShouldBeNil)
		for {
			if lists, _, _ := fr.counts(); lists > 0 {
				break
			}
			time.Sleep(time.Millisecond)
		}

		Convey("When unmounting before the read returns", func() {
			c.Unmount()
			close(fr.block)
			time.Sleep(20 * time.Millisecond)

			Convey("Then no load result should be applied", func() {
				So(c.Snapshot().State, ShouldEqual, projects.Loading)
				mu.Lock()
				defer mu.Unlock()
				So(states, ShouldResemble, []projects.State{projects.Loading})
			})

			Convey("And unmounting again should be a no-op", func() {
				So(func() { c.Unmount() }, ShouldNotPanic)
			})
		})
	})

	Convey("Given an unmounted controller", t, func() {
		fr := &fakeRemote{}
		c := projects.NewController(fr)

		Convey("When a mutation succeeds", func() {
			rev, err := c.CreateProject(context.Background(), "t", "d", bedroomSchema())

			Convey("Then the revision should still bump and the next mount load it", func() {
				So(err, ShouldBeNil)
				So(rev, ShouldEqual, 1)
				So(c.Mount(context.Background()), ShouldBeNil)
				defer c.Unmount()
				ctx, cancel := waitCtx()
				defer cancel()
				snap, err := c.Wait(ctx, rev)
				So(err, ShouldBeNil)
				So(snap.Projects, ShouldHaveLength, 1)
			})
		})
	})
}
