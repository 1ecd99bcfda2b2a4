package repository_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/househunt/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

// TestPostgresStore runs the shared contract against a real database named
// by HOUSEHUNT_TEST_DATABASE_URL.
func TestPostgresStore(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("HOUSEHUNT_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("HOUSEHUNT_TEST_DATABASE_URL is not set")
	}

	Convey("Given a Postgres store", t, func() {
		ctx := context.Background()
		exerciseStore(func() repository.Store {
			clock := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
			s, err := repository.OpenPostgres(ctx, dsn, repository.WithClock(clock.now))
			So(err, ShouldBeNil)
			_, err = s.DB().ExecContext(ctx, "TRUNCATE projects")
			So(err, ShouldBeNil)
			return s
		})
	})
}

func TestOpenPostgres_Unreachable(t *testing.T) {
	Convey("Given an unreachable database", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := repository.OpenPostgres(ctx, "postgres://u:p@127.0.0.1:1/none?sslmode=disable")

		Convey("Then opening should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
