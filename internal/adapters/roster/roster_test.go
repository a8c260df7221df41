package roster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mobilecsp/activityscores/internal/adapters/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryRoster(t *testing.T) {
	Convey("Given an in-memory roster", t, func() {
		ctx := context.Background()
		r := roster.NewMemoryRoster(
			roster.WithStudent(roster.Student{UserID: "u1", Email: "a@x.org", Name: "Ada"}),
		)

		Convey("When looking up an enrolled student", func() {
			s, err := r.ByUserID(ctx, "u1")

			Convey("Then the enrollment record comes back", func() {
				So(err, ShouldBeNil)
				So(s.Email, ShouldEqual, "a@x.org")
				So(s.Name, ShouldEqual, "Ada")
			})
		})

		Convey("When looking up an unknown user id", func() {
			_, err := r.ByUserID(ctx, "ghost")

			Convey("Then it returns ErrNotFound", func() {
				So(errors.Is(err, roster.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When adding a student after construction", func() {
			r.Add(roster.Student{UserID: "u2", Email: "b@x.org"})
			s, err := r.ByUserID(ctx, "u2")

			Convey("Then the student resolves", func() {
				So(err, ShouldBeNil)
				So(s.Email, ShouldEqual, "b@x.org")
			})
		})
	})
}

func TestIdentityRoster(t *testing.T) {
	Convey("Given the identity roster", t, func() {
		ctx := context.Background()
		var r roster.Identity

		Convey("When resolving any user id", func() {
			s, err := r.ByUserID(ctx, "a@x.org")

			Convey("Then the id doubles as the email", func() {
				So(err, ShouldBeNil)
				So(s.UserID, ShouldEqual, "a@x.org")
				So(s.Email, ShouldEqual, "a@x.org")
			})
		})
	})
}
