package seed_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/acolyte/internal/domain/faults"
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/internal/domain/seed"
	"github.com/okian/acolyte/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type put struct {
	key         string
	body        []byte
	contentType string
}

type fakeWriter struct {
	puts []put
	err  error
}

func (f *fakeWriter) PutObject(_ context.Context, key string, body []byte, contentType string) (model.ObjectRef, error) {
	if f.err != nil {
		return model.ObjectRef{}, f.err
	}
	f.puts = append(f.puts, put{key: key, body: body, contentType: contentType})
	return model.ObjectRef{Bucket: "acolyte-warriors", Key: key, ETag: `"etag"`}, nil
}

func TestSeeder(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a seeder with the default roster", t, func() {
		w := &fakeWriter{}
		s := seed.New(w)

		Convey("When the default roster is seeded", func() {
			ack, err := s.SeedDefault(ctx)

			Convey("Then exactly one JSON object should be written at the fixed key", func() {
				So(err, ShouldBeNil)
				So(w.puts, ShouldHaveLength, 1)
				So(w.puts[0].key, ShouldEqual, "ACOLYTE_WARRIORS")
				So(w.puts[0].contentType, ShouldEqual, "application/json")

				parsed, err := model.ParsePayload(w.puts[0].body)
				So(err, ShouldBeNil)
				So(parsed, ShouldResemble, seed.DefaultRoster())
			})

			Convey("And the acknowledgment should echo the records", func() {
				So(ack.Key, ShouldEqual, "ACOLYTE_WARRIORS")
				So(ack.ETag, ShouldEqual, `"etag"`)
				So(ack.Records, ShouldHaveLength, 5)
				So(ack.Records[0].Name, ShouldEqual, "Kane")
				So(int64(ack.Records[4].FightsWon), ShouldEqual, 17)
			})
		})

		Convey("When the roster returned to a caller is modified", func() {
			r := s.Roster()
			r[0].Name = "Changed"

			Convey("Then the seeder should keep its own copy", func() {
				So(s.Roster()[0].Name, ShouldEqual, "Kane")
			})
		})
	})

	Convey("Given a seeder with an injected roster and key", t, func() {
		w := &fakeWriter{}
		roster := []model.Warrior{{ID: 9, Name: "Test", FightsWon: 1, FightsLoss: 2}}
		s := seed.New(w, seed.WithRoster(roster), seed.WithSeedKey("custom"))

		_, err := s.SeedDefault(ctx)

		Convey("Then the injected roster should be written", func() {
			So(err, ShouldBeNil)
			So(w.puts[0].key, ShouldEqual, "custom")
			parsed, _ := model.ParsePayload(w.puts[0].body)
			So(parsed, ShouldResemble, roster)
		})
	})

	Convey("Given uploads", t, func() {
		w := &fakeWriter{}
		ids := []string{"a", "b"}
		s := seed.New(w, seed.WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}))
		roster := []model.Warrior{{ID: 7, Name: "Seven", FightsWon: 7, FightsLoss: 0}}

		Convey("When two uploads are written", func() {
			a1, err1 := s.Upload(ctx, roster)
			a2, err2 := s.Upload(ctx, roster)

			Convey("Then each should get its own key", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(a1.Key, ShouldEqual, "uploads/a.json")
				So(a2.Key, ShouldEqual, "uploads/b.json")
			})
		})

		Convey("When an upload breaks an invariant", func() {
			_, err := s.Upload(ctx, []model.Warrior{{ID: 1, Name: ""}})

			Convey("Then nothing should be written", func() {
				So(errors.Is(err, faults.ErrParse), ShouldBeTrue)
				So(errors.Is(err, model.ErrEmptyName), ShouldBeTrue)
				So(w.puts, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a failing object store", t, func() {
		cause := errors.New("access denied")
		s := seed.New(&fakeWriter{err: cause})

		_, err := s.SeedDefault(ctx)

		Convey("Then the storage fault should be propagated", func() {
			So(errors.Is(err, faults.ErrStorageWrite), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})
	})
}

func TestReadRoster(t *testing.T) {
	Convey("Given roster files", t, func() {
		dir := t.TempDir()
		write := func(name, body string) string {
			p := filepath.Join(dir, name)
			So(os.WriteFile(p, []byte(body), 0o600), ShouldBeNil)
			return p
		}

		Convey("An empty path should yield the default roster", func() {
			roster, err := seed.ReadRoster("")
			So(err, ShouldBeNil)
			So(roster, ShouldResemble, seed.DefaultRoster())
		})

		Convey("A payload-shaped file should be parsed with coercion", func() {
			p := write("roster.json", `[{"warriorId":"9","name":"Edge","fightsWon":3,"fightsLoss":"1"}]`)
			roster, err := seed.ReadRoster(p)
			So(err, ShouldBeNil)
			So(roster, ShouldResemble, []model.Warrior{{ID: 9, Name: "Edge", FightsWon: 3, FightsLoss: 1}})
		})

		Convey("An empty list should be rejected", func() {
			_, err := seed.ReadRoster(write("empty.json", `[]`))
			So(errors.Is(err, seed.ErrEmptyRoster), ShouldBeTrue)
		})

		Convey("An invalid file should be rejected", func() {
			_, err := seed.ReadRoster(write("bad.json", `{"name":"x"}`))
			So(errors.Is(err, model.ErrNotAnArray), ShouldBeTrue)
		})

		Convey("A missing file should be rejected", func() {
			_, err := seed.ReadRoster(filepath.Join(dir, "missing.json"))
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
