package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"

	model "github.com/okian/acolyte/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNumber(t *testing.T) {
	convey.Convey("Given numeric payload fields", t, func() {
		decode := func(raw string) (model.Number, error) {
			var n model.Number
			err := json.Unmarshal([]byte(raw), &n)
			return n, err
		}

		convey.Convey("When they are JSON numbers or numeric strings", func() {
			for raw, want := range map[string]int64{
				`20`:       20,
				`"20"`:     20,
				`" 235 "`:  235,
				`20.0`:     20,
				`"2e1"`:    20,
				`-3`:       -3,
				`"0"`:      0,
				strconv.FormatInt(math.MaxInt64, 10): math.MaxInt64,
			} {
				n, err := decode(raw)
				convey.So(err, convey.ShouldBeNil)
				convey.So(int64(n), convey.ShouldEqual, want)
			}
		})

		convey.Convey("When they are not integers", func() {
			for _, raw := range []string{`"abc"`, `1.5`, `""`, `null`, `"NaN"`, `true`, `1e300`} {
				_, err := decode(raw)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})

		convey.Convey("Then numbers should always encode as JSON numbers", func() {
			b, err := json.Marshal(model.Number(42))
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, "42")
		})
	})
}

func TestWarriorValidate(t *testing.T) {
	convey.Convey("Given warriors", t, func() {
		convey.Convey("When the record is well formed", func() {
			convey.So(model.Warrior{ID: 1, Name: "Kane", FightsWon: 20, FightsLoss: 5}.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the name is blank", func() {
			err := model.Warrior{ID: 1, Name: "  "}.Validate()
			convey.So(errors.Is(err, model.ErrEmptyName), convey.ShouldBeTrue)
		})

		convey.Convey("When a count is negative", func() {
			err := model.Warrior{ID: 1, Name: "Kane", FightsLoss: -1}.Validate()
			convey.So(errors.Is(err, model.ErrNegativeCount), convey.ShouldBeTrue)
		})
	})
}

func TestWarriorConversions(t *testing.T) {
	convey.Convey("Given a warrior", t, func() {
		w := model.Warrior{ID: 4, Name: "Alberto", FightsWon: 10, FightsLoss: 20}

		convey.Convey("Then wire and table forms should carry the same values", func() {
			convey.So(w.Wire().Warrior(), convey.ShouldResemble, w)
			convey.So(w.Item().Warrior(), convey.ShouldResemble, w)
			convey.So(w.Item(), convey.ShouldResemble, model.Item{ID: 4, Name: "Alberto", FightsWon: 10, FightsLoss: 20})
		})

		convey.Convey("Then the wire form should use the payload field names", func() {
			b, err := json.Marshal(w.Wire())
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"warriorId":4,"name":"Alberto","fightsWon":10,"fightsLoss":20}`)
		})
	})
}
