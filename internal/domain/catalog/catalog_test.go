package catalog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mobilecsp/activityscores/internal/domain/catalog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDescriptorWeight(t *testing.T) {
	Convey("Given question descriptors with various weights", t, func() {
		Convey("An unset (zero) weight means no weighting applied", func() {
			d := catalog.Descriptor{Weight: 0}
			So(d.WeightApplied(), ShouldBeFalse)
			So(d.EffectiveWeight(), ShouldEqual, 1.0)
		})

		Convey("A near-zero weight is treated as unset, not as a tiny multiplier", func() {
			d := catalog.Descriptor{Weight: 1e-12}
			So(d.WeightApplied(), ShouldBeFalse)
			So(d.EffectiveWeight(), ShouldEqual, 1.0)
		})

		Convey("A real weight multiplies", func() {
			d := catalog.Descriptor{Weight: 2}
			So(d.WeightApplied(), ShouldBeTrue)
			So(d.EffectiveWeight(), ShouldEqual, 2.0)
		})
	})
}

func TestMemoryCatalog(t *testing.T) {
	Convey("Given an in-memory catalog with singles and a group", t, func() {
		cat := catalog.NewMemoryCatalog(
			catalog.WithInstance(catalog.Descriptor{
				InstanceID: "i1", QuestionID: "q1", UnitID: "1", LessonID: "5", Sequence: 3, Weight: 1,
			}),
			catalog.WithInstance(catalog.Descriptor{
				InstanceID: "i2", QuestionID: "g1", UnitID: "1", LessonID: "5", Sequence: 4,
			}),
			catalog.WithRubric("q1", catalog.Rubric{Description: "Pick one", Choices: []float64{1, 0}}),
			catalog.WithRubric("g1a", catalog.Rubric{Choices: []float64{1, 0}}),
			catalog.WithRubric("g1b", catalog.Rubric{Choices: []float64{0.5, 0.5}}),
			catalog.WithGroup("g1", "g1a", "g1b"),
		)

		Convey("When resolving instance ids", func() {
			d, ok := cat.DescriptorForInstance("i1")
			So(ok, ShouldBeTrue)
			So(d.QuestionID, ShouldEqual, "q1")

			_, ok = cat.DescriptorForInstance("nope")
			So(ok, ShouldBeFalse)
		})

		Convey("When resolving rubrics", func() {
			r, ok := cat.RubricForQuestion("q1")
			So(ok, ShouldBeTrue)
			So(r.Choices, ShouldResemble, []float64{1, 0})

			Convey("Then a group id does not resolve as a single rubric", func() {
				_, ok := cat.RubricForQuestion("g1")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When expanding the group", func() {
			items, ok := cat.ExpandGroup("g1")
			So(ok, ShouldBeTrue)
			So(items, ShouldHaveLength, 2)
			So(items[0].QuestionID, ShouldEqual, "g1a")
			So(items[1].Rubric.Choices, ShouldResemble, []float64{0.5, 0.5})
		})

		Convey("When building a lookup context", func() {
			lc := catalog.NewLookupContext(cat)

			Convey("Then instances resolve and views are split", func() {
				d, ok := lc.DescriptorForInstance("i2")
				So(ok, ShouldBeTrue)
				So(d.QuestionID, ShouldEqual, "g1")

				_, single := lc.SingleRubric("q1")
				So(single, ShouldBeTrue)

				items, grouped := lc.GroupItems("g1")
				So(grouped, ShouldBeTrue)
				So(items, ShouldHaveLength, 2)

				So(lc.Descriptors(), ShouldHaveLength, 2)
			})
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given an exported course catalog file", t, func() {
		body := map[string]any{
			"instances": []map[string]any{
				{"instance_id": "i1", "question_id": "q1", "unit_id": "1", "lesson_id": "5", "sequence": 3, "weight": 1.0},
			},
			"questions": []map[string]any{
				{"id": "q1", "description": "Pick one", "choices": []float64{1, 0}},
			},
		}
		raw, err := json.Marshal(body)
		So(err, ShouldBeNil)

		path := filepath.Join(t.TempDir(), "catalog.json")
		So(os.WriteFile(path, raw, 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			cat, err := catalog.LoadFile(path)

			Convey("Then the catalog resolves instances and rubrics", func() {
				So(err, ShouldBeNil)
				d, ok := cat.DescriptorForInstance("i1")
				So(ok, ShouldBeTrue)
				So(d.Sequence, ShouldEqual, 3)

				r, ok := cat.RubricForQuestion("q1")
				So(ok, ShouldBeTrue)
				So(r.Description, ShouldEqual, "Pick one")
			})
		})

		Convey("When the file is missing", func() {
			_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
			So(err, ShouldNotBeNil)
		})
	})
}
