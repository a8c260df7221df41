package answers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mobilecsp/activityscores/internal/domain/answers"
	"github.com/mobilecsp/activityscores/internal/domain/catalog"
	"github.com/mobilecsp/activityscores/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func testLookup() *catalog.LookupContext {
	cat := catalog.NewMemoryCatalog(
		catalog.WithInstance(catalog.Descriptor{
			InstanceID: "i1", QuestionID: "q1", UnitID: "1", LessonID: "5", Sequence: 3, Weight: 1,
		}),
		catalog.WithInstance(catalog.Descriptor{
			InstanceID: "i2", QuestionID: "g1", UnitID: "1", LessonID: "5", Sequence: 4, Weight: 2,
		}),
		catalog.WithRubric("q1", catalog.Rubric{Choices: []float64{1, 0}}),
		catalog.WithRubric("g1a", catalog.Rubric{Choices: []float64{1, 0}}),
		catalog.WithRubric("g1b", catalog.Rubric{Choices: []float64{1, 0}}),
		catalog.WithGroup("g1", "g1a", "g1b"),
	)
	return catalog.NewLookupContext(cat)
}

func tagEvent(data string) model.AttemptEvent {
	return model.AttemptEvent{
		ID:         "evt-1",
		UserID:     "u1",
		Source:     model.SourceTagAssessment,
		RecordedOn: time.Unix(1700000000, 0),
		Data:       data,
	}
}

func TestParser_Parse(t *testing.T) {
	Convey("Given a parser and a per-course lookup context", t, func() {
		ctx := context.Background()
		parser := answers.NewParser()
		lookup := testLookup()

		Convey("When parsing a single-question attempt", func() {
			e := tagEvent(`{"instanceid":"i1","quid":"q1","score":1,"location":"https://x/unit?unit=1&lesson=5","answer":[0],"type":"McQuestion"}`)
			parsed, err := parser.Parse(ctx, e, lookup)

			Convey("Then one answer is produced with the descriptor's slot", func() {
				So(err, ShouldBeNil)
				So(parsed, ShouldHaveLength, 1)
				a := parsed[0]
				So(a.UnitID, ShouldEqual, "1")
				So(a.LessonID, ShouldEqual, "5")
				So(a.Sequence, ShouldEqual, 3)
				So(a.QuestionID, ShouldEqual, "q1")
				So(a.QuestionType, ShouldEqual, "McQuestion")
				So(a.Score, ShouldEqual, 1.0)
				So(a.WeightedScore, ShouldEqual, 1.0)
				So(a.Timestamp, ShouldEqual, int64(1700000000))
				So(a.Tallied, ShouldBeFalse)
			})
		})

		Convey("When parsing a grouped-question attempt", func() {
			e := tagEvent(`{"instanceid":"i2","score":1,"location":"https://x/unit?unit=1&lesson=5","answer":[0,1],"type":"QuestionGroup"}`)
			parsed, err := parser.Parse(ctx, e, lookup)

			Convey("Then one answer per sub-question is produced with incrementing sequences", func() {
				So(err, ShouldBeNil)
				So(parsed, ShouldHaveLength, 2)
				So(parsed[0].Sequence, ShouldEqual, 4)
				So(parsed[0].QuestionID, ShouldEqual, "g1a")
				So(parsed[1].Sequence, ShouldEqual, 5)
				So(parsed[1].QuestionID, ShouldEqual, "g1b")
			})

			Convey("And the group weight applies to each sub-answer", func() {
				So(err, ShouldBeNil)
				So(parsed[0].WeightedScore, ShouldEqual, 2.0)
			})
		})

		Convey("When the event source is not a tag assessment", func() {
			e := tagEvent(`{}`)
			e.Source = "enter-page"
			_, err := parser.Parse(ctx, e, lookup)

			Convey("Then it classifies as an ignored source", func() {
				So(errors.Is(err, answers.ErrIgnoredSource), ShouldBeTrue)
				So(answers.SkipReason(err), ShouldEqual, "ignored_source")
			})
		})

		Convey("When the payload is not decodable", func() {
			e := tagEvent(`{`)
			_, err := parser.Parse(ctx, e, lookup)

			So(errors.Is(err, answers.ErrMalformedPayload), ShouldBeTrue)
			So(answers.SkipReason(err), ShouldEqual, "malformed_payload")
		})

		Convey("When the location carries no unit/lesson markers", func() {
			e := tagEvent(`{"instanceid":"i1","score":1,"location":"https://x/course","type":"McQuestion"}`)
			_, err := parser.Parse(ctx, e, lookup)

			So(errors.Is(err, answers.ErrMalformedLocation), ShouldBeTrue)
			So(answers.SkipReason(err), ShouldEqual, "malformed_location")
		})

		Convey("When the instance id is not in the catalog", func() {
			e := tagEvent(`{"instanceid":"quizly-1","score":"true","location":"https://x/unit?unit=2&lesson=7","answer":"true","type":"Quizly"}`)
			_, err := parser.Parse(ctx, e, lookup)

			Convey("Then it classifies as an unknown instance and does not abort", func() {
				So(errors.Is(err, answers.ErrUnknownInstance), ShouldBeTrue)
				So(answers.SkipReason(err), ShouldEqual, "unknown_instance")
			})
		})

		Convey("When an answer is absent", func() {
			e := tagEvent(`{"instanceid":"i1","score":0,"location":"https://x/unit?unit=1&lesson=5","type":"SaQuestion"}`)
			parsed, err := parser.Parse(ctx, e, lookup)

			Convey("Then a single-element placeholder is substituted", func() {
				So(err, ShouldBeNil)
				So(parsed[0].Answers, ShouldResemble, []any{false})
			})
		})

		Convey("When a boolean-valued short answer arrives", func() {
			e := tagEvent(`{"instanceid":"i1","score":"true","location":"https://x/unit?unit=1&lesson=5","answer":"true","type":"SaQuestion"}`)
			parsed, err := parser.Parse(ctx, e, lookup)

			Convey("Then the answer is wrapped in a single-element list", func() {
				So(err, ShouldBeNil)
				So(parsed[0].Answers, ShouldResemble, []any{"true"})
				So(parsed[0].Score, ShouldEqual, 1.0)
			})
		})
	})
}

func TestSkipReason_Other(t *testing.T) {
	Convey("Given an unclassified error", t, func() {
		So(answers.SkipReason(errors.New("boom")), ShouldEqual, "other")
	})
}
