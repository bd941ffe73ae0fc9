package prediction_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/churnrisk/internal/domain/classifier"
	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/encoding"
	"github.com/okian/churnrisk/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClassifier struct {
	out [][]float64
	err error
}

func (f fakeClassifier) PredictProba(context.Context, [][]float64) ([][]float64, error) {
	return f.out, f.err
}

func (f fakeClassifier) Classes() []string { return []string{"No", "Yes"} }

func goldenRecord() customer.Record {
	return customer.Record{
		Gender: "Female", SeniorCitizen: 0, Partner: "Yes", Dependents: "No", Tenure: 12,
		PhoneService: "Yes", MultipleLines: "No", InternetService: "DSL", OnlineSecurity: "Yes",
		OnlineBackup: "No", DeviceProtection: "No", TechSupport: "No", StreamingTV: "No",
		StreamingMovies: "No", Contract: "Month-to-month", PaperlessBilling: "Yes",
		PaymentMethod: "Electronic check", MonthlyCharges: 70.5, TotalCharges: 846.0,
	}
}

// goldenForest splits on PaymentMethod (column 16) and tenure (column 4).
func goldenForest() *classifier.Forest {
	features := `"` + strings.Join(customer.Columns(), `","`) + `"`
	doc := fmt.Sprintf(`{
	  "name": "golden", "version": "test",
	  "features": [%s],
	  "classes": ["No", "Yes"],
	  "trees": [
	    {"nodes": [
	      {"feature_idx": 16, "threshold": 1.5, "left_child": 1, "right_child": 2},
	      {"is_leaf": true, "value": [9, 1]},
	      {"is_leaf": true, "value": [1, 3]}
	    ]},
	    {"nodes": [
	      {"feature_idx": 4, "threshold": 24.5, "left_child": 1, "right_child": 2},
	      {"is_leaf": true, "value": [2, 8]},
	      {"is_leaf": true, "value": [7, 3]}
	    ]}
	  ]
	}`, features)
	f, err := classifier.ParseForest(strings.NewReader(doc))
	if err != nil {
		panic(err)
	}
	return f
}

func legacyEncoder() encoding.Encoder {
	enc, err := encoding.NewLegacyEncoder(customer.Columns())
	if err != nil {
		panic(err)
	}
	return enc
}

func tableEncoder() encoding.Encoder {
	enc, err := encoding.NewTableEncoder(customer.Columns(), encoding.DefaultTable())
	if err != nil {
		panic(err)
	}
	return enc
}

func TestDecide(t *testing.T) {
	Convey("Given churn probabilities around the threshold", t, func() {
		Convey("Then exactly 0.5 is likely", func() {
			res := prediction.Decide(0.5)
			So(res.Verdict, ShouldEqual, prediction.VerdictLikely)
			So(res.Percent, ShouldEqual, "50.0%")
			So(res.Message, ShouldEqual, "The customer is likely to churn with a probability of 50.0%.")
		})

		Convey("Then 0.8734 is likely at 87.34%", func() {
			res := prediction.Decide(0.8734)
			So(res.Verdict, ShouldEqual, prediction.VerdictLikely)
			So(res.DisplayProbability, ShouldEqual, 0.8734)
			So(res.Message, ShouldEqual, "The customer is likely to churn with a probability of 87.34%.")
		})

		Convey("Then 0.4999 is unlikely with the complement shown", func() {
			res := prediction.Decide(0.4999)
			So(res.Verdict, ShouldEqual, prediction.VerdictUnlikely)
			So(res.ChurnProbability, ShouldEqual, 0.4999)
			So(res.Percent, ShouldEqual, "50.01%")
			So(res.Message, ShouldEqual, "The customer is unlikely to churn with a probability of 50.01%.")
		})

		Convey("Then the extremes render as 100.0%", func() {
			So(prediction.Decide(0).Percent, ShouldEqual, "100.0%")
			So(prediction.Decide(1).Percent, ShouldEqual, "100.0%")
			So(prediction.Decide(0).Verdict, ShouldEqual, prediction.VerdictUnlikely)
		})
	})
}

func TestFormatPercent(t *testing.T) {
	Convey("Given probabilities to render", t, func() {
		cases := map[float64]string{
			0.8734: "87.34%",
			0.5:    "50.0%",
			0.873:  "87.3%",
			0.2:    "20.0%",
			0.0001: "0.01%",
			0.123:  "12.3%",
		}
		for in, want := range cases {
			So(prediction.FormatPercent(in), ShouldEqual, want)
		}
	})

	Convey("Given probabilities whose percentage sits near a rounding tie", t, func() {
		// Expected values are Python's round((1-p)*100, 2) on the same floats.
		cases := map[float64]string{
			0.00015: "99.98%",
			0.00105: "99.89%",
			0.00195: "99.8%",
			0.0001:  "99.99%",
			0.123:   "87.7%",
		}
		for in, want := range cases {
			res := prediction.Decide(in)
			So(res.Verdict, ShouldEqual, prediction.VerdictUnlikely)
			So(res.Percent, ShouldEqual, want)
		}
	})
}

func TestPredictor(t *testing.T) {
	ctx := context.Background()

	Convey("Given New with missing parts", t, func() {
		_, err := prediction.New(nil, tableEncoder())
		So(errors.Is(err, prediction.ErrNotConfigured), ShouldBeTrue)
		_, err = prediction.New(fakeClassifier{}, nil)
		So(errors.Is(err, prediction.ErrNotConfigured), ShouldBeTrue)
	})

	Convey("Given the golden forest with the fitted table", t, func() {
		p, err := prediction.New(goldenForest(), tableEncoder())
		So(err, ShouldBeNil)
		So(p.EncodingMode(), ShouldEqual, "table")

		Convey("When the golden record is scored", func() {
			res, err := p.Predict(ctx, goldenRecord())

			Convey("Then both trees route it to their churn-heavy leaves", func() {
				So(err, ShouldBeNil)
				So(res.ChurnProbability, ShouldAlmostEqual, 0.775)
				So(res.Verdict, ShouldEqual, prediction.VerdictLikely)
				So(res.Message, ShouldEqual, "The customer is likely to churn with a probability of 77.5%.")
			})
		})

		Convey("When the record is out of range", func() {
			rec := goldenRecord()
			rec.Tenure = 101
			_, err := p.Predict(ctx, rec)

			Convey("Then the input layer rejects it", func() {
				So(errors.Is(err, customer.ErrInvalidRecord), ShouldBeTrue)
				var fe *customer.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, customer.ColTenure)
			})
		})

		Convey("When many goroutines score the same record", func() {
			want, err := p.Predict(ctx, goldenRecord())
			So(err, ShouldBeNil)

			const workers = 32
			results := make([]prediction.Result, workers)
			errs := make([]error, workers)
			var wg sync.WaitGroup
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i], errs[i] = p.Predict(ctx, goldenRecord())
				}()
			}
			wg.Wait()

			Convey("Then every result is identical", func() {
				for i := range workers {
					So(errs[i], ShouldBeNil)
					So(results[i], ShouldResemble, want)
				}
			})
		})
	})

	Convey("Given the golden forest with the legacy encoder", t, func() {
		p, err := prediction.New(goldenForest(), legacyEncoder())
		So(err, ShouldBeNil)

		Convey("When the golden record is scored", func() {
			res, err := p.Predict(ctx, goldenRecord())

			Convey("Then the zeroed payment code flips the first tree", func() {
				So(err, ShouldBeNil)
				So(res.ChurnProbability, ShouldAlmostEqual, 0.45)
				So(res.Verdict, ShouldEqual, prediction.VerdictUnlikely)
				So(res.Percent, ShouldEqual, "55.0%")
			})
		})
	})

	Convey("Given classifiers with malformed output", t, func() {
		cases := map[string][][]float64{
			"three classes": {{0.2, 0.3, 0.5}},
			"one class":     {{1}},
			"no rows":       {},
			"two rows":      {{0.5, 0.5}, {0.5, 0.5}},
			"out of range":  {{-0.5, 1.5}},
		}
		for name, out := range cases {
			Convey("Then "+name+" is an invalid model", func() {
				p, err := prediction.New(fakeClassifier{out: out}, tableEncoder())
				So(err, ShouldBeNil)
				_, err = p.Predict(ctx, goldenRecord())
				So(errors.Is(err, prediction.ErrInvalidModel), ShouldBeTrue)
			})
		}
	})

	Convey("Given a three-class artifact", t, func() {
		features := `"` + strings.Join(customer.Columns(), `","`) + `"`
		f, err := classifier.ParseForest(strings.NewReader(fmt.Sprintf(
			`{"features": [%s], "classes": ["a","b","c"], "trees": [{"nodes": [{"is_leaf": true, "value": [1,1,1]}]}]}`,
			features)))
		So(err, ShouldBeNil)
		p, err := prediction.New(f, tableEncoder())
		So(err, ShouldBeNil)

		Convey("Then it loads but every prediction is an invalid model", func() {
			_, err := p.Predict(ctx, goldenRecord())
			So(errors.Is(err, prediction.ErrInvalidModel), ShouldBeTrue)
		})
	})

	Convey("Given an artifact narrower than the encoder row", t, func() {
		f, err := classifier.ParseForest(strings.NewReader(
			`{"features": ["tenure"], "classes": ["No","Yes"], "trees": [{"nodes": [{"is_leaf": true, "value": [1,1]}]}]}`))
		So(err, ShouldBeNil)
		p, err := prediction.New(f, tableEncoder())
		So(err, ShouldBeNil)

		Convey("Then the width mismatch is an invalid model", func() {
			_, err := p.Predict(ctx, goldenRecord())
			So(errors.Is(err, prediction.ErrInvalidModel), ShouldBeTrue)
			So(errors.Is(err, classifier.ErrFeatureWidth), ShouldBeTrue)
		})
	})

	Convey("Given a classifier that fails", t, func() {
		boom := errors.New("boom")
		p, err := prediction.New(fakeClassifier{err: boom}, tableEncoder())
		So(err, ShouldBeNil)

		Convey("Then the error is passed through", func() {
			_, err := p.Predict(ctx, goldenRecord())
			So(errors.Is(err, boom), ShouldBeTrue)
			So(errors.Is(err, prediction.ErrInvalidModel), ShouldBeFalse)
		})
	})
}
