package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	service "github.com/okian/churnrisk/internal/app"
	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	result prediction.Result
	err    error
	calls  int
}

func (f *fakeDeps) Predict(_ context.Context, _ customer.Record) (service.Prediction, error) {
	f.calls++
	return service.Prediction{ID: "id", Result: f.result}, f.err
}

func (f *fakeDeps) Schema() []customer.Field { return customer.Schema() }

func goldenForm() url.Values {
	return url.Values{
		"gender": {"Female"}, "SeniorCitizen": {"0"}, "Partner": {"Yes"}, "Dependents": {"No"},
		"tenure": {"12"}, "PhoneService": {"Yes"}, "MultipleLines": {"No"}, "InternetService": {"DSL"},
		"OnlineSecurity": {"Yes"}, "OnlineBackup": {"No"}, "DeviceProtection": {"No"}, "TechSupport": {"No"},
		"StreamingTV": {"No"}, "StreamingMovies": {"No"}, "Contract": {"Month-to-month"},
		"PaperlessBilling": {"Yes"}, "PaymentMethod": {"Electronic check"},
		"MonthlyCharges": {"70.5"}, "TotalCharges": {"846.0"},
	}
}

func post(h http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestFormPage(t *testing.T) {
	Convey("Given the form registered on a mux", t, func() {
		deps := &fakeDeps{result: prediction.Decide(0.8734)}
		mux := http.NewServeMux()
		Register(mux, deps)

		Convey("When the page is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			body := w.Body.String()

			Convey("Then every input is rendered with no verdict", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				for _, f := range customer.Schema() {
					So(body, ShouldContainSubstring, `name="`+f.Name+`"`)
				}
				So(body, ShouldNotContainSubstring, "to churn with a probability")
				So(deps.calls, ShouldEqual, 0)
			})

			Convey("And numeric inputs carry their bounds", func() {
				So(body, ShouldContainSubstring, `name="tenure" type="number" value="1" min="1" max="100" step="1"`)
				So(body, ShouldContainSubstring, `max="100000"`)
			})

			Convey("And the first choice is preselected", func() {
				So(body, ShouldContainSubstring, `<option value="Male" selected>Male</option>`)
			})
		})

		Convey("When the golden record is submitted", func() {
			w := post(mux, goldenForm())
			body := w.Body.String()

			Convey("Then the verdict is shown and the inputs are kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "The customer is likely to churn with a probability of 87.34%.")
				So(body, ShouldContainSubstring, `class="result likely"`)
				So(body, ShouldContainSubstring, `<option value="Female" selected>Female</option>`)
				So(body, ShouldContainSubstring, `value="70.5"`)
				So(deps.calls, ShouldEqual, 1)
			})
		})

		Convey("When tenure is outside its range", func() {
			form := goldenForm()
			form.Set("tenure", "0")
			w := post(mux, form)

			Convey("Then the form is re-rendered with the field error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "tenure")
				So(w.Body.String(), ShouldNotContainSubstring, "to churn with a probability")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When the model is invalid", func() {
			deps.err = prediction.ErrInvalidModel
			w := post(mux, goldenForm())

			Convey("Then the invalid model message replaces the verdict", func() {
				So(w.Body.String(), ShouldContainSubstring, prediction.InvalidModelMessage)
				So(w.Body.String(), ShouldNotContainSubstring, "to churn with a probability")
			})
		})

		Convey("When an unknown path is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/some-asset", nil))

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the method is not supported", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})

	Convey("Given an unlikely verdict", t, func() {
		mux := http.NewServeMux()
		Register(mux, &fakeDeps{result: prediction.Decide(0.2)})
		w := post(mux, goldenForm())

		Convey("Then the complement is shown", func() {
			So(w.Body.String(), ShouldContainSubstring, "The customer is unlikely to churn with a probability of 80.0%.")
		})
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then Register panics", func() {
			So(func() { Register(nil, &fakeDeps{}) }, ShouldPanic)
		})
	})
}
