package customer

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Record is one customer's attributes as entered on the form. It is built
// per request, validated once and then only read.
type Record struct {
	Gender           string  `json:"gender"`
	SeniorCitizen    int     `json:"SeniorCitizen"`
	Partner          string  `json:"Partner"`
	Dependents       string  `json:"Dependents"`
	Tenure           int     `json:"tenure"`
	PhoneService     string  `json:"PhoneService"`
	MultipleLines    string  `json:"MultipleLines"`
	InternetService  string  `json:"InternetService"`
	OnlineSecurity   string  `json:"OnlineSecurity"`
	OnlineBackup     string  `json:"OnlineBackup"`
	DeviceProtection string  `json:"DeviceProtection"`
	TechSupport      string  `json:"TechSupport"`
	StreamingTV      string  `json:"StreamingTV"`
	StreamingMovies  string  `json:"StreamingMovies"`
	Contract         string  `json:"Contract"`
	PaperlessBilling string  `json:"PaperlessBilling"`
	PaymentMethod    string  `json:"PaymentMethod"`
	MonthlyCharges   float64 `json:"MonthlyCharges"`
	TotalCharges     float64 `json:"TotalCharges"`
}

// Categorical returns the string value of a categorical column.
func (r Record) Categorical(column string) (string, bool) {
	switch column {
	case ColGender:
		return r.Gender, true
	case ColPartner:
		return r.Partner, true
	case ColDependents:
		return r.Dependents, true
	case ColPhoneService:
		return r.PhoneService, true
	case ColMultipleLines:
		return r.MultipleLines, true
	case ColInternetService:
		return r.InternetService, true
	case ColOnlineSecurity:
		return r.OnlineSecurity, true
	case ColOnlineBackup:
		return r.OnlineBackup, true
	case ColDeviceProtection:
		return r.DeviceProtection, true
	case ColTechSupport:
		return r.TechSupport, true
	case ColStreamingTV:
		return r.StreamingTV, true
	case ColStreamingMovies:
		return r.StreamingMovies, true
	case ColContract:
		return r.Contract, true
	case ColPaperlessBilling:
		return r.PaperlessBilling, true
	case ColPaymentMethod:
		return r.PaymentMethod, true
	}
	return "", false
}

// Numeric returns the value of a numeric column.
func (r Record) Numeric(column string) (float64, bool) {
	switch column {
	case ColSeniorCitizen:
		return float64(r.SeniorCitizen), true
	case ColTenure:
		return float64(r.Tenure), true
	case ColMonthlyCharges:
		return r.MonthlyCharges, true
	case ColTotalCharges:
		return r.TotalCharges, true
	}
	return 0, false
}

// Values renders the record as form values keyed by column name.
func (r Record) Values() map[string]string {
	out := make(map[string]string, len(schema))
	for _, c := range Columns() {
		if s, ok := r.Categorical(c); ok {
			out[c] = s
			continue
		}
		v, _ := r.Numeric(c)
		out[c] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

// Validate checks every column against the schema and returns the first
// violation as a *FieldError wrapping ErrInvalidRecord.
func (r Record) Validate() error {
	for _, f := range Schema() {
		if f.Categorical() {
			v, _ := r.Categorical(f.Name)
			if !slices.Contains(f.Choices, v) {
				return newFieldError(f.Name, fmt.Sprintf("%q is not one of %s", v, strings.Join(f.Choices, ", ")))
			}
			continue
		}
		v, _ := r.Numeric(f.Name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newFieldError(f.Name, "must be a finite number")
		}
		if v < f.Min || v > f.Max {
			return newFieldError(f.Name, fmt.Sprintf("%s is outside [%s, %s]",
				formatNumber(v), formatNumber(f.Min), formatNumber(f.Max)))
		}
	}
	return nil
}

// Default returns the record the empty form starts from.
func Default() Record {
	rec, err := FromValues(url.Values{})
	if err != nil {
		panic(fmt.Sprintf("customer: schema defaults are invalid: %v", err))
	}
	return rec
}

// FromValues parses and validates submitted form values. Missing keys take
// the schema default.
func FromValues(values url.Values) (Record, error) {
	get := func(f Field) string {
		if v, ok := values[f.Name]; ok && len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return f.Default
	}

	var rec Record
	for _, f := range Schema() {
		raw := get(f)
		switch f.Kind {
		case KindCategorical:
			rec.setCategorical(f.Name, raw)
		case KindInteger:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return Record{}, newFieldError(f.Name, fmt.Sprintf("%q is not a whole number", raw))
			}
			rec.setNumeric(f.Name, float64(n))
		case KindFloat:
			x, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Record{}, newFieldError(f.Name, fmt.Sprintf("%q is not a number", raw))
			}
			rec.setNumeric(f.Name, x)
		}
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *Record) setCategorical(column, v string) {
	switch column {
	case ColGender:
		r.Gender = v
	case ColPartner:
		r.Partner = v
	case ColDependents:
		r.Dependents = v
	case ColPhoneService:
		r.PhoneService = v
	case ColMultipleLines:
		r.MultipleLines = v
	case ColInternetService:
		r.InternetService = v
	case ColOnlineSecurity:
		r.OnlineSecurity = v
	case ColOnlineBackup:
		r.OnlineBackup = v
	case ColDeviceProtection:
		r.DeviceProtection = v
	case ColTechSupport:
		r.TechSupport = v
	case ColStreamingTV:
		r.StreamingTV = v
	case ColStreamingMovies:
		r.StreamingMovies = v
	case ColContract:
		r.Contract = v
	case ColPaperlessBilling:
		r.PaperlessBilling = v
	case ColPaymentMethod:
		r.PaymentMethod = v
	}
}

func (r *Record) setNumeric(column string, v float64) {
	switch column {
	case ColSeniorCitizen:
		r.SeniorCitizen = int(v)
	case ColTenure:
		r.Tenure = int(v)
	case ColMonthlyCharges:
		r.MonthlyCharges = v
	case ColTotalCharges:
		r.TotalCharges = v
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
