// Package customer holds the telecom customer record and the declarative
// form schema that both the HTML form and the JSON API validate against.
package customer

import "sort"

// Kind is the semantic type of a form field.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindInteger     Kind = "integer"
	KindFloat       Kind = "float"
)

// Column names, in the order the classifier was trained on.
const (
	ColGender           = "gender"
	ColSeniorCitizen    = "SeniorCitizen"
	ColPartner          = "Partner"
	ColDependents       = "Dependents"
	ColTenure           = "tenure"
	ColPhoneService     = "PhoneService"
	ColMultipleLines    = "MultipleLines"
	ColInternetService  = "InternetService"
	ColOnlineSecurity   = "OnlineSecurity"
	ColOnlineBackup     = "OnlineBackup"
	ColDeviceProtection = "DeviceProtection"
	ColTechSupport      = "TechSupport"
	ColStreamingTV      = "StreamingTV"
	ColStreamingMovies  = "StreamingMovies"
	ColContract         = "Contract"
	ColPaperlessBilling = "PaperlessBilling"
	ColPaymentMethod    = "PaymentMethod"
	ColMonthlyCharges   = "MonthlyCharges"
	ColTotalCharges     = "TotalCharges"
)

// Field describes one input of the form: its domain, bounds and default.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Choices []string `json:"choices,omitempty"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Default string   `json:"default"`
	// Column is the form column the field renders in: 0 left, 1 right.
	Column int `json:"column"`
}

// Categorical reports whether the field takes one of a fixed set of strings.
func (f Field) Categorical() bool { return f.Kind == KindCategorical }

var (
	yesNo       = []string{"Yes", "No"}
	internetAdd = []string{"No", "Yes", "No internet service"}
)

// schema is in display order; the left column mirrors the first ten
// inputs of the original two-column form.
var schema = []Field{ //nolint:gochecknoglobals // immutable schema table, copied out by Schema
	{Name: ColGender, Label: "Gender", Kind: KindCategorical, Choices: []string{"Male", "Female"}},
	{Name: ColSeniorCitizen, Label: "Senior citizen", Kind: KindInteger, Min: 0, Max: 1, Step: 1, Choices: []string{"0", "1"}},
	{Name: ColPartner, Label: "Partner", Kind: KindCategorical, Choices: yesNo},
	{Name: ColDependents, Label: "Dependents", Kind: KindCategorical, Choices: yesNo},
	{Name: ColPhoneService, Label: "Phone Service", Kind: KindCategorical, Choices: yesNo},
	{Name: ColMultipleLines, Label: "Multiple Lines", Kind: KindCategorical, Choices: []string{"No phone service", "No", "Yes"}},
	{Name: ColInternetService, Label: "Internet Service", Kind: KindCategorical, Choices: []string{"DSL", "Fiber optic", "No"}},
	{Name: ColOnlineSecurity, Label: "Online Security", Kind: KindCategorical, Choices: internetAdd},
	{Name: ColOnlineBackup, Label: "Online Backup", Kind: KindCategorical, Choices: internetAdd},
	{Name: ColDeviceProtection, Label: "Device Protection", Kind: KindCategorical, Choices: internetAdd},
	{Name: ColTechSupport, Label: "Tech Support", Kind: KindCategorical, Choices: internetAdd, Column: 1},
	{Name: ColStreamingTV, Label: "Streaming TV", Kind: KindCategorical, Choices: internetAdd, Column: 1},
	{Name: ColStreamingMovies, Label: "Streaming Movies", Kind: KindCategorical, Choices: internetAdd, Column: 1},
	{Name: ColContract, Label: "Contract", Kind: KindCategorical, Choices: []string{"Month-to-month", "One year", "Two year"}, Column: 1},
	{Name: ColPaperlessBilling, Label: "Paperless Billing", Kind: KindCategorical, Choices: yesNo, Column: 1},
	{Name: ColPaymentMethod, Label: "Payment Method", Kind: KindCategorical, Choices: []string{
		"Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)",
	}, Column: 1},
	{Name: ColTenure, Label: "Tenure (months)", Kind: KindInteger, Min: 1, Max: 100, Step: 1, Default: "1", Column: 1},
	{Name: ColMonthlyCharges, Label: "Monthly Charges ($)", Kind: KindFloat, Min: 1, Max: 1000, Step: 0.01, Default: "50.0", Column: 1},
	{Name: ColTotalCharges, Label: "Total Charges ($)", Kind: KindFloat, Min: 1, Max: 100000, Step: 0.01, Default: "50.0", Column: 1},
}

// Columns lists every record column in training order.
func Columns() []string {
	return []string{
		ColGender, ColSeniorCitizen, ColPartner, ColDependents, ColTenure,
		ColPhoneService, ColMultipleLines, ColInternetService, ColOnlineSecurity,
		ColOnlineBackup, ColDeviceProtection, ColTechSupport, ColStreamingTV,
		ColStreamingMovies, ColContract, ColPaperlessBilling, ColPaymentMethod,
		ColMonthlyCharges, ColTotalCharges,
	}
}

// CategoricalColumns lists the 15 string-valued columns in training order.
func CategoricalColumns() []string {
	out := make([]string, 0, 15)
	for _, c := range Columns() {
		if f, ok := Lookup(c); ok && f.Categorical() {
			out = append(out, c)
		}
	}
	return out
}

// Schema returns a copy of the form schema in display order. Categorical
// fields without an explicit default take their first choice.
func Schema() []Field {
	out := make([]Field, len(schema))
	for i, f := range schema {
		f.Choices = append([]string(nil), f.Choices...)
		if f.Default == "" && len(f.Choices) > 0 {
			f.Default = f.Choices[0]
		}
		out[i] = f
	}
	return out
}

// Lookup returns the schema entry for a column.
func Lookup(name string) (Field, bool) {
	for _, f := range Schema() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SortedDomain returns a categorical column's choices in lexicographic
// order, which is the code order a label encoder fitted on the full
// domain assigns.
func SortedDomain(name string) []string {
	f, ok := Lookup(name)
	if !ok || !f.Categorical() {
		return nil
	}
	sort.Strings(f.Choices)
	return f.Choices
}
