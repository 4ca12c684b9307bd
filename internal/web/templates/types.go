//go:generate templ generate

package templates

// View names the two pages reachable from the sidebar.
type View string

const (
	ViewPredict   View = "predict"
	ViewDashboard View = "dashboard"
)

// PredictPage is the predict view: the form and, after a trigger, one outcome.
type PredictPage struct {
	Fields []Field
	Result *Result // nil until the trigger fires
	Error  string  // prediction failure shown in place of the result
}

// Field is one rendered form control.
type Field struct {
	Name        string
	Label       string
	Control     string // number, slider or text
	Min         int
	Max         int
	Value       string
	Placeholder string
	Levels      []string // datalist suggestions for text controls
	Error       string
	Column      int
}

// Result is the formatted outcome of a successful prediction.
type Result struct {
	Price     string
	RequestID string
	Duration  string
	Unseen    []UnseenCategory
}

type UnseenCategory struct {
	Field string
	Value string
}

// Dashboard is the embedded external dashboard.
type Dashboard struct {
	URL    string
	Width  int
	Height int
}

// LoadError is shown instead of the form when the model or the dataset
// cannot be loaded.
type LoadError struct {
	Code    string
	Message string
}

const (
	PredictTitle   = "House Price Prediction"
	PredictCaption = "Fill in the details below to estimate the property price."
	ResultHeading  = "Predicted House Price"
	TriggerLabel   = "Predict Price"

	DashboardTitle   = "House Market Tableau Dashboard"
	DashboardCaption = "This dashboard helps visualize real estate trends & patterns."
)
