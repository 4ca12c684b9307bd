package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/estimate"
	"github.com/emiliopalmerini/mhouse/internal/web/templates"
)

const tableauURL = "https://public.tableau.com/views/House_Price_17630990066190/HousePriceGraphs?:embed=yes&:showVizHome=no"

func testServer(t *testing.T, est *estimate.MockEstimator, metrics http.Handler) http.Handler {
	t.Helper()
	s := NewServer(est, Options{
		Port:      0,
		Dashboard: templates.Dashboard{URL: tableauURL, Width: 1400, Height: 900},
		Metrics:   metrics,
	}, zaptest.NewLogger(t))
	return s.Handler()
}

func fixedPrice(price float64) *estimate.MockEstimator {
	return &estimate.MockEstimator{
		EstimateFunc: func(ctx context.Context, in domain.Input) (domain.Estimate, error) {
			return domain.Estimate{RequestID: "req-1", Price: price, Duration: 3 * time.Millisecond}, nil
		},
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func defaultForm() url.Values {
	form := url.Values{}
	in := domain.DefaultInput()
	for _, f := range domain.FormFields {
		if f.IsInteger() {
			form.Set(f.Name, strconv.Itoa(in.Int(f.Name)))
		} else {
			form.Set(f.Name, in.Text(f.Name))
		}
	}
	return form
}

func TestPredictPage_NoTriggerNoPrediction(t *testing.T) {
	est := fixedPrice(1)
	rec := do(t, testServer(t, est, nil), httptest.NewRequest(http.MethodGet, "/predict", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "Predict Price") {
		t.Error("expected the form to be rendered")
	}
	if strings.Contains(body, "Predicted House Price") {
		t.Error("expected no result before the trigger")
	}
	if est.EstimateCalls != 0 {
		t.Errorf("expected no predict call, got %d", est.EstimateCalls)
	}
	for _, want := range []string{`value="1500"`, `value="2000"`, `value="900"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected default %s in form", want)
		}
	}
}

func TestPredict_DefaultsFormatted(t *testing.T) {
	var got domain.Input
	est := fixedPrice(215432.89)
	inner := est.EstimateFunc
	est.EstimateFunc = func(ctx context.Context, in domain.Input) (domain.Estimate, error) {
		got = in
		return inner(ctx, in)
	}

	rec := do(t, testServer(t, est, nil), postForm("/predict", defaultForm()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Predicted House Price") || !strings.Contains(body, "$215,432.89") {
		t.Errorf("expected formatted result, got %s", body)
	}
	if !strings.Contains(body, "<form") {
		t.Error("expected the full page for a plain form post")
	}
	if est.EstimateCalls != 1 {
		t.Errorf("expected 1 predict call, got %d", est.EstimateCalls)
	}
	if got != domain.DefaultInput() {
		t.Errorf("expected default input, got %+v", got)
	}
}

func TestPredict_HTMXFragment(t *testing.T) {
	req := postForm("/predict", defaultForm())
	req.Header.Set("HX-Request", "true")

	rec := do(t, testServer(t, fixedPrice(-1234), nil), req)

	body := rec.Body.String()
	if strings.Contains(body, "<html") || strings.Contains(body, "<form") {
		t.Error("expected only the outcome fragment")
	}
	if !strings.Contains(body, "$-1,234.00") {
		t.Errorf("expected negative price formatting, got %s", body)
	}
}

func TestPredict_KeepsSubmittedValues(t *testing.T) {
	form := defaultForm()
	form.Set("GrLivArea", "2400")
	form.Set("Neighborhood", "CollgCr")

	rec := do(t, testServer(t, fixedPrice(1), nil), postForm("/predict", form))

	body := rec.Body.String()
	if !strings.Contains(body, `value="2400"`) || !strings.Contains(body, `value="CollgCr"`) {
		t.Error("expected the submitted values to stay in the controls")
	}
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		htmx       bool
		wantStatus int
		wantForm   bool
		wantText   string
	}{
		{
			name:       "prediction error keeps the view",
			err:        domain.NewPredictionError("predict", errors.New("non-finite value")),
			wantStatus: http.StatusUnprocessableEntity,
			wantForm:   true,
			wantText:   "non-finite value",
		},
		{
			name:       "prediction error as fragment",
			err:        domain.NewPredictionError("predict", errors.New("non-finite value")),
			htmx:       true,
			wantStatus: http.StatusUnprocessableEntity,
			wantText:   "Prediction failed",
		},
		{
			name:       "model load error",
			err:        domain.NewModelLoadError("open artifact", errors.New("no such file")),
			wantStatus: http.StatusInternalServerError,
			wantText:   "MODEL_LOAD_FAILED",
		},
		{
			name:       "dataset load error",
			err:        domain.NewDataLoadError("open dataset", errors.New("no such file")),
			wantStatus: http.StatusInternalServerError,
			wantText:   "DATA_LOAD_FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &estimate.MockEstimator{
				EstimateFunc: func(context.Context, domain.Input) (domain.Estimate, error) {
					return domain.Estimate{}, tt.err
				},
			}
			req := postForm("/predict", defaultForm())
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rec := do(t, testServer(t, est, nil), req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			body := rec.Body.String()
			if got := strings.Contains(body, "<form"); got != tt.wantForm {
				t.Errorf("expected form rendered = %v, got %v", tt.wantForm, got)
			}
			if !strings.Contains(body, tt.wantText) {
				t.Errorf("expected %q in body", tt.wantText)
			}
		})
	}
}

func TestPredict_InvalidNumber(t *testing.T) {
	form := defaultForm()
	form.Set("YearBuilt", "19x5")
	est := fixedPrice(1)

	rec := do(t, testServer(t, est, nil), postForm("/predict", form))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if est.EstimateCalls != 0 {
		t.Error("expected no predict call for invalid input")
	}
	if !strings.Contains(rec.Body.String(), `value="19x5"`) {
		t.Error("expected the rejected value to be shown back")
	}
}

func TestPredictPage_LoadErrorInsteadOfForm(t *testing.T) {
	est := &estimate.MockEstimator{
		WarmFunc: func(context.Context) error {
			return domain.NewSchemaMismatchError("check compatibility", errors.New("missing features: LotArea"))
		},
	}
	rec := do(t, testServer(t, est, nil), httptest.NewRequest(http.MethodGet, "/predict", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<form") {
		t.Error("expected no form when the estimator cannot load")
	}
}

func TestPredictPage_Datalist(t *testing.T) {
	est := &estimate.MockEstimator{
		LevelsFunc: func(_ context.Context, field string) []string {
			if field == domain.FieldNeighborhood {
				return []string{"CollgCr", "NAmes"}
			}
			return nil
		},
	}
	rec := do(t, testServer(t, est, nil), httptest.NewRequest(http.MethodGet, "/predict", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `<datalist id="levels-Neighborhood">`) {
		t.Error("expected neighborhood suggestions")
	}
	if strings.Contains(body, `levels-HouseStyle`) {
		t.Error("expected no suggestions for a field without levels")
	}
}

func TestDashboard_NeverTouchesEstimator(t *testing.T) {
	est := fixedPrice(1)
	rec := do(t, testServer(t, est, nil), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if est.Calls() != 0 {
		t.Errorf("expected no estimator calls, got %d", est.Calls())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"House Market Tableau Dashboard",
		`src="https://public.tableau.com/views/House_Price_17630990066190/HousePriceGraphs?:embed=yes&amp;:showVizHome=no"`,
		`width="1400"`,
		`height="900"`,
		`scrolling="yes"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in dashboard", want)
		}
	}
}

func TestIndex_RedirectsToRememberedView(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"no cookie", "", "/predict"},
		{"dashboard", "dashboard", "/dashboard"},
		{"predict", "predict", "/predict"},
		{"unknown", "settings", "/predict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: viewCookie, Value: tt.cookie})
			}
			rec := do(t, testServer(t, fixedPrice(1), nil), req)

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.want {
				t.Errorf("expected %s, got %s", tt.want, loc)
			}
		})
	}
}

func TestViewCookie(t *testing.T) {
	rec := do(t, testServer(t, fixedPrice(1), nil), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != viewCookie || cookies[0].Value != "dashboard" {
		t.Errorf("expected view cookie, got %v", cookies)
	}
}

func TestHealthAndStatic(t *testing.T) {
	h := testServer(t, fixedPrice(1), nil)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), ".sidebar") {
		t.Errorf("expected embedded stylesheet, got %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	without := do(t, testServer(t, fixedPrice(1), nil), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if without.Code != http.StatusNotFound {
		t.Errorf("expected 404 without exporter, got %d", without.Code)
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mhouse_predictions_total 1"))
	})
	with := do(t, testServer(t, fixedPrice(1), metrics), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(with.Body.String(), "mhouse_predictions_total") {
		t.Error("expected metrics output")
	}
}

func TestAPISchema(t *testing.T) {
	schema, err := domain.NewSchema([]domain.Feature{
		{Name: "GrLivArea", Kind: domain.KindNumeric},
		{Name: "Neighborhood", Kind: domain.KindCategorical},
	})
	if err != nil {
		t.Fatal(err)
	}
	est := &estimate.MockEstimator{
		SchemaFunc: func(context.Context) (*domain.Schema, error) { return schema, nil },
	}
	rec := do(t, testServer(t, est, nil), httptest.NewRequest(http.MethodGet, "/api/schema", nil))

	want := `{"features":[{"name":"GrLivArea","kind":"numeric"},{"name":"Neighborhood","kind":"categorical"}]}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestAPIPredict(t *testing.T) {
	var got domain.Input
	est := fixedPrice(215432.89)
	inner := est.EstimateFunc
	est.EstimateFunc = func(ctx context.Context, in domain.Input) (domain.Estimate, error) {
		got = in
		return inner(ctx, in)
	}
	h := testServer(t, est, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"GrLivArea": 20000, "Neighborhood": "NAmes"}`))
	rec := do(t, h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp apiEstimate
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Formatted != "$215,432.89" || resp.RequestID != "req-1" {
		t.Errorf("unexpected response %+v", resp)
	}
	if got.GrLivArea != 10000 || got.Neighborhood != "NAmes" || got.YearBuilt != 2000 {
		t.Errorf("expected clamped input with defaults, got %+v", got)
	}
}

func TestAPIPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"unknown field", `{"Bedrooms": 3}`, nil, http.StatusBadRequest},
		{"not json", `GrLivArea=1`, nil, http.StatusBadRequest},
		{"prediction error", `{}`, domain.NewPredictionError("predict", errors.New("boom")), http.StatusUnprocessableEntity},
		{"load error", `{}`, domain.NewModelLoadError("open", errors.New("gone")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &estimate.MockEstimator{
				EstimateFunc: func(context.Context, domain.Input) (domain.Estimate, error) {
					return domain.Estimate{}, tt.err
				},
			}
			rec := do(t, testServer(t, est, nil), httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestHandler_AccessLogRecordsHTMX(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"htmx request", "true", true},
		{"plain request", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			s := NewServer(fixedPrice(1), Options{
				Dashboard: templates.Dashboard{URL: tableauURL, Width: 1400, Height: 900},
			}, zap.New(core))

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("HX-Request", tt.header)
			}
			rec := do(t, s.Handler(), req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got := rec.Header().Get("Vary"); got != "HX-Request" {
				t.Errorf("expected Vary HX-Request, got %q", got)
			}
			entries := logs.FilterMessage("request").All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 access log entry, got %d", len(entries))
			}
			if got := entries[0].ContextMap()["htmx"]; got != tt.want {
				t.Errorf("expected htmx=%v, got %v", tt.want, got)
			}
		})
	}
}
