package web

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/shared/middleware"
	"github.com/emiliopalmerini/mhouse/internal/util"
	"github.com/emiliopalmerini/mhouse/internal/web/templates"
)

// viewCookie remembers the last page chosen in the sidebar.
const viewCookie = "mhouse_view"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	target := "/predict"
	if c, err := r.Cookie(viewCookie); err == nil && templates.View(c.Value) == templates.ViewDashboard {
		target = "/dashboard"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func rememberView(w http.ResponseWriter, v templates.View) {
	http.SetCookie(w, &http.Cookie{
		Name:     viewCookie,
		Value:    string(v),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	rememberView(w, templates.ViewPredict)
	ctx := r.Context()

	if err := s.estimator.Warm(ctx); err != nil {
		s.renderLoadError(w, r, err)
		return
	}
	page := templates.PredictPage{Fields: s.fields(r, domain.DefaultInput(), nil)}
	s.render(w, r, http.StatusOK, templates.Predict(page))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	rememberView(w, templates.ViewPredict)
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in, err := domain.ParseInput(func(name string) (string, bool) {
		vals, ok := r.PostForm[name]
		if !ok || len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	})

	var fieldErrs domain.FieldErrors
	if errors.As(err, &fieldErrs) {
		page := templates.PredictPage{
			Fields: s.fields(r, in, fieldErrs),
			Error:  fieldErrs.Error(),
		}
		s.respondPredict(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	est, err := s.estimator.Estimate(ctx, in)
	switch {
	case err == nil:
		page := templates.PredictPage{
			Fields: s.fields(r, in, nil),
			Result: resultView(est),
		}
		s.respondPredict(w, r, http.StatusOK, page)
	case domain.IsLoadError(err):
		s.renderLoadError(w, r, err)
	default:
		page := templates.PredictPage{
			Fields: s.fields(r, in, nil),
			Error:  err.Error(),
		}
		s.respondPredict(w, r, http.StatusUnprocessableEntity, page)
	}
}

// respondPredict sends only the outcome fragment to HTMX, the full page otherwise.
func (s *Server) respondPredict(w http.ResponseWriter, r *http.Request, status int, page templates.PredictPage) {
	if middleware.IsHTMX(r) {
		s.render(w, r, status, templates.Outcome(page))
		return
	}
	s.render(w, r, status, templates.Predict(page))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rememberView(w, templates.ViewDashboard)
	s.render(w, r, http.StatusOK, templates.DashboardPage(s.dashboard))
}

func (s *Server) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("estimator unavailable", zap.Error(err))
	view := templates.LoadError{Code: string(domain.CodeOf(err)), Message: err.Error()}
	if middleware.IsHTMX(r) {
		s.render(w, r, http.StatusInternalServerError, templates.LoadErrorCard(view))
		return
	}
	s.render(w, r, http.StatusInternalServerError, templates.LoadErrorPage(view))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.Warn("render failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// fields builds the form controls for the given input state.
func (s *Server) fields(r *http.Request, in domain.Input, errs domain.FieldErrors) []templates.Field {
	out := make([]templates.Field, 0, len(domain.FormFields))
	for _, f := range domain.FormFields {
		field := templates.Field{
			Name:        f.Name,
			Label:       f.Label,
			Control:     string(f.Control),
			Min:         f.Min,
			Max:         f.Max,
			Placeholder: f.Placeholder,
			Column:      f.Column,
			Error:       errs[f.Name],
		}
		if f.IsInteger() {
			field.Value = strconv.Itoa(in.Int(f.Name))
			if _, bad := errs[f.Name]; bad {
				field.Value = r.PostFormValue(f.Name)
			}
		} else {
			field.Value = in.Text(f.Name)
			field.Levels = s.estimator.Levels(r.Context(), f.Name)
		}
		out = append(out, field)
	}
	return out
}

func resultView(est domain.Estimate) *templates.Result {
	res := &templates.Result{
		Price:     util.FormatCurrency(est.Price),
		RequestID: est.RequestID,
		Duration:  util.FormatDuration(est.Duration),
	}
	for f, v := range est.UnseenCategories {
		res.Unseen = append(res.Unseen, templates.UnseenCategory{Field: f, Value: v})
	}
	sort.Slice(res.Unseen, func(i, j int) bool { return res.Unseen[i].Field < res.Unseen[j].Field })
	return res
}
