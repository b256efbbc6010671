package views

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"unicode"
	"unicode/utf8"

	"riego/internal/modules/dashboard/types"
)

// UnavailableMessage replaces the charts when a refresh fails.
const UnavailableMessage = "Solicitud No Disponible"

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// ChartView is one rendered chart slot.
type ChartView struct {
	ID    string
	Title string
	Wide  bool
	SVG   template.HTML
}

// ChartsData is the view model for the charts partial.
type ChartsData struct {
	Description string
	Unavailable bool
	Message     string
	Quarantined int
	Charts      []ChartView
	Histogram   *ChartView
}

type DashboardData struct {
	PageTitle string
	Dates     []string
	Selected  string
	Charts    ChartsData
}

// Description is the summary line shown above the charts.
func Description(date string) string {
	return fmt.Sprintf("Resultados obtenidos del %s.", capitalize(date))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// NewChartsData renders set into view slots. A nil set produces the
// unavailable message instead of charts.
func NewChartsData(date string, set *types.ChartSet) (ChartsData, error) {
	data := ChartsData{Description: Description(date)}
	if set == nil {
		data.Unavailable = true
		data.Message = UnavailableMessage
		return data, nil
	}
	data.Quarantined = set.Quarantined
	for _, spec := range set.Positional() {
		v, err := newChartView(spec)
		if err != nil {
			return ChartsData{}, err
		}
		data.Charts = append(data.Charts, v)
	}
	hist, err := newChartView(set.Histogram)
	if err != nil {
		return ChartsData{}, err
	}
	data.Histogram = &hist
	return data, nil
}

func newChartView(spec types.ChartSpec) (ChartView, error) {
	svg, err := RenderSVG(spec)
	if err != nil {
		return ChartView{}, err
	}
	return ChartView{
		ID:    string(spec.ID),
		Title: spec.Title,
		Wide:  IsWide(spec.Kind),
		SVG:   svg,
	}, nil
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderChartsPartial executes only the charts partial into w.
// Use for HTMX fragment refresh.
func RenderChartsPartial(w io.Writer, data *ChartsData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "charts", data)
}
