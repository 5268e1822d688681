package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/gin-contrib/multitemplate"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/bull/imdb-assistant/internal/analytics"
	"github.com/bull/imdb-assistant/internal/chat"
)

var (
	//go:embed templates/layout.html
	layoutHTML string
	//go:embed templates/cards.html
	cardsHTML string
	//go:embed templates/chat.html
	chatHTML string
	//go:embed templates/dashboard.html
	dashboardHTML string
)

// markdown renders chat turns. Raw HTML in model output is escaped.
var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// renderMarkdown converts text to HTML, falling back to escaped text.
func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// LoadTemplates assembles each page from the shared layout and partials.
func LoadTemplates() multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"rating": func(r float64) string {
			return fmt.Sprintf("%.1f", r)
		},
		"upper": strings.ToUpper,
	}

	r.AddFromStringsFuncs("chat.html", funcMap, layoutHTML, cardsHTML, chatHTML)
	r.AddFromStringsFuncs("dashboard.html", funcMap, layoutHTML, dashboardHTML)
	return r
}

// turnView is a chat turn ready for display.
type turnView struct {
	Role    chat.Role
	Content string
}

func turnViews(turns []chat.Turn) []turnView {
	views := make([]turnView, len(turns))
	for i, t := range turns {
		views[i] = turnView{Role: t.Role, Content: t.Content}
	}
	return views
}

// bar is one row of a horizontal bar chart.
type bar struct {
	Label string
	Count int
	Pct   float64 // width relative to the largest bar
}

// lineChart is an SVG polyline of movies per year.
type lineChart struct {
	Width, Height int
	Points        string
	First, Last   string
	Max           int
}

const (
	chartWidth  = 720
	chartHeight = 200
)

// dashboardView holds the dashboard plus precomputed chart geometry.
type dashboardView struct {
	analytics.Dashboard
	GenreBars  []bar
	RatingBars []bar
	Years      lineChart
}

func newDashboardView(d analytics.Dashboard) dashboardView {
	view := dashboardView{Dashboard: d}

	genreMax := 0
	for _, g := range d.TopGenres {
		genreMax = max(genreMax, g.Count)
	}
	for _, g := range d.TopGenres {
		view.GenreBars = append(view.GenreBars, bar{Label: g.Genre, Count: g.Count, Pct: pct(g.Count, genreMax)})
	}

	ratingMax := 0
	for _, r := range d.RatingDistribution {
		ratingMax = max(ratingMax, r.Count)
	}
	for _, r := range d.RatingDistribution {
		view.RatingBars = append(view.RatingBars, bar{
			Label: fmt.Sprintf("%.1f", r.Rating),
			Count: r.Count,
			Pct:   pct(r.Count, ratingMax),
		})
	}

	view.Years = yearLine(d.MoviesPerYear)
	return view
}

func yearLine(years []analytics.YearCount) lineChart {
	chart := lineChart{Width: chartWidth, Height: chartHeight}
	if len(years) == 0 {
		return chart
	}

	for _, y := range years {
		chart.Max = max(chart.Max, y.Count)
	}
	chart.First = years[0].Year
	chart.Last = years[len(years)-1].Year

	step := 0.0
	if len(years) > 1 {
		step = float64(chartWidth) / float64(len(years)-1)
	}

	points := make([]string, len(years))
	for i, y := range years {
		x := step * float64(i)
		h := float64(chartHeight) - float64(y.Count)/float64(chart.Max)*float64(chartHeight)
		points[i] = fmt.Sprintf("%.1f,%.1f", x, h)
	}
	chart.Points = strings.Join(points, " ")
	return chart
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
