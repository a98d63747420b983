package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// ChartPoint is a single labelled bar.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarChartRenderer turns report rows into server-side go-echarts markup.
type BarChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartOption customizes the renderer.
type ChartOption func(*BarChartRenderer)

// WithChartCache injects a render cache. A nil cache disables memoization.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *BarChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the chart theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(r *BarChartRenderer) {
		if theme = strings.TrimSpace(theme); theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the host ECharts JS is loaded from.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *BarChartRenderer) {
		r.assetsHost = host
	}
}

// NewBarChartRenderer builds a renderer.
func NewBarChartRenderer(opts ...ChartOption) *BarChartRenderer {
	r := &BarChartRenderer{
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns chart HTML for the points. Identical inputs share a cache
// entry keyed by the widget code and a hash of the series.
func (r *BarChartRenderer) Render(code, title, series string, points []ChartPoint) (string, error) {
	if len(points) == 0 {
		return "", nil
	}
	renderFn := func() (string, error) {
		return r.renderBarChart(title, series, points)
	}
	if r.cache == nil {
		return renderFn()
	}
	key := fmt.Sprintf("%s:%s", code, configHash(map[string]any{
		"title":  title,
		"series": series,
		"points": points,
		"theme":  r.theme,
	}))
	return r.cache.GetOrRender(key, renderFn)
}

func (r *BarChartRenderer) renderBarChart(title, series string, points []ChartPoint) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalChartOptions(title)...)
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	bar.SetXAxis(labels)
	bar.AddSeries(series, toBarData(points))
	return renderChart(bar)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *BarChartRenderer) globalChartOptions(title string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}
