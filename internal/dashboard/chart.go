package dashboard

import (
	"errors"
	"fmt"
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/seodash/seodash/internal/model"
)

// ChartLabelLayout formats x-axis dates.
const ChartLabelLayout = "Jan 2, 2006"

// Axis selects the y-axis a series is plotted against.
type Axis string

const (
	AxisLeft  Axis = "left"
	AxisRight Axis = "right"
)

// Series is one plotted line.
type Series struct {
	Label  string
	Values []float64
	Axis   Axis
	Fill   bool
	Color  string
}

// ChartConfig is the renderer-independent description of the metrics chart.
type ChartConfig struct {
	Labels []string
	Series []Series
}

// BuildChartConfig maps samples to three series on one date axis: clicks and
// impressions filled on the left axis, average position unfilled on the right.
func BuildChartConfig(samples []model.MetricSample) ChartConfig {
	cfg := ChartConfig{Labels: make([]string, len(samples))}
	clicks := make([]float64, len(samples))
	impressions := make([]float64, len(samples))
	positions := make([]float64, len(samples))

	for i, s := range samples {
		cfg.Labels[i] = s.Date.Format(ChartLabelLayout)
		clicks[i] = float64(s.Clicks)
		impressions[i] = float64(s.Impressions)
		positions[i] = s.Position
	}

	cfg.Series = []Series{
		{Label: "Clicks", Values: clicks, Axis: AxisLeft, Fill: true, Color: "#4f46e5"},
		{Label: "Impressions", Values: impressions, Axis: AxisLeft, Fill: true, Color: "#10b981"},
		{Label: "Avg. Position", Values: positions, Axis: AxisRight, Fill: false, Color: "#f59e0b"},
	}
	return cfg
}

// ErrCanvasInUse is returned when a live chart is already bound to a canvas.
var ErrCanvasInUse = errors.New("canvas already has a live chart")

// ChartHandle owns one rendered chart bound to a canvas.
type ChartHandle struct {
	canvas   string
	svg      template.HTML
	renderer *SVGRenderer
	once     sync.Once
}

// Canvas returns the canvas the chart is bound to.
func (h *ChartHandle) Canvas() string {
	return h.canvas
}

// SVG returns the rendered markup.
func (h *ChartHandle) SVG() template.HTML {
	return h.svg
}

// Dispose releases the canvas. Safe to call more than once.
func (h *ChartHandle) Dispose() {
	h.once.Do(func() {
		h.renderer.release(h)
	})
}

// SVGRenderer draws charts as inline SVG and tracks one live chart per canvas.
type SVGRenderer struct {
	Width  int
	Height int

	mu   sync.Mutex
	live map[string]*ChartHandle
}

// NewSVGRenderer creates a renderer with the default chart size.
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{Width: 800, Height: 320, live: make(map[string]*ChartHandle)}
}

// Live reports whether canvas has a chart that was not disposed.
func (r *SVGRenderer) Live(canvas string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[canvas]
	return ok
}

// Render draws cfg onto canvas. The previous chart on canvas must be disposed first.
func (r *SVGRenderer) Render(canvas string, cfg ChartConfig) (*ChartHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[canvas]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCanvasInUse, canvas)
	}

	h := &ChartHandle{canvas: canvas, svg: r.draw(canvas, cfg), renderer: r}
	r.live[canvas] = h
	return h, nil
}

func (r *SVGRenderer) release(h *ChartHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[h.canvas] == h {
		delete(r.live, h.canvas)
	}
}

const (
	padLeft   = 56.0
	padRight  = 48.0
	padTop    = 16.0
	padBottom = 56.0
)

func (r *SVGRenderer) draw(canvas string, cfg ChartConfig) template.HTML {
	width, height := float64(r.Width), float64(r.Height)
	plotW := width - padLeft - padRight
	plotH := height - padTop - padBottom

	leftMax, rightMax := axisMax(cfg, AxisLeft), axisMax(cfg, AxisRight)

	x := func(i int) float64 {
		if len(cfg.Labels) <= 1 {
			return padLeft + plotW/2
		}
		return padLeft + plotW*float64(i)/float64(len(cfg.Labels)-1)
	}
	y := func(v, top float64) float64 {
		return padTop + plotH - plotH*v/top
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg id="%s" class="chart" viewBox="0 0 %d %d" role="img" aria-label="Search performance">`,
		html.EscapeString(canvas), r.Width, r.Height)

	// Axes
	fmt.Fprintf(&b, `<line class="axis" x1="%s" y1="%s" x2="%s" y2="%s"/>`,
		num(padLeft), num(padTop), num(padLeft), num(padTop+plotH))
	fmt.Fprintf(&b, `<line class="axis" x1="%s" y1="%s" x2="%s" y2="%s"/>`,
		num(width-padRight), num(padTop), num(width-padRight), num(padTop+plotH))
	fmt.Fprintf(&b, `<line class="axis" x1="%s" y1="%s" x2="%s" y2="%s"/>`,
		num(padLeft), num(padTop+plotH), num(width-padRight), num(padTop+plotH))

	for _, tick := range []float64{0, 0.5, 1} {
		ty := y(tick*leftMax, leftMax)
		fmt.Fprintf(&b, `<text class="tick tick-left" x="%s" y="%s" text-anchor="end">%s</text>`,
			num(padLeft-6), num(ty+4), num(tick*leftMax))
		fmt.Fprintf(&b, `<text class="tick tick-right" x="%s" y="%s">%s</text>`,
			num(width-padRight+6), num(ty+4), num(tick*rightMax))
	}

	for i, label := range cfg.Labels {
		if !showLabel(i, len(cfg.Labels)) {
			continue
		}
		fmt.Fprintf(&b, `<text class="tick tick-x" x="%s" y="%s" text-anchor="middle">%s</text>`,
			num(x(i)), num(padTop+plotH+18), html.EscapeString(label))
	}

	for _, s := range cfg.Series {
		top := leftMax
		if s.Axis == AxisRight {
			top = rightMax
		}

		points := make([]string, len(s.Values))
		for i, v := range s.Values {
			points[i] = num(x(i)) + "," + num(y(v, top))
		}
		if len(points) == 0 {
			continue
		}

		if s.Fill {
			area := append([]string{num(x(0)) + "," + num(padTop+plotH)}, points...)
			area = append(area, num(x(len(points)-1))+","+num(padTop+plotH))
			fmt.Fprintf(&b, `<polygon class="series-fill" points="%s" fill="%s" fill-opacity="0.15" stroke="none"/>`,
				strings.Join(area, " "), s.Color)
		}
		fmt.Fprintf(&b, `<polyline class="series" data-series="%s" data-axis="%s" points="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			html.EscapeString(s.Label), s.Axis, strings.Join(points, " "), s.Color)
	}

	// Legend
	for i, s := range cfg.Series {
		lx := padLeft + float64(i)*150
		ly := height - 12
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="12" height="12" fill="%s"/>`, num(lx), num(ly-10), s.Color)
		fmt.Fprintf(&b, `<text class="legend" x="%s" y="%s">%s</text>`, num(lx+18), num(ly), html.EscapeString(s.Label))
	}

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

// axisMax is the largest value plotted on axis, at least 1.
func axisMax(cfg ChartConfig, axis Axis) float64 {
	top := 0.0
	for _, s := range cfg.Series {
		if s.Axis != axis {
			continue
		}
		for _, v := range s.Values {
			top = math.Max(top, v)
		}
	}
	if top <= 0 {
		return 1
	}
	return top
}

// showLabel thins x-axis labels to about ten.
func showLabel(i, n int) bool {
	step := n / 10
	if step < 1 {
		step = 1
	}
	return i%step == 0 || i == n-1
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
