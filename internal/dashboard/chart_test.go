package dashboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seodash/seodash/internal/model"
)

func TestBuildChartConfig(t *testing.T) {
	cfg := BuildChartConfig(sampleMetrics())

	assert.Equal(t, []string{"Jan 1, 2024", "Jan 2, 2024"}, cfg.Labels)
	require.Len(t, cfg.Series, 3)

	clicks, impressions, position := cfg.Series[0], cfg.Series[1], cfg.Series[2]
	assert.Equal(t, []float64{10, 20}, clicks.Values)
	assert.Equal(t, AxisLeft, clicks.Axis)
	assert.True(t, clicks.Fill)

	assert.Equal(t, []float64{100, 300}, impressions.Values)
	assert.Equal(t, AxisLeft, impressions.Axis)
	assert.True(t, impressions.Fill)

	assert.Equal(t, []float64{5.5, 4.5}, position.Values)
	assert.Equal(t, AxisRight, position.Axis)
	assert.False(t, position.Fill)
}

func TestSVGRenderer_OneLiveChartPerCanvas(t *testing.T) {
	r := NewSVGRenderer()
	cfg := BuildChartConfig(sampleMetrics())

	h, err := r.Render("canvas", cfg)
	require.NoError(t, err)
	assert.Equal(t, "canvas", h.Canvas())
	assert.True(t, r.Live("canvas"))

	_, err = r.Render("canvas", cfg)
	assert.ErrorIs(t, err, ErrCanvasInUse)

	other, err := r.Render("other", cfg)
	require.NoError(t, err)
	defer other.Dispose()

	h.Dispose()
	h.Dispose()
	assert.False(t, r.Live("canvas"))

	again, err := r.Render("canvas", cfg)
	require.NoError(t, err)
	again.Dispose()
}

func TestSVGRenderer_Markup(t *testing.T) {
	r := NewSVGRenderer()
	h, err := r.Render(ChartCanvas, BuildChartConfig(sampleMetrics()))
	require.NoError(t, err)
	defer h.Dispose()

	svg := string(h.SVG())
	assert.True(t, strings.HasPrefix(svg, `<svg id="metricsChart"`))
	assert.True(t, strings.HasSuffix(svg, `</svg>`))
	assert.Equal(t, 2, strings.Count(svg, `class="series-fill"`), "only clicks and impressions are filled")
	assert.Contains(t, svg, `data-series="Avg. Position" data-axis="right"`)
	assert.Contains(t, svg, "Jan 2, 2024")
}

func TestSVGRenderer_EscapesLabels(t *testing.T) {
	r := NewSVGRenderer()
	cfg := ChartConfig{
		Labels: []string{"<b>"},
		Series: []Series{{Label: `"x"<script>`, Values: []float64{1}, Axis: AxisLeft}},
	}
	h, err := r.Render("c", cfg)
	require.NoError(t, err)
	defer h.Dispose()

	svg := string(h.SVG())
	assert.NotContains(t, svg, "<script>")
	assert.NotContains(t, svg, "<b>")
}

func TestSVGRenderer_EmptySamples(t *testing.T) {
	r := NewSVGRenderer()
	h, err := r.Render("empty", BuildChartConfig([]model.MetricSample{}))
	require.NoError(t, err)
	defer h.Dispose()

	assert.NotContains(t, string(h.SVG()), "polyline")
}
