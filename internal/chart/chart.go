// Package chart renders line charts of resampled telemetry as PNG,
// entirely server-side so the dashboard has no JavaScript charting
// dependency.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ratthapon/suntrack/internal/metrics"
	"github.com/ratthapon/suntrack/internal/models"
)

const (
	chartWidth  = 900
	chartHeight = 300

	marginLeft   = 70
	marginRight  = 20
	marginTop    = 30
	marginBottom = 40
)

var (
	colorBG    = color.RGBA{255, 255, 255, 255}
	colorGrid  = color.RGBA{226, 232, 240, 255}
	colorAxis  = color.RGBA{100, 116, 139, 255}
	colorLine  = color.RGBA{234, 121, 27, 255}
	colorPoint = color.RGBA{190, 88, 10, 255}
	colorText  = color.RGBA{51, 65, 85, 255}
)

// Render draws one telemetry field over bucket time as a PNG. Buckets
// where the field is missing break the line rather than dropping to
// zero. Returns an error when no bucket carries the field.
func Render(buckets []models.ResampledBucket, fieldName, title string) ([]byte, error) {
	f, ok := models.FieldByName(fieldName)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", fieldName)
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	present := 0
	for i := range buckets {
		if v := f.Get(&buckets[i].TelemetryValues); v.Valid {
			present++
			minV = math.Min(minV, v.Float64)
			maxV = math.Max(maxV, v.Float64)
		}
	}
	if present == 0 {
		return nil, fmt.Errorf("no data for field %q", fieldName)
	}
	if maxV == minV {
		maxV = minV + 1
	}
	// Pad the value range so the line does not hug the frame.
	pad := (maxV - minV) * 0.08
	minV, maxV = minV-pad, maxV+pad

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	fill(img, colorBG)

	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom

	t0 := buckets[0].BucketStart
	t1 := buckets[len(buckets)-1].BucketStart
	span := t1.Sub(t0)
	if span <= 0 {
		span = time.Minute
	}

	xAt := func(t time.Time) int {
		return marginLeft + int(float64(plotW)*float64(t.Sub(t0))/float64(span))
	}
	yAt := func(v float64) int {
		return marginTop + plotH - int(float64(plotH)*(v-minV)/(maxV-minV))
	}

	drawGrid(img, minV, maxV, yAt)
	drawFrame(img)

	// Polyline across present values; a gap in the data breaks the line.
	prevX, prevY := -1, -1
	for i := range buckets {
		v := f.Get(&buckets[i].TelemetryValues)
		if !v.Valid {
			prevX = -1
			continue
		}
		x, y := xAt(buckets[i].BucketStart), yAt(v.Float64)
		if prevX >= 0 {
			drawLine(img, prevX, prevY, x, y, colorLine)
		}
		drawDot(img, x, y, colorPoint)
		prevX, prevY = x, y
	}

	drawText(img, marginLeft, marginTop-10, title, colorText)
	drawText(img, marginLeft, chartHeight-12, t0.UTC().Format("2006-01-02 15:04"), colorAxis)
	endLabel := t1.UTC().Format("15:04")
	drawText(img, chartWidth-marginRight-7*len(endLabel), chartHeight-12, endLabel, colorAxis)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	metrics.ChartRenders.WithLabelValues(fieldName).Inc()
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawFrame(img *image.RGBA) {
	x0, x1 := marginLeft, chartWidth-marginRight
	y0, y1 := marginTop, chartHeight-marginBottom
	drawLine(img, x0, y1, x1, y1, colorAxis)
	drawLine(img, x0, y0, x0, y1, colorAxis)
}

// drawGrid draws five horizontal reference lines with value labels.
func drawGrid(img *image.RGBA, minV, maxV float64, yAt func(float64) int) {
	for i := 0; i <= 4; i++ {
		v := minV + (maxV-minV)*float64(i)/4
		y := yAt(v)
		drawLine(img, marginLeft, y, chartWidth-marginRight, y, colorGrid)
		drawText(img, 6, y+4, fmt.Sprintf("%8.1f", v), colorAxis)
	}
}

// drawLine is an integer Bresenham segment.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawDot(img *image.RGBA, x, y int, c color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			img.SetRGBA(x+dx, y+dy, c)
		}
	}
}

func drawText(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
