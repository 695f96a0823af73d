// Package chart renders the category pie chart as a PNG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"budget/internal/cache"
	"budget/internal/core"
)

var (
	// ErrNoData is returned when every category total is zero.
	ErrNoData = errors.New("no data to chart")
	// ErrNotRendered is returned by Update and Image before Render.
	ErrNotRendered = errors.New("chart not rendered")
)

// Title is drawn above the pie.
const Title = "Répartition des dépenses par catégorie"

// Colors are the slice fills, in grid column order.
var Colors = [core.NumCategories]string{"FF6384", "36A2EB", "FFCE56", "8BC34A"}

type (
	Labels [core.NumCategories]string
	Values [core.NumCategories]core.Money
)

// Presenter holds the chart handle: the last data it was given, and a
// cache of rendered images keyed by data.
type Presenter struct {
	mu       sync.Mutex
	rendered bool
	labels   Labels
	values   Values

	width, height int
	images        cache.Cache[[]byte]
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(p *Presenter) { p.width, p.height = width, height }
}

// WithCache replaces the default image cache.
func WithCache(c cache.Cache[[]byte]) Option {
	return func(p *Presenter) { p.images = c }
}

func New(opts ...Option) *Presenter {
	p := &Presenter{
		width:  512,
		height: 512,
		images: cache.NewLRUCache[[]byte](32, time.Hour),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Render creates the chart from the initial data.
func (p *Presenter) Render(labels Labels, values Values) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels, p.values, p.rendered = labels, values, true
	return nil
}

// Update replaces the data of an existing chart.
func (p *Presenter) Update(labels Labels, values Values) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.rendered {
		return ErrNotRendered
	}
	p.labels, p.values = labels, values
	return nil
}

// Image returns the PNG of the current data.
func (p *Presenter) Image() ([]byte, error) {
	p.mu.Lock()
	rendered, labels, values := p.rendered, p.labels, p.values
	p.mu.Unlock()
	if !rendered {
		return nil, ErrNotRendered
	}
	return p.PNG(labels, values)
}

// PNG renders labels and values without touching the presenter's data.
// All-zero values give ErrNoData.
func (p *Presenter) PNG(labels Labels, values Values) ([]byte, error) {
	slices := make([]gochart.Value, 0, core.NumCategories)
	for i, v := range values {
		if v.Cents <= 0 {
			continue
		}
		slices = append(slices, gochart.Value{
			Value: v.Euros(),
			Label: labels[i],
			Style: gochart.Style{
				FillColor:   drawing.ColorFromHex(Colors[i]),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}
	if len(slices) == 0 {
		return nil, ErrNoData
	}

	key := cacheKey(labels, values, p.width, p.height)
	if img, ok := p.images.Get(key); ok {
		return img, nil
	}

	pie := gochart.PieChart{
		Title:  Title,
		Width:  p.width,
		Height: p.height,
		Values: slices,
	}
	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	img := buf.Bytes()
	p.images.Set(key, img)
	return img, nil
}

func cacheKey(labels Labels, values Values, w, h int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d", w, h)
	for i := range labels {
		fmt.Fprintf(&b, "|%s=%d", labels[i], values[i].Cents)
	}
	return b.String()
}

// FromTotals builds chart data from category titles and totals.
func FromTotals(cat *core.Catalog, t core.Totals) (Labels, Values) {
	return Labels(cat.Titles()), Values(t.Categories)
}
