// Package leaflet renders map artifacts as Leaflet HTML documents and the
// slider page that embeds them.
package leaflet

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
)

//go:embed templates/*.html.tmpl
var templates embed.FS

// Renderer executes the embedded templates. It is safe for concurrent use.
type Renderer struct {
	mapTmpl  *template.Template
	pageTmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	mapTmpl, err := template.ParseFS(templates, "templates/map.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse map template: %w", err)
	}
	pageTmpl, err := template.ParseFS(templates, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{mapTmpl: mapTmpl, pageTmpl: pageTmpl}, nil
}

type mapView struct {
	Title       string
	Center      template.JS
	Zoom        int
	LayerName   string
	Boundaries  template.JS
	Heat        template.JS
	HasHeat     bool
	Legend      []domain.LegendBucket
	LegendTitle string
	Message     string
}

// WriteMap renders a as a standalone Leaflet document: the boundary overlay,
// the heat layer when the artifact has points, and the legend.
func (r *Renderer) WriteMap(w io.Writer, a domain.MapArtifact) error {
	boundaries := a.Boundaries
	if len(boundaries) == 0 {
		boundaries = json.RawMessage(`{"type":"FeatureCollection","features":[]}`)
	}
	heat, err := marshalJS(a.HeatData())
	if err != nil {
		return fmt.Errorf("encode heat layer: %w", err)
	}
	center, err := marshalJS([2]float64{a.Center.Lat, a.Center.Lon})
	if err != nil {
		return fmt.Errorf("encode center: %w", err)
	}

	return execute(w, r.mapTmpl, mapView{
		Title:       a.Title,
		Center:      center,
		Zoom:        a.Zoom,
		LayerName:   a.LayerName,
		Boundaries:  template.JS(boundaries),
		Heat:        heat,
		HasHeat:     a.HasHeat(),
		Legend:      a.Legend,
		LegendTitle: domain.LegendTitle,
		Message:     a.Message,
	})
}

// Bounds is the range of a slider.
type Bounds struct {
	Min, Max float64
}

// Page is the input of the slider page.
type Page struct {
	Selection domain.SelectionParameters
	// Week describes the selected retained week, when known.
	Week    *domain.WeekSummary
	Summary domain.Summary
	Message string
	// Map is drawn inline in the frame when set; otherwise the frame loads MapURL.
	Map *domain.MapArtifact
}

type pageView struct {
	Title     string
	Caption   string
	Selection domain.SelectionParameters
	Year      Bounds
	Threshold Bounds
	Week      Bounds
	WeekLabel string
	Summary   domain.Summary
	Message   string
	MapURL    string
	MapDoc    string
	Width     int
	Height    int
}

// WritePage renders the slider page with an iframe holding the map of p.Selection.
func (r *Renderer) WritePage(w io.Writer, p Page) error {
	v := pageView{
		Title:     domain.MapTitle,
		Caption:   domain.MapCaption,
		Selection: p.Selection,
		Year:      Bounds{Min: domain.MinYear, Max: domain.MaxYear},
		Threshold: Bounds{Min: domain.MinThreshold, Max: domain.MaxThreshold},
		Week:      Bounds{Min: domain.MinWeek, Max: domain.MaxWeek},
		Summary:   p.Summary,
		Message:   p.Message,
		MapURL:    MapURL(p.Selection),
		Width:     domain.MapPanelWidth,
		Height:    domain.MapPanelHeight,
	}
	if p.Week != nil {
		v.WeekLabel = WeekLabel(*p.Week)
	}
	if p.Map != nil {
		var doc bytes.Buffer
		if err := r.WriteMap(&doc, *p.Map); err != nil {
			return err
		}
		v.MapDoc = doc.String()
	}
	return execute(w, r.pageTmpl, v)
}

// MapURL is the path of the map document for sel.
func MapURL(sel domain.SelectionParameters) string {
	u := url.URL{Path: "/map", RawQuery: sel.Query().Encode()}
	return u.String()
}

// WeekLabel formats a retained week's date range, e.g. "Jan 8 to Jan 14, 2020".
func WeekLabel(w domain.WeekSummary) string {
	return fmt.Sprintf("%s to %s", w.Start.Format("Jan 2"), w.End.Format("Jan 2, 2006"))
}

// execute renders into a buffer first so a template error never leaves a
// partial document on w.
func execute(w io.Writer, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute %s: %w", t.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func marshalJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
