package domain

import "github.com/ctessum/geom"

// Region is one administrative boundary polygon with its name attribute.
type Region struct {
	Name     string
	Geometry geom.Polygonal
}

// BoundaryDataset is the set of region polygons in WGS-84 longitude/latitude.
// It is immutable once loaded.
type BoundaryDataset struct {
	Regions []Region
}

// Bounds returns the bounding box of every region, or nil when empty.
func (d *BoundaryDataset) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, r := range d.Regions {
		if r.Geometry == nil {
			continue
		}
		rb := r.Geometry.Bounds()
		if b == nil {
			b = &geom.Bounds{Min: rb.Min, Max: rb.Max}
			continue
		}
		b.Extend(rb)
	}
	return b
}

// PointFilter decides whether a grid point is kept in a weekly table.
type PointFilter interface {
	Contains(lat, lon float64) bool
}
