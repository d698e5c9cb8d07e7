package shapefile

import (
	"fmt"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

type indexedRegion struct {
	geom.Polygonal
	name string
}

// Index answers point-in-region queries over a boundary dataset. It
// implements domain.PointFilter and is safe for concurrent reads.
type Index struct {
	tree  *rtree.Rtree
	scope string
}

// NewIndex builds an R-tree over the regions of ds.
func NewIndex(ds *domain.BoundaryDataset) *Index {
	tree := rtree.NewTree(25, 50)
	for _, r := range ds.Regions {
		tree.Insert(&indexedRegion{Polygonal: r.Geometry, name: r.Name})
	}
	scope := fmt.Sprintf("regions=%d", len(ds.Regions))
	if b := ds.Bounds(); b != nil {
		scope += fmt.Sprintf(";%g,%g,%g,%g", b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	}
	return &Index{tree: tree, scope: scope}
}

// Scope identifies the boundary set by its region count and extent.
func (ix *Index) Scope() string { return ix.scope }

// Region returns the name of the first region containing the point.
func (ix *Index) Region(lat, lon float64) (string, bool) {
	p := geom.Point{X: lon, Y: lat}
	for _, item := range ix.tree.SearchIntersect(p.Bounds()) {
		r := item.(*indexedRegion)
		if p.Within(r.Polygonal) != geom.Outside {
			return r.name, true
		}
	}
	return "", false
}

// Contains reports whether the point lies inside or on the edge of any region.
func (ix *Index) Contains(lat, lon float64) bool {
	_, ok := ix.Region(lat, lon)
	return ok
}
