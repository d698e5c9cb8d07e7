package shapefile

import (
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/ctessum/geom/encoding/geojson"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// FeatureCollection encodes the regions as a GeoJSON FeatureCollection with a
// "name" property per feature.
func FeatureCollection(ds *domain.BoundaryDataset) (json.RawMessage, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(ds.Regions))}
	for i, r := range ds.Regions {
		g, err := geojson.Encode(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("encode region %d (%s): %w", i, r.Name, err)
		}
		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Properties: map[string]string{"name": r.Name},
			Geometry:   g,
		})
	}
	b, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("marshal boundaries: %w", err)
	}
	return b, nil
}
