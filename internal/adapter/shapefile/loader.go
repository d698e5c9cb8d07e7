// Package shapefile loads administrative boundary polygons from ESRI
// shapefiles and serves them as GeoJSON and as a point-in-region index.
package shapefile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// WGS84 is the spatial reference boundaries are converted to.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// Load decodes every polygon record of the shapefile at path. nameField names
// the attribute column used as the region name; it may be empty. When the
// shapefile has a .prj sidecar the geometries are reprojected to WGS-84,
// otherwise they are assumed to be longitude/latitude already.
func Load(path, nameField string, logger *slog.Logger) (*domain.BoundaryDataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, loadError(path, err)
	}

	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	defer dec.Close()

	trans, err := transformer(dec, path)
	if err != nil {
		return nil, loadError(path, err)
	}

	var fields []string
	if nameField != "" {
		fields = append(fields, nameField)
	}

	ds := &domain.BoundaryDataset{}
	skipped := 0
	for {
		g, row, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, loadError(path, fmt.Errorf("reproject record %d: %w", len(ds.Regions)+skipped, err))
			}
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			skipped++
			continue
		}
		ds.Regions = append(ds.Regions, domain.Region{
			Name:     cleanField(row[nameField]),
			Geometry: poly,
		})
	}
	if err := dec.Error(); err != nil {
		return nil, loadError(path, err)
	}
	if len(ds.Regions) == 0 {
		return nil, loadError(path, errors.New("no polygon records"))
	}

	logger.Info("boundary dataset loaded",
		"path", path,
		"regions", len(ds.Regions),
		"skipped", skipped,
		"reprojected", trans != nil,
	)
	return ds, nil
}

func transformer(dec *shp.Decoder, path string) (proj.Transformer, error) {
	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	if _, err := os.Stat(prj); err != nil {
		return nil, nil
	}
	src, err := dec.SR()
	if err != nil {
		return nil, fmt.Errorf("read projection: %w", err)
	}
	dst, err := proj.Parse(WGS84)
	if err != nil {
		return nil, err
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build transform to WGS-84: %w", err)
	}
	return trans, nil
}

// dBase pads text columns with spaces and NULs.
func cleanField(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func loadError(path string, err error) error {
	return &domain.DataLoadError{Source: "boundary", Path: path, Err: err}
}
