// Package domain models gridded daily rainfall and the weekly heat-map
// selection built on top of it.
//
// # Data Source
//
// The rainfall grid is the IMD daily gridded rainfall product (0.25° x 0.25°,
// 1901 onward) distributed as a single NetCDF file with the variables TIME,
// LATITUDE, LONGITUDE and RAINFALL (mm/day). Grid cells outside the Indian
// landmass carry the fill value and are treated as undefined (NaN).
//
// Region boundaries come from the India state boundary shapefile. Geometries
// are reprojected to WGS-84 longitude/latitude when loaded.
//
// # Weekly Buckets
//
// A year is partitioned into consecutive, non-overlapping 7-day buckets ordered
// by time. Two anchors are supported:
//
//	WeekAnchorJan1:   buckets start on January 1 (Jan 1-7, Jan 8-14, ...);
//	                  the last bucket holds the 1-2 remaining days.
//	WeekAnchorSunday: buckets end on Sunday, matching a pandas "W-SUN"
//	                  resample; the first and last buckets may be partial.
//
// Cell totals skip undefined samples, so a cell with no defined sample in a
// bucket totals 0.
//
// # Week Selection
//
// The week index chosen by the user is NOT a calendar week. Buckets are first
// filtered to those where at least one cell total strictly exceeds the
// threshold, and week N is the N-th surviving bucket. Requesting more weeks
// than survive yields a [SelectionOutOfRangeError].
package domain
