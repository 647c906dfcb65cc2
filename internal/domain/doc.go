// Package domain models nitrogen supply points, catchment areas and the
// agricultural land parcels they reach.
//
// # Data Sources
//
// Supply facilities (wastewater treatment plants, digesters, other point
// sources) come from delimited text datasets: one primary catalog plus any
// number of auxiliary ones. Column names, coordinate encodings and region
// spellings differ between publishers, so every row goes through
// [NormalizeRow] before it is used.
//
// # Dataset Conventions
//
// Headers:
//
//	Matched after [NormalizeHeader]: "Lat (WGS84)" → "lat_wgs84", "Country Code" → "country_code".
//	Each logical attribute has an ordered alias list; the first non-empty column wins.
//
// Numbers:
//
//	Either '.' or ',' may be the decimal separator: "48,85" = 48.85.
//	Empty or unparseable values are treated as missing, never as errors.
//
// Coordinates:
//
//	Explicit latitude/longitude columns are preferred. Otherwise a combined
//	"lat, lon" column is parsed. Publishers sometimes write "lon, lat"; the
//	pair is flipped only when the range test [-90,90]×[-180,180] rules out the
//	written order and accepts the flipped one.
//	(0, 0) is the unset sentinel and never a real location.
//
// Countries:
//
//	ISO codes ("FR", "GR", and Eurostat's "EL") and display or native names
//	("France", "Ελλάδα") resolve to one canonical name. Unknown values pass
//	through unchanged so allow-list checks reject them downstream.
//
// Provinces:
//
//	A leading region code ("EL30 - ") is stripped, the micro sign 'µ' that
//	some exports emit for Greek 'μ' is repaired, and the name is matched
//	accent- and case-insensitively against a canonical table that includes
//	Greek-script periphery names. Unmatched names are kept, title-cased.
//
// # Catchments and Attribution
//
// A catchment is the union of circles of one radius around the supply points.
// Each circle carries a padded bounding box (radius/111 degrees of latitude,
// radius/(111·cos φ) of longitude) so most parcels are rejected without a
// distance computation. Parcel membership is decided by the parcel centroid,
// which is an accepted approximation for partially overlapping parcels.
//
// The supply total is split across retained parcels purely by geodesic area
// share; land-use category and distance do not weight the split.
package domain
