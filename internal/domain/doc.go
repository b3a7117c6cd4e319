// Package domain models daily air quality observations and the features,
// decisions and rules used to classify the next day's air quality.
//
// # Data Sources
//
// Daily AQI values come from EPA daily summaries (training) and the AirNow
// current observation API (serving). Weather comes from the same daily summaries
// (training) or the National Weather Service (NWS) point forecast (serving).
// Upstream clients live in the adapter packages; this package never performs I/O.
//
// # AQI Conventions
//
// The Air Quality Index is unitless. The classification boundary is 101, the
// start of "Unhealthy for Sensitive Groups":
//
//	  0-50   Good
//	 51-100  Moderate
//	101-150  Unhealthy for Sensitive Groups
//	151+     Unhealthy and worse
//
// A training row is labeled unhealthy when its AQI is >= 101.
//
// # Feature Mapping
//
// Features are a flat name -> value mapping. An absent key means the value is
// undefined (not enough history, missing weather field). Derivers are pure:
// they take a mapping or raw values and return a fresh mapping; callers merge
// results with [Features.With]. The classifier's feature order is never taken
// from a mapping; it comes from the persisted schema via [Assemble].
//
// Temporal features use a shift-by-one window: the rolling aggregates attached
// to day i are computed over days strictly before i, so the value being
// predicted never leaks into its own inputs.
//
// Calendar features number weekdays Monday=0..Sunday=6. Season is
// (month % 12) / 3, which puts December with January and February:
//
//	0 winter (Dec, Jan, Feb)
//	1 spring (Mar, Apr, May)
//	2 summer (Jun, Jul, Aug)
//	3 fall   (Sep, Oct, Nov)
//
// The holiday flag only knows Jan 1, Jul 4 and Dec 25.
//
// Weather bins are right-inclusive:
//
//	temp_bin:      <=32 | <=50 | <=70 | <=90 | >90   (°F)  -> 0..4
//	wind_category: <=5  | <=10 | <=15 | >15          (mph) -> 0..3
package domain
