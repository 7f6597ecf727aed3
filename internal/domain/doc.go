// Package domain models French municipalities, their climate and air-quality
// observations, and the per-department classifications derived from them.
//
// # Data Sources
//
// Places come from the Open-Meteo geocoding search, which returns a list of
// candidates per query. Candidates carry a GeoNames feature code ("PPL",
// "PPLA2", ...), an ISO country code, and administrative levels: admin2 is
// the French department name, admin4 the commune. Overseas departments are
// reported with their own country code (GP, MQ, GF, RE, PM, YT) rather than FR.
//
// Daily weather comes from the Open-Meteo archive API. Every metric is an
// array aligned on a "time" array of ISO dates; any slot may be null when a
// sensor had a gap. Units as delivered:
//
//	temperature, apparent temperature   °C
//	wind speed                          km/h
//	daylight, sunshine duration         seconds
//	rain, evapotranspiration            mm
//	snowfall                            cm
//
// Aggregation converts durations to hours and snowfall to millimeters so that
// every consumer sees the same units.
//
// The municipality registry (geo.api.gouv.fr) lists communes per department
// with their population. Two static datasets count incidents per commune:
// GASPAR (natural disasters, zipped semicolon CSV) and BASOL (soil pollution,
// xlsx). Both key rows by INSEE commune code, whose leading two characters
// are the department code, or three characters for overseas ("97x").
//
// # Seasons
//
// Winter is December, January and February of the same calendar year; summer
// is June, July and August. Rainfall, snowfall and evapotranspiration are
// cumulative, so a season's value is the mean across years of each year's
// seasonal total. Every other metric is the mean of all qualifying days.
//
// # Regions
//
// The region set is closed: metropolitan departments 01 to 95 (with Corsica
// split into 2A and 2B) and six overseas territories with three-character
// codes. Overseas territories are outliers for classification: they never
// influence natural-breaks thresholds, but they are always assigned a class.
package domain
