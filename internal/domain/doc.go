// Package domain models hourly weather observations from INMET automatic
// stations and the operational weather limits applied to them.
//
// # Data Source
//
// Observations originate from INMET (Instituto Nacional de Meteorologia)
// yearly CSV exports for automatic surface stations, one file per station per
// year, named <station>_<year>.csv (e.g. A627_2023.csv). The files are
// downloaded out of band; this engine only reads a local directory.
//
// # INMET CSV Conventions
//
// File structure:
//
//	A metadata preamble (station name, coordinates, founding date) of varying
//	length, then a header line starting with "Data;", then hourly rows.
//	Fields are separated by ";" and decimals use "," (Brazilian locale).
//	Files are encoded in Latin-1, not UTF-8.
//
// Timestamps:
//
//	Date column "Data" in "YYYY/MM/DD" form (older exports use "DD/MM/YYYY").
//	Hour column "Hora" as "HHMM UTC", e.g. "1500 UTC" = 15:00 UTC; some
//	exports drop the suffix or leading zeros ("930" → "0930"). All times UTC.
//
// Columns:
//
//	Header labels drift across years (accentuation, unit suffixes), so
//	columns are located by prefix/substring match rather than exact name:
//	precipitation (mm accumulated over the hour), wind speed (m/s sustained),
//	wind gust (m/s maximum), wind direction (degrees), dry-bulb air
//	temperature (°C), relative humidity (%). Unrecognized columns are
//	ignored.
//
// Unknown values:
//
//	"-9999" is the INMET sentinel for a missing or failed sensor reading.
//	Empty cells mean the same. Both map to an invalid [Reading], never to
//	zero: a calm hour and a dead anemometer are different facts.
//
// # Exceedance Classification
//
// Each hour is judged against per-operation limits (sustained wind, gust,
// precipitation). A limit counts as tripped when the reading is greater than
// or equal to it. The verdict is three-valued: exceeded, clear, or unknown
// when no valid reading trips a limit but at least one limit-relevant sensor
// is missing and could have tripped it. See [ClassifyHour].
//
// Limits live in a [Catalog], compiled in with defaults drawn from NORMAM-01
// and Noble Denton marine operation guidance and replaceable from a YAML
// file. Adding an operation is a catalog change, not a code change.
package domain
