package domain

// Station identifies one INMET automatic station on the Rio de Janeiro coast.
type Station struct {
	Code string  `json:"code"` // INMET station code, e.g. "A627"
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// stations is the compiled-in registry, ordered by code. The engine covers a
// fixed set of coastal stations; files for any other code are rejected at
// ingest (an unknown station cannot be geolocated or named in reports).
var stations = []Station{
	{Code: "A602", Name: "Marambaia", Lat: -23.05, Lon: -43.59},
	{Code: "A606", Name: "Arraial do Cabo", Lat: -22.97, Lon: -42.02},
	{Code: "A608", Name: "Macaé", Lat: -22.39, Lon: -41.78},
	{Code: "A620", Name: "São Tomé (Campos)", Lat: -21.75, Lon: -41.05},
	{Code: "A627", Name: "Niterói", Lat: -22.90, Lon: -43.10},
	{Code: "A652", Name: "Forte de Copacabana", Lat: -22.99, Lon: -43.19},
}

var stationsByCode = func() map[string]Station {
	m := make(map[string]Station, len(stations))
	for _, s := range stations {
		m[s.Code] = s
	}
	return m
}()

// Stations returns the registry ordered by station code. The returned slice
// is a copy; mutating it does not affect the registry.
func Stations() []Station {
	out := make([]Station, len(stations))
	copy(out, stations)
	return out
}

// StationByCode looks up a station by its INMET code.
func StationByCode(code string) (Station, bool) {
	s, ok := stationsByCode[code]
	return s, ok
}
