package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KnotsPerMS converts metres per second to knots.
const KnotsPerMS = 1.94384

// Knots converts a wind speed in m/s to knots for display.
func Knots(ms float64) float64 {
	return ms * KnotsPerMS
}

// DefaultMinHours is the exceeded-hour count at which a day becomes a
// downtime day, used when a catalog entry does not set its own.
const DefaultMinHours = 4

// Threshold holds one operation's weather limits. A limit counts as tripped
// when the hourly reading is greater than or equal to it. Wind limits are in
// m/s, the rain limit in mm per hour.
type Threshold struct {
	Operation   string  `json:"operation" yaml:"operation"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	WindLimit   float64 `json:"wind_limit_ms" yaml:"wind_limit_ms"`
	GustLimit   float64 `json:"gust_limit_ms" yaml:"gust_limit_ms"`
	RainLimit   float64 `json:"rain_limit_mm" yaml:"rain_limit_mm"`

	// MinHours is the number of exceeded hours in a day at or above which
	// the whole day counts as downtime for this operation.
	MinHours int `json:"min_hours" yaml:"min_hours"`
}

// Catalog is an ordered, immutable set of operation thresholds. Classification
// and aggregation iterate it in order and never special-case operation names,
// so swapping the catalog changes behavior without code changes.
type Catalog struct {
	thresholds []Threshold
	byOp       map[string]int
}

// DefaultCatalog returns the compiled-in operations. Limits follow NORMAM-01
// and Noble Denton guidance for marine operations off Brazil.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]Threshold{
		{
			Operation:   "crane-lifting",
			Description: "Crane lifts on deck or between vessel and platform",
			WindLimit:   12.9, // ~25 kt sustained
			GustLimit:   15.4, // ~30 kt gust
			RainLimit:   10.0, // heavy rain, low visibility
			MinHours:    DefaultMinHours,
		},
		{
			Operation:   "personnel-transfer",
			Description: "Personnel transfer by basket or gangway",
			WindLimit:   10.3, // ~20 kt sustained
			GustLimit:   12.9, // ~25 kt gust
			RainLimit:   10.0,
			MinHours:    DefaultMinHours,
		},
		{
			Operation:   "saturation-diving",
			Description: "Saturation diving operations",
			WindLimit:   10.3,
			GustLimit:   12.9,
			RainLimit:   5.0,
			MinHours:    DefaultMinHours,
		},
		{
			Operation:   "general-deck-ops",
			Description: "General deck operations and maintenance",
			WindLimit:   15.4, // ~30 kt sustained
			GustLimit:   20.6, // ~40 kt gust
			RainLimit:   20.0,
			MinHours:    DefaultMinHours,
		},
	})
	if err != nil {
		// The compiled-in set is validated by tests; reaching this means the
		// source itself is broken.
		panic(err)
	}
	return c
}

// NewCatalog validates and builds a catalog from a threshold list, preserving
// order. Entries with MinHours 0 receive DefaultMinHours.
func NewCatalog(thresholds []Threshold) (Catalog, error) {
	if len(thresholds) == 0 {
		return Catalog{}, fmt.Errorf("catalog: no operations defined")
	}

	out := make([]Threshold, len(thresholds))
	byOp := make(map[string]int, len(thresholds))

	for i, th := range thresholds {
		if th.Operation == "" {
			return Catalog{}, fmt.Errorf("catalog: entry %d has an empty operation name", i)
		}
		if _, dup := byOp[th.Operation]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate operation %q", th.Operation)
		}
		if th.WindLimit <= 0 || th.GustLimit <= 0 || th.RainLimit <= 0 {
			return Catalog{}, fmt.Errorf("catalog: operation %q has a non-positive limit", th.Operation)
		}
		if th.MinHours == 0 {
			th.MinHours = DefaultMinHours
		}
		if th.MinHours < 1 || th.MinHours > 24 {
			return Catalog{}, fmt.Errorf("catalog: operation %q min_hours %d outside 1..24", th.Operation, th.MinHours)
		}
		out[i] = th
		byOp[th.Operation] = i
	}

	return Catalog{thresholds: out, byOp: byOp}, nil
}

// catalogFile is the YAML document shape for LoadCatalog.
type catalogFile struct {
	Operations []Threshold `yaml:"operations"`
}

// LoadCatalog reads a YAML threshold file, replacing the compiled-in defaults
// wholesale. The file must define every operation it wants; there is no
// merging with defaults.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	c, err := NewCatalog(f.Operations)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w (in %s)", err, path)
	}
	return c, nil
}

// Thresholds returns the catalog entries in order. The returned slice is a
// copy.
func (c Catalog) Thresholds() []Threshold {
	out := make([]Threshold, len(c.thresholds))
	copy(out, c.thresholds)
	return out
}

// Lookup returns the threshold for an operation name.
func (c Catalog) Lookup(operation string) (Threshold, bool) {
	i, ok := c.byOp[operation]
	if !ok {
		return Threshold{}, false
	}
	return c.thresholds[i], true
}

// Operations returns the operation names in catalog order.
func (c Catalog) Operations() []string {
	out := make([]string, len(c.thresholds))
	for i, th := range c.thresholds {
		out[i] = th.Operation
	}
	return out
}

// Len returns the number of operations in the catalog.
func (c Catalog) Len() int {
	return len(c.thresholds)
}
