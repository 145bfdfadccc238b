package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStation   = "A627"
	testOperation = "crane-lifting"
)

var testHour = time.Date(2023, time.July, 14, 15, 0, 0, 0, time.UTC)

// craneThreshold mirrors the compiled-in crane-lifting limits.
var craneThreshold = Threshold{
	Operation: testOperation,
	WindLimit: 12.9,
	GustLimit: 15.4,
	RainLimit: 10.0,
	MinHours:  4,
}

func TestClassifyHour(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want Verdict
	}{
		{
			name: "all calm and observed",
			rec:  fullRecord(5.0, 8.0, 0.0),
			want: VerdictClear,
		},
		{
			name: "sustained wind above limit",
			rec:  fullRecord(13.4, 14.0, 0.0), // ~26 kt
			want: VerdictExceeded,
		},
		{
			name: "wind exactly at limit counts as exceeded",
			rec:  fullRecord(12.9, 0.0, 0.0),
			want: VerdictExceeded,
		},
		{
			name: "gust alone above limit",
			rec:  fullRecord(9.0, 15.4, 0.0),
			want: VerdictExceeded,
		},
		{
			name: "rain alone above limit",
			rec:  fullRecord(2.0, 3.0, 12.0),
			want: VerdictExceeded,
		},
		{
			name: "missing wind with others under limit",
			rec: Record{
				Station: testStation, Time: testHour,
				GustSpeed: NewReading(3.0), Precip: NewReading(0.0),
			},
			want: VerdictUnknown,
		},
		{
			name: "missing gust and rain with calm wind",
			rec: Record{
				Station: testStation, Time: testHour,
				WindSpeed: NewReading(2.0),
			},
			want: VerdictUnknown,
		},
		{
			name: "all sensors missing",
			rec:  Record{Station: testStation, Time: testHour},
			want: VerdictUnknown,
		},
		{
			name: "missing wind but gust trips anyway",
			rec: Record{
				Station: testStation, Time: testHour,
				GustSpeed: NewReading(18.0), Precip: NewReading(0.0),
			},
			want: VerdictExceeded,
		},
		{
			name: "just under every limit",
			rec:  fullRecord(12.8, 15.3, 9.9),
			want: VerdictClear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyHour(tt.rec, craneThreshold))
		})
	}
}

func TestClassifyHour_DefaultCatalogDiffersByOperation(t *testing.T) {
	catalog := DefaultCatalog()

	// 11 m/s sustained: above the personnel-transfer limit (10.3), below the
	// crane-lifting limit (12.9).
	rec := fullRecord(11.0, 11.5, 0.0)

	transfer, ok := catalog.Lookup("personnel-transfer")
	require.True(t, ok)
	crane, ok := catalog.Lookup(testOperation)
	require.True(t, ok)

	assert.Equal(t, VerdictExceeded, ClassifyHour(rec, transfer))
	assert.Equal(t, VerdictClear, ClassifyHour(rec, crane))
}

func TestClassifyRecords_OrderAndCount(t *testing.T) {
	catalog := DefaultCatalog()
	records := []Record{
		fullRecord(5.0, 6.0, 0.0),
		fullRecord(20.0, 25.0, 0.0),
	}
	records[1].Time = testHour.Add(time.Hour)

	got := ClassifyRecords(records, catalog)
	require.Len(t, got, len(records)*catalog.Len())

	// Record-major order, operations in catalog order within each record.
	ops := catalog.Operations()
	for i, hx := range got {
		assert.Equal(t, records[i/len(ops)].Time, hx.Time)
		assert.Equal(t, ops[i%len(ops)], hx.Operation)
	}

	for _, hx := range got[:len(ops)] {
		assert.Equal(t, VerdictClear, hx.Verdict, hx.Operation)
	}
	for _, hx := range got[len(ops):] {
		assert.Equal(t, VerdictExceeded, hx.Verdict, hx.Operation)
	}
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "clear", VerdictClear.String())
	assert.Equal(t, "exceeded", VerdictExceeded.String())
	assert.Equal(t, "unknown", VerdictUnknown.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}

func fullRecord(wind, gust, precip float64) Record {
	return Record{
		Station:   testStation,
		Time:      testHour,
		WindSpeed: NewReading(wind),
		GustSpeed: NewReading(gust),
		Precip:    NewReading(precip),
	}
}
