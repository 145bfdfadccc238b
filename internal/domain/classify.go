package domain

// ClassifyHour judges one hourly record against one operation's limits.
//
// The decision is an OR over the three limits: a valid reading at or above
// its limit makes the hour exceeded regardless of the other sensors. When
// nothing trips but a limit-relevant sensor is missing, the verdict is
// unknown, since the absent value could have tripped it. Only a fully
// observed, fully under-limit hour is clear.
func ClassifyHour(rec Record, th Threshold) Verdict {
	if rec.WindSpeed.AtLeast(th.WindLimit) ||
		rec.GustSpeed.AtLeast(th.GustLimit) ||
		rec.Precip.AtLeast(th.RainLimit) {
		return VerdictExceeded
	}
	if !rec.WindSpeed.Valid || !rec.GustSpeed.Valid || !rec.Precip.Valid {
		return VerdictUnknown
	}
	return VerdictClear
}

// ClassifyRecords judges every record against every operation in the catalog.
// Output order is input order, operations in catalog order within each
// record, so identical inputs always produce identical output.
func ClassifyRecords(records []Record, catalog Catalog) []HourlyExceedance {
	thresholds := catalog.Thresholds()
	out := make([]HourlyExceedance, 0, len(records)*len(thresholds))

	for _, rec := range records {
		for _, th := range thresholds {
			out = append(out, HourlyExceedance{
				Station:   rec.Station,
				Time:      rec.Time,
				Operation: th.Operation,
				Verdict:   ClassifyHour(rec, th),
			})
		}
	}
	return out
}
