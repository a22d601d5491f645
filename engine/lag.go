package engine

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// LAG — Time-shifted projections for "value N periods ago" features
// ============================================================================
// The shift is arithmetic on the time value, not positional, so sparse or
// irregular series are handled as long as the join afterwards is an exact
// match on (identifiers, time). JoinLag performs that join.
// ============================================================================

// JoinKey is the name of the shifted time column in a lag table.
const JoinKey = "to_join"

// Period is a fixed time offset: N units.
type Period struct {
	Unit string `json:"unit"`
	N    int    `json:"n"`
}

var periodUnits = map[string]time.Duration{
	"W": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"D": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"h": time.Hour, "H": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"min": time.Minute, "T": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "S": time.Second, "second": time.Second, "seconds": time.Second,
	"ms": time.Millisecond, "L": time.Millisecond,
	"us": time.Microsecond, "U": time.Microsecond,
	"ns": time.Nanosecond, "N": time.Nanosecond,
}

var periodPattern = regexp.MustCompile(`^\s*(-?\d+)\s*([A-Za-z]+)\s*$`)

// ParsePeriod reads "1D", "2W", "-3h" or "7 days".
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("%w: cannot parse period %q", ErrUnknownPeriod, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: period count %q: %v", ErrUnknownPeriod, m[1], err)
	}
	p := Period{Unit: m[2], N: n}
	if _, err := p.Duration(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Duration returns the offset as a time.Duration.
func (p Period) Duration() (time.Duration, error) {
	unit, ok := periodUnits[p.Unit]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownPeriod, p.Unit)
	}
	n := int64(p.N)
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, fmt.Errorf("%w: period %s out of range", ErrInvalidOption, p.Label())
	}
	return time.Duration(n) * unit, nil
}

// Label is the "<N><unit>" fragment used in lag column names.
func (p Period) Label() string {
	return strconv.Itoa(p.N) + p.Unit
}

// Negate returns the opposite offset.
func (p Period) Negate() Period {
	return Period{Unit: p.Unit, N: -p.N}
}

// Shift moves t by p. Shift(Shift(t, p), p.Negate()) == t.
func Shift(t time.Time, p Period) (time.Time, error) {
	d, err := p.Duration()
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(d), nil
}

// LagColumn is the renamed column holding col lagged by p.
func LagColumn(p Period, col string) string {
	return fmt.Sprintf("lag_%s_%s", p.Label(), col)
}

// LagTable projects view onto ids + time + lagged, renames the time
// column to JoinKey and every lagged column to lag_<N><unit>_<name>, then
// shifts JoinKey forward by period. Row order is preserved.
func LagTable(view RecordView, ids []string, timeCol string, lagged []string, period Period) (*SliceView, error) {
	d, err := period.Duration()
	if err != nil {
		return nil, fmt.Errorf("lag: %w", err)
	}
	if err := requireColumns(view, "identifier", KindDimension, ids...); err != nil {
		return nil, fmt.Errorf("lag: %w", err)
	}
	if err := requireColumns(view, "time", KindTime, timeCol); err != nil {
		return nil, fmt.Errorf("lag: %w", err)
	}
	if err := requireColumns(view, "lagged", KindNone, lagged...); err != nil {
		return nil, fmt.Errorf("lag: %w", err)
	}

	dimKeys := append([]string(nil), ids...)
	var measureKeys []string
	timeKeys := []string{JoinKey}
	kinds := make([]ColumnKind, len(lagged))
	for i, col := range lagged {
		kinds[i] = KindOf(view, col)
		name := LagColumn(period, col)
		switch kinds[i] {
		case KindDimension:
			dimKeys = append(dimKeys, name)
		case KindMeasure:
			measureKeys = append(measureKeys, name)
		case KindTime:
			timeKeys = append(timeKeys, name)
		}
	}

	records := make([]Record, view.Len())
	for i := range records {
		rec := NewRecord()
		for _, id := range ids {
			rec.Dimensions[id] = view.Dimension(i, id)
		}
		// a missing time stays missing
		if t := view.Time(i, timeCol); !t.IsZero() {
			rec.Times[JoinKey] = t.Add(d)
		}
		for k, col := range lagged {
			name := LagColumn(period, col)
			switch kinds[k] {
			case KindDimension:
				rec.Dimensions[name] = view.Dimension(i, col)
			case KindMeasure:
				rec.Measures[name] = view.Measure(i, col)
			case KindTime:
				rec.Times[name] = view.Time(i, col)
			}
		}
		records[i] = rec
	}

	log.Printf("🔧 idscope: lag table %s over %d rows, %d columns lagged", period.Label(), len(records), len(lagged))

	return NewSliceViewWithKeys(records, dimKeys, measureKeys, timeKeys), nil
}

// JoinLag left-joins a lag table onto base with an exact match on
// (ids, base[timeCol] == lag[JoinKey]). Lag columns are attached to the
// matching base rows; the first lag row wins on duplicate keys. Unmatched
// base rows get NaN measures, empty dimensions and zero times.
func JoinLag(base, lag RecordView, ids []string, timeCol string) (*SliceView, error) {
	if err := requireColumns(base, "identifier", KindDimension, ids...); err != nil {
		return nil, fmt.Errorf("join lag: %w", err)
	}
	if err := requireColumns(base, "time", KindTime, timeCol); err != nil {
		return nil, fmt.Errorf("join lag: %w", err)
	}
	if err := requireColumns(lag, "identifier", KindDimension, ids...); err != nil {
		return nil, fmt.Errorf("join lag: %w", err)
	}
	if err := requireColumns(lag, "time", KindTime, JoinKey); err != nil {
		return nil, fmt.Errorf("join lag: %w", err)
	}

	isID := toSet(ids)
	var extraDims, extraMeasures, extraTimes []string
	for _, k := range lag.DimensionKeys() {
		if !isID[k] {
			extraDims = append(extraDims, k)
		}
	}
	extraMeasures = append(extraMeasures, lag.MeasureKeys()...)
	for _, k := range lag.TimeKeys() {
		if k != JoinKey {
			extraTimes = append(extraTimes, k)
		}
	}

	joinKey := func(view RecordView, i int, tcol string) string {
		return strings.Join(dimensionValues(view, ids)(i), "\x1f") + "\x1e" +
			view.Time(i, tcol).UTC().Format(time.RFC3339Nano)
	}

	index := make(map[string]int, lag.Len())
	for i := 0; i < lag.Len(); i++ {
		if lag.Time(i, JoinKey).IsZero() {
			continue
		}
		key := joinKey(lag, i, JoinKey)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	matched := 0
	records := make([]Record, base.Len())
	for i := range records {
		rec := copyRecord(base, i)
		j, ok := index[joinKey(base, i, timeCol)]
		if ok {
			matched++
		}
		for _, k := range extraDims {
			if ok {
				rec.Dimensions[k] = lag.Dimension(j, k)
			} else {
				rec.Dimensions[k] = ""
			}
		}
		for _, k := range extraMeasures {
			if ok {
				rec.Measures[k] = lag.Measure(j, k)
			} else {
				rec.Measures[k] = math.NaN()
			}
		}
		for _, k := range extraTimes {
			if ok {
				rec.Times[k] = lag.Time(j, k)
			} else {
				rec.Times[k] = time.Time{}
			}
		}
		records[i] = rec
	}

	log.Printf("🔧 idscope: joined lag table, %d of %d rows matched", matched, len(records))

	return NewSliceViewWithKeys(records,
		uniqueStrings(append(append([]string(nil), base.DimensionKeys()...), extraDims...)),
		uniqueStrings(append(append([]string(nil), base.MeasureKeys()...), extraMeasures...)),
		uniqueStrings(append(append([]string(nil), base.TimeKeys()...), extraTimes...)),
	), nil
}

// copyRecord materializes row i of view as a fresh Record.
func copyRecord(view RecordView, i int) Record {
	rec := NewRecord()
	for _, k := range view.DimensionKeys() {
		rec.Dimensions[k] = view.Dimension(i, k)
	}
	for _, k := range view.MeasureKeys() {
		rec.Measures[k] = view.Measure(i, k)
	}
	for _, k := range view.TimeKeys() {
		rec.Times[k] = view.Time(i, k)
	}
	return rec
}
