package engine

import (
	"sort"
	"time"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView      — wraps []Record (CSV, SQL, derived tables)
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
//   SubView        — filtered subset (indices into parent, zero-copy)
//
// Transforms only read from a view; every output is a fresh allocation.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure/Time in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	Time(index int, key string) time.Time
	DimensionKeys() []string
	MeasureKeys() []string
	TimeKeys() []string
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
	timKeys []string
}

// NewSliceView creates a RecordView from a []Record slice.
// Column keys are discovered from the records and sorted.
func NewSliceView(records []Record) *SliceView {
	v := &SliceView{records: records}
	v.cacheKeys()
	return v
}

// NewSliceViewWithKeys creates a view with an explicit column order.
// Use it when the schema is known up front (CSV header order, SQL columns,
// derived tables) or when the slice may be empty.
func NewSliceViewWithKeys(records []Record, dimKeys, measureKeys, timeKeys []string) *SliceView {
	return &SliceView{
		records: records,
		dimKeys: dimKeys,
		mesKeys: measureKeys,
		timKeys: timeKeys,
	}
}

func (v *SliceView) cacheKeys() {
	dimSeen := make(map[string]bool)
	mesSeen := make(map[string]bool)
	timSeen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			if !dimSeen[k] {
				dimSeen[k] = true
				v.dimKeys = append(v.dimKeys, k)
			}
		}
		for k := range r.Measures {
			if !mesSeen[k] {
				mesSeen[k] = true
				v.mesKeys = append(v.mesKeys, k)
			}
		}
		for k := range r.Times {
			if !timSeen[k] {
				timSeen[k] = true
				v.timKeys = append(v.timKeys, k)
			}
		}
	}
	sort.Strings(v.dimKeys)
	sort.Strings(v.mesKeys)
	sort.Strings(v.timKeys)
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) Time(i int, key string) time.Time {
	if i < 0 || i >= len(v.records) {
		return time.Time{}
	}
	return v.records[i].Times[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }
func (v *SliceView) TimeKeys() []string      { return v.timKeys }

// Records returns the underlying rows. Callers must not modify them.
func (v *SliceView) Records() []Record { return v.records }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) *SubView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) Time(i int, key string) time.Time {
	if i < 0 || i >= len(v.indices) {
		return time.Time{}
	}
	return v.parent.Time(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }
func (v *SubView) TimeKeys() []string      { return v.parent.TimeKeys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Sale]().
//	    Dimension("store", func(s Sale) string { return s.Store }).
//	    Measure("sales", func(s Sale) float64 { return s.Amount }).
//	    Time("date", func(s Sale) time.Time { return s.Day })
//
//	view := adapter.Bind(sales)
//	ranking, _ := engine.RankImportance(view, []string{"store"}, "sales")
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dimOrder []string
	mesOrder []string
	timOrder []string
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	tims     map[string]func(T) time.Time
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
		tims: make(map[string]func(T) time.Time),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.dims[key]; !exists {
		a.dimOrder = append(a.dimOrder, key)
	}
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	if _, exists := a.meas[key]; !exists {
		a.mesOrder = append(a.mesOrder, key)
	}
	a.meas[key] = fn
	return a
}

// Time registers a time accessor.
func (a *DomainAdapter[T]) Time(key string, fn func(T) time.Time) *DomainAdapter[T] {
	if _, exists := a.tims[key]; !exists {
		a.timOrder = append(a.timOrder, key)
	}
	a.tims[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) *DomainView[T] {
	return &DomainView[T]{
		data:     data,
		dims:     a.dims,
		meas:     a.meas,
		tims:     a.tims,
		dimKeys:  a.dimOrder,
		measKeys: a.mesOrder,
		timeKeys: a.timOrder,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data     []T
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	tims     map[string]func(T) time.Time
	dimKeys  []string
	measKeys []string
	timeKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	return 0
}

func (v *DomainView[T]) Time(i int, key string) time.Time {
	if i < 0 || i >= len(v.data) {
		return time.Time{}
	}
	if fn, ok := v.tims[key]; ok {
		return fn(v.data[i])
	}
	return time.Time{}
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measKeys }
func (v *DomainView[T]) TimeKeys() []string      { return v.timeKeys }

// ============================================================================
// COLUMN ROLES
// ============================================================================

// ColumnKind is the role a column plays in a view.
type ColumnKind int

const (
	KindNone ColumnKind = iota
	KindDimension
	KindMeasure
	KindTime
)

func (k ColumnKind) String() string {
	switch k {
	case KindDimension:
		return "dimension"
	case KindMeasure:
		return "measure"
	case KindTime:
		return "time"
	default:
		return "none"
	}
}

// KindOf reports which column family holds key. Dimensions win over
// measures, measures over times, when a view declares a key twice.
func KindOf(view RecordView, key string) ColumnKind {
	if contains(view.DimensionKeys(), key) {
		return KindDimension
	}
	if contains(view.MeasureKeys(), key) {
		return KindMeasure
	}
	if contains(view.TimeKeys(), key) {
		return KindTime
	}
	return KindNone
}

// requireColumns checks that every key exists in view. When want is not
// KindNone the column must also have that kind. role names the column's
// purpose in the error ("identifier", "time", "measure").
func requireColumns(view RecordView, role string, want ColumnKind, keys ...string) error {
	for _, key := range keys {
		got := KindOf(view, key)
		if got == KindNone {
			return &MissingColumnError{Column: key, Role: role}
		}
		if want != KindNone && got != want {
			return &ColumnKindError{Column: key, Want: want, Got: got}
		}
	}
	return nil
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
