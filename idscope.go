// Package idscope provides exploratory summaries of identifier-keyed
// tabular time series.
//
// Usage:
//
//	import "github.com/spektr-org/idscope/engine"
//
//	result, err := engine.Execute(engine.Request{
//	    Kind:    engine.KindImportance,
//	    IDs:     []string{"store"},
//	    Measure: "sales",
//	}, view, engine.WithDelimiter("/"))
//
// The engine reads rows through engine.RecordView (records loaded by the
// helpers package from CSV, SQL or a gota DataFrame, or any domain type
// bound with engine.DomainAdapter) and returns render-ready output: a
// declarative Figure, a TableData or both.
//
// Schema discovery lives in the schema package and static PNG rendering
// in render. All computation is local.
package idscope
