package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/idscope/engine"
)

func TestFromDataFrame(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"store", "date", "sales", "price"},
		{"S1", "2023-01-01", "10", "1.5"},
		{"S1", "2023-01-02", "5", "2.0"},
		{"S2", "2023-01-01", "7", "3.25"},
	})

	view, err := FromDataFrame(df)
	require.NoError(t, err)

	require.Equal(t, 3, view.Len())
	require.Equal(t, []string{"store"}, view.DimensionKeys())
	require.Equal(t, []string{"sales", "price"}, view.MeasureKeys())
	require.Equal(t, []string{"date"}, view.TimeKeys())
	require.True(t, view.Time(1, "date").Equal(day("2023-01-02")))
	require.Equal(t, 3.25, view.Measure(2, "price"))

	lag, err := engine.LagTable(view, []string{"store"}, "date", []string{"sales"}, engine.Period{Unit: "D", N: 1})
	require.NoError(t, err)
	require.True(t, lag.Time(0, engine.JoinKey).Equal(day("2023-01-02")))
}

func TestFromDataFrameForcedTime(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"store", "month"},
		{"S1", "Jan-2023"},
		{"S2", "Feb-2023"},
	})
	view, err := FromDataFrame(df, "month")
	require.NoError(t, err)
	require.Equal(t, []string{"month"}, view.TimeKeys())
	require.Equal(t, 2, int(view.Time(1, "month").Month()))

	_, err = FromDataFrame(df, "store")
	require.Error(t, err)

	_, err = FromDataFrame(dataframe.DataFrame{Err: errors.New("bad input")})
	require.ErrorContains(t, err, "bad input")
}

func TestToDataFrame(t *testing.T) {
	s, err := engine.SummarizeCoverage(engine.NewSliceView([]engine.Record{
		{Dimensions: map[string]string{"id": "A"}, Measures: map[string]float64{"v": 1}, Times: map[string]time.Time{"t": day("2023-01-01")}},
		{Dimensions: map[string]string{"id": "A"}, Measures: map[string]float64{"v": 2}, Times: map[string]time.Time{"t": day("2023-01-01")}},
		{Dimensions: map[string]string{"id": "B"}, Measures: map[string]float64{"v": 4}, Times: map[string]time.Time{"t": day("2023-01-03")}},
	}), []string{"id"}, "t")
	require.NoError(t, err)

	df := ToDataFrame(s.Records())
	require.NoError(t, df.Err)
	require.Equal(t, []string{"id", "t", "v"}, df.Names())
	require.Equal(t, 2, df.Nrow())
	require.Equal(t, []float64{3, 4}, df.Col("v").Float())
	require.Equal(t, []string{"2023-01-01", "2023-01-03"}, df.Col("t").Records())

	back, err := FromDataFrame(df)
	require.NoError(t, err)
	require.Equal(t, []string{"t"}, back.TimeKeys())
	require.Equal(t, "B", back.Dimension(1, "id"))
}
