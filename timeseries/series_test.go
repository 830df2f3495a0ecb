package timeseries

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToSeriesTwoEntries(t *testing.T) {
	points := []Point{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Quantity: Quantity("3")},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Quantity: Quantity("7")},
	}

	s := ToSeries(Window(points, Weekly))

	require.Equal(t, []string{"01/01", "01/02"}, s.Labels)
	require.Equal(t, []float64{3, 7}, s.Values)
}

func TestToSeriesAligned(t *testing.T) {
	s := ToSeries(makePoints(12))
	require.Len(t, s.Labels, 12)
	require.Len(t, s.Values, 12)
	require.Equal(t, "01/01", s.Labels[0])
	require.Equal(t, "01/12", s.Labels[11])
	require.Equal(t, float64(0), s.Values[0])
	require.Equal(t, float64(11), s.Values[11])
}

func TestToSeriesSkipsUnparsable(t *testing.T) {
	points := []Point{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Quantity: Quantity("2")},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Quantity: Quantity("oops")},
		{Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), Quantity: Quantity("")},
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Quantity: Quantity("4.5")},
	}

	s := ToSeries(points)

	require.Equal(t, []string{"03/01", "03/04"}, s.Labels)
	require.Equal(t, []float64{2, 4.5}, s.Values)
}

func TestToSeriesEmpty(t *testing.T) {
	s := ToSeries(nil)
	require.Empty(t, s.Labels)
	require.Empty(t, s.Values)
	require.NotNil(t, s.Labels)
	require.NotNil(t, s.Values)
}

func TestQuantityUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`"3"`, 3},
		{`" 3.5 "`, 3.5},
		{`7`, 7},
		{`0.25`, 0.25},
	}
	for _, tc := range cases {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte(tc.in), &q), tc.in)
		got, err := q.Float64()
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestQuantityInvalid(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &q))
	_, err := q.Float64()
	require.Error(t, err)

	require.Error(t, json.Unmarshal([]byte(`true`), &q))
	require.Error(t, json.Unmarshal([]byte(`{"v":1}`), &q))
}

func TestQuantityMarshal(t *testing.T) {
	b, err := json.Marshal(QuantityOf(3.5))
	require.NoError(t, err)
	require.Equal(t, `3.5`, string(b))

	b, err = json.Marshal(Quantity("nope"))
	require.NoError(t, err)
	require.Equal(t, `"nope"`, string(b))
}
