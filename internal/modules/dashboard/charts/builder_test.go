package charts

import (
	"math"
	"reflect"
	"testing"
	"time"

	"riego/internal/modules/dashboard/types"
)

func reading(tempC, tempAmb, humPorc, humSuelo float64, date string, at time.Time) types.SensorReading {
	return types.SensorReading{
		Date:         date,
		RecordedAt:   at,
		TemperatureC: tempC,
		AmbientTemp:  tempAmb,
		HumidityPct:  humPorc,
		SoilHumidity: humSuelo,
	}
}

func scenarioTable() types.SensorTable {
	return types.SensorTable{
		Date: "2022-08-23",
		Readings: []types.SensorReading{
			reading(20, 25, 60, 30, "2022-08-23", time.Date(2022, 8, 23, 8, 0, 0, 0, time.UTC)),
			reading(20, 26, 61, 31, "2022-08-23", time.Date(2022, 8, 23, 9, 0, 0, 0, time.UTC)),
		},
	}
}

func TestBuild_scenario(t *testing.T) {
	set, err := Build(scenarioTable())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []types.Point{{Label: "20", Value: 2}}
	if !reflect.DeepEqual(set.TopTempC.Points, want) {
		t.Errorf("TopTempC = %+v; want %+v", set.TopTempC.Points, want)
	}
	if !reflect.DeepEqual(set.DistTempC.Points, want) {
		t.Errorf("DistTempC = %+v; want %+v", set.DistTempC.Points, want)
	}
	for _, c := range []types.ChartSpec{set.TimeSerieTC, set.TimeSerieTA, set.TimeSerieHP, set.TimeSerieHS} {
		if len(c.Points) != 2 {
			t.Errorf("%s has %d points; want 2", c.ID, len(c.Points))
			continue
		}
		if c.Points[0].Label != "2022-08-23 08:00" || c.Points[1].Label != "2022-08-23 09:00" {
			t.Errorf("%s labels = %q, %q", c.ID, c.Points[0].Label, c.Points[1].Label)
		}
	}
	if set.TimeSerieTA.Points[0].Value != 25 || set.TimeSerieTA.Points[1].Value != 26 {
		t.Errorf("TimeSerieTA = %+v", set.TimeSerieTA.Points)
	}
	if set.RowCount != 2 || set.Date != "2022-08-23" {
		t.Errorf("RowCount=%d Date=%q", set.RowCount, set.Date)
	}
}

func TestBuild_positionalOrder(t *testing.T) {
	set, err := Build(scenarioTable())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []types.ChartID{
		types.ChartTopTempC,
		types.ChartTopTempAmb,
		types.ChartTopHumPorc,
		types.ChartTopHumSuelo,
		types.ChartDistTempC,
		types.ChartTimeSerieTC,
		types.ChartTimeSerieTA,
		types.ChartTimeSerieHP,
		types.ChartTimeSerieHS,
	}
	got := set.Positional()
	if len(got) != 9 {
		t.Fatalf("Positional() has %d charts; want 9", len(got))
	}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("slot %d = %s; want %s", i, c.ID, want[i])
		}
		if c.Title == "" {
			t.Errorf("slot %d has no title", i)
		}
	}
	kinds := []types.ChartKind{
		types.KindBar, types.KindBar, types.KindBar, types.KindBar,
		types.KindTreemap,
		types.KindLine, types.KindLine, types.KindLine, types.KindLine,
	}
	for i, c := range got {
		if c.Kind != kinds[i] {
			t.Errorf("slot %d kind = %s; want %s", i, c.Kind, kinds[i])
		}
	}
}

func TestBuild_emptyTable(t *testing.T) {
	set, err := Build(types.SensorTable{Date: "2022-08-22"})
	if err != nil {
		t.Fatalf("Build(empty) = %v; want nil", err)
	}
	for i, c := range set.Positional() {
		if !c.Empty() {
			t.Errorf("slot %d (%s) has data: %+v", i, c.ID, c.Points)
		}
		if c.ID == "" {
			t.Errorf("slot %d has no id", i)
		}
	}
	if !set.Histogram.Empty() {
		t.Errorf("Histogram not empty: %+v", set.Histogram.Stacks)
	}
}

func TestBuild_topNLimits(t *testing.T) {
	var rows []types.SensorReading
	at := time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		v := float64(i)
		rows = append(rows, reading(v, v, v, v, "2022-08-23", at.Add(time.Duration(i)*time.Minute)))
	}
	set, err := Build(types.SensorTable{Date: "2022-08-23", Readings: rows})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, tc := range []struct {
		chart types.ChartSpec
		n     int
	}{
		{set.TopTempC, 5},
		{set.TopTempAmb, 5},
		{set.TopHumPorc, 5},
		{set.TopHumSuelo, 3},
	} {
		if len(tc.chart.Points) != tc.n {
			t.Errorf("%s has %d bars; want %d", tc.chart.ID, len(tc.chart.Points), tc.n)
		}
	}
	if len(set.DistTempC.Points) != 10 {
		t.Errorf("DistTempC has %d tiles; want 10", len(set.DistTempC.Points))
	}
}

func TestBuild_dominantValueFirst(t *testing.T) {
	at := time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC)
	rows := []types.SensorReading{
		reading(18, 22, 50, 10, "2022-08-23", at),
		reading(21, 23, 55, 11, "2022-08-23", at),
		reading(21, 23, 55, 11, "2022-08-23", at),
		reading(19, 24, 55, 12, "2022-08-23", at),
		reading(21, 23, 56, 11, "2022-08-23", at),
	}
	set, err := Build(types.SensorTable{Readings: rows})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, tc := range []struct {
		chart types.ChartSpec
		want  string
	}{
		{set.TopTempC, "21"},
		{set.TopTempAmb, "23"},
		{set.TopHumPorc, "55"},
		{set.TopHumSuelo, "11"},
	} {
		if tc.chart.Points[0].Label != tc.want {
			t.Errorf("%s first = %q; want %q", tc.chart.ID, tc.chart.Points[0].Label, tc.want)
		}
	}
}

func TestBuild_treemapSumsToRowCount(t *testing.T) {
	at := time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC)
	temps := []float64{20, 21.5, 20, 19, 21.5, 20, 18.25}
	var rows []types.SensorReading
	for _, v := range temps {
		rows = append(rows, reading(v, 0, 0, 0, "2022-08-23", at))
	}
	set, err := Build(types.SensorTable{Readings: rows})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(set.DistTempC.Points) != 4 {
		t.Fatalf("tiles = %d; want 4 distinct values", len(set.DistTempC.Points))
	}
	var sum float64
	for _, p := range set.DistTempC.Points {
		sum += p.Value
	}
	if int(sum) != len(temps) {
		t.Errorf("tile sizes sum to %v; want %d", sum, len(temps))
	}
	wantLabels := []string{"18.25", "19", "20", "21.5"}
	for i, p := range set.DistTempC.Points {
		if p.Label != wantLabels[i] {
			t.Errorf("tile %d = %q; want %q", i, p.Label, wantLabels[i])
		}
	}
}

func TestBuild_timeSeriesKeepsRowOrder(t *testing.T) {
	late := time.Date(2022, 8, 23, 18, 0, 0, 0, time.UTC)
	early := time.Date(2022, 8, 23, 6, 0, 0, 0, time.UTC)
	rows := []types.SensorReading{
		reading(0, 30, 70, 40, "2022-08-23", late),
		reading(0, 20, 50, 35, "2022-08-23", early),
	}
	set, err := Build(types.SensorTable{Readings: rows})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pts := set.TimeSerieTA.Points
	if pts[0].Label != "2022-08-23 18:00" || pts[1].Label != "2022-08-23 06:00" {
		t.Errorf("labels = %q, %q; want row order", pts[0].Label, pts[1].Label)
	}
	if pts[0].Value != 30 || pts[1].Value != 20 {
		t.Errorf("values = %v, %v; want 30, 20", pts[0].Value, pts[1].Value)
	}
}

func TestBuild_timeSeriesLabelsKeepSeconds(t *testing.T) {
	base := time.Date(2022, 8, 23, 8, 0, 0, 0, time.UTC)
	rows := []types.SensorReading{
		reading(20, 25, 60, 30, "2022-08-23", base),
		reading(20, 25, 60, 30, "2022-08-23", base.Add(time.Second)),
		reading(20, 25, 60, 30, "2022-08-23", base.Add(2*time.Second)),
	}
	set, err := Build(types.SensorTable{Readings: rows})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var got []string
	for _, p := range set.TimeSerieHS.Points {
		got = append(got, p.Label)
	}
	want := []string{"2022-08-23 08:00", "2022-08-23 08:00:01", "2022-08-23 08:00:02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %q; want %q", got, want)
	}
}

func TestBuild_temperatureSeriesPlotsHumidity(t *testing.T) {
	set, err := Build(scenarioTable())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(set.TimeSerieTC.Points, set.TimeSerieHP.Points) {
		t.Errorf("TimeSerieTC = %+v; want same data as TimeSerieHP %+v", set.TimeSerieTC.Points, set.TimeSerieHP.Points)
	}
	if set.TimeSerieTC.Title != "Serie de Tiempo de Temperaturas en °C" {
		t.Errorf("TimeSerieTC title = %q", set.TimeSerieTC.Title)
	}
}

func TestBuild_histogram(t *testing.T) {
	at := time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC)
	rows := []types.SensorReading{
		reading(20, 0, 0, 0, "2022-08-24", at),
		reading(21, 0, 0, 0, "2022-08-23", at),
		reading(20, 0, 0, 0, "2022-08-23", at),
		reading(20, 0, 0, 0, "2022-08-24", at),
	}
	set, err := Build(types.SensorTable{Readings: rows})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []types.Stack{
		{Label: "2022-08-24", Segments: []types.Point{{Label: "20", Value: 2}}},
		{Label: "2022-08-23", Segments: []types.Point{{Label: "20", Value: 1}, {Label: "21", Value: 1}}},
	}
	if !reflect.DeepEqual(set.Histogram.Stacks, want) {
		t.Errorf("Histogram = %+v; want %+v", set.Histogram.Stacks, want)
	}
}

func TestBuild_doesNotMutateInput(t *testing.T) {
	table := scenarioTable()
	before := append([]types.SensorReading(nil), table.Readings...)
	if _, err := Build(table); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(before, table.Readings) {
		t.Error("Build modified the input table")
	}
}

func TestBuild_deterministic(t *testing.T) {
	a, errA := Build(scenarioTable())
	b, errB := Build(scenarioTable())
	if errA != nil || errB != nil {
		t.Fatalf("Build errors: %v, %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Build is not deterministic")
	}
}

func TestBuild_rejectsInvalidRows(t *testing.T) {
	at := time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC)
	tests := map[string]types.SensorReading{
		"nan value":    reading(math.NaN(), 0, 0, 0, "2022-08-23", at),
		"inf value":    reading(0, math.Inf(1), 0, 0, "2022-08-23", at),
		"missing date": reading(0, 0, 0, 0, "", at),
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Build(types.SensorTable{Readings: []types.SensorReading{r}}); err == nil {
				t.Error("Build() = nil error; want failure")
			}
		})
	}
}
