package charts

import (
	"fmt"
	"math"
	"time"

	"riego/internal/modules/dashboard/types"
)

// Chart titles and colors shown on the dashboard.
const (
	titleTopTempC    = "Top 5 Valores de Temperatura en C° Más Comunes"
	titleTopTempAmb  = "Top 5 Valores de Temperatura Ambiental Más Comunes"
	titleTopHumPorc  = "Top 5 Valores de Humedad Porcentual más comunes"
	titleTopHumSuelo = "Top 3 Valores de Humedad de Suelo más comunes"
	titleDistTempC   = "Distribución de los valores de Temperatura en °C"
	titleHistTempC   = "Histograma de las temperaturas °C en base a la Fecha y hora de Registro"
	titleTimeSerieTC = "Serie de Tiempo de Temperaturas en °C"
	titleTimeSerieTA = "Serie de Temperatura del Ambiente"
	titleTimeSerieHP = "Serie de Tiempo de Humedad Porcentual"
	titleTimeSerieHS = "Serie de Tiempo de Humedad del Suelo"
	colorGreen       = "rgb(60, 179, 113)"
	colorAmber       = "rgb(243, 187, 69)"
	colorBlue        = "rgb(143, 173, 222)"
	colorSeries      = "rgb(99, 110, 250)"
	recordedAtLayout = "2006-01-02 15:04"
	recordedAtExact  = "2006-01-02 15:04:05"
	countLabel       = "count"
	topN             = 5
	topNSoilHumidity = 3
)

// Build derives every dashboard chart from table. It does not modify table.
// A table with no readings yields charts with no points.
func Build(table types.SensorTable) (types.ChartSet, error) {
	n := len(table.Readings)
	var (
		tempC    = make([]float64, 0, n)
		tempAmb  = make([]float64, 0, n)
		humPorc  = make([]float64, 0, n)
		humSuelo = make([]float64, 0, n)
		dates    = make([]string, 0, n)
		stamps   = make([]string, 0, n)
	)
	for i, r := range table.Readings {
		for _, v := range []float64{r.TemperatureC, r.AmbientTemp, r.HumidityPct, r.SoilHumidity} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return types.ChartSet{}, fmt.Errorf("reading %d: non-finite value", i)
			}
		}
		if r.Date == "" {
			return types.ChartSet{}, fmt.Errorf("reading %d: missing fecha", i)
		}
		tempC = append(tempC, r.TemperatureC)
		tempAmb = append(tempAmb, r.AmbientTemp)
		humPorc = append(humPorc, r.HumidityPct)
		humSuelo = append(humSuelo, r.SoilHumidity)
		dates = append(dates, r.Date)
		stamps = append(stamps, stampLabel(r.RecordedAt))
	}

	set := types.ChartSet{
		Date:        table.Date,
		RowCount:    n,
		Quarantined: len(table.Quarantined),
		TopTempC:    bar(types.ChartTopTempC, titleTopTempC, colorGreen, "temperaturaC", MostCommon(tempC, topN)),
		TopTempAmb:  bar(types.ChartTopTempAmb, titleTopTempAmb, colorAmber, "tempAmb", MostCommon(tempAmb, topN)),
		TopHumPorc:  bar(types.ChartTopHumPorc, titleTopHumPorc, colorBlue, "humedadPorc", MostCommon(humPorc, topN)),
		TopHumSuelo: bar(types.ChartTopHumSuelo, titleTopHumSuelo, colorBlue, "humedadSuelo", MostCommon(humSuelo, topNSoilHumidity)),
		DistTempC: types.ChartSpec{
			ID:     types.ChartDistTempC,
			Kind:   types.KindTreemap,
			Title:  titleDistTempC,
			XLabel: "temperaturaC",
			YLabel: countLabel,
			Points: GroupCounts(tempC),
		},
		Histogram: types.ChartSpec{
			ID:     types.ChartHistTempC,
			Kind:   types.KindHistogram,
			Title:  titleHistTempC,
			XLabel: "fecha",
			YLabel: countLabel,
			Points: []types.Point{},
			Stacks: StackedCounts(dates, tempC),
		},
		// Plots humedadPorc under a temperature title, as the dashboard always has.
		// Kept for compatibility; likely a copy-paste slip upstream.
		TimeSerieTC: line(types.ChartTimeSerieTC, titleTimeSerieTC, "humedadPorc", stamps, humPorc),
		TimeSerieTA: line(types.ChartTimeSerieTA, titleTimeSerieTA, "tempAmb", stamps, tempAmb),
		TimeSerieHP: line(types.ChartTimeSerieHP, titleTimeSerieHP, "humedadPorc", stamps, humPorc),
		TimeSerieHS: line(types.ChartTimeSerieHS, titleTimeSerieHS, "humedadSuelo", stamps, humSuelo),
	}
	return set, nil
}

func bar(id types.ChartID, title, color, field string, points []types.Point) types.ChartSpec {
	return types.ChartSpec{
		ID:     id,
		Kind:   types.KindBar,
		Title:  title,
		Color:  color,
		XLabel: field,
		YLabel: countLabel,
		Points: points,
	}
}

// line keeps row order; there is no chronological sort.
func line(id types.ChartID, title, field string, stamps []string, values []float64) types.ChartSpec {
	points := make([]types.Point, len(values))
	for i, v := range values {
		points[i] = types.Point{Label: stamps[i], Value: v}
	}
	return types.ChartSpec{
		ID:     id,
		Kind:   types.KindLine,
		Title:  title,
		Color:  colorSeries,
		XLabel: "fechaRegistrada",
		YLabel: field,
		Points: points,
	}
}

// stampLabel drops the seconds only when they are zero.
func stampLabel(t time.Time) string {
	if t.Second() == 0 {
		return t.Format(recordedAtLayout)
	}
	return t.Format(recordedAtExact)
}
