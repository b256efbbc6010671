package types

import "time"

// DateLayout is the calendar-date form used for fecha values and query parameters.
const DateLayout = "2006-01-02"

// SensorReading is one validated telemetry row.
type SensorReading struct {
	Date         string    `json:"fecha"`
	RecordedAt   time.Time `json:"fechaRegistrada"`
	TemperatureC float64   `json:"temperaturaC"`
	AmbientTemp  float64   `json:"tempAmb"`
	HumidityPct  float64   `json:"humedadPorc"`
	SoilHumidity float64   `json:"humedadSuelo"`
}

// QuarantinedRecord identifies a source record that failed validation.
type QuarantinedRecord struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SensorTable holds the readings returned for one requested date, in response order.
type SensorTable struct {
	Date        string              `json:"date"`
	Readings    []SensorReading     `json:"readings"`
	Quarantined []QuarantinedRecord `json:"quarantined,omitempty"`
}

type ChartKind string

const (
	KindBar       ChartKind = "bar"
	KindTreemap   ChartKind = "treemap"
	KindHistogram ChartKind = "histogram"
	KindLine      ChartKind = "line"
)

type ChartID string

const (
	ChartTopTempC    ChartID = "figTopTempC"
	ChartTopTempAmb  ChartID = "figTopTempAmb"
	ChartTopHumPorc  ChartID = "figTopHumPorc"
	ChartTopHumSuelo ChartID = "figTopHumSuelo"
	ChartDistTempC   ChartID = "figDist_TempC"
	ChartHistTempC   ChartID = "figHistTC"
	ChartTimeSerieTC ChartID = "figTimeSerieTC"
	ChartTimeSerieTA ChartID = "figTimeSerieTA"
	ChartTimeSerieHP ChartID = "figTimeSerieHP"
	ChartTimeSerieHS ChartID = "figTimeSerieHS"
)

// Point is a category/value pair. For bar and treemap charts Label is the
// reading value and Value its count; for line charts Label is the recorded
// time and Value the reading.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Stack is one histogram bucket split into colored segments.
type Stack struct {
	Label    string  `json:"label"`
	Segments []Point `json:"segments"`
}

type ChartSpec struct {
	ID     ChartID   `json:"id"`
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	Color  string    `json:"color,omitempty"`
	XLabel string    `json:"xLabel,omitempty"`
	YLabel string    `json:"yLabel,omitempty"`
	Points []Point   `json:"points"`
	Stacks []Stack   `json:"stacks,omitempty"`
}

// Empty reports whether the chart has nothing to draw.
func (c ChartSpec) Empty() bool {
	return len(c.Points) == 0 && len(c.Stacks) == 0
}

// ChartSet is everything derived from one SensorTable.
type ChartSet struct {
	Date        string    `json:"date"`
	RowCount    int       `json:"rowCount"`
	Quarantined int       `json:"quarantined"`
	TopTempC    ChartSpec `json:"topTempC"`
	TopTempAmb  ChartSpec `json:"topTempAmb"`
	TopHumPorc  ChartSpec `json:"topHumPorc"`
	TopHumSuelo ChartSpec `json:"topHumSuelo"`
	DistTempC   ChartSpec `json:"distTempC"`
	Histogram   ChartSpec `json:"histogram"`
	TimeSerieTC ChartSpec `json:"timeSerieTC"`
	TimeSerieTA ChartSpec `json:"timeSerieTA"`
	TimeSerieHP ChartSpec `json:"timeSerieHP"`
	TimeSerieHS ChartSpec `json:"timeSerieHS"`
}

// Positional returns the nine display charts in their fixed slot order.
// The histogram is not part of it.
func (s ChartSet) Positional() [9]ChartSpec {
	return [9]ChartSpec{
		s.TopTempC,
		s.TopTempAmb,
		s.TopHumPorc,
		s.TopHumSuelo,
		s.DistTempC,
		s.TimeSerieTC,
		s.TimeSerieTA,
		s.TimeSerieHP,
		s.TimeSerieHS,
	}
}

// RefreshRecord is one audit row for a dashboard refresh.
type RefreshRecord struct {
	ID            string    `json:"id"`
	RequestedDate string    `json:"requestedDate"`
	StartedAt     time.Time `json:"startedAt"`
	DurationMs    int64     `json:"durationMs"`
	RowCount      int       `json:"rowCount"`
	Quarantined   int       `json:"quarantined"`
	Outcome       string    `json:"outcome"`
	Cause         string    `json:"cause,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// DashboardState is computed once at startup and served until the process exits.
type DashboardState struct {
	DefaultDate   string
	Dates         []string
	Initial       ChartSet
	InitializedAt time.Time
}
