package types

// Row is a stored reading in the record schema the dashboard loader reads.
type Row struct {
	Date         string  `json:"fecha"`
	RecordedAt   string  `json:"fechaRegistrada"`
	TemperatureC float64 `json:"temperaturaC"`
	AmbientTemp  float64 `json:"tempAmb"`
	HumidityPct  float64 `json:"humedadPorc"`
	SoilHumidity float64 `json:"humedadSuelo"`
}

type DateCount struct {
	Date     string `json:"fecha"`
	Readings int    `json:"readings"`
}
