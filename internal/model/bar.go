package model

// Bar represents one daily OHLC row of a Vietnamese listed symbol.
// Dùng chung cho provider, saver và serialization (json, parquet).
type Bar struct {
	Date          string  `json:"date" parquet:"date"` // YYYY-MM-DD
	Open          float64 `json:"open" parquet:"open,optional"`
	High          float64 `json:"high" parquet:"high,optional"`
	Low           float64 `json:"low" parquet:"low,optional"`
	Close         float64 `json:"close" parquet:"close,optional"`
	AdjustedClose float64 `json:"adjusted_close,omitempty" parquet:"adjusted_close,optional"`
	Volume        int64   `json:"volume" parquet:"volume,optional"`
	TradedValue   float64 `json:"traded_value,omitempty" parquet:"traded_value,optional"`
	DealVolume    int64   `json:"deal_volume,omitempty" parquet:"deal_volume,optional"`
	DealValue     float64 `json:"deal_value,omitempty" parquet:"deal_value,optional"`
	Change        string  `json:"change,omitempty" parquet:"change,optional"` // e.g. "0.5(1.20 %)"
}
