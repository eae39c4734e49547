package cafef

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// historyEnvelope is the PriceHistory.ashx response:
// {"Data": {"TotalCount": 1234, "Data": [{"Ngay": "02/01/2024", ...}]}, "Success": true}
type historyEnvelope struct {
	Data struct {
		TotalCount FlexibleInt64    `json:"TotalCount"`
		Data       []map[string]any `json:"Data"`
	} `json:"Data"`
	Message any  `json:"Message"`
	Success bool `json:"Success"`
}

// FlexibleInt64 parses int, float (scientific notation) or a numeric string to int64.
// null decodes to 0.
type FlexibleInt64 int64

// UnmarshalJSON parses int, float or string
func (f *FlexibleInt64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(strings.ReplaceAll(str, ",", ""))
		if str == "" {
			*f = 0
			return nil
		}
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexibleInt64(int64(val))
		return nil
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexibleInt64(int64(floatVal))
		return nil
	}

	return fmt.Errorf("cannot parse as int64: %s", string(data))
}

// Int64 returns int64 value
func (f FlexibleInt64) Int64() int64 {
	return int64(f)
}
