package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexNumber 容忍格式錯誤的數值輸入：接受 JSON 數字或數字字串，
// 無法解析時一律視為 0，不回報錯誤
type FlexNumber float64

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = FlexNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = FlexNumber(f)
			return nil
		}
	}

	*n = 0
	return nil
}

func (n FlexNumber) Float64() float64 {
	return float64(n)
}

func (n FlexNumber) Int64() int64 {
	return int64(n)
}
