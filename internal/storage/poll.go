package storage

import (
	"encoding/json"
	"math"
	"time"
)

// Poll is one satellite position report for a vessel. Numeric fields hold NaN
// when the source cell was missing.
type Poll struct {
	UTC         time.Time
	Local       time.Time
	Fishing     float64
	Length      float64
	Boat        string
	Hour        float64
	Bearing     float64 // radians
	Speed       float64
	BottomDepth float64
}

// Complete reports whether every numeric field is present.
func (p Poll) Complete() bool {
	for _, v := range []float64{p.Fishing, p.Length, p.Hour, p.Bearing, p.Speed, p.BottomDepth} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// pollJSON is the wire form of a Poll. encoding/json cannot encode NaN, so
// missing values travel as null.
type pollJSON struct {
	UTC         time.Time `json:"utc_date"`
	Local       time.Time `json:"local_time"`
	Fishing     *float64  `json:"fishing"`
	Length      *float64  `json:"len"`
	Boat        string    `json:"boat"`
	Hour        *float64  `json:"hour"`
	Bearing     *float64  `json:"bearing_rad"`
	Speed       *float64  `json:"speed"`
	BottomDepth *float64  `json:"bottom_depth"`
}

func (p Poll) MarshalJSON() ([]byte, error) {
	return json.Marshal(pollJSON{
		UTC:         p.UTC,
		Local:       p.Local,
		Fishing:     nullable(p.Fishing),
		Length:      nullable(p.Length),
		Boat:        p.Boat,
		Hour:        nullable(p.Hour),
		Bearing:     nullable(p.Bearing),
		Speed:       nullable(p.Speed),
		BottomDepth: nullable(p.BottomDepth),
	})
}

func (p *Poll) UnmarshalJSON(data []byte) error {
	var w pollJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Poll{
		UTC:         w.UTC,
		Local:       w.Local,
		Fishing:     orNaN(w.Fishing),
		Length:      orNaN(w.Length),
		Boat:        w.Boat,
		Hour:        orNaN(w.Hour),
		Bearing:     orNaN(w.Bearing),
		Speed:       orNaN(w.Speed),
		BottomDepth: orNaN(w.BottomDepth),
	}
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
