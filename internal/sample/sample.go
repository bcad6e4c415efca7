// Package sample generates synthetic vessel polls with a chosen share of
// fishing activity, for demos and end-to-end tests.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/storage"
)

// Generator describes a synthetic data set.
type Generator struct {
	Rows         int
	FishingShare float64
	// MissingRate is the chance that any one numeric feature cell is missing.
	MissingRate float64
	Boats       int
	Start       time.Time
	Interval    time.Duration
	Zone        *time.Location
	Seed        uint64
}

// withDefaults fills zero fields.
func (g Generator) withDefaults() Generator {
	if g.Boats <= 0 {
		g.Boats = 20
	}
	if g.Start.IsZero() {
		g.Start = time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if g.Interval <= 0 {
		g.Interval = 17 * time.Minute
	}
	if g.Zone == nil {
		g.Zone = time.UTC
	}
	return g
}

// Polls returns the generated polls in time order. Exactly
// round(Rows*FishingShare) of them are flagged as fishing.
func (g Generator) Polls() []storage.Poll {
	g = g.withDefaults()
	rng := rand.New(rand.NewPCG(g.Seed, g.Seed^0x5851f42d4c957f2d))

	fishing := make([]bool, g.Rows)
	pos := int(math.Round(g.FishingShare * float64(g.Rows)))
	for i := 0; i < pos && i < g.Rows; i++ {
		fishing[i] = true
	}
	rng.Shuffle(len(fishing), func(i, j int) { fishing[i], fishing[j] = fishing[j], fishing[i] })

	lengths := make([]float64, g.Boats)
	for b := range lengths {
		lengths[b] = 12 + rng.Float64()*30
	}

	polls := make([]storage.Poll, g.Rows)
	for i := range polls {
		utc := g.Start.Add(time.Duration(i) * g.Interval)
		local := utc.In(g.Zone)
		boat := rng.IntN(g.Boats)

		p := storage.Poll{
			UTC:     utc,
			Local:   local,
			Boat:    fmt.Sprintf("B%03d", boat+1),
			Length:  lengths[boat],
			Hour:    float64(local.Hour()),
			Bearing: rng.Float64() * 2 * math.Pi,
		}
		if fishing[i] {
			// trawling: slow, over the shelf
			p.Fishing = 1
			p.Speed = 1 + rng.Float64()*3
			p.BottomDepth = 50 + rng.Float64()*250
		} else {
			p.Speed = 4 + rng.Float64()*8
			p.BottomDepth = 30 + rng.Float64()*1500
		}

		if g.MissingRate > 0 {
			for _, cell := range []*float64{&p.Speed, &p.BottomDepth, &p.Bearing} {
				if rng.Float64() < g.MissingRate {
					*cell = math.NaN()
				}
			}
		}
		polls[i] = p
	}
	return polls
}

// header is the input file layout.
var header = []string{
	common.ColUTCDate, common.ColLocalTime, common.ColFishing, common.ColLength,
	common.ColBoat, common.ColHour, common.ColBearing, common.ColSpeed, common.ColBottomDepth,
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes polls in the input file layout. Missing cells are "NA".
func WriteCSV(w io.Writer, polls []storage.Poll) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, p := range polls {
		record := []string{
			p.UTC.UTC().Format(common.TimestampLayout),
			p.Local.Format(common.TimestampLayout),
			formatCell(p.Fishing),
			formatCell(p.Length),
			p.Boat,
			formatCell(p.Hour),
			formatCell(p.Bearing),
			formatCell(p.Speed),
			formatCell(p.BottomDepth),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
