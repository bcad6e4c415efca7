package report

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/rs/zerolog/log"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/ml"
)

// Edge colours by weight sign.
const (
	positiveEdge = "black"
	negativeEdge = "grey60"
)

// penWidth maps a weight magnitude to a line width relative to the largest.
func penWidth(w, largest float64) float64 {
	if largest == 0 {
		return 1
	}
	return 0.5 + 4*math.Abs(w)/largest
}

func edgeColor(w float64) string {
	if w < 0 {
		return negativeEdge
	}
	return positiveEdge
}

// generateNetworkDiagram renders inputs, hidden units, the output unit and the
// two bias nodes, left to right.
func (r *Reporter) generateNetworkDiagram(nw *ml.Network) error {
	g := graphviz.New()
	graph, err := g.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close graph")
		}
		g.Close()
	}()
	graph.SetRankDir(cgraph.LRRank)

	if err := buildNetworkGraph(graph, nw); err != nil {
		return err
	}

	path := filepath.Join(r.outputPath, NetworkFile)
	if err := g.RenderFilename(graph, graphviz.SVG, path); err != nil {
		return fmt.Errorf("failed to render network diagram: %w", err)
	}
	log.Info().Str("file", path).Int("hidden", nw.Hidden).Msg("Network diagram generated")
	return nil
}

func buildNetworkGraph(graph *cgraph.Graph, nw *ml.Network) error {
	largest := 0.0
	for h := 0; h < nw.Hidden; h++ {
		for i := 0; i <= nw.Inputs; i++ {
			largest = math.Max(largest, math.Abs(nw.W1.At(h, i)))
		}
	}
	for _, v := range nw.W2 {
		largest = math.Max(largest, math.Abs(v))
	}

	node := func(id, label string, shape cgraph.Shape) (*cgraph.Node, error) {
		n, err := graph.CreateNode(id)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		n.SetLabel(label)
		n.SetShape(shape)
		return n, nil
	}
	edge := func(from, to *cgraph.Node, id string, w float64) error {
		e, err := graph.CreateEdge(id, from, to)
		if err != nil {
			return fmt.Errorf("edge %s: %w", id, err)
		}
		e.SetColor(edgeColor(w))
		e.SetPenWidth(penWidth(w, largest))
		return nil
	}

	inputs := make([]*cgraph.Node, nw.Inputs)
	for i := range inputs {
		label := fmt.Sprintf("I%d", i+1)
		if i < len(nw.Names) {
			label = nw.Names[i]
		}
		n, err := node(fmt.Sprintf("I%d", i+1), label, cgraph.BoxShape)
		if err != nil {
			return err
		}
		inputs[i] = n
	}
	b1, err := node("B1", "B1", cgraph.PlainTextShape)
	if err != nil {
		return err
	}
	b2, err := node("B2", "B2", cgraph.PlainTextShape)
	if err != nil {
		return err
	}
	out, err := node("O1", common.ClassFishing, cgraph.EllipseShape)
	if err != nil {
		return err
	}

	for h := 0; h < nw.Hidden; h++ {
		hid, err := node(fmt.Sprintf("H%d", h+1), fmt.Sprintf("H%d", h+1), cgraph.CircleShape)
		if err != nil {
			return err
		}
		if err := edge(b1, hid, fmt.Sprintf("B1-H%d", h+1), nw.W1.At(h, 0)); err != nil {
			return err
		}
		for i, in := range inputs {
			if err := edge(in, hid, fmt.Sprintf("I%d-H%d", i+1, h+1), nw.W1.At(h, i+1)); err != nil {
				return err
			}
		}
		if err := edge(hid, out, fmt.Sprintf("H%d-O1", h+1), nw.W2[h+1]); err != nil {
			return err
		}
	}
	return edge(b2, out, "B2-O1", nw.W2[0])
}
