// Package suggest produces GPS coordinate suggestions for image files
// from a pretrained geolocation model. Backends share the Suggester
// interface: a local ONNX session, a remote inference sidecar, and a
// deterministic static table for tests.
package suggest

import (
	"context"
	"fmt"

	"geotag/internal/geo"
)

// DefaultTopK is how many candidates a prediction carries unless
// configured otherwise.
const DefaultTopK = 5

// Candidate is one location hypothesis with its model probability.
type Candidate struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Probability float64 `json:"probability"`
}

// Point returns the candidate's coordinates.
func (c Candidate) Point() geo.Point {
	return geo.Point{Lat: c.Lat, Lon: c.Lon}
}

// Prediction is the ordered top-k output of the model for one image.
// Candidates are sorted by descending probability.
type Prediction struct {
	Candidates []Candidate `json:"candidates"`
}

// Best returns the highest-probability candidate.
func (p *Prediction) Best() Candidate {
	if len(p.Candidates) == 0 {
		return Candidate{}
	}
	return p.Candidates[0]
}

// SpreadKm returns the maximum great-circle distance from the best
// candidate to any other candidate. A small spread means the model's
// top guesses agree geographically.
func (p *Prediction) SpreadKm() float64 {
	if len(p.Candidates) < 2 {
		return 0
	}
	best := p.Best().Point()
	var max float64
	for _, c := range p.Candidates[1:] {
		if d := geo.DistanceKm(best, c.Point()); d > max {
			max = d
		}
	}
	return max
}

func (p *Prediction) validate() error {
	if len(p.Candidates) == 0 {
		return fmt.Errorf("prediction has no candidates")
	}
	for i, c := range p.Candidates {
		if !c.Point().Valid() {
			return fmt.Errorf("candidate %d out of range: %v", i, c.Point())
		}
		if c.Probability < 0 || c.Probability > 1 {
			return fmt.Errorf("candidate %d probability out of range: %v", i, c.Probability)
		}
	}
	return nil
}

// Suggester produces GPS coordinate suggestions for image files.
type Suggester interface {
	// Predict returns the top-k location candidates for the image at
	// path, ordered by descending probability.
	Predict(ctx context.Context, path string) (*Prediction, error)
	// Name identifies the backend for logs and reports.
	Name() string
	// Close releases backend resources.
	Close() error
}
