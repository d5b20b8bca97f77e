package suggest

import (
	"context"
	"fmt"
	"path/filepath"
)

// Static returns pre-authored predictions keyed by file base name.
// Deterministic: validates the scan pipeline without a model.
type Static struct {
	predictions map[string]*Prediction
}

// NewStatic creates an empty Static suggester.
func NewStatic() *Static {
	return &Static{predictions: make(map[string]*Prediction)}
}

// Set registers the prediction returned for any path whose base name
// matches name.
func (s *Static) Set(name string, p *Prediction) {
	s.predictions[name] = p
}

// SetBest registers a single-candidate prediction, the common test case.
func (s *Static) SetBest(name string, lat, lon, probability float64) {
	s.Set(name, &Prediction{Candidates: []Candidate{
		{Lat: lat, Lon: lon, Probability: probability},
	}})
}

func (s *Static) Name() string { return "static" }

func (s *Static) Close() error { return nil }

// Predict returns the registered prediction for the path's base name.
func (s *Static) Predict(_ context.Context, path string) (*Prediction, error) {
	p, ok := s.predictions[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("static: no prediction for %q", filepath.Base(path))
	}
	return p, nil
}
