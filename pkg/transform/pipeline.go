package transform

import (
	"errors"
	"fmt"
)

// Pipeline chains transforms: Apply runs stages 0..N, Reverse runs N..0.
type Pipeline struct {
	stages []Transform
}

// NewPipeline creates a pipeline over the given stages.
// Requires at least one stage. Use NewNoOpTransform() for an explicitly empty pipeline.
func NewPipeline(stages ...Transform) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline requires at least one transform; use NewNoOpTransform() for an empty pipeline")
	}

	s := make([]Transform, len(stages))
	copy(s, stages)

	return &Pipeline{
		stages: s,
	}, nil
}

// Len returns the number of stages.
func (p *Pipeline) Len() int { return len(p.stages) }

// Apply runs the stages in forward order (0..N).
func (p *Pipeline) Apply(data []byte) ([]byte, error) {
	var err error
	current := data
	for i, stage := range p.stages {
		current, err = stage.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("pipeline apply: stage %d (%T) failed: %w", i, stage, err)
		}
	}
	return current, nil
}

// Reverse undoes the stages in reverse order (N..0).
func (p *Pipeline) Reverse(data []byte) ([]byte, error) {
	var err error
	current := data
	for i := len(p.stages) - 1; i >= 0; i-- {
		stage := p.stages[i]
		current, err = stage.Reverse(current)
		if err != nil {
			return nil, fmt.Errorf("pipeline reverse: stage %d (%T) failed: %w", i, stage, err)
		}
	}
	return current, nil
}

// Run dispatches to Apply or Reverse depending on mode.
func (p *Pipeline) Run(data []byte, mode Mode) ([]byte, error) {
	if mode == Decrypt {
		return p.Reverse(data)
	}
	return p.Apply(data)
}
