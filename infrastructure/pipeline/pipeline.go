package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stage is one named step of production.
type Stage string

const (
	PartyOrder    Stage = "PartyOrder"
	Jecard        Stage = "Jecard"
	ButtaCutting  Stage = "ButtaCutting"
	Bleach        Stage = "Bleach"
	Cotting       Stage = "Cotting"
	PositionPrint Stage = "PositionPrint"
	Finish        Stage = "Finish"
	Checking      Stage = "Checking"
	Delivery      Stage = "Delivery"
)

// Part selects a stage's pending or done rows.
type Part string

const (
	Pending Part = "pending"
	Done    Part = "done"
)

var (
	ErrUnknownPipeline = errors.New("unknown pipeline")
	ErrUnknownStage    = errors.New("stage is not part of pipeline")
	ErrNoNextStage     = errors.New("stage has no next stage")
	ErrNoPendingPart   = errors.New("terminal stage has no pending rows")
)

//go:embed pipelines.yaml
var definitionsYAML []byte

// StageInfo describes a stage independent of pipeline.
type StageInfo struct {
	Name     Stage  `yaml:"name"`
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	Terminal bool   `yaml:"terminal"`
}

// Pipeline is an ordered list of stages for one product line.
type Pipeline struct {
	Name   string  `yaml:"name"`
	Title  string  `yaml:"title"`
	Stages []Stage `yaml:"stages"`
}

type definitions struct {
	Pipelines []Pipeline  `yaml:"pipelines"`
	Stages    []StageInfo `yaml:"stages"`
}

// Registry resolves pipelines, stage order and slot names.
type Registry struct {
	order     []string
	pipelines map[string]Pipeline
	stages    map[Stage]StageInfo
}

// Default loads the built-in pipeline definitions.
func Default() *Registry {
	r, err := Parse(definitionsYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in pipeline definitions: %v", err))
	}
	return r
}

// Parse builds a Registry from YAML definitions.
func Parse(data []byte) (*Registry, error) {
	var defs definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("decode pipeline definitions: %w", err)
	}
	r := &Registry{
		pipelines: make(map[string]Pipeline, len(defs.Pipelines)),
		stages:    make(map[Stage]StageInfo, len(defs.Stages)),
	}
	for _, s := range defs.Stages {
		if s.Name == "" || s.Slug == "" {
			return nil, fmt.Errorf("stage definition needs name and slug: %+v", s)
		}
		r.stages[s.Name] = s
	}
	for _, p := range defs.Pipelines {
		if p.Name == "" {
			return nil, fmt.Errorf("pipeline definition needs a name")
		}
		if len(p.Stages) < 2 || p.Stages[0] != PartyOrder {
			return nil, fmt.Errorf("pipeline %s must start with %s and have a next stage", p.Name, PartyOrder)
		}
		seen := make(map[Stage]bool, len(p.Stages))
		for i, s := range p.Stages {
			info, ok := r.stages[s]
			if !ok {
				return nil, fmt.Errorf("pipeline %s: undefined stage %s", p.Name, s)
			}
			if seen[s] {
				return nil, fmt.Errorf("pipeline %s: stage %s listed twice", p.Name, s)
			}
			seen[s] = true
			if info.Terminal && i != len(p.Stages)-1 {
				return nil, fmt.Errorf("pipeline %s: terminal stage %s must be last", p.Name, s)
			}
		}
		r.pipelines[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	return r, nil
}

// Pipelines lists pipelines in definition order.
func (r *Registry) Pipelines() []Pipeline {
	out := make([]Pipeline, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pipelines[name])
	}
	return out
}

// Get returns a pipeline by name.
func (r *Registry) Get(name string) (Pipeline, error) {
	p, ok := r.pipelines[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Pipeline{}, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	return p, nil
}

// Info returns stage metadata.
func (r *Registry) Info(s Stage) StageInfo {
	return r.stages[s]
}

// ParseStage resolves a stage by name or slug, case-insensitively.
func (r *Registry) ParseStage(v string) (Stage, error) {
	v = strings.TrimSpace(v)
	for name, info := range r.stages {
		if strings.EqualFold(string(name), v) || strings.EqualFold(info.Slug, v) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, v)
}

// Contains reports whether the pipeline runs through stage.
func (p Pipeline) Contains(s Stage) bool {
	return p.index(s) >= 0
}

func (p Pipeline) index(s Stage) int {
	for i, st := range p.Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage after s.
func (r *Registry) Next(pipelineName string, s Stage) (Stage, error) {
	p, err := r.Get(pipelineName)
	if err != nil {
		return "", err
	}
	i := p.index(s)
	if i < 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrUnknownStage, s, p.Name)
	}
	if i == len(p.Stages)-1 {
		return "", fmt.Errorf("%w: %s", ErrNoNextStage, s)
	}
	return p.Stages[i+1], nil
}

// First returns the first production stage after PartyOrder.
func (r *Registry) First(pipelineName string) (Stage, error) {
	return r.Next(pipelineName, PartyOrder)
}

// HasPending reports whether a stage keeps a pending row set.
func (r *Registry) HasPending(s Stage) bool {
	return !r.stages[s].Terminal
}

// Slot names the row set for a pipeline stage part, e.g. "jecard:white_pending".
func (r *Registry) Slot(pipelineName string, s Stage, part Part) (string, error) {
	p, err := r.Get(pipelineName)
	if err != nil {
		return "", err
	}
	if !p.Contains(s) {
		return "", fmt.Errorf("%w: %s in %s", ErrUnknownStage, s, p.Name)
	}
	if part == Pending && !r.HasPending(s) {
		return "", fmt.Errorf("%w: %s", ErrNoPendingPart, s)
	}
	return fmt.Sprintf("%s:%s_%s", r.stages[s].Slug, p.Name, part), nil
}
