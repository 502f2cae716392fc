// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the tunable heuristic constants for ArchScope.
//
// Pattern thresholds, step weights and critical-path knobs are policy
// values, not derived truths. They ship with embedded defaults and can be
// overridden from a YAML file, so tests and operators can tune them without
// rebuilding.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// PatternConfig tunes the architectural pattern detectors.
type PatternConfig struct {
	// LayeringMinConfidence is the minimum service→repository call ratio
	// required to report a layered architecture.
	LayeringMinConfidence float64 `yaml:"layering_min_confidence"`

	// InjectionMinConfidence is the minimum field-wiring ratio required
	// to report dependency-injection shape.
	InjectionMinConfidence float64 `yaml:"injection_min_confidence"`

	// CouplingMinRatio is the minimum highly-coupled node ratio required
	// to report a high-coupling finding.
	CouplingMinRatio float64 `yaml:"coupling_min_ratio"`

	// CouplingFanOut is the outgoing-edge count above which a node counts
	// as highly coupled.
	CouplingFanOut int `yaml:"coupling_fan_out"`
}

// TraceConfig bounds execution path enumeration.
type TraceConfig struct {
	// MaxPaths is the hard global cap on emitted paths per request.
	MaxPaths int `yaml:"max_paths"`

	// MaxDepth is the default depth limit when the request supplies none.
	MaxDepth int `yaml:"max_depth"`

	// EdgeLimit is the per-node edge fetch cap during path enumeration.
	EdgeLimit int `yaml:"edge_limit"`
}

// StepWeights are the additive complexity costs per step classification.
type StepWeights struct {
	MethodCall         float64 `yaml:"method_call"`
	DataValidation     float64 `yaml:"data_validation"`
	DatabaseAccess     float64 `yaml:"database_access"`
	ExternalAPICall    float64 `yaml:"external_api_call"`
	ExceptionHandling  float64 `yaml:"exception_handling"`
	DataTransformation float64 `yaml:"data_transformation"`
}

// CriticalConfig tunes critical-path ranking and performance estimation.
type CriticalConfig struct {
	// ComplexityFloor is the minimum complexity for a path to rank as critical.
	ComplexityFloor float64 `yaml:"complexity_floor"`

	// TopK is the maximum number of critical paths reported.
	TopK int `yaml:"top_k"`

	// DeepStackDepth is the call depth above which a path is flagged deep.
	DeepStackDepth int `yaml:"deep_stack_depth"`

	// VeryHighComplexity triggers the very-high-complexity factor.
	VeryHighComplexity float64 `yaml:"very_high_complexity"`

	// MultipleDBThreshold is the database step count that triggers the
	// multiple-database-roundtrips factor.
	MultipleDBThreshold int `yaml:"multiple_db_threshold"`

	// StepLatencyMS, DBLatencyMS and APILatencyMS feed the coarse latency
	// estimate: steps*StepLatencyMS + db*DBLatencyMS + api*APILatencyMS.
	StepLatencyMS int `yaml:"step_latency_ms"`
	DBLatencyMS   int `yaml:"db_latency_ms"`
	APILatencyMS  int `yaml:"api_latency_ms"`
}

// Config aggregates all heuristic tuning for the engine.
type Config struct {
	Patterns PatternConfig  `yaml:"patterns"`
	Trace    TraceConfig    `yaml:"trace"`
	Weights  StepWeights    `yaml:"step_weights"`
	Critical CriticalConfig `yaml:"critical"`
}

// Default returns the embedded default configuration.
//
// The embedded defaults are validated at package init; Default never fails.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// Embedded defaults are compiled in; a parse failure is a build defect.
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads a YAML override file on top of the embedded defaults.
//
// Description:
//
//	Fields absent from the file keep their default values. The merged
//	configuration is validated before being returned.
//
// Inputs:
//
//	path - Path to a YAML config file.
//
// Outputs:
//
//	Config - The merged configuration.
//	error - Non-nil if the file cannot be read, parsed or validated.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are internally consistent.
func (c Config) Validate() error {
	if c.Patterns.LayeringMinConfidence < 0 || c.Patterns.LayeringMinConfidence > 1 {
		return fmt.Errorf("patterns.layering_min_confidence must be in [0,1], got %v", c.Patterns.LayeringMinConfidence)
	}
	if c.Patterns.InjectionMinConfidence < 0 || c.Patterns.InjectionMinConfidence > 1 {
		return fmt.Errorf("patterns.injection_min_confidence must be in [0,1], got %v", c.Patterns.InjectionMinConfidence)
	}
	if c.Patterns.CouplingMinRatio < 0 || c.Patterns.CouplingMinRatio > 1 {
		return fmt.Errorf("patterns.coupling_min_ratio must be in [0,1], got %v", c.Patterns.CouplingMinRatio)
	}
	if c.Patterns.CouplingFanOut <= 0 {
		return fmt.Errorf("patterns.coupling_fan_out must be positive, got %d", c.Patterns.CouplingFanOut)
	}
	if c.Trace.MaxPaths <= 0 {
		return fmt.Errorf("trace.max_paths must be positive, got %d", c.Trace.MaxPaths)
	}
	if c.Trace.MaxDepth <= 0 {
		return fmt.Errorf("trace.max_depth must be positive, got %d", c.Trace.MaxDepth)
	}
	if c.Trace.EdgeLimit <= 0 {
		return fmt.Errorf("trace.edge_limit must be positive, got %d", c.Trace.EdgeLimit)
	}
	if c.Critical.TopK <= 0 {
		return fmt.Errorf("critical.top_k must be positive, got %d", c.Critical.TopK)
	}
	if c.Critical.ComplexityFloor < 0 {
		return fmt.Errorf("critical.complexity_floor must be non-negative, got %v", c.Critical.ComplexityFloor)
	}
	return nil
}
