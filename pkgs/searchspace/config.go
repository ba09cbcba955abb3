// Package searchspace enumerates mutated architecture codes: for one block of
// a parsed sequence it sweeps channel-width ratios, sub-layer deltas and
// bottleneck ratios over a configurable rule set and emits deduplicated
// candidate codes in a reproducible order.
package searchspace

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Rules configures the candidate sweep: the ratios widths are multiplied by,
// how far sub-layer counts wander, the channel rounding discipline, and the
// replacement type families proposed for composite blocks.
type Rules struct {
	// ChannelRatios multiply the current out/bottleneck width. Their order
	// fixes the enumeration order of candidates, most aggressive first.
	ChannelRatios []float64 `yaml:"channel_ratios" validate:"required,min=1,dive,gt=0"`
	// SubLayerDeltas are added to the current sub-layer count.
	SubLayerDeltas []int `yaml:"sub_layer_deltas" validate:"required,min=1"`
	// ChannelBase snaps every swept width to a multiple of itself.
	ChannelBase int `yaml:"channel_base" validate:"gte=1"`
	// MinChannels floors every swept width before rounding.
	MinChannels int `yaml:"min_channels" validate:"gte=1"`
	// Families are the interchangeable type sets swept for composite blocks.
	Families []TypeFamily `yaml:"families" validate:"required,min=1,dive"`
}

// TypeFamily groups interchangeable block types with their channel rounding
// discipline. Zero-valued base and minimum fall back to the rule-set values.
type TypeFamily struct {
	Types       []string `yaml:"types" validate:"required,min=1,dive,required"`
	ChannelBase int      `yaml:"channel_base" validate:"omitempty,gte=1"`
	MinChannels int      `yaml:"min_channels" validate:"omitempty,gte=1"`
}

var validate = validator.New()

// DefaultRules returns the standard sweep: ratio set
// {2.5, 2, 1.5, 1.25, 1, 0.8, 0.667, 0.5, 0.4}, sub-layer deltas within ±2,
// widths snapped to multiples of 8 with a floor of 8, and one replacement
// family sweeping the OSA kernel sizes.
func DefaultRules() *Rules {
	return &Rules{
		ChannelRatios:  []float64{2.5, 2, 1.5, 1.25, 1, 0.8, 0.667, 0.5, 0.4},
		SubLayerDeltas: []int{2, 1, 0, -1, -2},
		ChannelBase:    8,
		MinChannels:    8,
		Families: []TypeFamily{
			{Types: []string{"SuperVoVK3L2", "SuperVoVK5L2", "SuperVoVK7L2"}},
		},
	}
}

// LoadRules reads a YAML rule set from path. Fields absent from the file keep
// their default values; the merged result is validated before use.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search rules: %w", err)
	}
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parse search rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate checks the rule set's structural constraints.
func (r *Rules) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid search rules: %w", err)
	}
	return nil
}

// familyBase resolves the rounding base for a family.
func (r *Rules) familyBase(f TypeFamily) int {
	if f.ChannelBase > 0 {
		return f.ChannelBase
	}
	return r.ChannelBase
}

// familyMinChannels resolves the minimum width for a family.
func (r *Rules) familyMinChannels(f TypeFamily) int {
	if f.MinChannels > 0 {
		return f.MinChannels
	}
	return r.MinChannels
}
