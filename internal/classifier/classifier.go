// Package classifier turns a MemoryScore into a StorageCategory using a
// deterministic, configurable decision table. Classification is pure and
// total: any combination of categorical values, including ones the scorer
// was never expected to emit, falls back to the short-term tier.
package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// AnchorRule matches the emotional-anchor category: both fields must match
// the score exactly.
type AnchorRule struct {
	EmotionalResonance string `yaml:"emotional_resonance"`
	KeepOrRelease      string `yaml:"keep_or_release"`
}

// LongTermRule matches the long-term category: either the keep/release
// judgment is in KeepOrRelease, or the nature AND significance are both in
// their respective lists.
type LongTermRule struct {
	KeepOrRelease      []string `yaml:"keep_or_release"`
	MemoryNatures      []string `yaml:"memory_natures"`
	StorySignificances []string `yaml:"story_significances"`
}

// Rules is the full decision table. The zero value classifies everything
// as short_term; use DefaultRules for the standard table.
type Rules struct {
	EmotionalAnchor AnchorRule   `yaml:"emotional_anchor"`
	LongTerm        LongTermRule `yaml:"long_term"`
}

// DefaultRules returns the standard decision table:
//
//	emotional_anchor: resonance == profound && keep == anchor
//	long_term:        keep == treasure, or
//	                  nature ∈ {core_identity, transformative_experience}
//	                  && significance ∈ {formative, life_changing}
//	short_term:       everything else
func DefaultRules() Rules {
	return Rules{
		EmotionalAnchor: AnchorRule{
			EmotionalResonance: string(types.ResonanceProfound),
			KeepOrRelease:      string(types.KeepAnchor),
		},
		LongTerm: LongTermRule{
			KeepOrRelease: []string{string(types.KeepTreasure)},
			MemoryNatures: []string{
				string(types.NatureCoreIdentity),
				string(types.NatureTransformativeExperience),
			},
			StorySignificances: []string{
				string(types.SignificanceFormative),
				string(types.SignificanceLifeChanging),
			},
		},
	}
}

// LoadRules reads a decision table from a yaml file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("classifier: failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("classifier: failed to parse rules file: %w", err)
	}
	return rules, nil
}

// Classify maps a score onto a storage category. It is a pure function of
// (rules, score) with no side effects.
func (r Rules) Classify(score types.MemoryScore) types.StorageCategory {
	if r.EmotionalAnchor.EmotionalResonance != "" &&
		string(score.EmotionalResonance) == r.EmotionalAnchor.EmotionalResonance &&
		string(score.KeepOrRelease) == r.EmotionalAnchor.KeepOrRelease {
		return types.CategoryEmotionalAnchor
	}

	if contains(r.LongTerm.KeepOrRelease, string(score.KeepOrRelease)) {
		return types.CategoryLongTerm
	}
	if contains(r.LongTerm.MemoryNatures, string(score.MemoryNature)) &&
		contains(r.LongTerm.StorySignificances, string(score.StorySignificance)) {
		return types.CategoryLongTerm
	}

	return types.CategoryShortTerm
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
