package types

// MemoryNature describes what kind of memory a piece of content represents.
type MemoryNature string

const (
	NaturePassingMoment            MemoryNature = "passing_moment"
	NatureCoreIdentity             MemoryNature = "core_identity"
	NatureTransformativeExperience MemoryNature = "transformative_experience"
)

// StorySignificance describes how much the content matters to the user's
// ongoing story.
type StorySignificance string

const (
	SignificanceDailyRhythm  StorySignificance = "daily_rhythm"
	SignificanceFormative    StorySignificance = "formative"
	SignificanceLifeChanging StorySignificance = "life_changing"
)

// EmotionalResonance describes the emotional depth of the content.
type EmotionalResonance string

const (
	ResonanceSurface  EmotionalResonance = "surface"
	ResonanceDeep     EmotionalResonance = "deep"
	ResonanceProfound EmotionalResonance = "profound"
)

// KeepOrRelease is the scorer's judgment on whether the memory should be
// held onto or allowed to fade.
type KeepOrRelease string

const (
	KeepNaturallyFade KeepOrRelease = "naturally_fade"
	KeepAnchor        KeepOrRelease = "anchor"
	KeepTreasure      KeepOrRelease = "treasure"
)

// MemoryScore rates raw content on three continuous axes in [0,1] plus four
// categorical judgments. A score is produced once per content string and
// never mutated afterwards.
type MemoryScore struct {
	Relevance    float64 `json:"relevance"`
	Stability    float64 `json:"stability"`
	Explicitness float64 `json:"explicitness"`

	MemoryNature       MemoryNature       `json:"memory_nature"`
	StorySignificance  StorySignificance  `json:"story_significance"`
	EmotionalResonance EmotionalResonance `json:"emotional_resonance"`
	KeepOrRelease      KeepOrRelease      `json:"keep_or_release"`
}

// ConservativeScore is the substitute used when the scorer capability fails:
// mid-range continuous values and the least-persistent categorical settings,
// so degraded content never lands in long-term storage by accident.
func ConservativeScore() MemoryScore {
	return MemoryScore{
		Relevance:          0.5,
		Stability:          0.5,
		Explicitness:       0.5,
		MemoryNature:       NaturePassingMoment,
		StorySignificance:  SignificanceDailyRhythm,
		EmotionalResonance: ResonanceSurface,
		KeepOrRelease:      KeepNaturallyFade,
	}
}

// Clamp01 clamps a continuous score axis into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// IsValidMemoryNature reports whether the value is a recognized nature.
func IsValidMemoryNature(n MemoryNature) bool {
	switch n {
	case NaturePassingMoment, NatureCoreIdentity, NatureTransformativeExperience:
		return true
	}
	return false
}

// IsValidStorySignificance reports whether the value is a recognized significance.
func IsValidStorySignificance(s StorySignificance) bool {
	switch s {
	case SignificanceDailyRhythm, SignificanceFormative, SignificanceLifeChanging:
		return true
	}
	return false
}

// IsValidEmotionalResonance reports whether the value is a recognized resonance.
func IsValidEmotionalResonance(r EmotionalResonance) bool {
	switch r {
	case ResonanceSurface, ResonanceDeep, ResonanceProfound:
		return true
	}
	return false
}

// IsValidKeepOrRelease reports whether the value is a recognized judgment.
func IsValidKeepOrRelease(k KeepOrRelease) bool {
	switch k {
	case KeepNaturallyFade, KeepAnchor, KeepTreasure:
		return true
	}
	return false
}
