// Package scope implements the Resolution Scope Tracker (spec.md §4.3):
// per-file policy over what typeclasses/extensions/macros are
// implicitly in scope, and the lexical opt-out directive walk.
//
// Grounded on internal/effects/capability.go's grant/deny-by-default
// Capability shape: here a "feature" plays the role a runtime effect
// plays in the teacher, and an opt-out plays the role of an absent
// grant — policy is still evaluated per file rather than globally.
package scope

// Mode is the file's resolution policy (spec.md §3).
type Mode int

const (
	ModeAutomatic Mode = iota
	ModeImportScoped
	ModeExplicit
)

// Feature is one of the finite opt-out-able feature set (spec.md §4.3).
type Feature string

const (
	FeatureOperators  Feature = "operators"
	FeatureDerive     Feature = "derive"
	FeatureExtensions Feature = "extensions"
	FeatureTypeclasses Feature = "typeclasses"
	FeatureMacros     Feature = "macros"
)

var allFeatures = []Feature{FeatureOperators, FeatureDerive, FeatureExtensions, FeatureTypeclasses, FeatureMacros}

// IsFeature reports whether s names one of the finite features.
func IsFeature(s string) (Feature, bool) {
	f := Feature(s)
	for _, known := range allFeatures {
		if known == f {
			return f, true
		}
	}
	return "", false
}

// Tracker is the per-file Resolution Scope (spec.md §3).
type Tracker struct {
	Mode                Mode
	ImportedTypeclasses map[string]string // name -> origin module
	ImportedExtensions  map[string]string

	prelude map[string]bool

	optedOut         bool
	optedOutFeatures map[Feature]bool
}

// New creates a Tracker in the given mode with a configured prelude
// (config `resolution.prelude`, spec.md §6).
func New(mode Mode, prelude []string) *Tracker {
	p := make(map[string]bool, len(prelude))
	for _, name := range prelude {
		p[name] = true
	}
	return &Tracker{
		Mode:                mode,
		ImportedTypeclasses: map[string]string{},
		ImportedExtensions:  map[string]string{},
		prelude:             p,
		optedOutFeatures:    map[Feature]bool{},
	}
}

// SetFileOptOut records the file-level kill switch (spec.md §4.3). If
// features is empty the whole file is opted out; otherwise only the
// named features are.
func (t *Tracker) SetFileOptOut(features ...Feature) {
	if len(features) == 0 {
		t.optedOut = true
		return
	}
	for _, f := range features {
		t.optedOutFeatures[f] = true
	}
}

// IsFileOptedOut reports whether the whole file opted out (spec.md
// invariant "file-level opt-out dominates all features").
func (t *Tracker) IsFileOptedOut() bool { return t.optedOut }

// IsInScope reports whether typeclassName is available at this file's
// resolution policy, honoring opt-out (spec.md §4.3 "is_in_scope").
func (t *Tracker) IsInScope(typeclassName string) bool {
	if t.optedOut || t.optedOutFeatures[FeatureTypeclasses] {
		return false
	}
	switch t.Mode {
	case ModeAutomatic:
		return true
	case ModeImportScoped:
		if t.prelude[typeclassName] {
			return true
		}
		_, ok := t.ImportedTypeclasses[typeclassName]
		return ok
	case ModeExplicit:
		return false
	default:
		return false
	}
}
