// Package vocabulary normalizes free-text reliability (supervision
// trust) descriptions from either source system to a canonical ordinal
// in the closed range [1.0, 5.0]. The table is exhaustive for every
// variant spelling observed in input data, including OCR typos and
// whitespace-padded duplicates; anything outside it normalizes to
// nothing rather than a fabricated default.
package vocabulary

import (
	"strconv"
	"strings"
)

// levels maps every known description variant to its ordinal.
// Sub-level granularity (3.3, 3.6, 4.5) is preserved.
var levels = map[string]float64{
	// Supervision rubric descriptions.
	"不允許學員觀察":             1,
	"學員在旁觀察":              1.5,
	"允許學員在旁觀察":            1.5,
	"教師在旁逐步共同操作":          2,
	"教師在旁必要時協助":           2.5,
	"教師可立即到場協助，事後逐項確認":    3,
	"教師可立即到場協助，事後重點確認":    3.3,
	"教師可稍後到場協助，必要時事後確認":   3.6,
	"教師on call提供監督":       4,
	"教師不需on call，事後提供回饋及監督": 4.5,
	"學員可對其他資淺的學員進行監督與教學":  5,

	// Support-text variants from older forms.
	"教師可立即到場協助，事後須再確認": 3,
	"教師事後重點確認":         3,
	"必要時知會教師確認":        4,
	"教師可稍後到場協助，重點須再確認": 4,
	"我可獨立執行":           5,
	"獨立執行":             5,

	// Level spellings, including the observed OCR typos.
	"Level I":   1,
	"Level 1":   1,
	"Level1":    1,
	"Level 1&2": 1.5,
	"Level1&2":  1.5,
	"LevelI&2":  1.5,
	"Level&2":   1.5,
	"Level II":  2,
	"Level 2":   2,
	"Level2":    2,
	"Level 2a":  2,
	"Level2a":   2,
	"Level 2b":  2.5,
	"Level2b":   2.5,
	"Level 2&3": 2.5,
	"Level2&3":  2.5,
	"Leve 2&3":  2.5,
	"Level III": 3,
	"Level 3":   3,
	"Level3":    3,
	"Level 3a":  3,
	"Level3a":   3,
	"Level 3b":  3.3,
	"Level3b":   3.3,
	"Level 3c":  3.6,
	"Level3c":   3.6,
	"Level 3&4": 3.5,
	"Level3&4":  3.5,
	"Leve 3&4":  3.5,
	"Lvel 3&4":  3.5,
	"Level IV":  4,
	"Level 4":   4,
	"Level4":    4,
	"Level 4&5": 4.5,
	"Level4&5":  4.5,
	"Level V":   5,
	"Level 5":   5,
	"Level5":    5,
}

// canonicalLabels maps whole ordinals back to the labels the legacy
// converter writes when a score arrives as a bare number.
var canonicalLabels = map[float64]string{
	1: "教師在旁逐步共同操作",
	2: "教師在旁必要時協助",
	3: "教師事後重點確認",
	4: "必要時知會教師確認",
	5: "獨立執行",
}

// Normalize maps a free-text reliability description to its canonical
// ordinal. The second return value reports whether the text was
// recognized; unknown or empty text yields (0, false), never an error.
//
// Variants differing only in surrounding whitespace or "Level"
// capitalization resolve to the same ordinal as their canonical form.
// Bare numerics in [1, 5] are accepted as-is.
func Normalize(text string) (float64, bool) {
	if v, ok := levels[text]; ok {
		return v, true
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	if v, ok := levels[trimmed]; ok {
		return v, true
	}

	// "level 2a", "LEVEL 2a" etc. resolve as their canonical casing.
	if lower := strings.ToLower(trimmed); strings.HasPrefix(lower, "level") || strings.HasPrefix(lower, "leve") || strings.HasPrefix(lower, "lvel") {
		folded := "Level" + strings.TrimLeft(trimmed, "LlEeVv")
		if v, ok := levels[folded]; ok {
			return v, true
		}
	}

	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if v >= 1 && v <= 5 {
			return v, true
		}
		return 0, false
	}

	return 0, false
}

// Label returns the canonical human-readable label for a whole-number
// ordinal. It reports false for scores with no canonical label; those
// keep their original spelling in the dataset.
func Label(score float64) (string, bool) {
	label, ok := canonicalLabels[score]
	return label, ok
}
