package epa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Setting is the observation setting derived from the EPA category.
type Setting string

// String returns the string representation of a setting.
func (s Setting) String() string {
	return string(s)
}

const (
	// SettingOutpatient covers clinic-based activities (EPA 1-5).
	SettingOutpatient Setting = "門診"
	// SettingInpatient covers ward and acute care (EPA 6-9).
	SettingInpatient Setting = "住院"
	// SettingCommunity covers home and community care (EPA 10-12).
	SettingCommunity Setting = "社區"
)

// Complexity is the case complexity tier derived from the diagnosis.
type Complexity string

// String returns the string representation of a complexity tier.
func (c Complexity) String() string {
	return string(c)
}

const (
	// ComplexityLow is the default tier.
	ComplexityLow Complexity = "低"
	// ComplexityMedium matches chronic-condition keywords.
	ComplexityMedium Complexity = "中"
	// ComplexityHigh matches critical-condition keywords.
	ComplexityHigh Complexity = "高"
)

// categoryNames maps legacy EPA tokens to the canonical display names
// used by the current system.
var categoryNames = map[string]string{
	"EPA1":  "01門診戒菸",
	"EPA2":  "02門診/社區衛教",
	"EPA3":  "03健康檢查",
	"EPA4":  "04預防接種",
	"EPA5":  "05門診診療",
	"EPA6":  "06急診診療",
	"EPA7":  "07住院診療",
	"EPA8":  "08急重症照護",
	"EPA9":  "09手術",
	"EPA10": "10出院準備/照護轉銜",
	"EPA11": "11末病照護/安寧緩和",
	"EPA12": "12社區照護",
}

var categoryToken = regexp.MustCompile(`EPA(\d+)`)

// categorySpellings collapses the category spelling variants the
// current system has accumulated over form revisions ("EPA05.健康檢查",
// "05.健康檢查", "05 健康檢查") onto one canonical name per item, so
// variant spellings of the same activity share a merge key.
var categorySpellings = map[string]string{
	"EPA01.門診戒菸": "01門診戒菸",

	"EPA02.門診/社區衛教":  "02門診/社區衛教",
	"EPA02.門診/社區衛教、": "02門診/社區衛教",
	"02.門診/社區衛教":    "02門診/社區衛教",
	"02. 門診/社區衛教":   "02門診/社區衛教",

	"EPA03.預防注射": "03預防注射",
	"03.預防注射":    "03預防注射",

	"EPA04.旅遊門診": "04旅遊門診",
	"04.旅遊門診":    "04旅遊門診",

	"EPA05.健康檢查": "05健康檢查",
	"05.健康檢查":    "05健康檢查",

	"EPA06.社區篩檢": "06社區篩檢",
	"06.社區篩檢":    "06社區篩檢",

	"EPA07.慢病照護": "07慢病照護",
	"07.慢病照護":    "07慢病照護",

	"EPA08.急症診療": "08急症照護",
	"EPA08.急症照護": "08急症照護",
	"08急症診療":     "08急症照護",
	"08.急症診療":    "08急症照護",
	"08.急症照護":    "08急症照護",

	"EPA09.居家整合醫療": "09居家整合醫療",
	"09.居家整合醫療":    "09居家整合醫療",

	"EPA10.出院準備/照護轉銜": "10出院準備/照護轉銜",
	"10.出院準備/照護轉銜":    "10出院準備/照護轉銜",
	"10.出院準備":         "10出院準備/照護轉銜",

	"EPA11.末病照護/安寧緩和": "11末病照護/安寧緩和",
	"11.末病照護/安寧緩和":    "11末病照護/安寧緩和",

	"EPA12.悲傷支持": "12悲傷支持",
	"12.悲傷支持":    "12悲傷支持",
	"12.社區照護":    "12社區照護",
}

// NormalizeCategory collapses a category spelling variant onto its
// canonical name. Already-canonical and unknown names pass through
// unchanged.
func NormalizeCategory(name string) string {
	name = strings.TrimSpace(name)
	if canonical, ok := categorySpellings[name]; ok {
		return canonical
	}
	return name
}

// CategoryName resolves a legacy EPA token (e.g. "EPA7") to its
// canonical display name. Unknown tokens are returned unchanged so a
// new category never silently disappears from the dataset.
func CategoryName(token string) string {
	if name, ok := categoryNames[token]; ok {
		return name
	}
	return token
}

// CategoryToken extracts the "EPA<digits>" token from a legacy export
// file name. It returns false when the name carries no token.
func CategoryToken(filename string) (string, bool) {
	m := categoryToken.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("EPA%s", m[1]), true
}

// SettingForCategory derives the observation setting from the fixed
// numeric range of the EPA category: 1-5 outpatient, 6-9 inpatient,
// 10-12 community. Unrecognized categories default to outpatient.
func SettingForCategory(token string) Setting {
	m := categoryToken.FindStringSubmatch(token)
	if m == nil {
		return SettingOutpatient
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return SettingOutpatient
	}
	switch {
	case n >= 1 && n <= 5:
		return SettingOutpatient
	case n >= 6 && n <= 9:
		return SettingInpatient
	case n >= 10 && n <= 12:
		return SettingCommunity
	default:
		return SettingOutpatient
	}
}

// Keyword tiers for complexity derivation. The high tier is checked
// first; the first matching tier wins.
var (
	highComplexityKeywords   = []string{"ohca", "stemi", "cancer", "carcinoma", "hypertension"}
	mediumComplexityKeywords = []string{"gerd", "polyp", "diabetes"}
)

// ComplexityForDiagnosis derives the case complexity from keyword
// matching against the free-text diagnosis. Matching is
// case-insensitive substring; diagnoses matching no tier are low, and
// an empty diagnosis stays unclassified.
func ComplexityForDiagnosis(diagnosis string) Complexity {
	d := strings.ToLower(strings.TrimSpace(diagnosis))
	if d == "" {
		return ""
	}
	for _, kw := range highComplexityKeywords {
		if strings.Contains(d, kw) {
			return ComplexityHigh
		}
	}
	for _, kw := range mediumComplexityKeywords {
		if strings.Contains(d, kw) {
			return ComplexityMedium
		}
	}
	return ComplexityLow
}
