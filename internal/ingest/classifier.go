package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// rolePattern pairs a role with the header-name alternatives that identify
// it. The table order is the tie-break order: the first role with any
// matching alternative wins, and suggestion lists with equal confidence keep
// this ordering.
type rolePattern struct {
	role     Role
	patterns []*regexp.Regexp
}

var rolePatterns = []rolePattern{
	{RoleSource, compileAll("english", "source", "original", "text", "content")},
	{RoleTarget, compileAll("spanish", "french", "german", "target", "translation", "translated")},
	{RoleContext, compileAll("context", "note", "comment", "description", "info")},
	{RoleStatus, compileAll("status", "state", "progress", "done", "new", "complete")},
	{RoleKey, compileAll("id", "key", "identifier", "ref", "number")},
}

func compileAll(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(w)
	}
	return out
}

// languageCodes maps language names appearing in headers to ISO-639-1 codes.
// Kept as an ordered slice so a header naming several languages always
// resolves to the same code.
var languageCodes = []struct {
	name string
	code string
}{
	{"english", "en"},
	{"spanish", "es"},
	{"french", "fr"},
	{"german", "de"},
	{"italian", "it"},
	{"portuguese", "pt"},
	{"chinese", "zh"},
	{"japanese", "ja"},
	{"korean", "ko"},
	{"russian", "ru"},
	{"arabic", "ar"},
}

const (
	patternConfidence    = 0.8
	positionalConfidence = 0.6
	contextConfidence    = 0.4
	skipConfidence       = 0.3
)

// Classify suggests semantic roles for one column. It is a pure function of
// the profile and header cell: the same inputs always produce the same
// ordered list. The list is never empty and always contains a skip entry so
// callers have a safe default; malformed input degrades to skip rather than
// erroring.
func Classify(profile ColumnProfile, headerCell string) []RoleSuggestion {
	header := strings.ToLower(strings.TrimSpace(headerCell))
	if header == "" {
		header = strings.ToLower(profile.Name)
	}

	primary := classifyPrimary(profile, header)

	suggestions := []RoleSuggestion{primary}
	if primary.Role != RoleSkip {
		suggestions = append(suggestions, RoleSuggestion{
			Role:       RoleSkip,
			Confidence: skipConfidence,
			Reason:     "Skip this column",
		})
	}
	return suggestions
}

func classifyPrimary(profile ColumnProfile, header string) RoleSuggestion {
	// Header-name patterns first; the fixed table order breaks ties.
	for _, rp := range rolePatterns {
		for _, re := range rp.patterns {
			if re.MatchString(header) {
				return RoleSuggestion{
					Role:         rp.role,
					Confidence:   patternConfidence,
					Reason:       fmt.Sprintf("Column name matches %s pattern", rp.role),
					LanguageCode: extractLanguageCode(header, rp.role),
				}
			}
		}
	}

	// No name match: fall back to position for populated text columns.
	if profile.DataType == TypeText && !profile.IsEmpty {
		switch profile.Index {
		case 0:
			return RoleSuggestion{
				Role:       RoleSource,
				Confidence: positionalConfidence,
				Reason:     "First text column, likely source",
			}
		case 1:
			return RoleSuggestion{
				Role:       RoleTarget,
				Confidence: positionalConfidence,
				Reason:     "Second text column, likely target",
			}
		default:
			return RoleSuggestion{
				Role:       RoleContext,
				Confidence: contextConfidence,
				Reason:     "Additional text column, likely context",
			}
		}
	}

	return RoleSuggestion{
		Role:       RoleSkip,
		Confidence: skipConfidence,
		Reason:     "Unclear column purpose",
	}
}

// extractLanguageCode looks for a known language name inside the header.
// Only source and target columns carry language codes; the result is
// advisory and never blocks a mapping.
func extractLanguageCode(header string, role Role) string {
	if role != RoleSource && role != RoleTarget {
		return ""
	}
	for _, lang := range languageCodes {
		if strings.Contains(header, lang.name) {
			return lang.code
		}
	}
	return ""
}
