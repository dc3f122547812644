package blend

import (
	"strings"
)

const (
	DefaultMultiplier = 1.0
	MaxMultiplier     = 2.0
)

// Evaluator roles recognised by the default table.
const (
	RolePhDStudent = "phd_student"
	RoleResearcher = "researcher"
	RolePostDoc    = "postdoc"
	RoleProfessor  = "professor"
)

// ExpertiseTable maps a normalized role name to its rating multiplier.
type ExpertiseTable map[string]float64

// DefaultExpertise returns the stock role weights.
func DefaultExpertise() ExpertiseTable {
	return ExpertiseTable{
		RolePhDStudent: 1.2,
		RoleResearcher: 1.5,
		RolePostDoc:    1.7,
		RoleProfessor:  2.0,
	}
}

// Multiplier looks up a role. "PhD Student", "phd-student" and "phd_student"
// all resolve to the same entry; unknown roles get DefaultMultiplier.
func (t ExpertiseTable) Multiplier(role string) float64 {
	key := NormalizeRole(role)
	if key == "" {
		return DefaultMultiplier
	}
	if m, ok := t[key]; ok {
		return clip(m, DefaultMultiplier, MaxMultiplier)
	}
	// "Post-Doc" and "PostDoc" normalize differently
	if m, ok := t[strings.ReplaceAll(key, "_", "")]; ok {
		return clip(m, DefaultMultiplier, MaxMultiplier)
	}
	return DefaultMultiplier
}

// Merge returns a copy of t with overrides applied on top.
func (t ExpertiseTable) Merge(overrides map[string]float64) ExpertiseTable {
	out := make(ExpertiseTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[NormalizeRole(k)] = v
	}
	return out
}

// NormalizeRole lower-cases a role and joins its words with underscores.
func NormalizeRole(role string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(role)), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	})
	return strings.Join(fields, "_")
}
