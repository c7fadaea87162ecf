package curriculum

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/domain/progress"
)

// OverrideKeyStrategy decides which requirements at different scopes describe
// the same logical task. Requirements sharing a key override one another.
type OverrideKeyStrategy interface {
	Key(r *Requirement) string
}

// CodeOrDescriptionKey keys on (rank class, badge, code), falling back to the
// normalized description when the requirement has no code. Typos between copies
// are not reconciled; such pairs are both emitted.
type CodeOrDescriptionKey struct{}

func (CodeOrDescriptionKey) Key(r *Requirement) string {
	if r == nil {
		return ""
	}
	badge := ""
	if r.BadgeID != nil {
		badge = r.BadgeID.String()
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.RankClass))
	b.WriteByte('|')
	b.WriteString(badge)
	b.WriteByte('|')
	if code := strings.TrimSpace(r.Code); code != "" {
		b.WriteString("c:")
		b.WriteString(code)
	} else {
		b.WriteString("d:")
		b.WriteString(NormalizeDescription(r.Description))
	}
	return b.String()
}

// NormalizeDescription trims and case-folds. Inner spacing is kept as written.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolved is one row of a member's effective requirement list.
type Resolved struct {
	Requirement *Requirement
	Progress    *progress.ProgressRecord
	// Inherited is set when Progress belongs to an overridden requirement.
	Inherited bool
}

// Resolve applies scope precedence to candidates and attaches progress.
//
// For every override key only requirements at the highest scope present survive.
// A survivor without its own progress borrows the record of the highest-precedence
// suppressed requirement that has one. Records are never merged or mutated.
func Resolve(candidates []*Requirement, progressByReq map[uuid.UUID]*progress.ProgressRecord, keys OverrideKeyStrategy) []Resolved {
	if keys == nil {
		keys = CodeOrDescriptionKey{}
	}
	groups := make(map[string][]*Requirement)
	order := make([]string, 0)
	for _, r := range candidates {
		if r == nil {
			continue
		}
		k := keys.Key(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]Resolved, 0, len(candidates))
	for _, k := range order {
		group := groups[k]
		top := 0
		for _, r := range group {
			if p := Precedence(r.Scope); p > top {
				top = p
			}
		}
		var winners, suppressed []*Requirement
		for _, r := range group {
			if Precedence(r.Scope) == top {
				winners = append(winners, r)
			} else {
				suppressed = append(suppressed, r)
			}
		}
		sort.SliceStable(suppressed, func(i, j int) bool {
			return Precedence(suppressed[i].Scope) > Precedence(suppressed[j].Scope)
		})
		for _, w := range winners {
			row := Resolved{Requirement: w, Progress: progressByReq[w.ID]}
			if row.Progress == nil {
				for _, s := range suppressed {
					if p := progressByReq[s.ID]; p != nil {
						row.Progress = p
						row.Inherited = true
						break
					}
				}
			}
			out = append(out, row)
		}
	}
	SortResolved(out)
	return out
}

// SortResolved orders rows by (area, code, description); empty area or code
// sorts after populated ones. ID breaks remaining ties.
func SortResolved(rows []Resolved) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Requirement, rows[j].Requirement
		if c := compareEmptyLast(a.Area, b.Area); c != 0 {
			return c < 0
		}
		if c := compareEmptyLast(a.Code, b.Code); c != 0 {
			return c < 0
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.ID.String() < b.ID.String()
	})
}

func compareEmptyLast(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}

// CountApproved returns (approved, total) over resolved rows, counting inherited
// approvals toward the overriding requirement.
func CountApproved(rows []Resolved) (int, int) {
	approved := 0
	for _, r := range rows {
		if r.Progress.IsApproved() {
			approved++
		}
	}
	return approved, len(rows)
}
