package audience

import (
	"strings"

	"github.com/google/uuid"
)

// Allocation is one group's share of a persona-generation request.
type Allocation struct {
	GroupID string
	Count   int
}

// Distribute splits total across the groups remainder-fairly: every group
// gets total/len(groupIDs), and the first total%len(groupIDs) groups (in
// input order) get one extra. Groups allocated zero are dropped, so the
// model is never asked to match an allocation that includes empty groups;
// the effective total is the sum of the surviving counts.
func Distribute(total int, groupIDs []string) []Allocation {
	if total < 1 || len(groupIDs) == 0 {
		return nil
	}

	base := total / len(groupIDs)
	remainder := total % len(groupIDs)

	out := make([]Allocation, 0, len(groupIDs))
	for i, id := range groupIDs {
		n := base
		if i < remainder {
			n++
		}
		if n == 0 {
			continue
		}
		out = append(out, Allocation{GroupID: id, Count: n})
	}
	return out
}

// EffectiveTotal is the sum of the surviving allocations' counts.
func EffectiveTotal(allocs []Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Count
	}
	return total
}

// Assigner places generated personas into groups without ever exceeding a
// group's allocation. The model is asked — not forced — to echo group ids,
// so this is the local backstop that makes the persisted distribution match
// the requested one even when the model drifts.
type Assigner struct {
	order     []string
	remaining map[string]int
}

// NewAssigner seeds per-group quotas from a distribution.
func NewAssigner(allocs []Allocation) *Assigner {
	a := &Assigner{
		order:     make([]string, 0, len(allocs)),
		remaining: make(map[string]int, len(allocs)),
	}
	for _, al := range allocs {
		a.order = append(a.order, al.GroupID)
		a.remaining[al.GroupID] = al.Count
	}
	return a
}

// Assign returns the group the persona actually goes into. The claimed id
// is kept when it still has quota; otherwise the first group (in original
// order) with quota takes it. If every quota is spent — which cannot happen
// when the model respects the requested total, but is handled anyway — the
// first group absorbs the overflow without decrementing below zero. An
// assigner with no groups keeps the claimed id as-is.
func (a *Assigner) Assign(claimedGroupID string) string {
	id := strings.TrimSpace(claimedGroupID)
	if id == "" {
		id = "group-" + uuid.NewString()
	}

	if n, ok := a.remaining[id]; ok && n > 0 {
		a.remaining[id] = n - 1
		return id
	}
	for _, g := range a.order {
		if a.remaining[g] > 0 {
			a.remaining[g]--
			return g
		}
	}
	if len(a.order) == 0 {
		return id
	}
	return a.order[0]
}

// Remaining reports the unspent quota for a group.
func (a *Assigner) Remaining(groupID string) int {
	return a.remaining[groupID]
}
