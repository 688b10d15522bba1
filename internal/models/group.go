package models

// Group is a named balance sheet anchored to its creator. Members maps
// each member username (creator excluded) to the amount that member owes
// the creator through this group. Member balances are tracked relative to
// the creator only, so they need not sum to zero.
type Group struct {
	// Name is unique among the groups of one creator, not globally.
	Name string `json:"name"`

	// Members holds the per-member balances toward the creator.
	Members map[string]float64 `json:"members"`

	// Reasons is the shared log of why balances moved.
	Reasons []string `json:"reasons,omitempty"`
}

// NewGroup creates a group with every member balance at zero.
func NewGroup(name string, members ...string) *Group {
	g := &Group{
		Name:    name,
		Members: make(map[string]float64, len(members)),
	}
	for _, m := range members {
		g.Members[m] = 0
	}
	return g
}

// MemberCount includes the implicit creator.
func (g *Group) MemberCount() int {
	return len(g.Members) + 1
}

// SplitAmong raises every member balance by the even share of amount
// across all members plus the creator, logging reason.
func (g *Group) SplitAmong(amount float64, reason string) {
	share := amount / float64(g.MemberCount())
	for m := range g.Members {
		g.Members[m] += share
	}
	g.Reasons = append(g.Reasons, reason)
}

// Pay lowers member's balance by amount. It reports false when member is
// not part of the group.
func (g *Group) Pay(member string, amount float64) bool {
	if _, ok := g.Members[member]; !ok {
		return false
	}
	g.Members[member] -= amount
	return true
}

// Finished reports whether every member balance is exactly zero.
func (g *Group) Finished() bool {
	for _, balance := range g.Members {
		if balance != 0 {
			return false
		}
	}
	return true
}
