package protocol

import (
	"sort"
	"strings"

	"github.com/ilievs/splitwise/internal/ledger"
	"github.com/ilievs/splitwise/internal/models"
)

const notificationBorder = "***************************"

// friendsSummary lists every friend with a non-zero balance, one line
// each, from the owner's point of view. Friends are sorted by name so
// the output is stable.
func friendsSummary(u *models.User) string {
	var b strings.Builder
	for _, name := range sortedFriends(u) {
		entry := u.Friends[name]
		switch {
		case entry.Balance < 0:
			b.WriteString(name + " you owe " + ledger.FormatAmount(-entry.Balance) +
				" " + formatReasons(entry.Reasons) + "\n")
		case entry.Balance > 0:
			b.WriteString(name + " owe you " + ledger.FormatAmount(entry.Balance) +
				" " + formatReasons(entry.Reasons) + "\n")
		}
	}
	return b.String()
}

// oweSummary is the login notification block: only the friends this user
// owes money to, framed by a border.
func oweSummary(u *models.User) string {
	var b strings.Builder
	b.WriteString(notificationBorder + "\n")
	for _, name := range sortedFriends(u) {
		entry := u.Friends[name]
		if entry.Balance < 0 {
			b.WriteString("You owe " + name + " " + ledger.FormatAmount(-entry.Balance) +
				"BGN" + formatReasons(entry.Reasons) + "\n")
		}
	}
	b.WriteString(notificationBorder)
	return b.String()
}

// unfinishedGroups lists every group of u that still has at least one
// non-zero member balance.
func unfinishedGroups(u *models.User) string {
	names := make([]string, 0, len(u.Groups))
	for name := range u.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		g := u.Groups[name]
		if g.Finished() {
			continue
		}
		b.WriteString("Group: " + g.Name + " " + formatBalances(g.Members) +
			" " + formatReasons(g.Reasons) + "\n")
	}
	return b.String()
}

func sortedFriends(u *models.User) []string {
	names := make([]string, 0, len(u.Friends))
	for name := range u.Friends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatReasons renders a reason log as "[a, b, c]".
func formatReasons(reasons []string) string {
	return "[" + strings.Join(reasons, ", ") + "]"
}

// formatBalances renders member balances as "{alice=30, bob=15}", sorted
// by member name.
func formatBalances(balances map[string]float64) string {
	members := make([]string, 0, len(balances))
	for m := range balances {
		members = append(members, m)
	}
	sort.Strings(members)

	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m + "=" + ledger.FormatAmount(balances[m])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
