package models

import "testing"

func TestGroupSplitAmong(t *testing.T) {
	g := NewGroup("trip", "bobmartins", "caroljones")

	if got := g.MemberCount(); got != 3 {
		t.Fatalf("MemberCount = %d, want 3 (two members plus creator)", got)
	}

	g.SplitAmong(90, "hotel-90BGN")
	for member, balance := range g.Members {
		if balance != 30 {
			t.Errorf("balance of %s = %v, want 30", member, balance)
		}
	}
	if len(g.Reasons) != 1 || g.Reasons[0] != "hotel-90BGN" {
		t.Errorf("Reasons = %v, want [hotel-90BGN]", g.Reasons)
	}
}

func TestGroupPay(t *testing.T) {
	g := NewGroup("trip", "bobmartins", "caroljones")
	g.SplitAmong(90, "hotel-90BGN")

	if !g.Pay("bobmartins", 30) {
		t.Fatal("Pay for a member returned false")
	}
	if got := g.Members["bobmartins"]; got != 0 {
		t.Errorf("balance after full repayment = %v, want 0", got)
	}
	if g.Pay("strangername", 10) {
		t.Error("Pay for a non-member returned true")
	}
}

func TestGroupFinished(t *testing.T) {
	g := NewGroup("trip", "bobmartins", "caroljones")
	if !g.Finished() {
		t.Error("fresh group should be finished (all balances zero)")
	}

	g.SplitAmong(90, "hotel-90BGN")
	if g.Finished() {
		t.Error("group with outstanding balances reported finished")
	}

	g.Pay("bobmartins", 30)
	g.Pay("caroljones", 30)
	if !g.Finished() {
		t.Error("fully repaid group should be finished")
	}
}

func TestUserEntryOrCreate(t *testing.T) {
	u := NewUser("alicesmith", "password123")

	e := u.EntryOrCreate("bobmartins")
	if e.Balance != 0 {
		t.Errorf("fresh entry balance = %v, want 0", e.Balance)
	}
	e.AddWithReason(50, "bills-100BGN")

	again := u.EntryOrCreate("bobmartins")
	if again.Balance != 50 {
		t.Errorf("EntryOrCreate did not return the existing entry: balance %v", again.Balance)
	}

	if owe, ok := u.OweAmount("bobmartins"); !ok || owe != -50 {
		t.Errorf("OweAmount = %v, %v; want -50, true", owe, ok)
	}
}

func TestUserAddFriend(t *testing.T) {
	u := NewUser("alicesmith", "password123")

	if !u.AddFriend("bobmartins") {
		t.Fatal("first AddFriend returned false")
	}
	if u.AddFriend("bobmartins") {
		t.Error("duplicate AddFriend returned true")
	}
}
