package jsonl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ilievs/splitwise/internal/models"
)

func testDirectory() []*models.User {
	alice := models.NewUser("alicesmith", "password123")
	bob := models.NewUser("bobmartins", "password456")

	alice.EntryOrCreate("bobmartins").AddWithReason(50, "bills-100BGN")
	bob.EntryOrCreate("alicesmith").AddWithReason(-50, "bills--100BGN")

	group := models.NewGroup("trip", "bobmartins", "caroljones")
	group.SplitAmong(90, "hotel-90BGN")
	alice.AddGroup(group)

	return []*models.User{alice, bob}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.jsonl")
	ctx := context.Background()

	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	if err := store.SaveAll(ctx, testDirectory()); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d users, want 2", len(loaded))
	}

	byName := make(map[string]*models.User)
	for _, u := range loaded {
		byName[u.Username] = u
	}

	alice := byName["alicesmith"]
	if alice == nil || !alice.CheckPassword("password123") {
		t.Fatalf("alice not restored correctly: %+v", alice)
	}
	entry, ok := alice.Entry("bobmartins")
	if !ok || entry.Balance != 50 {
		t.Errorf("alice's entry for bob = %+v, want balance 50", entry)
	}
	if len(entry.Reasons) != 1 || entry.Reasons[0] != "bills-100BGN" {
		t.Errorf("reason log = %v, want [bills-100BGN]", entry.Reasons)
	}

	group, ok := alice.Group("trip")
	if !ok {
		t.Fatal("alice's group not restored")
	}
	if got := group.Members["caroljones"]; got != 30 {
		t.Errorf("group balance = %v, want 30", got)
	}
}

func TestStoreLoadMissingFileIsEmpty(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "never-written.jsonl"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	users, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load of missing file = %v, want empty directory", err)
	}
	if len(users) != 0 {
		t.Errorf("loaded %d users from nothing", len(users))
	}
}

func TestStoreSaveIsOneRecordPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.jsonl")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := store.SaveAll(context.Background(), testDirectory()); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want one per user (2)", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			t.Errorf("line is not a JSON object: %q", line)
		}
	}
}

func TestStoreSaveOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.jsonl")
	ctx := context.Background()
	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := store.SaveAll(ctx, testDirectory()); err != nil {
		t.Fatalf("first SaveAll failed: %v", err)
	}
	if err := store.SaveAll(ctx, []*models.User{models.NewUser("caroljones", "password789")}); err != nil {
		t.Fatalf("second SaveAll failed: %v", err)
	}

	users, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(users) != 1 || users[0].Username != "caroljones" {
		t.Errorf("second save did not replace the first: %+v", users)
	}
}
