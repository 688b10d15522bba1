// Package ledger implements the shared-expense accounting service: the
// single entry point for every money, friend and group operation, owning
// the user directory and keeping cross-user balances consistent.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ilievs/splitwise/internal/models"
	"github.com/ilievs/splitwise/internal/storage"
)

const minCredentialLength = 8

// Service is the façade over the user directory. It is not safe for
// concurrent use; the server funnels every call through one goroutine.
type Service struct {
	store storage.Store
	users map[string]*models.User
}

// New loads the persisted directory from store. A load failure aborts
// construction: a service is never built on top of unreadable state.
func New(ctx context.Context, store storage.Store) (*Service, error) {
	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user directory: %w", err)
	}

	users := make(map[string]*models.User, len(loaded))
	for _, u := range loaded {
		users[u.Username] = u
	}
	slog.Info("User directory loaded", "users", len(users))

	return &Service{store: store, users: users}, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func userNotFound(username string) error {
	return fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

// Register creates a new user with an empty friend book and no groups.
func (s *Service) Register(username, password string) error {
	if isBlank(username) || isBlank(password) {
		return fmt.Errorf("%w: username and password must not be blank", ErrInvalidArgument)
	}
	if len(username) < minCredentialLength {
		return ErrInvalidUsername
	}
	if len(password) < minCredentialLength {
		return ErrInvalidPassword
	}
	if _, ok := s.users[username]; ok {
		return fmt.Errorf("%w: %s", ErrUsernameExists, username)
	}

	s.users[username] = models.NewUser(username, password)
	slog.Info("User registered", "username", username)
	return nil
}

// FindUser returns the user with the exact username, or nil when absent.
// A missing user is not an error; a blank username is.
func (s *Service) FindUser(username string) (*models.User, error) {
	if isBlank(username) {
		return nil, fmt.Errorf("%w: username must not be blank", ErrInvalidArgument)
	}
	return s.users[username], nil
}

// Split records that payer covered a bill of amount and ower owes half of
// it. The payer must already have ower in their friend book; the mirror
// entry on the ower's side is created on first use when missing, so an
// asymmetric friendship heals itself and never surfaces an error.
func (s *Service) Split(payer, ower string, amount float64, reason string) error {
	if isBlank(payer) || isBlank(ower) || isBlank(reason) || amount <= 0 {
		return fmt.Errorf("%w: split needs two usernames, a positive amount and a reason", ErrInvalidArgument)
	}

	userPayed, ok := s.users[payer]
	if !ok {
		return userNotFound(payer)
	}
	userOwes, ok := s.users[ower]
	if !ok {
		return userNotFound(ower)
	}

	if err := splitEntry(userPayed, ower, amount, reason); err != nil {
		return err
	}
	if err := splitEntry(userOwes, payer, -amount, reason); err != nil {
		// Asymmetric friendship: create the reverse entry and retry.
		// The retry cannot fail again; the entry now exists.
		userOwes.AddFriend(payer)
		if err := splitEntry(userOwes, payer, -amount, reason); err != nil {
			return err
		}
	}

	slog.Debug("Bill split", "payer", payer, "ower", ower, "amount", amount)
	return nil
}

// splitEntry moves the rounded half share of amount on u's entry toward
// counterparty, tagging the reason with the full amount.
func splitEntry(u *models.User, counterparty string, amount float64, reason string) error {
	e, ok := u.Entry(counterparty)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFriends, counterparty)
	}
	e.AddWithReason(halfShare(amount), reasonTag(reason, amount))
	return nil
}

// SplitByGroup spreads amount evenly across the named group of payer,
// then reflects each member's share on their personal ledger toward the
// payer, creating the friendship silently when absent. The personal share
// is expressed as a negative-amount split so the sign convention matches
// a reimbursement flow; its divisor counts the group members plus the
// payer, independent of the group-side member count.
func (s *Service) SplitByGroup(payer string, amount float64, groupName, reason string) error {
	if isBlank(payer) || isBlank(groupName) || isBlank(reason) || amount <= 0 {
		return fmt.Errorf("%w: split-group needs a payer, a group, a positive amount and a reason", ErrInvalidArgument)
	}

	userPayed, ok := s.users[payer]
	if !ok {
		return userNotFound(payer)
	}
	group, ok := userPayed.Group(groupName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupName)
	}

	group.SplitAmong(amount, reasonTag(reason, amount))

	for member := range group.Members {
		u, ok := s.users[member]
		if !ok {
			return userNotFound(member)
		}
		u.AddFriend(payer)
		share := 2 * (-amount) / float64(len(group.Members)+1)
		if err := splitEntry(u, payer, share, reason); err != nil {
			return err
		}
	}

	slog.Debug("Group bill split", "payer", payer, "group", groupName, "amount", amount)
	return nil
}

// CreateGroup creates a group owned by creator with at least two other
// members, all of whom must exist. Group names are unique per creator
// only.
func (s *Service) CreateGroup(creator, groupName string, others ...string) error {
	if isBlank(creator) || isBlank(groupName) || len(others) < 2 {
		return fmt.Errorf("%w: create-group needs a creator, a group name and at least two members", ErrInvalidArgument)
	}

	user, ok := s.users[creator]
	if !ok {
		return userNotFound(creator)
	}
	for _, member := range others {
		if _, ok := s.users[member]; !ok {
			return userNotFound(member)
		}
	}

	if !user.AddGroup(models.NewGroup(groupName, others...)) {
		return fmt.Errorf("%w: there is already a group named %s", ErrUnableToCreateGroup, groupName)
	}

	slog.Info("Group created", "creator", creator, "group", groupName, "members", len(others))
	return nil
}

// Payed records that ower repaid amount to payer, lowering the debt on
// both sides. Unlike Split there is no silent friend creation: a missing
// user or friendship is an error.
func (s *Service) Payed(payer, ower string, amount float64) error {
	if isBlank(payer) || isBlank(ower) {
		return fmt.Errorf("%w: payed needs two usernames", ErrInvalidArgument)
	}

	userPayed, ok := s.users[payer]
	if !ok {
		return userNotFound(payer)
	}
	userOwes, ok := s.users[ower]
	if !ok {
		return userNotFound(ower)
	}

	payerEntry, ok := userPayed.Entry(ower)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFriends, ower)
	}
	owerEntry, ok := userOwes.Entry(payer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFriends, payer)
	}

	payerEntry.Add(-amount)
	owerEntry.Add(amount)

	slog.Debug("Payment recorded", "payer", payer, "ower", ower, "amount", amount)
	return nil
}

// PayedFromGroupMember lowers member's balance inside payer's named group
// and independently reflects the repayment on member's personal ledger
// toward payer.
func (s *Service) PayedFromGroupMember(payer, groupName, member string, amount float64) error {
	if isBlank(payer) || isBlank(groupName) || isBlank(member) || amount <= 0 {
		return fmt.Errorf("%w: payed-group-member needs a payer, a group, a member and a positive amount", ErrInvalidArgument)
	}

	userPayed, ok := s.users[payer]
	if !ok {
		return userNotFound(payer)
	}
	userOwes, ok := s.users[member]
	if !ok {
		return userNotFound(member)
	}

	group, ok := userPayed.Group(groupName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupName)
	}
	if !group.Pay(member, amount) {
		return fmt.Errorf("%w: %s is not in group %s", ErrUserNotFound, member, groupName)
	}

	memberEntry, ok := userOwes.Entry(payer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFriends, payer)
	}
	memberEntry.Add(amount)

	slog.Debug("Group payment recorded",
		"payer", payer, "group", groupName, "member", member, "amount", amount)
	return nil
}

// AddFriend creates a zero entry for username2 in username1's friend
// book. The relationship is symmetric in meaning but one-directional in
// storage; the reverse entry appears lazily on first use.
func (s *Service) AddFriend(username1, username2 string) error {
	if isBlank(username1) || isBlank(username2) {
		return fmt.Errorf("%w: add-friend needs two usernames", ErrInvalidArgument)
	}

	user, ok := s.users[username1]
	if !ok {
		return userNotFound(username1)
	}
	if _, ok := s.users[username2]; !ok {
		return userNotFound(username2)
	}

	if !user.AddFriend(username2) {
		return fmt.Errorf("%w: %s is already in your friends list", ErrUsernameExists, username2)
	}
	return nil
}

// Persist flushes every user to the backing store, overwriting it
// wholesale. Users are written in username order so consecutive flushes
// of the same state produce identical output.
func (s *Service) Persist(ctx context.Context) error {
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	if err := s.store.SaveAll(ctx, users); err != nil {
		return fmt.Errorf("failed to persist user directory: %w", err)
	}
	slog.Info("User directory persisted", "users", len(users))
	return nil
}
