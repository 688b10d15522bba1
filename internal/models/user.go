package models

// User is a registered account. It owns its friend book and the groups it
// created; nothing here is shared with another user.
type User struct {
	// Username is unique across the directory and never changes.
	Username string `json:"username"`

	// Password is compared by plain equality only.
	Password string `json:"password"`

	// Friends maps counterparty username to the ledger entry toward them.
	Friends map[string]*LedgerEntry `json:"friends"`

	// Groups maps group name to the groups this user created.
	Groups map[string]*Group `json:"groups,omitempty"`
}

// NewUser creates a user with an empty friend book and no groups.
func NewUser(username, password string) *User {
	return &User{
		Username: username,
		Password: password,
		Friends:  make(map[string]*LedgerEntry),
		Groups:   make(map[string]*Group),
	}
}

// Equal reports identity under the (username, password) pair.
func (u *User) Equal(other *User) bool {
	return other != nil && u.Username == other.Username && u.Password == other.Password
}

// CheckPassword compares the stored password by plain equality.
func (u *User) CheckPassword(password string) bool {
	return u.Password == password
}

// Entry returns the ledger entry toward counterparty, if any.
func (u *User) Entry(counterparty string) (*LedgerEntry, bool) {
	e, ok := u.Friends[counterparty]
	return e, ok
}

// EntryOrCreate returns the ledger entry toward counterparty, creating a
// zero entry first when the friendship does not exist yet.
func (u *User) EntryOrCreate(counterparty string) *LedgerEntry {
	if u.Friends == nil {
		u.Friends = make(map[string]*LedgerEntry)
	}
	e, ok := u.Friends[counterparty]
	if !ok {
		e = &LedgerEntry{}
		u.Friends[counterparty] = e
	}
	return e
}

// AddFriend creates a zero entry toward counterparty. It reports false
// when the entry already exists.
func (u *User) AddFriend(counterparty string) bool {
	if u.Friends == nil {
		u.Friends = make(map[string]*LedgerEntry)
	}
	if _, ok := u.Friends[counterparty]; ok {
		return false
	}
	u.Friends[counterparty] = &LedgerEntry{}
	return true
}

// OweAmount returns how much this user owes the friend: the negation of
// the entry balance. It reports false when there is no entry.
func (u *User) OweAmount(friend string) (float64, bool) {
	e, ok := u.Friends[friend]
	if !ok {
		return 0, false
	}
	return -e.Balance, true
}

// Group returns the group this user created under name, if any.
func (u *User) Group(name string) (*Group, bool) {
	g, ok := u.Groups[name]
	return g, ok
}

// AddGroup registers a group under its name. It reports false when this
// user already created a group with that name.
func (u *User) AddGroup(g *Group) bool {
	if u.Groups == nil {
		u.Groups = make(map[string]*Group)
	}
	if _, ok := u.Groups[g.Name]; ok {
		return false
	}
	u.Groups[g.Name] = g
	return true
}
