// Package protocol translates inbound command lines into ledger calls
// and formats the response strings sent back over the wire. It is
// stateless: no session or login state survives between lines, and no
// domain failure escapes past this layer.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ilievs/splitwise/internal/ledger"
)

const unknownCommand = "[ Unknown command ]"

// Router maps a command keyword plus argument list to a ledger service
// call and produces a single response line (which may contain embedded
// newlines).
type Router struct {
	ledger *ledger.Service
}

// NewRouter creates a router over the given ledger service.
func NewRouter(svc *ledger.Service) *Router {
	return &Router{ledger: svc}
}

// CommandName returns the keyword of a raw command line, for logging and
// metrics.
func CommandName(line string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(line), " ")
	return name
}

// Dispatch parses one command line and routes it. The disconnect result
// tells the caller to persist and drop the connection; the response is
// empty in that case.
func (r *Router) Dispatch(line string) (response string, disconnect bool) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")

	// split-group is the one comma-delimited command; everything else
	// splits its arguments on spaces.
	args := strings.Fields(rest)

	switch name {
	case "signup":
		return r.signup(args), false
	case "login":
		return r.login(args), false
	case "get-status":
		return r.status(args), false
	case "split":
		return r.split(args), false
	case "payed":
		return r.payed(args), false
	case "split-group":
		return r.splitGroup(strings.Split(rest, ",")), false
	case "create-group":
		return r.createGroup(args), false
	case "add-friend":
		return r.addFriend(args), false
	case "payed-group-member":
		return r.payedGroupMember(args), false
	case "get-groups":
		return r.groups(args), false
	case "help":
		return Help(), false
	case "disconnect":
		return "", true
	default:
		return unknownCommand, false
	}
}

func (r *Router) signup(args []string) string {
	if len(args) != 2 {
		return unknownCommand
	}

	switch err := r.ledger.Register(args[0], args[1]); {
	case err == nil:
		return "successful registration"
	case errors.Is(err, ledger.ErrInvalidUsername):
		return "invalid username"
	case errors.Is(err, ledger.ErrInvalidPassword):
		return "invalid password"
	case errors.Is(err, ledger.ErrUsernameExists):
		return "username already exists"
	default:
		return err.Error()
	}
}

func (r *Router) login(args []string) string {
	if len(args) != 2 {
		return unknownCommand
	}

	user, err := r.ledger.FindUser(args[0])
	if err != nil {
		return err.Error()
	}
	if user == nil {
		return "Invalid username"
	}
	if !user.CheckPassword(args[1]) {
		return "Invalid password"
	}
	return "Login was successful\nNotifications: \n" + oweSummary(user)
}

func (r *Router) status(args []string) string {
	if len(args) != 1 {
		return unknownCommand
	}

	user, err := r.ledger.FindUser(args[0])
	if err != nil {
		return err.Error()
	}
	if user == nil {
		return fmt.Sprintf("%s: %s", ledger.ErrUserNotFound, args[0])
	}
	return "Friends list:\n" + friendsSummary(user) + unfinishedGroups(user)
}

func (r *Router) split(args []string) string {
	if len(args) < 4 {
		return "[ Invalid number of arguments in command split ]"
	}

	amount, ok := parseAmount(args[2])
	if !ok {
		return "[ Invalid amount in command split ]"
	}
	reason := strings.Join(args[3:], " ")

	if err := r.ledger.Split(args[0], args[1], amount, reason); err != nil {
		return err.Error()
	}
	return "You successfully split the bill!"
}

func (r *Router) payed(args []string) string {
	if len(args) != 3 {
		return "[ Invalid number of arguments in command payed ]"
	}

	// Wire order: ower, amount, payer (the client appends its own
	// username last).
	amount, ok := parseAmount(args[1])
	if !ok {
		return "[ Invalid amount in command payed ]"
	}

	if err := r.ledger.Payed(args[2], args[0], amount); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("You successfully noted the payment of amount: %s of user: %s", args[1], args[0])
}

func (r *Router) splitGroup(args []string) string {
	if len(args) != 4 {
		return "[ Invalid number of arguments in command split-group ]"
	}
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}

	payer, group, reason := args[0], args[1], args[3]
	amount, ok := parseAmount(args[2])
	if !ok {
		return "[ Invalid amount in command split-group ]"
	}

	if err := r.ledger.SplitByGroup(payer, amount, group, reason); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("You successfully split the amount: %s with the members of group: %s", args[2], group)
}

func (r *Router) createGroup(args []string) string {
	if len(args) < 4 {
		return "[ Invalid number of arguments in command create-group ]"
	}

	// The group name may span several words; the member list is the
	// second-to-last token and the creator the last.
	groupName := strings.Join(args[:len(args)-2], " ")
	members := strings.Split(args[len(args)-2], ",")
	creator := args[len(args)-1]

	if err := r.ledger.CreateGroup(creator, groupName, members...); err != nil {
		return err.Error()
	}
	return "You successfully created the group: " + groupName
}

func (r *Router) addFriend(args []string) string {
	if len(args) != 2 {
		return "[ Invalid number of arguments in command add-friend ]"
	}

	// args[0] is the friend to add, args[1] the requesting user.
	if err := r.ledger.AddFriend(args[1], args[0]); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("You successfully added user: %s to your friends list", args[0])
}

func (r *Router) payedGroupMember(args []string) string {
	if len(args) < 4 {
		return "[ Invalid number of arguments in command payed-group-member ]"
	}

	// The group name may span several words; the last three tokens are
	// member, amount and payer.
	groupName := strings.Join(args[:len(args)-3], " ")
	member := args[len(args)-3]
	payer := args[len(args)-1]

	amount, ok := parseAmount(args[len(args)-2])
	if !ok {
		return "[ Invalid amount in command payed-group-member ]"
	}

	if err := r.ledger.PayedFromGroupMember(payer, groupName, member, amount); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("You successfully noted the payment of: %s from user: %s in group: %s",
		args[len(args)-2], member, groupName)
}

func (r *Router) groups(args []string) string {
	if len(args) != 1 {
		return "Unknown command"
	}

	user, err := r.ledger.FindUser(args[0])
	if err != nil {
		return err.Error()
	}
	if user == nil {
		return fmt.Sprintf("%s: %s", ledger.ErrUserNotFound, args[0])
	}
	return unfinishedGroups(user)
}

func parseAmount(token string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	return amount, err == nil
}
