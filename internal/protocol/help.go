package protocol

// Help returns the static command list shown to a connected client.
func Help() string {
	return `you can enter commands:
disconnect
get-status
add-friend friendUsername
split username amount reason
payed username amount
create-group groupName username1,username2,username3,...
payed-group-member groupName username amount
split-group groupName,amount,reason
get-groups`
}
