package models

// Event names form the wire contract with clients.
const (
	EventOnlineUsers      = "getOnlineUsers"
	EventNewMessage       = "newMessage"
	EventGroupCreated     = "groupCreated"
	EventMemberAdded      = "memberAdded"
	EventMemberRemoved    = "memberRemoved"
	EventMemberExited     = "memberExited"
	EventAdminTransferred = "adminTransferred"
	EventBlockSuccess     = "block-success"
	EventUserBlocked      = "user-blocked"
)

// Event is emitted over websocket connections as {"event": ..., "data": ...}.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"data"`
}

// MembershipPayload carries memberAdded, memberRemoved and memberExited.
type MembershipPayload struct {
	GroupID  int `json:"groupId"`
	MemberID int `json:"memberId"`
}

// AdminTransferPayload carries adminTransferred.
type AdminTransferPayload struct {
	GroupID    int `json:"groupId"`
	NewAdminID int `json:"newAdminId"`
}

// BlockSuccessPayload carries block-success.
type BlockSuccessPayload struct {
	BlockedUserID int `json:"blockedUserId"`
}

// UserBlockedPayload carries user-blocked.
type UserBlockedPayload struct {
	BlockedBy int `json:"blockedBy"`
}
