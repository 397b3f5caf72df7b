package models

import (
	"strings"
	"time"
)

// Message is either a direct message (ReceiverID set) or a group message (GroupID set), never both.
type Message struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"senderId"`
	ReceiverID *int      `db:"receiver_id" json:"receiverId,omitempty"`
	GroupID    *int      `db:"group_id" json:"group,omitempty"`
	Text       string    `db:"text" json:"text,omitempty"`
	Image      string    `db:"image" json:"image,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// NewDirectMessage builds a message addressed to a single user.
func NewDirectMessage(senderID, receiverID int, text, image string) Message {
	return Message{SenderID: senderID, ReceiverID: &receiverID, Text: text, Image: image}
}

// NewGroupMessage builds a message addressed to a group.
func NewGroupMessage(senderID, groupID int, text, image string) Message {
	return Message{SenderID: senderID, GroupID: &groupID, Text: text, Image: image}
}

// IsDirect reports whether the message is addressed to a single user.
func (m Message) IsDirect() bool {
	return m.ReceiverID != nil && m.GroupID == nil
}

// IsGroup reports whether the message is addressed to a group.
func (m Message) IsGroup() bool {
	return m.GroupID != nil && m.ReceiverID == nil
}

// Content is the user-supplied body of a message. Image is a data URI or base64 payload.
type Content struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Empty reports whether neither text nor image was supplied.
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.Image == ""
}
