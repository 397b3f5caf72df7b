package models

import "time"

// Group is a chat group. Members keeps join order; AdminID is always one of them.
type Group struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Image     string    `db:"group_image" json:"groupImage"`
	AdminID   int       `db:"admin_id" json:"admin"`
	Members   []int     `db:"-" json:"members"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasMember reports whether userID belongs to the group.
func (g Group) HasMember(userID int) bool {
	return containsID(g.Members, userID)
}

// WithoutMember returns the members with userID removed, keeping order.
func (g Group) WithoutMember(userID int) []int {
	out := make([]int, 0, len(g.Members))
	for _, id := range g.Members {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

// GroupSummary is a group listed for a member along with its latest message.
type GroupSummary struct {
	Group
	LastMessage     *Message  `db:"-" json:"lastMessage"`
	LastMessageTime time.Time `db:"-" json:"lastMessageTime"`
}
