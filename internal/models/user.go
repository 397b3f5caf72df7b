package models

import "time"

// User is a registered account together with its contact and block sets.
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"fullName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	ProfilePic   string    `db:"profile_pic" json:"profilePic"`
	Contacts     []int     `db:"-" json:"contacts"`
	BlockedUsers []int     `db:"-" json:"blockedUsers"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// HasContact reports whether id is in the user's contacts.
func (u User) HasContact(id int) bool {
	return containsID(u.Contacts, id)
}

// HasBlocked reports whether the user has blocked id.
func (u User) HasBlocked(id int) bool {
	return containsID(u.BlockedUsers, id)
}

// ContactSummary is a conversation partner with the latest direct message exchanged.
type ContactSummary struct {
	User
	LastMessageText string    `db:"last_message_text" json:"lastMessageText"`
	LastMessageAt   time.Time `db:"last_message_at" json:"lastMessageTimestamp"`
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
