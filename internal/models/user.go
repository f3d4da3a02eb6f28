package models

import "github.com/google/uuid"

// User is a registered account. Password holds the argon2id encoding in
// storage and is never serialized outward.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"-"`
}
