package domain

import "time"

// RefreshToken is the only persisted, revocable credential.
// PK: token. Single-use for rotation: presenting it deletes the record and
// issues a replacement — it is never updated in place.
type RefreshToken struct {
	Token     string    `json:"-" dynamodbav:"token"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
