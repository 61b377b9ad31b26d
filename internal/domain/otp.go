package domain

import "time"

// OTPRecord stores a pending one-time passcode.
// PK: identifier, SK: purpose — the table holds at most one record per
// (identifier, purpose) pair, so a PutItem atomically replaces any prior code.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPRecord struct {
	Identifier string            `json:"identifier" dynamodbav:"identifier"`
	Purpose    Purpose           `json:"purpose" dynamodbav:"purpose"`
	CodeHash   string            `json:"-" dynamodbav:"code_hash"` // never the plaintext code
	ExpiresAt  int64             `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Verified   bool              `json:"verified" dynamodbav:"verified"`
	Attempts   int               `json:"attempts" dynamodbav:"attempts"`
	Metadata   map[string]string `json:"metadata,omitempty" dynamodbav:"metadata"`
	CreatedAt  time.Time         `json:"created" dynamodbav:"created_at"` // anchors the resend cooldown
}
