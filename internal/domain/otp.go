package domain

// OTPRecord is the single live one-time-code record for a recipient.
// PK: recipient (10-digit mobile number or email, depending on channel).
// ExpiresAt is epoch milliseconds; expiry is detected lazily on verify.
// The record is deleted on successful verification, on expiry detection,
// and on reaching the attempt limit.
type OTPRecord struct {
	Recipient string `json:"recipient" dynamodbav:"recipient"`
	Code      string `json:"otp" dynamodbav:"otp"`
	ExpiresAt int64  `json:"expiresAt" dynamodbav:"expires_at"`
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
}

// VerificationResult reports the outcome of a verify call.
// RemainingAttempts is meaningful only when Success is false and the
// record is still live.
type VerificationResult struct {
	Success           bool `json:"success"`
	RemainingAttempts int  `json:"remainingAttempts,omitempty"`
}
