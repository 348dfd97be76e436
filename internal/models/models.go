package models

import "time"

// User is one Telegram account known to the bot. Referral and
// verification state live on the same row; expiry of both windows is
// computed at read time, never enforced by a sweeper.
type User struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	TelegramID  int64 `gorm:"uniqueIndex"`
	JoinedAt    time.Time
	Deliverable bool `gorm:"default:true"` // false once Telegram reports the user gone

	// Referral
	ReferralCode      string `gorm:"uniqueIndex"` // 8 chars, uppercase+digits
	ReferralCount     int
	ReferredBy        *int64 `gorm:"index"` // telegram id of the referrer, set at most once
	FreePremiumExpiry *time.Time

	// Shortlink verification
	IsVerified  bool
	VerifyToken string
	VerifiedAt  *time.Time
}

// Admin rows extend the static admin id set from the environment.
type Admin struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	TelegramID int64 `gorm:"uniqueIndex"`
}

// Link is the click ledger: one row per minted token.
type Link struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Token  string `gorm:"uniqueIndex"`
	Clicks int64
}

// ChannelPost caches the caption and filename of a storage-channel post
// so delivery can fill the caption template; the Bot API cannot read
// them back from the channel at copy time.
type ChannelPost struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	MessageID   int64 `gorm:"uniqueIndex"`
	Caption     string
	FileName    string
	HasDocument bool
}
