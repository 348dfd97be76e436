// Package referral assigns referral codes, attributes new signups to
// their referrer and grants time-bounded free-premium windows to both
// sides. It holds no state of its own; everything lives on the user row.
package referral

import (
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/rainsgod/filegate/internal/models"
)

const (
	codeLen      = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Outcome classifies a ProcessReferral call. Rejections are normal
// negative results, not errors.
type Outcome int

const (
	Rewarded Outcome = iota
	RejectedExisting
	RejectedSelf
	RejectedNotFound
	AlreadyReferred
)

func (o Outcome) String() string {
	switch o {
	case Rewarded:
		return "rewarded"
	case RejectedExisting:
		return "rejected-existing"
	case RejectedSelf:
		return "rejected-self"
	case RejectedNotFound:
		return "rejected-not-found"
	case AlreadyReferred:
		return "already-referred"
	}
	return "unknown"
}

// Notifier delivers the referral outcome messages. The transport layer
// implements it; a nil-safe no-op is used in tests.
type Notifier interface {
	NotifyReferrer(telegramID int64, totalReferrals int)
	NotifyReferred(telegramID int64)
	NotifyExisting(telegramID int64)
}

type Engine struct {
	db            *gorm.DB
	newUserWindow time.Duration
	notifier      Notifier
}

// NewEngine builds a referral engine. newUserWindow is the anti-abuse
// heuristic: a user with no referrer who joined longer ago than this is
// treated as existing and earns nothing.
func NewEngine(db *gorm.DB, newUserWindow time.Duration, notifier Notifier) *Engine {
	return &Engine{db: db, newUserWindow: newUserWindow, notifier: notifier}
}

// EnsureUser returns the user row for a telegram id, creating it (with
// a fresh referral code and JoinedAt stamp) on first contact.
func (e *Engine) EnsureUser(telegramID int64) (*models.User, error) {
	var u models.User
	err := e.db.Where("telegram_id = ?", telegramID).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	u = models.User{
		TelegramID:   telegramID,
		JoinedAt:     time.Now(),
		ReferralCode: e.generateCode(),
		Deliverable:  true,
	}
	if err := e.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetOrCreateCode returns the user's referral code, assigning one to
// legacy rows that predate code generation.
func (e *Engine) GetOrCreateCode(telegramID int64) (string, error) {
	u, err := e.EnsureUser(telegramID)
	if err != nil {
		return "", err
	}
	if u.ReferralCode != "" {
		return u.ReferralCode, nil
	}
	u.ReferralCode = e.generateCode()
	if err := e.db.Save(u).Error; err != nil {
		return "", err
	}
	return u.ReferralCode, nil
}

// IsNewUser reports whether a user still qualifies for a referral
// reward: unknown to the bot, or known, unreferred and joined within
// the new-user window. The window is a heuristic against long-standing
// users clicking a referral link after the fact, not a guarantee.
func (e *Engine) IsNewUser(telegramID int64, now time.Time) (bool, error) {
	var u models.User
	err := e.db.Where("telegram_id = ?", telegramID).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if u.ReferredBy != nil {
		return false, nil
	}
	return now.Sub(u.JoinedAt) <= e.newUserWindow, nil
}

// ProcessReferral attributes newUserID's signup to the owner of code.
// On success the new user gets a flat one-day premium window and the
// referrer gets a window sized to their new cumulative referral count:
// the Nth referral grants N days. That scaling is intentional.
//
// Two concurrent calls for the same user can both read stale rows
// (read-then-write, no transaction); the worst case is a double grant,
// which this design tolerates.
func (e *Engine) ProcessReferral(newUserID int64, code string) (Outcome, error) {
	var referrer models.User
	err := e.db.Where("referral_code = ?", code).First(&referrer).Error
	if err == gorm.ErrRecordNotFound {
		return RejectedNotFound, nil
	}
	if err != nil {
		return RejectedNotFound, err
	}
	if referrer.TelegramID == newUserID {
		return RejectedSelf, nil
	}

	newUser, err := e.EnsureUser(newUserID)
	if err != nil {
		return RejectedNotFound, err
	}
	if newUser.ReferredBy != nil {
		return AlreadyReferred, nil
	}

	isNew, err := e.IsNewUser(newUserID, time.Now())
	if err != nil {
		return RejectedExisting, err
	}
	if !isNew {
		if e.notifier != nil {
			e.notifier.NotifyExisting(newUserID)
		}
		return RejectedExisting, nil
	}

	if err := e.GrantPremium(newUserID, 1); err != nil {
		return RejectedNotFound, err
	}

	newCount := referrer.ReferralCount + 1
	if err := e.GrantPremium(referrer.TelegramID, newCount); err != nil {
		return RejectedNotFound, err
	}

	// GrantPremium rewrote both rows; only the attribution columns may
	// change here, a whole-struct Save would clobber the fresh expiries.
	if err := e.db.Model(&models.User{}).Where("telegram_id = ?", referrer.TelegramID).
		UpdateColumn("referral_count", newCount).Error; err != nil {
		return RejectedNotFound, err
	}
	if err := e.db.Model(&models.User{}).Where("telegram_id = ?", newUserID).
		UpdateColumn("referred_by", referrer.TelegramID).Error; err != nil {
		return RejectedNotFound, err
	}

	log.Printf("referral: user %d referred by %d (total %d)", newUserID, referrer.TelegramID, newCount)
	if e.notifier != nil {
		e.notifier.NotifyReferrer(referrer.TelegramID, newCount)
		e.notifier.NotifyReferred(newUserID)
	}
	return Rewarded, nil
}

// GrantPremium extends the user's free-premium window by days. An
// unexpired window extends from its current expiry; a lapsed or absent
// one restarts from now. The expiry never moves backwards.
func (e *Engine) GrantPremium(telegramID int64, days int) error {
	u, err := e.EnsureUser(telegramID)
	if err != nil {
		return err
	}
	now := time.Now()
	var expiry time.Time
	if u.FreePremiumExpiry != nil && u.FreePremiumExpiry.After(now) {
		expiry = u.FreePremiumExpiry.Add(time.Duration(days) * 24 * time.Hour)
	} else {
		expiry = now.Add(time.Duration(days) * 24 * time.Hour)
	}
	u.FreePremiumExpiry = &expiry
	return e.db.Save(u).Error
}

// CheckPremiumAccess reports whether the user holds an unexpired
// premium window. Unknown users never do.
func (e *Engine) CheckPremiumAccess(telegramID int64, now time.Time) (bool, error) {
	var u models.User
	err := e.db.Where("telegram_id = ?", telegramID).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.FreePremiumExpiry != nil && u.FreePremiumExpiry.After(now), nil
}

// Stats summarizes a user's referral standing for /myrefer and /mystats.
type Stats struct {
	Code        string
	Count       int
	HasPremium  bool
	PremiumTill *time.Time
}

func (e *Engine) Stats(telegramID int64) (Stats, error) {
	u, err := e.EnsureUser(telegramID)
	if err != nil {
		return Stats{}, err
	}
	code := u.ReferralCode
	if code == "" {
		if code, err = e.GetOrCreateCode(telegramID); err != nil {
			return Stats{}, err
		}
	}
	s := Stats{Code: code, Count: u.ReferralCount}
	if u.FreePremiumExpiry != nil && u.FreePremiumExpiry.After(time.Now()) {
		s.HasPremium = true
		s.PremiumTill = u.FreePremiumExpiry
	}
	return s, nil
}

// generateCode draws 8-char uppercase+digit codes until one is free in
// the store. Collisions are astronomically unlikely but re-checked
// anyway; after 20 tries it gives up and returns the last draw.
func (e *Engine) generateCode() string {
	var code string
	for i := 0; i < 20; i++ {
		b := make([]byte, codeLen)
		for j := range b {
			b[j] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code = string(b)
		var exists int64
		_ = e.db.Model(&models.User{}).Where("referral_code = ?", code).Count(&exists).Error
		if exists == 0 {
			return code
		}
	}
	return code
}
