// Package verify tracks per-user ad-verification state: an issued
// one-time token and the time of the last successful verification.
// Expiry is derived at read time; nothing sweeps old records.
package verify

import (
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/rainsgod/filegate/internal/models"
)

const (
	tokenLen      = 10
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Window struct {
	db     *gorm.DB
	expire time.Duration
}

func NewWindow(db *gorm.DB, expire time.Duration) *Window {
	return &Window{db: db, expire: expire}
}

func (w *Window) Expire() time.Duration { return w.expire }

// Issue generates a fresh pending token for the user, overwriting any
// previous one and clearing the verified flag.
func (w *Window) Issue(telegramID int64) (string, error) {
	var u models.User
	if err := w.db.Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return "", err
	}
	tok := randomToken()
	u.VerifyToken = tok
	u.IsVerified = false
	if err := w.db.Save(&u).Error; err != nil {
		return "", err
	}
	return tok, nil
}

// Complete consumes a submitted token. It succeeds only against the
// exact pending token; a mismatch mutates nothing, so a stale or
// replayed code can never retroactively verify.
func (w *Window) Complete(telegramID int64, submitted string) (bool, error) {
	var u models.User
	if err := w.db.Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return false, err
	}
	if submitted == "" || u.VerifyToken != submitted {
		return false, nil
	}
	now := time.Now()
	u.IsVerified = true
	u.VerifiedAt = &now
	if err := w.db.Save(&u).Error; err != nil {
		return false, err
	}
	return true, nil
}

// Passing reports whether the user currently holds an unexpired grant.
func (w *Window) Passing(u *models.User, now time.Time) bool {
	if u == nil || !u.IsVerified || u.VerifiedAt == nil {
		return false
	}
	return now.Sub(*u.VerifiedAt) < w.expire
}

// PassingID is Passing keyed by telegram id; unknown users never pass.
func (w *Window) PassingID(telegramID int64, now time.Time) (bool, error) {
	var u models.User
	if err := w.db.Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return w.Passing(&u, now), nil
}

func randomToken() string {
	b := make([]byte, tokenLen)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}
