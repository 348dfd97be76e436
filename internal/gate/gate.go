// Package gate decides, per request, whether delivery of a decoded link
// may proceed immediately or must be deferred behind the ad-shortlink
// verification step. The decision is recomputed on every check and
// never persisted.
package gate

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rainsgod/filegate/internal/codec"
	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/models"
	"github.com/rainsgod/filegate/internal/referral"
	"github.com/rainsgod/filegate/internal/verify"
)

// Shortener is the ad-shortlink provider. It never fails; a broken
// provider returns the raw target.
type Shortener interface {
	Shorten(target string) string
}

type Decision int

const (
	// Deliver: resolve the id set and send copies now.
	Deliver Decision = iota
	// DeferToShortlink: the user must pass the ad step first.
	DeferToShortlink
	// CompleteVerification: the token closes a verification round-trip.
	CompleteVerification
)

// Access says why a Deliver decision was granted.
type Access int

const (
	AccessAdmin Access = iota
	AccessReferralPremium
	AccessShortlinkVerified
	AccessOpen // gate disabled for the whole deployment
	AccessNone
)

type Result struct {
	Decision Decision
	Access   Access
	Request  codec.Request

	VerifyCode string // set for CompleteVerification

	// Set for DeferToShortlink.
	ShortURL  string // ad-gated URL the user must pass
	Countdown string // human-readable verification window
}

type Gate struct {
	cfg    *config.Config
	db     *gorm.DB
	window *verify.Window
	engine *referral.Engine
	short  Shortener
}

func New(cfg *config.Config, db *gorm.DB, window *verify.Window, engine *referral.Engine, short Shortener) *Gate {
	return &Gate{cfg: cfg, db: db, window: window, engine: engine, short: short}
}

// IsAdmin reports whether the id is in the static admin set or the
// admins table. Admins bypass every gate unconditionally.
func (g *Gate) IsAdmin(telegramID int64) bool {
	for _, id := range g.cfg.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	var count int64
	_ = g.db.Model(&models.Admin{}).Where("telegram_id = ?", telegramID).Count(&count).Error
	return count > 0
}

// Check classifies the requester and token and decides. Malformed
// tokens (including overflowed foreign ones) surface as
// codec.ErrMalformedToken; the caller shows a generic apology.
func (g *Gate) Check(userID int64, token string) (Result, error) {
	req, err := codec.Decode(token, g.cfg.Magnitude())
	if err != nil {
		return Result{}, err
	}
	if req.Kind == codec.KindVerify {
		return Result{Decision: CompleteVerification, Request: req, VerifyCode: req.Code}, nil
	}

	// The click ledger moves at decode time, before delivery is even
	// attempted. A failed delivery therefore still counts as a click;
	// kept that way so historical link stats stay comparable.
	if err := g.recordClick(token); err != nil {
		return Result{}, err
	}

	access, err := g.accessLevel(userID, time.Now())
	if err != nil {
		return Result{}, err
	}
	if access != AccessNone {
		return Result{Decision: Deliver, Access: access, Request: req}, nil
	}
	// Wrapped fallback links are the exit of the payment-only loop: the
	// shortlink gate is not in effect there, so they deliver directly.
	if req.Wrapped && g.cfg.PaymentOnly {
		return Result{Decision: Deliver, Access: AccessOpen, Request: req}, nil
	}
	res, err := g.VerifyDeferral(userID)
	if err != nil {
		return Result{}, err
	}
	res.Request = req
	return res, nil
}

// accessLevel is the tri-state decision: admin, referral premium
// (modeled as implicitly verified), or an unexpired shortlink grant.
func (g *Gate) accessLevel(userID int64, now time.Time) (Access, error) {
	if g.IsAdmin(userID) {
		return AccessAdmin, nil
	}
	if !g.cfg.UseShortlink && !g.cfg.PaymentOnly {
		return AccessOpen, nil
	}
	premium, err := g.engine.CheckPremiumAccess(userID, now)
	if err != nil {
		return AccessNone, err
	}
	if premium {
		return AccessReferralPremium, nil
	}
	if g.cfg.PaymentOnly {
		// Legacy mode: only payment-earned premium passes, and a stale
		// shortlink grant must not linger.
		return AccessNone, nil
	}
	passing, err := g.window.PassingID(userID, now)
	if err != nil {
		return AccessNone, err
	}
	if passing {
		return AccessShortlinkVerified, nil
	}
	return AccessNone, nil
}

// HasFileAccess is the debug-facing view of accessLevel.
func (g *Gate) HasFileAccess(userID int64) (bool, Access, error) {
	access, err := g.accessLevel(userID, time.Now())
	if err != nil {
		return false, AccessNone, err
	}
	return access != AccessNone, access, nil
}

// VerifyDeferral issues a fresh verification token, persists it and
// returns the ad-gated URL the user must pass, with the window
// presented as a readable countdown.
func (g *Gate) VerifyDeferral(userID int64) (Result, error) {
	tok, err := g.window.Issue(userID)
	if err != nil {
		return Result{}, err
	}
	target := fmt.Sprintf("https://t.me/%s?start=verify_%s", g.cfg.BotUsername, tok)
	return Result{
		Decision:  DeferToShortlink,
		Access:    AccessNone,
		ShortURL:  g.short.Shorten(target),
		Countdown: Readable(g.window.Expire()),
	}, nil
}

// ShareFallback wraps a denied or re-shared decode result into a
// sav-ory deep link routed through the shortlink provider, and reports
// how many times that wrapped link has been opened.
func (g *Gate) ShareFallback(req codec.Request) (shortURL string, clicks int64, err error) {
	wrapped := codec.Wrap(req.Payload)
	if err := g.ensureLink(wrapped); err != nil {
		return "", 0, err
	}
	clicks = g.Clicks(wrapped)
	deep := fmt.Sprintf("https://t.me/%s?start=%s", g.cfg.BotUsername, wrapped)
	return g.short.Shorten(deep), clicks, nil
}

// Clicks returns the ledger count for a token; unknown tokens are zero.
func (g *Gate) Clicks(token string) int64 {
	var l models.Link
	if err := g.db.Where("token = ?", token).First(&l).Error; err != nil {
		return 0
	}
	return l.Clicks
}

func (g *Gate) ensureLink(token string) error {
	var l models.Link
	err := g.db.Where("token = ?", token).First(&l).Error
	if err == gorm.ErrRecordNotFound {
		return g.db.Create(&models.Link{Token: token}).Error
	}
	return err
}

func (g *Gate) recordClick(token string) error {
	if err := g.ensureLink(token); err != nil {
		return err
	}
	return g.db.Model(&models.Link{}).Where("token = ?", token).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}

// Readable renders a duration as a compact countdown, e.g. "1d 6h 30m".
func Readable(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	secs := d/time.Second - mins*60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if mins > 0 {
		fmt.Fprintf(&b, "%dm ", mins)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%ds", secs)
	}
	return strings.TrimSpace(b.String())
}
