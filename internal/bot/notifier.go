package bot

import (
	"fmt"
	"log"
)

// Notifier delivers referral outcome messages over Telegram. It
// satisfies referral.Notifier; sends are best-effort.
type Notifier struct {
	c *Client
}

func NewNotifier(c *Client) *Notifier { return &Notifier{c: c} }

func (n *Notifier) NotifyReferrer(telegramID int64, totalReferrals int) {
	text := fmt.Sprintf("🎉 <b>New Referral!</b>\n\n"+
		"✅ A new user joined using your link!\n"+
		"📊 Total referrals: %d\n"+
		"🎯 You earned: %d days premium!\n\n"+
		"Keep sharing your link! 🚀", totalReferrals, totalReferrals)
	if _, err := n.c.SendMessage(telegramID, text, nil); err != nil {
		log.Printf("notify referrer %d: %v", telegramID, err)
	}
}

func (n *Notifier) NotifyReferred(telegramID int64) {
	text := "🎁 <b>Welcome! FREE PREMIUM ACTIVATED</b>\n\n" +
		"✅ 1 DAY FREE PREMIUM activated!\n" +
		"⚡ No token verification for 24 hours\n" +
		"📤 Direct file access enabled\n\n" +
		"Use /myrefer to share your own link and earn more rewards! 🔗"
	if _, err := n.c.SendMessage(telegramID, text, nil); err != nil {
		log.Printf("notify referred %d: %v", telegramID, err)
	}
}

func (n *Notifier) NotifyExisting(telegramID int64) {
	text := "ℹ️ <b>Existing User Detected</b>\n\n" +
		"Referral rewards are only for new users who join via a referral link. " +
		"Since you were already using the bot, no premium was activated.\n\n" +
		"But thanks for sharing! 🚀"
	if _, err := n.c.SendMessage(telegramID, text, nil); err != nil {
		log.Printf("notify existing %d: %v", telegramID, err)
	}
}
