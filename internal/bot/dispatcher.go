package bot

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rainsgod/filegate/internal/codec"
	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/gate"
	"github.com/rainsgod/filegate/internal/models"
	"github.com/rainsgod/filegate/internal/referral"
	"github.com/rainsgod/filegate/internal/verify"
)

type Dispatcher struct {
	c        *Client
	db       *gorm.DB
	cfg      *config.Config
	gate     *gate.Gate
	window   *verify.Window
	engine   *referral.Engine
	delivery *Delivery
}

func NewDispatcher(cfg *config.Config, db *gorm.DB, c *Client, g *gate.Gate, w *verify.Window, e *referral.Engine) *Dispatcher {
	return &Dispatcher{
		c:        c,
		db:       db,
		cfg:      cfg,
		gate:     g,
		window:   w,
		engine:   e,
		delivery: NewDelivery(c, db, cfg),
	}
}

// Handle processes one update. Each update runs in its own goroutine;
// all cross-request state lives in the store.
func (d *Dispatcher) Handle(u *Update) {
	switch {
	case u.ChannelPost != nil:
		d.handleChannelPost(u.ChannelPost)
	case u.Callback != nil:
		d.handleCallback(u.Callback)
	case u.Message != nil:
		d.handleMessage(u.Message)
	}
}

func (d *Dispatcher) handleMessage(m *Message) {
	if m.From == nil || m.Chat == nil || m.Chat.Type != "private" {
		return
	}
	chat := m.Chat.ID
	userID := m.From.ID

	if _, err := d.engine.EnsureUser(userID); err != nil {
		log.Printf("dispatcher: ensure user %d: %v", userID, err)
		d.reply(chat, "Something went wrong, please try again. 🥲")
		return
	}

	text := strings.TrimSpace(m.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		d.handleStart(m)
	case strings.HasPrefix(text, "/myrefer"):
		d.handleMyRefer(chat, userID)
	case strings.HasPrefix(text, "/mystats"):
		d.handleMyStats(chat, userID)
	case strings.HasPrefix(text, "/debugaccess"):
		d.handleDebugAccess(chat, userID)
	case strings.HasPrefix(text, "/ping"):
		d.handlePing(chat)
	case strings.HasPrefix(text, "/admins"):
		d.handleAdminList(chat)
	case strings.HasPrefix(text, "/ch2l"):
		d.handleCodeToLink(chat, strings.TrimSpace(strings.TrimPrefix(text, "/ch2l")))
	case strings.HasPrefix(text, "/users"):
		d.requireAdmin(userID, chat, func() { d.handleUserCount(chat) })
	case strings.HasPrefix(text, "/stats"):
		d.requireAdmin(userID, chat, func() { d.handleBotStats(chat) })
	case strings.HasPrefix(text, "/broadcast"):
		d.requireAdmin(userID, chat, func() { d.handleBroadcast(chat, m) })
	case strings.HasPrefix(text, "/addadmin"):
		d.requireOwner(userID, chat, func() { d.handleAddAdmin(chat, argAfter(text, "/addadmin")) })
	case strings.HasPrefix(text, "/deladmin"):
		d.requireOwner(userID, chat, func() { d.handleDelAdmin(chat, argAfter(text, "/deladmin")) })
	case strings.HasPrefix(text, "/addprem"):
		d.requireAdmin(userID, chat, func() { d.handleAddPremium(chat, argAfter(text, "/addprem")) })
	case strings.HasPrefix(text, "/"):
		d.reply(chat, "Unknown command. Try /start or /myrefer.")
	default:
		// Non-command private content from an admin mints a share link.
		if d.gate.IsAdmin(userID) {
			d.mintLink(chat, m)
			return
		}
		d.reply(chat, "Send /start to begin.")
	}
}

// handleStart routes the deep-link payload: referral codes, verify
// tokens and get-tokens, or the plain greeting.
func (d *Dispatcher) handleStart(m *Message) {
	chat := m.Chat.ID
	userID := m.From.ID

	payload := ""
	if parts := strings.SplitN(strings.TrimSpace(m.Text), " ", 2); len(parts) == 2 {
		payload = strings.TrimSpace(parts[1])
	}

	// Referral attribution happens even before the force-sub wall so a
	// brand-new user isn't asked to join twice to earn their day.
	if strings.HasPrefix(payload, "ref_") {
		code := strings.TrimPrefix(payload, "ref_")
		out, err := d.engine.ProcessReferral(userID, code)
		if err != nil {
			log.Printf("dispatcher: referral %q for %d: %v", code, userID, err)
		} else {
			log.Printf("dispatcher: referral %q for %d: %s", code, userID, out)
		}
		payload = ""
	}

	if len(d.cfg.ForceSubChannels) > 0 && !d.gate.IsAdmin(userID) && !d.subscribed(userID) {
		text := d.formatUser(d.cfg.ForceMsg, m.From)
		if _, err := d.c.SendMessage(chat, text, d.joinKeyboard(payload)); err != nil {
			log.Printf("dispatcher: force-sub prompt to %d: %v", chat, err)
		}
		return
	}

	if payload != "" {
		d.handleStartToken(chat, userID, payload)
		return
	}
	d.handleBareStart(m)
}

func (d *Dispatcher) handleStartToken(chat, userID int64, token string) {
	res, err := d.gate.Check(userID, token)
	if err != nil {
		if !errors.Is(err, codec.ErrMalformedToken) {
			log.Printf("dispatcher: gate check for %d: %v", userID, err)
		}
		d.reply(chat, "Something went wrong..! 🥲")
		return
	}

	switch res.Decision {
	case gate.CompleteVerification:
		ok, err := d.window.Complete(userID, res.VerifyCode)
		if err != nil {
			log.Printf("dispatcher: verify complete for %d: %v", userID, err)
			d.reply(chat, "Something went wrong, please try again. 🥲")
			return
		}
		if !ok {
			d.reply(chat, "Your token is invalid or Expired ⌛. Try again by clicking /start")
			return
		}
		d.reply(chat, fmt.Sprintf("Your token successfully verified and valid for: %s ⏳",
			gate.Readable(d.window.Expire())))

	case gate.Deliver:
		if err := d.delivery.SendBatch(chat, res.Request.IDs()); err != nil {
			log.Printf("dispatcher: delivery to %d: %v", chat, err)
			d.reply(chat, "Something went wrong..! 🥲")
		}

	case gate.DeferToShortlink:
		d.deferralReply(chat, res)
	}
}

// deferralReply presents the ad step: the verify-token link routed
// through the shortlink provider, with the window countdown. Legacy
// payment-only mode has no ad step; file requests there get the wrapped
// shareable link and its click count instead, so the link itself keeps
// circulating.
func (d *Dispatcher) deferralReply(chat int64, res gate.Result) {
	if d.cfg.PaymentOnly && res.Request.Payload != "" {
		short, clicks, err := d.gate.ShareFallback(res.Request)
		if err == nil {
			text := fmt.Sprintf("Total clicks %d. Here is your link 👇.", clicks)
			if _, err := d.c.SendMessage(chat, text, d.adLinkKeyboard(short)); err != nil {
				log.Printf("dispatcher: deferral reply to %d: %v", chat, err)
			}
			return
		}
		log.Printf("dispatcher: share fallback: %v", err)
	}

	text := fmt.Sprintf("Your Ads token is expired, refresh your token and try again.\n\n"+
		"Token Timeout: %s\n\n"+
		"What is the token?\n\n"+
		"This is an ads token. If you pass 1 ad, you can use the bot for %s after passing the ad",
		res.Countdown, res.Countdown)
	if _, err := d.c.SendMessage(chat, text, d.adLinkKeyboard(res.ShortURL)); err != nil {
		log.Printf("dispatcher: deferral reply to %d: %v", chat, err)
	}
}

func (d *Dispatcher) handleBareStart(m *Message) {
	chat := m.Chat.ID
	userID := m.From.ID

	if d.cfg.UseShortlink && !d.cfg.PaymentOnly && !d.gate.IsAdmin(userID) {
		has, _, err := d.gate.HasFileAccess(userID)
		if err != nil {
			log.Printf("dispatcher: access check for %d: %v", userID, err)
			d.reply(chat, "Something went wrong, please try again. 🥲")
			return
		}
		if !has {
			res, err := d.gate.VerifyDeferral(userID)
			if err != nil {
				log.Printf("dispatcher: verify deferral for %d: %v", userID, err)
				d.reply(chat, "Something went wrong, please try again. 🥲")
				return
			}
			d.deferralReply(chat, res)
			return
		}
	}

	markup := map[string]any{
		"inline_keyboard": [][]map[string]any{
			{
				{"text": "😊 About Me", "callback_data": "about"},
				{"text": "🔒 Close", "callback_data": "close"},
			},
		},
	}
	if _, err := d.c.SendMessage(chat, d.formatUser(d.cfg.StartMsg, m.From), markup); err != nil {
		log.Printf("dispatcher: start reply to %d: %v", chat, err)
	}
}

// adLinkKeyboard is the deferral keyboard: the gated link, the tutorial
// and, when payment is on, the premium pitch.
func (d *Dispatcher) adLinkKeyboard(link string) any {
	rows := [][]map[string]any{
		{{"text": "Click Here 👆", "url": link}},
	}
	if d.cfg.TutorialURL != "" {
		rows = append(rows, []map[string]any{
			{"text": "How to open this link 👆", "url": d.cfg.TutorialURL},
		})
	}
	if d.cfg.UsePayment {
		rows = append(rows, []map[string]any{
			{"text": "Buy Premium plan", "callback_data": "buy_prem"},
		})
	}
	return map[string]any{"inline_keyboard": rows}
}

func (d *Dispatcher) handleCallback(cb *CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chat := cb.Message.Chat.ID
	defer func() {
		if err := d.c.AnswerCallbackQuery(cb.ID); err != nil {
			log.Printf("dispatcher: answer callback: %v", err)
		}
	}()

	switch cb.Data {
	case "about":
		d.reply(chat, "I store files in a private channel and hand them out through special links. Use /myrefer to earn ad-free days.")
	case "close":
		_ = d.c.DeleteMessage(chat, cb.Message.MessageID)
	case "buy_prem":
		if !d.cfg.UsePayment {
			return
		}
		text := fmt.Sprintf("<b>Premium plans 🤑</b>\n\n"+
			"⁕ 7 days — %s\n⁕ 1 month — %s\n⁕ 3 months — %s\n⁕ 6 months — %s\n⁕ 1 year — %s\n\n"+
			"Pay to UPI: <code>%s</code>\nSend the payment screenshot to %s",
			d.cfg.Prices[0], d.cfg.Prices[1], d.cfg.Prices[2], d.cfg.Prices[3], d.cfg.Prices[4],
			d.cfg.UPIID, d.cfg.ScreenshotURL)
		d.reply(chat, text)
		if d.cfg.UPIID != "" && d.cfg.PublicURL != "" {
			_ = d.c.SendPhoto(chat, d.qrURL(), "Scan to pay 👆", nil)
		}
	}
}

// handleChannelPost caches caption metadata for delivery and, unless
// disabled, attaches a share button to the fresh post.
func (d *Dispatcher) handleChannelPost(m *Message) {
	if m.Chat == nil || m.Chat.ID != d.cfg.ChannelID {
		return
	}
	d.rememberPost(m)

	if d.cfg.DisableChannelButton {
		return
	}
	token, err := codec.EncodeID(m.MessageID, d.cfg.Magnitude())
	if err != nil {
		log.Printf("dispatcher: encode channel post %d: %v", m.MessageID, err)
		return
	}
	link := d.deepLink(token)
	if err := d.c.EditMessageReplyMarkup(d.cfg.ChannelID, m.MessageID, shareKeyboard(link)); err != nil {
		log.Printf("dispatcher: share button on %d: %v", m.MessageID, err)
	}
}

// mintLink copies an admin's private message into the storage channel
// and replies with the minted code and deep link.
func (d *Dispatcher) mintLink(chat int64, m *Message) {
	waitID, _ := d.c.SendMessage(chat, "Please Wait...! 🫷", nil)

	postID, err := d.c.CopyMessage(d.cfg.ChannelID, chat, m.MessageID, "", false)
	if err != nil {
		log.Printf("dispatcher: copy to channel: %v", err)
		if waitID != 0 {
			_ = d.c.EditMessageText(chat, waitID, "Something went Wrong..! ❌")
		}
		return
	}
	// The channel copy keeps the original caption and document, so
	// remember the metadata from the source message.
	d.rememberPost(&Message{
		MessageID: postID,
		Chat:      &Chat{ID: d.cfg.ChannelID},
		Caption:   m.Caption,
		Document:  m.Document,
	})

	token, err := codec.EncodeID(postID, d.cfg.Magnitude())
	if err != nil {
		log.Printf("dispatcher: encode post %d: %v", postID, err)
		if waitID != 0 {
			_ = d.c.EditMessageText(chat, waitID, "Something went Wrong..! ❌")
		}
		return
	}
	link := d.deepLink(token)

	text := fmt.Sprintf("<b>🧑‍💻 Here is your code :</b>\n<code>%s</code>\n\n<b>🔗 Here is your link :</b>\n%s", token, link)
	if waitID != 0 {
		_ = d.c.DeleteMessage(chat, waitID)
	}
	if _, err := d.c.SendMessage(chat, text, shareKeyboard(link)); err != nil {
		log.Printf("dispatcher: mint reply: %v", err)
	}

	if !d.cfg.DisableChannelButton {
		if err := d.c.EditMessageReplyMarkup(d.cfg.ChannelID, postID, shareKeyboard(link)); err != nil {
			log.Printf("dispatcher: share button on %d: %v", postID, err)
		}
	}
}

func (d *Dispatcher) rememberPost(m *Message) {
	post := models.ChannelPost{
		MessageID: m.MessageID,
		Caption:   m.Caption,
	}
	if m.Document != nil {
		post.HasDocument = true
		post.FileName = m.Document.FileName
	}
	if err := d.db.Where("message_id = ?", m.MessageID).
		FirstOrCreate(&post, models.ChannelPost{MessageID: m.MessageID}).Error; err != nil {
		log.Printf("dispatcher: remember post %d: %v", m.MessageID, err)
		return
	}
	post.Caption = m.Caption
	if m.Document != nil {
		post.HasDocument = true
		post.FileName = m.Document.FileName
	}
	if err := d.db.Save(&post).Error; err != nil {
		log.Printf("dispatcher: remember post %d: %v", m.MessageID, err)
	}
}

func (d *Dispatcher) handleMyRefer(chat, userID int64) {
	s, err := d.engine.Stats(userID)
	if err != nil {
		log.Printf("dispatcher: stats for %d: %v", userID, err)
		d.reply(chat, "❌ Error generating referral link")
		return
	}
	link := d.deepLink("ref_" + s.Code)
	status := "❌ INACTIVE"
	if s.HasPremium {
		status = "✅ ACTIVE"
	}
	text := fmt.Sprintf("📢 <b>REFERRAL PROGRAM</b>\n\n"+
		"🔗 <b>Your Referral Link:</b>\n<code>%s</code>\n\n"+
		"🎁 <b>Referral Benefits:</b>\n"+
		"• New users get <b>1 DAY FREE PREMIUM</b> 🎉\n"+
		"• You get <b>1 day premium</b> for every <b>1 referral</b> ⚡\n\n"+
		"📊 <b>Your Statistics:</b>\n"+
		"• <b>Total Referrals:</b> <code>%d</code>\n"+
		"• <b>Premium Status:</b> <code>%s</code>\n\n"+
		"🚀 <b>Share your link and start earning rewards!</b>", link, s.Count, status)
	d.reply(chat, text)
}

func (d *Dispatcher) handleMyStats(chat, userID int64) {
	s, err := d.engine.Stats(userID)
	if err != nil {
		log.Printf("dispatcher: stats for %d: %v", userID, err)
		d.reply(chat, "❌ Error getting stats")
		return
	}
	status := "❌ INACTIVE"
	premiumInfo := ""
	if s.HasPremium {
		status = "✅ ACTIVE"
		if s.PremiumTill != nil {
			premiumInfo = fmt.Sprintf("⏰ <b>Premium expires in:</b> %s\n",
				gate.Readable(time.Until(*s.PremiumTill)))
		}
	}
	text := fmt.Sprintf("📊 <b>YOUR STATISTICS</b>\n\n"+
		"👥 <b>Total Referrals:</b> <code>%d</code>\n"+
		"🎁 <b>Earned Premium:</b> <code>%d days</code>\n"+
		"⭐ <b>Premium Status:</b> <code>%s</code>\n%s"+
		"🔗 <b>Your Code:</b> <code>%s</code>\n\n"+
		"💡 <b>1 referral = 1 day premium</b>\nUse /myrefer to share your link!",
		s.Count, s.Count, status, premiumInfo, s.Code)
	d.reply(chat, text)
}

func (d *Dispatcher) handleDebugAccess(chat, userID int64) {
	premium, _ := d.engine.CheckPremiumAccess(userID, time.Now())
	verified, _ := d.window.PassingID(userID, time.Now())
	has, access, _ := d.gate.HasFileAccess(userID)

	text := fmt.Sprintf("🔍 <b>ACCESS DEBUG INFO</b>\n\n"+
		"🆔 User ID: <code>%d</code>\n"+
		"⭐ Referral Premium: <code>%v</code>\n"+
		"🔑 Token Verified: <code>%v</code>\n"+
		"📁 File Access: <code>%v</code> (level %d)",
		userID, premium, verified, has, access)
	d.reply(chat, text)
}

func (d *Dispatcher) handlePing(chat int64) {
	start := time.Now()
	msgID, err := d.c.SendMessage(chat, "Pinging....", nil)
	if err != nil {
		return
	}
	_ = d.c.EditMessageText(chat, msgID, fmt.Sprintf("Ping 🔥!\n%.3f ms", float64(time.Since(start).Microseconds())/1000))
}

func (d *Dispatcher) handleCodeToLink(chat int64, code string) {
	if code == "" {
		d.reply(chat, "Use: /ch2l CODE")
		return
	}
	link := d.deepLink(code)
	markup := map[string]any{
		"inline_keyboard": [][]map[string]any{
			{{"text": "🎉 Click Here", "url": link}},
		},
	}
	if _, err := d.c.SendMessage(chat, "<b>🧑‍💻 Here is your generated link</b>", markup); err != nil {
		log.Printf("dispatcher: ch2l reply: %v", err)
	}
}

var startedAt = time.Now()

func (d *Dispatcher) handleBotStats(chat int64) {
	var total, premium int64
	if err := d.db.Model(&models.User{}).Count(&total).Error; err != nil {
		d.reply(chat, "Failed to load stats. 😔")
		return
	}
	_ = d.db.Model(&models.User{}).
		Where("free_premium_expiry > ?", time.Now()).Count(&premium).Error

	text := fmt.Sprintf("<b>📈 BOT STATISTICS</b>\n\n"+
		"⏲ <b>Uptime:</b> <code>%s</code>\n"+
		"👥 <b>Total Users:</b> <code>%d</code>\n"+
		"⭐ <b>Active Premium:</b> <code>%d</code>",
		gate.Readable(time.Since(startedAt)), total, premium)
	d.reply(chat, text)
}

func (d *Dispatcher) handleUserCount(chat int64) {
	var count int64
	if err := d.db.Model(&models.User{}).Count(&count).Error; err != nil {
		d.reply(chat, "Failed to count users. 😔")
		return
	}
	d.reply(chat, fmt.Sprintf("%d users are using this bot 👥", count))
}

func (d *Dispatcher) handleAdminList(chat int64) {
	ids := append([]int64(nil), d.cfg.AdminIDs...)
	var rows []models.Admin
	_ = d.db.Find(&rows).Error
	for _, a := range rows {
		ids = append(ids, a.TelegramID)
	}
	d.reply(chat, fmt.Sprintf("Full admin list 📃\n<code>%v</code>", ids))
}

func (d *Dispatcher) handleAddAdmin(chat int64, arg string) {
	id, ok := parseID(arg)
	if !ok {
		d.reply(chat, "Use: /addadmin USER_ID 🔢")
		return
	}
	var count int64
	d.db.Model(&models.Admin{}).Where("telegram_id = ?", id).Count(&count)
	if count > 0 {
		d.reply(chat, "admin already exist. 💀")
		return
	}
	if err := d.db.Create(&models.Admin{TelegramID: id}).Error; err != nil {
		d.reply(chat, "Failed to add admin. 😔\nSome error occurred.")
		return
	}
	d.reply(chat, fmt.Sprintf("Added admin <code>%d</code> 😼", id))
	if _, err := d.c.SendMessage(id, "You are verified, ask the owner to add you to the db channel. 😁", nil); err != nil {
		d.reply(chat, "Failed to send invite. Please ensure that they have started the bot. 🥲")
	}
}

func (d *Dispatcher) handleDelAdmin(chat int64, arg string) {
	id, ok := parseID(arg)
	if !ok {
		d.reply(chat, "Use: /deladmin USER_ID 🔢")
		return
	}
	res := d.db.Where("telegram_id = ?", id).Delete(&models.Admin{})
	if res.Error != nil {
		d.reply(chat, "Failed to remove admin. 😔\nSome error occurred.")
		return
	}
	if res.RowsAffected == 0 {
		d.reply(chat, "admin doesn't exist. 💀")
		return
	}
	d.reply(chat, fmt.Sprintf("Admin <code>%d</code> removed successfully 😀", id))
}

// premiumPlans maps the /addprem plan number to days.
var premiumPlans = map[string]struct {
	days int
	name string
}{
	"1": {7, "7 days"},
	"2": {30, "1 month"},
	"3": {90, "3 months"},
	"4": {180, "6 months"},
	"5": {365, "1 year"},
}

func (d *Dispatcher) handleAddPremium(chat int64, arg string) {
	if !d.cfg.UsePayment {
		d.reply(chat, "Payment feature is disabled.")
		return
	}
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		d.reply(chat, "Use: /addprem USER_ID PLAN\n\n⁕ <code>1</code> for 7 days\n⁕ <code>2</code> for 1 month\n⁕ <code>3</code> for 3 months\n⁕ <code>4</code> for 6 months\n⁕ <code>5</code> for 1 year 🤑")
		return
	}
	id, ok := parseID(fields[0])
	plan, planOK := premiumPlans[fields[1]]
	if !ok || !planOK {
		d.reply(chat, "You have given wrong input. 😖")
		return
	}
	if err := d.engine.GrantPremium(id, plan.days); err != nil {
		log.Printf("dispatcher: add premium for %d: %v", id, err)
		d.reply(chat, "Some error occurred.\nCheck logs.. 😖")
		return
	}
	d.reply(chat, "Premium added! 🤫")
	if _, err := d.c.SendMessage(id, fmt.Sprintf("Update for you\n\nPremium plan of %s added to your account. 🤫", plan.name), nil); err != nil {
		log.Printf("dispatcher: premium notice to %d: %v", id, err)
	}
}

func (d *Dispatcher) requireAdmin(userID, chat int64, fn func()) {
	if !d.gate.IsAdmin(userID) {
		d.reply(chat, "This command is for admins only. 🤫")
		return
	}
	fn()
}

func (d *Dispatcher) requireOwner(userID, chat int64, fn func()) {
	if userID != d.cfg.OwnerID {
		d.reply(chat, "This command is for the owner only. 🤫")
		return
	}
	fn()
}

func (d *Dispatcher) reply(chat int64, text string) {
	if _, err := d.c.SendMessage(chat, text, nil); err != nil {
		log.Printf("dispatcher: reply to %d: %v", chat, err)
	}
}

func (d *Dispatcher) deepLink(payload string) string {
	return "https://t.me/" + d.cfg.BotUsername + "?start=" + payload
}

func (d *Dispatcher) qrURL() string {
	return strings.TrimRight(d.cfg.PublicURL, "/") + "/qr/upi.png"
}

// formatUser fills the {first}/{last}/{username}/{mention}/{id}
// placeholders of the start and force-sub templates.
func (d *Dispatcher) formatUser(tmpl string, u *User) string {
	username := "None"
	if u.Username != "" {
		username = "@" + u.Username
	}
	mention := fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, u.FirstName)
	out := strings.ReplaceAll(tmpl, "{first}", u.FirstName)
	out = strings.ReplaceAll(out, "{last}", u.LastName)
	out = strings.ReplaceAll(out, "{username}", username)
	out = strings.ReplaceAll(out, "{mention}", mention)
	out = strings.ReplaceAll(out, "{id}", fmt.Sprintf("%d", u.ID))
	return out
}

func shareKeyboard(link string) any {
	return map[string]any{
		"inline_keyboard": [][]map[string]any{
			{{"text": "🔁 Share URL", "url": "https://telegram.me/share/url?url=" + url.QueryEscape(link)}},
		},
	}
}

func argAfter(text, cmd string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, cmd))
}

func parseID(s string) (int64, bool) {
	var id int64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &id); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
