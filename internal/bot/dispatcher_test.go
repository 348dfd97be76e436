package bot

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rainsgod/filegate/internal/codec"
	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/gate"
	"github.com/rainsgod/filegate/internal/models"
	"github.com/rainsgod/filegate/internal/referral"
	"github.com/rainsgod/filegate/internal/verify"
)

type stubShortener struct {
	targets []string
}

// Shorten returns the target unchanged so tests can inspect the exact
// URL that would have been gated.
func (s *stubShortener) Shorten(target string) string {
	s.targets = append(s.targets, target)
	return target
}

func dispatcherFixture(t *testing.T, cfg *config.Config) (*Dispatcher, *fakeTelegram, *gorm.DB, *stubShortener) {
	t.Helper()
	ft := newFakeTelegram()
	srv := httptest.NewServer(ft.handler())
	t.Cleanup(srv.Close)

	dsn := filepath.Join(t.TempDir(), "dispatcher_test.db") + "?_journal_mode=WAL"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.Admin{}, &models.Link{}, &models.ChannelPost{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c := NewClient("tok", srv.URL)
	c.sleep = func(time.Duration) {}
	w := verify.NewWindow(gdb, cfg.VerifyExpire)
	e := referral.NewEngine(gdb, cfg.NewUserWindow, nil)
	sh := &stubShortener{}
	g := gate.New(cfg, gdb, w, e, sh)
	return NewDispatcher(cfg, gdb, c, g, w, e), ft, gdb, sh
}

func dispatcherConfig() *config.Config {
	return &config.Config{
		BotUsername:   "testbot",
		ChannelID:     -100500,
		VerifyExpire:  24 * time.Hour,
		NewUserWindow: time.Hour,
		StartMsg:      "hello {first}",
		ForceMsg:      "join first {first}",
	}
}

func privateMsg(userID int64, text string) *Update {
	return &Update{Message: &Message{
		MessageID: 1,
		From:      &User{ID: userID, FirstName: "Tess"},
		Chat:      &Chat{ID: userID, Type: "private"},
		Text:      text,
	}}
}

func (f *fakeTelegram) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.bodies["sendMessage"] {
		if s, ok := p["text"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func containsText(texts []string, sub string) bool {
	for _, t := range texts {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

// firstButtonURL digs the first inline-keyboard button URL out of the
// last sendMessage payload.
func (f *fakeTelegram) firstButtonURL(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.bodies["sendMessage"]
	if len(msgs) == 0 {
		t.Fatal("no sendMessage calls")
	}
	markup, ok := msgs[len(msgs)-1]["reply_markup"].(map[string]any)
	if !ok {
		t.Fatalf("last message has no keyboard: %v", msgs[len(msgs)-1])
	}
	rows := markup["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	url, _ := button["url"].(string)
	return url
}

func TestStart_ForceSubWall(t *testing.T) {
	cfg := dispatcherConfig()
	cfg.ForceSubChannels = []int64{-200}
	cfg.ForceSubLinks = []string{"https://t.me/joinchat/abc"}
	d, ft, _, _ := dispatcherFixture(t, cfg)

	d.Handle(privateMsg(500, "/start"))
	if !containsText(ft.sentTexts(), "join first Tess") {
		t.Fatalf("expected force-sub prompt, got %v", ft.sentTexts())
	}
	if url := ft.firstButtonURL(t); url != "https://t.me/joinchat/abc" {
		t.Errorf("join button url = %q", url)
	}

	// Once a member, the same /start goes through to the greeting.
	ft.memberStatus = "member"
	d.Handle(privateMsg(500, "/start"))
	if !containsText(ft.sentTexts(), "hello Tess") {
		t.Errorf("expected greeting after joining, got %v", ft.sentTexts())
	}
}

func TestStart_ReferralAttribution(t *testing.T) {
	cfg := dispatcherConfig()
	d, _, gdb, _ := dispatcherFixture(t, cfg)
	gdb.Create(&models.User{
		TelegramID:   100,
		JoinedAt:     time.Now().Add(-48 * time.Hour),
		ReferralCode: "REFCODE1",
		Deliverable:  true,
	})

	d.Handle(privateMsg(600, "/start ref_REFCODE1"))

	var b models.User
	if err := gdb.Where("telegram_id = ?", 600).First(&b).Error; err != nil {
		t.Fatalf("load referred user: %v", err)
	}
	if b.ReferredBy == nil || *b.ReferredBy != 100 {
		t.Errorf("referred_by = %v, want 100", b.ReferredBy)
	}
	if b.FreePremiumExpiry == nil || !b.FreePremiumExpiry.After(time.Now()) {
		t.Errorf("new user premium not granted: %v", b.FreePremiumExpiry)
	}

	var a models.User
	gdb.Where("telegram_id = ?", 100).First(&a)
	if a.ReferralCount != 1 {
		t.Errorf("referrer count = %d, want 1", a.ReferralCount)
	}
	if a.FreePremiumExpiry == nil || !a.FreePremiumExpiry.After(time.Now()) {
		t.Errorf("referrer premium not granted: %v", a.FreePremiumExpiry)
	}
}

func TestStart_ShortlinkDeferralShowsVerifyLink(t *testing.T) {
	cfg := dispatcherConfig()
	cfg.UseShortlink = true
	d, ft, gdb, sh := dispatcherFixture(t, cfg)

	tok, _ := codec.EncodeID(7, cfg.Magnitude())
	d.Handle(privateMsg(700, "/start "+tok))

	if n := ft.methodCalls("copyMessage"); n != 0 {
		t.Fatalf("unverified user got %d deliveries", n)
	}
	texts := ft.sentTexts()
	if !containsText(texts, "Your Ads token is expired") {
		t.Fatalf("expected ads-token message, got %v", texts)
	}
	if containsText(texts, "Total clicks") {
		t.Errorf("shortlink mode sent the payment-only fallback: %v", texts)
	}

	// The button must carry the verify-token link that was shortened.
	var u models.User
	gdb.Where("telegram_id = ?", 700).First(&u)
	if u.VerifyToken == "" {
		t.Fatal("no pending verify token persisted")
	}
	wantTarget := "https://t.me/testbot?start=verify_" + u.VerifyToken
	if url := ft.firstButtonURL(t); url != wantTarget {
		t.Errorf("button url = %q, want %q", url, wantTarget)
	}
	if len(sh.targets) == 0 || sh.targets[len(sh.targets)-1] != wantTarget {
		t.Errorf("shortener targets = %v, want last %q", sh.targets, wantTarget)
	}
}

func TestStart_PaymentOnlyLoop(t *testing.T) {
	cfg := dispatcherConfig()
	cfg.PaymentOnly = true
	d, ft, _, _ := dispatcherFixture(t, cfg)

	tok, _ := codec.EncodeID(7, cfg.Magnitude())
	d.Handle(privateMsg(800, "/start "+tok))

	texts := ft.sentTexts()
	if !containsText(texts, "Total clicks") {
		t.Fatalf("expected wrapped fallback reply, got %v", texts)
	}
	url := ft.firstButtonURL(t)
	wrapped := strings.TrimPrefix(url, "https://t.me/testbot?start=")
	if wrapped == url {
		t.Fatalf("fallback button url = %q", url)
	}

	// Following the wrapped link closes the loop: it delivers.
	d.Handle(privateMsg(800, "/start "+wrapped))
	ft.mu.Lock()
	copied := append([]int64(nil), ft.copied...)
	ft.mu.Unlock()
	if len(copied) != 1 || copied[0] != 7 {
		t.Errorf("wrapped link delivered %v, want [7]", copied)
	}
}

func TestBroadcast_DeactivatesGoneRecipients(t *testing.T) {
	cfg := dispatcherConfig()
	cfg.AdminIDs = []int64{1}
	d, ft, gdb, _ := dispatcherFixture(t, cfg)
	gdb.Create(&models.User{TelegramID: 10, JoinedAt: time.Now(), ReferralCode: "AAAA0010", Deliverable: true})
	gdb.Create(&models.User{TelegramID: 20, JoinedAt: time.Now(), ReferralCode: "AAAA0020", Deliverable: true})
	ft.goneChat = 20

	up := privateMsg(1, "/broadcast")
	up.Message.ReplyTo = &Message{MessageID: 55}
	d.Handle(up)

	var gone models.User
	gdb.Where("telegram_id = ?", 20).First(&gone)
	if gone.Deliverable {
		t.Error("blocked recipient not deactivated")
	}
	var alive models.User
	gdb.Where("telegram_id = ?", 10).First(&alive)
	if !alive.Deliverable {
		t.Error("healthy recipient was deactivated")
	}

	ft.mu.Lock()
	edits := ft.bodies["editMessageText"]
	ft.mu.Unlock()
	if len(edits) != 1 {
		t.Fatalf("expected one status edit, got %d", len(edits))
	}
	status, _ := edits[0]["text"].(string)
	if !strings.Contains(status, "Successful: <code>2</code>") ||
		!strings.Contains(status, "Blocked/Deleted: <code>1</code>") {
		t.Errorf("broadcast tally = %q", status)
	}
}
