package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. Every field maps to one
// environment variable; a .env file in the working directory is honored
// when present.
type Config struct {
	BotToken    string // Telegram bot token from BotFather
	BotUsername string // bot username without @, used to build deep links
	APIBase     string // Bot API base URL, overridable for tests/local servers

	ChannelID   int64  // storage channel; its absolute value is the id multiplier
	ChannelLink string // invite link of the storage channel
	OwnerID     int64
	AdminIDs    []int64 // static admin set; the admins table extends it at runtime

	ForceSubChannels []int64  // channels the user must join before using the bot (empty = off)
	ForceSubLinks    []string // invite links shown in the join keyboard, same order

	UseShortlink    bool   // ad-shortlink gate on/off
	UsePayment      bool   // paid premium on top of the shortlink gate
	PaymentOnly     bool   // legacy switch: payment without the shortlink gate
	ShortlinkAPIURL string // e.g. shortxlinks.com
	ShortlinkAPIKey string

	VerifyExpire  time.Duration // how long a passed ad verification stays valid
	DeleteAfter   time.Duration // self-destruct delay for delivered files, 0 = keep
	NewUserWindow time.Duration // how long after joining a user still counts as new for referrals

	StartMsg             string
	ForceMsg             string
	CustomCaption        string // supports {previouscaption} and {filename}
	ProtectContent       bool
	DisableChannelButton bool
	TutorialURL          string

	UPIID         string
	ScreenshotURL string
	Prices        [5]string // 7d, 1m, 3m, 6m, 1y

	WebhookSecret string
	PublicURL     string // externally reachable base URL of this service, for the payment QR
	Addr          string
	DBPath        string
}

// Magnitude returns the scrambling multiplier for link tokens: the
// absolute value of the storage channel id.
func (c *Config) Magnitude() int64 {
	if c.ChannelID < 0 {
		return -c.ChannelID
	}
	return c.ChannelID
}

// Load reads configuration from the environment. BotToken and ChannelID
// are required; everything else has a default.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    must("TG_BOT_TOKEN"),
		BotUsername: must("TG_BOT_USERNAME"),
		APIBase:     getEnv("TG_API_BASE", "https://api.telegram.org"),

		ChannelID:   mustInt64("CHANNEL_ID"),
		ChannelLink: getEnv("CHANNEL_LINK", ""),
		OwnerID:     getInt64("OWNER_ID", 0),
		AdminIDs:    getIDList("ADMIN_IDS"),

		ForceSubChannels: getIDList("FORCE_SUB_CHANNELS"),
		ForceSubLinks:    getList("FORCE_SUB_LINKS"),

		UseShortlink:    getBool("USE_SHORTLINK", true),
		PaymentOnly:     getBool("LEGACY_PAYMENT_ONLY", false),
		ShortlinkAPIURL: getEnv("SHORTLINK_API_URL", ""),
		ShortlinkAPIKey: getEnv("SHORTLINK_API_KEY", ""),

		VerifyExpire:  getSeconds("VERIFY_EXPIRE", 86400),
		DeleteAfter:   getSeconds("DELETE_AFTER", 1500),
		NewUserWindow: getDuration("REFERRAL_NEW_USER_WINDOW", time.Hour),

		StartMsg: getEnv("START_MESSAGE",
			"Hello {first}\n\nI can store private files in a specified channel and other users can access them from a special link."),
		ForceMsg: getEnv("FORCE_MSG",
			"Hello {first}\n\n<b>You need to join my channel to use me.\nKindly please join.</b>"),
		CustomCaption:        getEnv("CUSTOM_CAPTION", ""),
		ProtectContent:       getBool("PROTECT_CONTENT", false),
		DisableChannelButton: getBool("DISABLE_CHANNEL_BUTTON", true),
		TutorialURL:          getEnv("TUT_VID", ""),

		UPIID:         getEnv("UPI_ID", ""),
		ScreenshotURL: getEnv("SCREENSHOT_URL", ""),

		WebhookSecret: getEnv("TG_WEBHOOK_SECRET", ""),
		PublicURL:     getEnv("PUBLIC_URL", ""),
		Addr:          getEnv("ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "filegate.db"),
	}

	cfg.Prices = [5]string{
		getEnv("PRICE1", "35 rs"),
		getEnv("PRICE2", "120 rs"),
		getEnv("PRICE3", "299 rs"),
		getEnv("PRICE4", "590 rs"),
		getEnv("PRICE5", "999 rs"),
	}

	// Payment rides on top of the shortlink gate unless the legacy
	// payment-only switch is set.
	cfg.UsePayment = getBool("USE_PAYMENT", false) && (cfg.UseShortlink || cfg.PaymentOnly)

	if cfg.OwnerID != 0 {
		cfg.AdminIDs = append(cfg.AdminIDs, cfg.OwnerID)
	}
	return cfg
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustInt64(key string) int64 {
	s := must(key)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	return strings.EqualFold(s, "true") || s == "1"
}

func getSeconds(key string, def int64) time.Duration {
	return time.Duration(getInt64(key, def)) * time.Second
}

func getDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}

func getList(key string) []string {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIDList(key string) []int64 {
	out := make([]int64, 0)
	for _, p := range getList(key) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatalf("invalid id in %s: %q", key, p)
		}
		out = append(out, n)
	}
	return out
}
