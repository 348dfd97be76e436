package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/models"
)

// fakeTelegram records Bot API calls and answers them.
type fakeTelegram struct {
	mu     sync.Mutex
	calls  []string // method names in order
	copied []int64  // message_id of each copyMessage
	bodies map[string][]map[string]any
	nextID int64

	failID       int64  // copyMessage of this source id answers an error
	goneChat     int64  // any call targeting this chat answers 403
	memberStatus string // getChatMember answer; empty means "left"
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{bodies: map[string][]map[string]any{}, nextID: 1000}
}

func (f *fakeTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)

		f.mu.Lock()
		f.calls = append(f.calls, method)
		f.bodies[method] = append(f.bodies[method], payload)
		if method == "getChatMember" {
			status := f.memberStatus
			if status == "" {
				status = "left"
			}
			f.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{
				"ok": true, "result": map[string]any{"status": status},
			})
			return
		}
		if chat, ok := payload["chat_id"].(float64); ok && f.goneChat != 0 && int64(chat) == f.goneChat {
			f.mu.Unlock()
			w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
			return
		}
		if method == "copyMessage" {
			src := int64(payload["message_id"].(float64))
			if src == f.failID {
				f.mu.Unlock()
				w.Write([]byte(`{"ok":false,"error_code":400,"description":"message to copy not found"}`))
				return
			}
			f.copied = append(f.copied, src)
		}
		f.nextID++
		id := f.nextID
		f.mu.Unlock()

		resp := map[string]any{"ok": true, "result": map[string]any{"message_id": id}}
		json.NewEncoder(w).Encode(resp)
	}
}

func (f *fakeTelegram) methodCalls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func deliveryFixture(t *testing.T, cfg *config.Config) (*Delivery, *fakeTelegram, *gorm.DB) {
	t.Helper()
	ft := newFakeTelegram()
	srv := httptest.NewServer(ft.handler())
	t.Cleanup(srv.Close)

	dsn := filepath.Join(t.TempDir(), "delivery_test.db") + "?_journal_mode=WAL"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.ChannelPost{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c := NewClient("tok", srv.URL)
	c.sleep = func(time.Duration) {}
	d := NewDelivery(c, gdb, cfg)
	return d, ft, gdb
}

func TestSendBatch_CopiesInOrder(t *testing.T) {
	cfg := &config.Config{ChannelID: -100500}
	d, ft, _ := deliveryFixture(t, cfg)

	if err := d.SendBatch(42, []int64{10, 9, 8, 7}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	ft.mu.Lock()
	copied := append([]int64(nil), ft.copied...)
	ft.mu.Unlock()
	want := []int64{10, 9, 8, 7}
	if len(copied) != len(want) {
		t.Fatalf("copied %v, want %v", copied, want)
	}
	for i := range want {
		if copied[i] != want[i] {
			t.Errorf("copy order %v, want %v", copied, want)
			break
		}
	}
	// No self-destruct configured: no notice, no deletions beyond the
	// wait placeholder.
	if n := ft.methodCalls("deleteMessage"); n != 1 {
		t.Errorf("deleteMessage calls = %d, want 1 (wait placeholder only)", n)
	}
}

func TestSendBatch_PartialFailureIsSwallowed(t *testing.T) {
	cfg := &config.Config{ChannelID: -100500}
	d, ft, _ := deliveryFixture(t, cfg)
	ft.failID = 9

	if err := d.SendBatch(42, []int64{10, 9, 8}); err != nil {
		t.Fatalf("SendBatch with one failing copy: %v", err)
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if len(ft.copied) != 2 {
		t.Errorf("copied %v, want the two surviving ids", ft.copied)
	}
}

func TestSendBatch_AllFailed(t *testing.T) {
	cfg := &config.Config{ChannelID: -100500}
	d, ft, _ := deliveryFixture(t, cfg)
	ft.failID = 5

	if err := d.SendBatch(42, []int64{5}); err == nil {
		t.Fatal("fully failed batch must return an error")
	}
}

func TestSendBatch_CaptionTemplate(t *testing.T) {
	cfg := &config.Config{
		ChannelID:     -100500,
		CustomCaption: "{filename} | was: {previouscaption}",
	}
	d, ft, gdb := deliveryFixture(t, cfg)
	gdb.Create(&models.ChannelPost{
		MessageID:   11,
		Caption:     "old text",
		FileName:    "movie.mkv",
		HasDocument: true,
	})
	gdb.Create(&models.ChannelPost{MessageID: 12, Caption: "photo", HasDocument: false})

	if err := d.SendBatch(42, []int64{11, 12}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	copies := ft.bodies["copyMessage"]
	if len(copies) != 2 {
		t.Fatalf("copyMessage payloads: %d", len(copies))
	}
	if got := copies[0]["caption"]; got != "movie.mkv | was: old text" {
		t.Errorf("document caption = %v", got)
	}
	// Non-documents keep their native caption (no override field).
	if _, ok := copies[1]["caption"]; ok {
		t.Errorf("non-document copy should not override caption: %v", copies[1])
	}
}

func TestSendBatch_SelfDestruct(t *testing.T) {
	cfg := &config.Config{ChannelID: -100500, DeleteAfter: 90 * time.Second}
	d, ft, _ := deliveryFixture(t, cfg)

	slept := make(chan time.Duration, 1)
	done := make(chan struct{})
	d.sleep = func(dur time.Duration) { slept <- dur }

	if err := d.SendBatch(42, []int64{3, 4}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}

	// Wait for the destruct goroutine to finish its edit.
	go func() {
		for ft.methodCalls("editMessageText") == 0 {
			time.Sleep(time.Millisecond)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("self-destruct never completed")
	}

	if got := <-slept; got != 90*time.Second {
		t.Errorf("slept %v, want 90s", got)
	}
	// wait placeholder + the two delivered copies
	if n := ft.methodCalls("deleteMessage"); n != 3 {
		t.Errorf("deleteMessage calls = %d, want 3", n)
	}
	if n := ft.methodCalls("editMessageText"); n != 1 {
		t.Errorf("editMessageText calls = %d, want 1", n)
	}
}
