package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rainsgod/filegate/internal/config"
	"github.com/rainsgod/filegate/internal/gate"
	"github.com/rainsgod/filegate/internal/models"
)

// errNothingDelivered means every copy in the batch failed, which is
// indistinguishable from the source messages being gone.
var errNothingDelivered = errors.New("no message could be delivered")

// Delivery fans a resolved id set out to the requester: one copy per
// channel message, caption template applied, optional self-destruct.
type Delivery struct {
	c   *Client
	db  *gorm.DB
	cfg *config.Config

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewDelivery(c *Client, db *gorm.DB, cfg *config.Config) *Delivery {
	return &Delivery{c: c, db: db, cfg: cfg, sleep: time.Sleep}
}

// SendBatch copies the messages behind ids (in the given order) to
// chatID. Individual copy failures are swallowed; only a fully failed
// batch is an error. When a self-destruct delay is configured, the
// copies are deleted after the delay and the notice edited to confirm.
// The timer cannot be canceled once scheduled.
func (d *Delivery) SendBatch(chatID int64, ids []int64) error {
	waitID, _ := d.c.SendMessage(chatID, "Please wait... 🫷", nil)

	sent := make([]int64, 0, len(ids))
	for _, id := range ids {
		msgID, err := d.c.CopyMessage(chatID, d.cfg.ChannelID, id, d.caption(id), d.cfg.ProtectContent)
		if err != nil {
			log.Printf("delivery: copy %d to %d: %v", id, chatID, err)
			continue
		}
		sent = append(sent, msgID)
	}

	if waitID != 0 {
		_ = d.c.DeleteMessage(chatID, waitID)
	}
	if len(sent) == 0 && len(ids) > 0 {
		return errNothingDelivered
	}

	if d.cfg.DeleteAfter <= 0 {
		return nil
	}
	noticeID, _ := d.c.SendMessage(chatID, fmt.Sprintf(
		"<b>🌺 <u>Notice</u> 🌺</b>\n\n<b>This file will be deleted in %s. "+
			"Please save or forward it to your saved messages before it gets deleted.</b>",
		gate.Readable(d.cfg.DeleteAfter)), nil)

	go func() {
		d.sleep(d.cfg.DeleteAfter)
		for _, msgID := range sent {
			if err := d.c.DeleteMessage(chatID, msgID); err != nil {
				log.Printf("delivery: self-destruct %d in %d: %v", msgID, chatID, err)
			}
		}
		if noticeID != 0 {
			_ = d.c.EditMessageText(chatID, noticeID, "<b>Your file has been successfully deleted! 😼</b>")
		}
	}()
	return nil
}

// caption builds the delivered caption from the cached channel post.
// The template applies only to documents; other posts keep whatever
// caption the copy carries natively.
func (d *Delivery) caption(msgID int64) string {
	if d.cfg.CustomCaption == "" {
		return ""
	}
	var post models.ChannelPost
	if err := d.db.Where("message_id = ?", msgID).First(&post).Error; err != nil {
		return ""
	}
	if !post.HasDocument {
		return ""
	}
	out := strings.ReplaceAll(d.cfg.CustomCaption, "{previouscaption}", post.Caption)
	out = strings.ReplaceAll(out, "{filename}", post.FileName)
	return out
}
