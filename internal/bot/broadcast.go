package bot

import (
	"errors"
	"fmt"
	"log"

	"github.com/rainsgod/filegate/internal/models"
)

// handleBroadcast copies the replied-to message to every deliverable
// user. Recipients that turn out blocked or deactivated get their row
// deactivated instead of aborting the run.
func (d *Dispatcher) handleBroadcast(chat int64, m *Message) {
	if m.ReplyTo == nil {
		d.reply(chat, "<code>Use this command as a reply to any telegram message.</code>")
		return
	}

	var users []models.User
	if err := d.db.Where("deliverable = ?", true).Find(&users).Error; err != nil {
		log.Printf("broadcast: load users: %v", err)
		d.reply(chat, "Failed to load the user base. 😔")
		return
	}

	waitID, _ := d.c.SendMessage(chat, "<i>Broadcasting Message.. This will Take Some Time ⌚</i>", nil)

	var total, successful, gone, unsuccessful int
	for _, u := range users {
		total++
		_, err := d.c.CopyMessage(u.TelegramID, chat, m.ReplyTo.MessageID, "", false)
		if err == nil {
			successful++
			continue
		}
		if errors.Is(err, ErrRecipientGone) {
			gone++
			if derr := d.db.Model(&models.User{}).Where("telegram_id = ?", u.TelegramID).
				UpdateColumn("deliverable", false).Error; derr != nil {
				log.Printf("broadcast: deactivate %d: %v", u.TelegramID, derr)
			}
			continue
		}
		unsuccessful++
		log.Printf("broadcast: copy to %d: %v", u.TelegramID, err)
	}

	status := fmt.Sprintf("<b><u>Broadcast Completed 🟢</u>\n\n"+
		"Total Users: <code>%d</code>\n"+
		"Successful: <code>%d</code>\n"+
		"Blocked/Deleted: <code>%d</code>\n"+
		"Unsuccessful: <code>%d</code></b>",
		total, successful, gone, unsuccessful)
	if waitID != 0 {
		_ = d.c.EditMessageText(chat, waitID, status)
	} else {
		d.reply(chat, status)
	}
}
