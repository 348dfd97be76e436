package bot

import "log"

// subscribed reports whether the user is a member of every force-sub
// channel. Any lookup failure counts as not joined; the user can always
// retry through the join keyboard.
func (d *Dispatcher) subscribed(userID int64) bool {
	for _, ch := range d.cfg.ForceSubChannels {
		status, err := d.c.ChatMemberStatus(ch, userID)
		if err != nil {
			log.Printf("force-sub: member check %d in %d: %v", userID, ch, err)
			return false
		}
		switch status {
		case "creator", "administrator", "member":
		default:
			return false
		}
	}
	return true
}

// joinKeyboard builds the force-sub prompt: one join button per channel
// plus a retry button that preserves the original start payload.
func (d *Dispatcher) joinKeyboard(payload string) any {
	rows := make([][]map[string]any, 0, len(d.cfg.ForceSubLinks)+1)
	for _, link := range d.cfg.ForceSubLinks {
		rows = append(rows, []map[string]any{
			{"text": "Join Channel 👆", "url": link},
		})
	}
	if payload != "" {
		rows = append(rows, []map[string]any{
			{"text": "Try Again 🥺", "url": "https://t.me/" + d.cfg.BotUsername + "?start=" + payload},
		})
	}
	return map[string]any{"inline_keyboard": rows}
}
