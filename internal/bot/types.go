package bot

type Update struct {
	UpdateID    int64          `json:"update_id"`
	Message     *Message       `json:"message,omitempty"`
	ChannelPost *Message       `json:"channel_post,omitempty"`
	Callback    *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int64     `json:"message_id"`
	From      *User     `json:"from"`
	Chat      *Chat     `json:"chat"`
	Text      string    `json:"text"`
	Caption   string    `json:"caption"`
	Document  *Document `json:"document,omitempty"`
	ReplyTo   *Message  `json:"reply_to_message,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"` // private | group | supergroup | channel
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}
