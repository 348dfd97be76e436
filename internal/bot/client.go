package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrRecipientGone marks a permanent delivery failure: the user blocked
// the bot or deleted their account. Callers deactivate the user row
// instead of retrying.
var ErrRecipientGone = errors.New("recipient blocked or deactivated")

type Client struct {
	token  string
	apiURL string
	httpc  *http.Client

	// sleep is swapped out in tests so flood-wait retries don't stall.
	sleep func(time.Duration)
}

func NewClient(token, apiBase string) *Client {
	return &Client{
		token:  token,
		apiURL: strings.TrimRight(apiBase, "/") + "/bot" + token,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		sleep:  time.Sleep,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// call posts one Bot API method. A flood-wait (429) suspends for the
// indicated duration and retries exactly once; a second failure is
// terminal for this call.
func (c *Client) call(method string, payload any) (json.RawMessage, error) {
	res, err := c.post(method, payload)
	if err != nil {
		return nil, err
	}
	if res.OK {
		return res.Result, nil
	}
	if res.ErrorCode == http.StatusTooManyRequests {
		wait := time.Second
		if res.Parameters != nil && res.Parameters.RetryAfter > 0 {
			wait = time.Duration(res.Parameters.RetryAfter) * time.Second
		}
		c.sleep(wait)
		res, err = c.post(method, payload)
		if err != nil {
			return nil, err
		}
		if res.OK {
			return res.Result, nil
		}
	}
	if res.ErrorCode == http.StatusForbidden {
		return nil, fmt.Errorf("telegram %s: %s: %w", method, res.Description, ErrRecipientGone)
	}
	return nil, fmt.Errorf("telegram %s: %s", method, res.Description)
}

func (c *Client) post(method string, payload any) (*apiResponse, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("telegram %s: %s", method, resp.Status)
	}
	return &out, nil
}

func messageID(raw json.RawMessage) int64 {
	var m struct {
		MessageID int64 `json:"message_id"`
	}
	_ = json.Unmarshal(raw, &m)
	return m.MessageID
}

func (c *Client) SendMessage(chatID int64, text string, replyMarkup any) (int64, error) {
	data := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
		"disable_web_page_preview": true,
	}
	if replyMarkup != nil {
		data["reply_markup"] = replyMarkup
	}
	raw, err := c.call("sendMessage", data)
	if err != nil {
		return 0, err
	}
	return messageID(raw), nil
}

// CopyMessage re-sends a channel message to chatID without the forward
// header. caption overrides the original caption when non-empty.
func (c *Client) CopyMessage(chatID, fromChatID, msgID int64, caption string, protect bool) (int64, error) {
	data := map[string]any{
		"chat_id":         chatID,
		"from_chat_id":    fromChatID,
		"message_id":      msgID,
		"protect_content": protect,
	}
	if caption != "" {
		data["caption"] = caption
		data["parse_mode"] = "HTML"
	}
	raw, err := c.call("copyMessage", data)
	if err != nil {
		return 0, err
	}
	return messageID(raw), nil
}

func (c *Client) DeleteMessage(chatID, msgID int64) error {
	_, err := c.call("deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": msgID,
	})
	return err
}

func (c *Client) EditMessageText(chatID, msgID int64, text string) error {
	_, err := c.call("editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": msgID,
		"text":       text,
		"parse_mode": "HTML",
	})
	return err
}

func (c *Client) EditMessageReplyMarkup(chatID, msgID int64, replyMarkup any) error {
	_, err := c.call("editMessageReplyMarkup", map[string]any{
		"chat_id":      chatID,
		"message_id":   msgID,
		"reply_markup": replyMarkup,
	})
	return err
}

func (c *Client) SendPhoto(chatID int64, photoURL, caption string, replyMarkup any) error {
	data := map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
	}
	if caption != "" {
		data["caption"] = caption
		data["parse_mode"] = "HTML"
	}
	if replyMarkup != nil {
		data["reply_markup"] = replyMarkup
	}
	_, err := c.call("sendPhoto", data)
	return err
}

func (c *Client) AnswerCallbackQuery(id string) error {
	_, err := c.call("answerCallbackQuery", map[string]any{"callback_query_id": id})
	return err
}

// ChatMemberStatus returns the user's membership status in a chat
// (creator, administrator, member, restricted, left, kicked).
func (c *Client) ChatMemberStatus(chatID, userID int64) (string, error) {
	raw, err := c.call("getChatMember", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	})
	if err != nil {
		return "", err
	}
	var m struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}
	return m.Status, nil
}
