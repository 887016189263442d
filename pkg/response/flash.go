package response

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"

	flashCookie  = "messages"
	flashPending = "flash_pending"
)

// Message is a one-shot notice shown on the next rendered page.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Flash queues a message for the next rendered page. It survives a Redirect.
func Flash(c *gin.Context, level, text string) {
	c.Set(flashPending, append(pending(c), Message{Level: level, Text: text}))
}

func Success(c *gin.Context, text string) { Flash(c, LevelSuccess, text) }
func Warning(c *gin.Context, text string) { Flash(c, LevelWarning, text) }
func Error(c *gin.Context, text string)   { Flash(c, LevelError, text) }

func pending(c *gin.Context) []Message {
	if v, ok := c.Get(flashPending); ok {
		if msgs, ok := v.([]Message); ok {
			return msgs
		}
	}
	return nil
}

// consumeMessages returns the messages carried over from the previous response
// followed by the ones queued during this request, and expires the cookie.
func consumeMessages(c *gin.Context) []Message {
	msgs := []Message{}

	if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
		msgs = append(msgs, decodeMessages(raw)...)
		setFlashCookie(c, "", -1)
	}

	msgs = append(msgs, pending(c)...)
	c.Set(flashPending, []Message(nil))
	return msgs
}

func persistMessages(c *gin.Context) {
	msgs := pending(c)

	// keep unread messages from an earlier redirect
	if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
		msgs = append(decodeMessages(raw), msgs...)
	}

	if len(msgs) == 0 {
		return
	}

	payload, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	setFlashCookie(c, base64.RawURLEncoding.EncodeToString(payload), 300)
	c.Set(flashPending, []Message(nil))
}

func decodeMessages(raw string) []Message {
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil
	}
	return msgs
}

func setFlashCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, maxAge, "/", "", false, true)
}
