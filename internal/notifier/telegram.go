package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"StockPulse/internal/logger"
)

// DefaultAPIBase is the Telegram Bot API root.
const DefaultAPIBase = "https://api.telegram.org"

// maxMessageLen is Telegram's limit on one message body.
const maxMessageLen = 4096

type sendMessageRequest struct {
	ChatID         string `json:"chat_id"`
	Text           string `json:"text"`
	ParseMode      string `json:"parse_mode"`
	DisablePreview bool   `json:"disable_web_page_preview"`
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	logger   *logger.Logger
	// retryUnit scales the SendWithRetry backoff.
	retryUnit time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, l *logger.Logger) *TelegramNotifier {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if l == nil {
		l = logger.NewSilent()
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger:    l,
		retryUnit: time.Second,
	}
}

func (t *TelegramNotifier) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, name)
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	text = truncateHTML(text, maxMessageLen)
	body, err := json.Marshal(sendMessageRequest{
		ChatID:         t.ChatID,
		Text:           text,
		ParseMode:      "HTML",
		DisablePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * t.retryUnit
		t.logger.Warn().Err(err).Int("attempt", i+1).Int("of", maxRetries+1).Dur("retry_in", backoff).Msg("telegram send failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// closeTagRoom is reserved for the closing tags truncateHTML appends.
const closeTagRoom = 32

// truncateHTML shortens an HTML message to at most limit bytes. The cut never
// splits a rune, a tag or an entity, and tags left open are closed.
func truncateHTML(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - len("...") - closeTagRoom
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	kept := text[:cut]
	if i := strings.LastIndexByte(kept, '<'); i >= 0 && !strings.Contains(kept[i:], ">") {
		kept = kept[:i]
	}
	if i := strings.LastIndexByte(kept, '&'); i >= 0 && !strings.Contains(kept[i:], ";") {
		kept = kept[:i]
	}

	var b strings.Builder
	b.WriteString(kept)
	b.WriteString("...")
	open := openTags(kept)
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</" + open[i] + ">")
	}
	return b.String()
}

// openTags returns the tags still open at the end of s, outermost first.
func openTags(s string) []string {
	var stack []string
	for {
		start := strings.IndexByte(s, '<')
		if start < 0 {
			return stack
		}
		end := strings.IndexByte(s[start:], '>')
		if end < 0 {
			return stack
		}
		inner := s[start+1 : start+end]
		s = s[start+end+1:]

		closing := strings.HasPrefix(inner, "/")
		fields := strings.Fields(strings.Trim(inner, "/"))
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		switch {
		case closing:
			if n := len(stack); n > 0 && stack[n-1] == name {
				stack = stack[:n-1]
			}
		case !strings.HasSuffix(inner, "/"):
			stack = append(stack, name)
		}
	}
}
