// Package telegram provides a minimal Telegram Bot API client used to page
// operators.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	sharedconfig "verge/internal/shared/config"
	"verge/internal/shared/logger"
)

// BotService sends messages through the Telegram Bot HTTP API.
type BotService struct {
	config     sharedconfig.TelegramConfig
	httpClient *http.Client
	baseURL    string
	logger     logger.Interface
}

// NewBotService creates a Telegram bot service.
func NewBotService(cfg sharedconfig.TelegramConfig, log logger.Interface) *BotService {
	return &BotService{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    fmt.Sprintf("https://api.telegram.org/bot%s", cfg.BotToken),
		logger:     log,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage sends a plain-text message to one chat.
func (s *BotService) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	return s.makeRequest(ctx, fmt.Sprintf("%s/sendMessage", s.baseURL), body)
}

// SendMessageToAdmins delivers text to every configured admin chat. Delivery
// failures are logged per chat; the first error is returned.
func (s *BotService) SendMessageToAdmins(ctx context.Context, text string) error {
	if !s.config.Enabled() {
		return nil
	}

	var firstErr error
	for _, chatID := range s.config.AdminChatIDs {
		if err := s.SendMessage(ctx, chatID, text); err != nil {
			s.logger.Errorw("failed to send telegram message to admin",
				"chat_id", chatID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *BotService) makeRequest(ctx context.Context, url string, body map[string]any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	return nil
}
