package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a reset notification.
type TelegramMessage struct {
	Success   bool
	Router    string
	StartTime time.Time
	Duration  time.Duration

	// IP change info (if successful).
	OldIP  string
	NewIP  string
	Method ResetMethod

	// Error info (if failed).
	ErrorMessage string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
