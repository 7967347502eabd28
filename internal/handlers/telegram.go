package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/ulugbekdev/tolov-bot/internal/messages"
)

// BotMessenger adapts *bot.Bot to the one-text-out contract the dialog
// engine and the reminder scheduler depend on.
type BotMessenger struct {
	b *bot.Bot
}

func NewBotMessenger(b *bot.Bot) *BotMessenger {
	return &BotMessenger{b: b}
}

func (m *BotMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := m.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

// BotUsernameResolver looks a username up via GetChat. Callers treat
// any failure as "no handle".
type BotUsernameResolver struct {
	b *bot.Bot
}

func NewBotUsernameResolver(b *bot.Bot) *BotUsernameResolver {
	return &BotUsernameResolver{b: b}
}

func (r *BotUsernameResolver) Username(ctx context.Context, userID int64) (string, error) {
	chat, err := r.b.GetChat(ctx, &bot.GetChatParams{ChatID: userID})
	if err != nil {
		return "", err
	}
	return chat.Username, nil
}
