package middleware

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ulugbekdev/tolov-bot/internal/contextkeys"
	"github.com/ulugbekdev/tolov-bot/internal/messages"
)

type Middlewares struct {
	adminID int64
}

func NewMessageAnalyzer(adminID int64) *Middlewares {
	return &Middlewares{adminID: adminID}
}

// AdminGateMiddleware drops every update that is not from the
// administrator. The one exception: a non-admin sending /start in a
// direct chat gets a courtesy reply so students know the bot is alive.
func (m *Middlewares) AdminGateMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		kind := contextkeys.ChatPrivate
		switch string(update.Message.Chat.Type) {
		case "group", "supergroup":
			kind = contextkeys.ChatGroup
		case "channel":
			return
		}
		ctx = contextkeys.WithChatKind(ctx, kind)

		if update.Message.From.ID != m.adminID {
			if kind == contextkeys.ChatPrivate && strings.HasPrefix(strings.TrimSpace(update.Message.Text), "/start") {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   messages.StartStudent(),
				})
			}
			return
		}

		next(ctx, b, update)
	}
}

// AnalyzeMessageMiddleware tags the update as a command or free text.
func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msgType := contextkeys.MessageTypeUnknown
		if update.Message != nil && update.Message.Text != "" {
			if strings.HasPrefix(update.Message.Text, "/") {
				msgType = contextkeys.MessageTypeCommand
			} else {
				msgType = contextkeys.MessageTypeText
			}
		}
		next(contextkeys.WithMessageType(ctx, msgType), b, update)
	}
}
