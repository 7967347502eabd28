package handlers

import (
	"context"
	"log"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ulugbekdev/tolov-bot/internal/contextkeys"
	"github.com/ulugbekdev/tolov-bot/internal/dialog"
	"github.com/ulugbekdev/tolov-bot/internal/messages"
	"github.com/ulugbekdev/tolov-bot/types"
)

type Handlers struct {
	engine   *dialog.Engine
	students types.StudentStore
	groups   types.GroupStore
	adminID  int64
}

func NewHandlers(engine *dialog.Engine, students types.StudentStore, groups types.GroupStore, adminID int64) *Handlers {
	return &Handlers{
		engine:   engine,
		students: students,
		groups:   groups,
		adminID:  adminID,
	}
}

// MainHandler routes an admin update by the classification the
// middleware attached to the context.
func (h *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	msgType, _ := contextkeys.GetMessageType(ctx)
	chatKind, _ := contextkeys.GetChatKind(ctx)

	switch msgType {
	case contextkeys.MessageTypeCommand:
		h.HandleCommand(ctx, b, update, chatKind)
	case contextkeys.MessageTypeText:
		// Free text only drives dialogues, and those live in the
		// admin's direct chat.
		if chatKind == contextkeys.ChatPrivate {
			h.HandleText(ctx, b, update)
		}
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update, chatKind contextkeys.ChatKind) {
	chatID := update.Message.Chat.ID

	switch command(update.Message.Text) {
	case "/start":
		if chatKind == contextkeys.ChatGroup {
			return
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        messages.StartAdmin(),
			ParseMode:   messages.ParseModeHTML,
			ReplyMarkup: mainMenuKeyboard(),
		})

	case "/setgroup":
		if chatKind != contextkeys.ChatGroup {
			h.reply(ctx, b, chatID, messages.SetGroupOnlyInGroup())
			return
		}
		group := types.Group{
			GroupID: chatID,
			Title:   update.Message.Chat.Title,
		}
		if err := h.groups.UpsertGroup(group); err != nil {
			log.Printf("Failed to register group %d: %v", chatID, err)
			h.reply(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		log.Printf("Group registered: %q (%d)", group.Title, group.GroupID)
		h.reply(ctx, b, chatID, messages.GroupRegistered(group.Title, group.GroupID))

	default:
		if chatKind == contextkeys.ChatGroup {
			return
		}
		h.reply(ctx, b, chatID, messages.ErrorUnknownCommand())
	}
}

func (h *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if action, ok := menuActions[text]; ok {
		h.handleMenuAction(ctx, b, chatID, action)
		return
	}

	replies, handled, err := h.engine.HandleText(ctx, h.adminID, text)
	if err != nil {
		log.Printf("Dialog error for admin %d: %v", h.adminID, err)
		h.reply(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	if !handled {
		return
	}
	for _, text := range replies {
		h.reply(ctx, b, chatID, text)
	}
}

func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	if err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}
