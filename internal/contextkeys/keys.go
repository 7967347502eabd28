package contextkeys

import "context"

type messageTypeKey struct{}
type chatKindKey struct{}

type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeCommand MessageType = "command"
	MessageTypeUnknown MessageType = "unknown"
)

type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
)

func WithMessageType(ctx context.Context, msgType MessageType) context.Context {
	return context.WithValue(ctx, messageTypeKey{}, msgType)
}

func GetMessageType(ctx context.Context) (MessageType, bool) {
	v := ctx.Value(messageTypeKey{})
	if v == nil {
		return MessageTypeUnknown, false
	}
	return v.(MessageType), true
}

func WithChatKind(ctx context.Context, kind ChatKind) context.Context {
	return context.WithValue(ctx, chatKindKey{}, kind)
}

func GetChatKind(ctx context.Context) (ChatKind, bool) {
	v := ctx.Value(chatKindKey{})
	if v == nil {
		return ChatPrivate, false
	}
	return v.(ChatKind), true
}
