package channel

import "context"

// ChatType distinguishes one-to-one chats from multi-party chats; the
// dispatcher's prompt-acceptance policy depends on it.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// EventKind classifies one inbound transport event.
type EventKind string

const (
	KindCommand  EventKind = "command"
	KindCallback EventKind = "callback"
	KindMessage  EventKind = "message"
)

// Event is one classified inbound event delivered to the dispatcher.
type Event struct {
	Kind     EventKind
	ChatID   int64
	ChatType ChatType

	// MessageID is the origin message for commands and plain messages, and
	// the menu message for callbacks.
	MessageID int

	// Text holds the plain message text, or the argument remainder after a
	// command name.
	Text string

	// Command is the lowercase command name without the leading slash.
	Command string

	CallbackID   string
	CallbackData string
}

// Handler consumes one inbound event.
type Handler func(context.Context, Event) error

// Command describes one entry of the bot command menu.
type Command struct {
	Name        string
	Description string
}

// MenuOption is one inline selection button.
type MenuOption struct {
	Label string
	Data  string
}

// Transport is the outbound surface of the messaging platform. replyTo of
// zero means no threaded reply.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, replyTo int) (messageID int, err error)
	SendPhoto(ctx context.Context, chatID int64, imagePath string, replyTo int) error
	SendTyping(ctx context.Context, chatID int64) error
	SendMenu(ctx context.Context, chatID int64, title string, options []MenuOption) error
	AnswerCallback(ctx context.Context, callbackID string, text string) error
	ClearMenu(ctx context.Context, chatID int64, messageID int) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SetCommandMenu(ctx context.Context, commands []Command) error
}

// Adapter bridges one external transport (for example Telegram) into the bot.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}
