package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hugbridge/pkg/channel"
	"hugbridge/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// Adapter bridges Telegram updates into dispatcher events and implements the
// outbound channel.Transport surface on top of telego.
type Adapter struct {
	bot *telego.Bot
	log *slog.Logger
}

// NewAdapter validates the token and constructs the bot client.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Adapter{
		bot: bot,
		log: log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and forwards classified events to the
// handler. Handler errors are contained here; they never stop the loop.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	updates, err := a.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			event, ok := classifyUpdate(update)
			if !ok {
				continue
			}

			a.log.Info("Received event", "kind", string(event.Kind), "chat_id", event.ChatID, "content", previewText(event.Text))

			if err := handler(ctx, event); err != nil {
				a.log.Error("Failed to process inbound event", "kind", string(event.Kind), "chat_id", event.ChatID, "error", err)
			}
		}
	}
}

// classifyUpdate maps one raw update onto the dispatcher's event model.
// Non-text updates and unsupported chat types are dropped.
func classifyUpdate(update telego.Update) (channel.Event, bool) {
	if callback := update.CallbackQuery; callback != nil {
		event := channel.Event{
			Kind:         channel.KindCallback,
			CallbackID:   callback.ID,
			CallbackData: callback.Data,
		}
		if message := callback.Message; message != nil {
			event.ChatID = message.GetChat().ID
			event.MessageID = message.GetMessageID()
		}
		return event, true
	}

	message := update.Message
	if message == nil {
		return channel.Event{}, false
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return channel.Event{}, false
	}

	var chatType channel.ChatType
	switch message.Chat.Type {
	case telego.ChatTypePrivate:
		chatType = channel.ChatPrivate
	case telego.ChatTypeGroup, telego.ChatTypeSupergroup:
		chatType = channel.ChatGroup
	default:
		return channel.Event{}, false
	}

	event := channel.Event{
		ChatID:    message.Chat.ID,
		ChatType:  chatType,
		MessageID: message.MessageID,
	}

	if strings.HasPrefix(text, "/") {
		name, args := splitCommand(text)
		if name == "" {
			return channel.Event{}, false
		}
		event.Kind = channel.KindCommand
		event.Command = name
		event.Text = args
		return event, true
	}

	event.Kind = channel.KindMessage
	event.Text = text
	return event, true
}

// splitCommand parses "/name@bot args" into a lowercase name and the
// argument remainder.
func splitCommand(text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
	return strings.ToLower(name), args
}

// SendText sends a message, optionally as a threaded reply, and returns the
// new message id.
func (a *Adapter) SendText(ctx context.Context, chatID int64, text string, replyTo int) (int, error) {
	params := tu.Message(tu.ID(chatID), text)
	if replyTo > 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: replyTo})
	}

	message, err := a.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}

	return message.MessageID, nil
}

// SendPhoto uploads the image at imagePath, optionally as a threaded reply.
func (a *Adapter) SendPhoto(ctx context.Context, chatID int64, imagePath string, replyTo int) error {
	file, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open image file: %w", err)
	}
	defer file.Close()

	params := tu.Photo(tu.ID(chatID), tu.File(file))
	if replyTo > 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: replyTo})
	}

	if _, err := a.bot.SendPhoto(ctx, params); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	return nil
}

// SendTyping shows the typing chat action.
func (a *Adapter) SendTyping(ctx context.Context, chatID int64) error {
	return a.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping))
}

// SendMenu sends an inline keyboard with one option per row.
func (a *Adapter) SendMenu(ctx context.Context, chatID int64, title string, options []channel.MenuOption) error {
	rows := make([][]telego.InlineKeyboardButton, 0, len(options))
	for _, option := range options {
		rows = append(rows, tu.InlineKeyboardRow(tu.InlineKeyboardButton(option.Label).WithCallbackData(option.Data)))
	}

	params := tu.Message(tu.ID(chatID), title).WithReplyMarkup(tu.InlineKeyboard(rows...))
	if _, err := a.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send menu: %w", err)
	}

	return nil
}

// AnswerCallback acknowledges a callback query with a short notification.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	return a.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
}

// ClearMenu removes the inline keyboard from a previously sent message.
func (a *Adapter) ClearMenu(ctx context.Context, chatID int64, messageID int) error {
	_, err := a.bot.EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	return err
}

// DeleteMessage removes a message, used for placeholder cleanup.
func (a *Adapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return a.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
}

// SetCommandMenu registers the bot command list shown by the client UI.
func (a *Adapter) SetCommandMenu(ctx context.Context, commands []channel.Command) error {
	botCommands := make([]telego.BotCommand, 0, len(commands))
	for _, command := range commands {
		botCommands = append(botCommands, telego.BotCommand{
			Command:     command.Name,
			Description: command.Description,
		})
	}

	return a.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: botCommands})
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
