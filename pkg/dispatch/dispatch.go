package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hugbridge/pkg/channel"
	"hugbridge/pkg/queue"
	"hugbridge/pkg/registry"
	"hugbridge/pkg/session"
)

const (
	// CallbackPrefix tags model-selection callback data.
	CallbackPrefix = "switch_model_"

	// TriggerCommand is the explicit prompt command honored in group chats.
	TriggerCommand = "generate"

	placeholderText = "Processing your request, please wait..."
	menuTitle       = "Select a model to switch:"

	startText = "Hello! I am an AI-powered bot. You can interact with me by sending any text message. " +
		"Use /help to see available commands."
	helpText = "Here are some commands you can use:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n" +
		"/info - Get information about this bot\n" +
		"/model - Switch to a different AI model\n" +
		"/generate <prompt> - Generate from a prompt (required in group chats)\n\n" +
		"To use the bot, simply send any text message, and I will respond with AI-generated text or images."
	infoText = "I am a Telegram bot bridging chats to remote AI models. " +
		"I can generate responses to your text messages and create images. " +
		"Feel free to ask me anything!"
	unknownCommandText = "Unknown command. Use /help to see available commands."
	generateUsageText  = "Usage: /generate <prompt>"
)

// Dispatcher routes classified inbound events: informational commands are
// answered synchronously, model-switch callbacks mutate the session, and
// accepted prompts are acknowledged and enqueued without blocking the caller.
type Dispatcher struct {
	registry  *registry.Registry
	session   *session.State
	queue     *queue.Queue
	transport channel.Transport
	log       *slog.Logger
}

func New(reg *registry.Registry, state *session.State, q *queue.Queue, transport channel.Transport, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		registry:  reg,
		session:   state,
		queue:     q,
		transport: transport,
		log:       log.With("component", "dispatch"),
	}
}

// Commands is the menu registered with the messaging platform at startup.
func Commands() []channel.Command {
	return []channel.Command{
		{Name: "start", Description: "Start the bot"},
		{Name: "help", Description: "Show available commands"},
		{Name: "info", Description: "About this bot"},
		{Name: "model", Description: "Switch to a different AI model"},
		{Name: TriggerCommand, Description: "Generate from a prompt"},
	}
}

// Handle routes one inbound event. Errors are contained here: they are
// logged and never crash the caller's receive loop.
func (d *Dispatcher) Handle(ctx context.Context, event channel.Event) error {
	switch event.Kind {
	case channel.KindCommand:
		return d.handleCommand(ctx, event)
	case channel.KindCallback:
		return d.handleCallback(ctx, event)
	case channel.KindMessage:
		return d.handleMessage(ctx, event)
	default:
		d.log.Debug("Ignoring event of unknown kind", "kind", string(event.Kind))
		return nil
	}
}

// handleCommand answers slash commands synchronously; none of them touch the
// queue except the explicit generation trigger.
func (d *Dispatcher) handleCommand(ctx context.Context, event channel.Event) error {
	switch event.Command {
	case "start":
		return d.reply(ctx, event.ChatID, startText)
	case "help":
		return d.reply(ctx, event.ChatID, helpText)
	case "info":
		return d.reply(ctx, event.ChatID, infoText)
	case "model":
		return d.sendModelMenu(ctx, event.ChatID)
	case TriggerCommand:
		prompt := strings.TrimSpace(event.Text)
		if prompt == "" {
			return d.reply(ctx, event.ChatID, generateUsageText)
		}
		return d.acceptPrompt(ctx, event, prompt)
	default:
		return d.reply(ctx, event.ChatID, unknownCommandText)
	}
}

// handleCallback processes a model-switch selection. The selection menu is
// removed unconditionally, whether or not the key was recognized.
func (d *Dispatcher) handleCallback(ctx context.Context, event channel.Event) error {
	if strings.HasPrefix(event.CallbackData, CallbackPrefix) {
		key := strings.TrimPrefix(event.CallbackData, CallbackPrefix)

		if err := d.session.SetActive(key); err != nil {
			d.log.Debug("Rejected model switch", "key", key, "error", err)
			if err := d.transport.AnswerCallback(ctx, event.CallbackID, "Model not recognized."); err != nil {
				d.log.Warn("Failed to answer callback", "error", err)
			}
		} else {
			descriptor, lookupErr := d.registry.Lookup(key)
			name := key
			if lookupErr == nil {
				name = descriptor.DisplayName
			}
			confirmation := fmt.Sprintf("Switched to model: %s", name)

			d.log.Info("Model switched", "model", key)
			if err := d.transport.AnswerCallback(ctx, event.CallbackID, confirmation); err != nil {
				d.log.Warn("Failed to answer callback", "error", err)
			}
			if _, err := d.transport.SendText(ctx, event.ChatID, confirmation, 0); err != nil {
				d.log.Warn("Failed to send switch confirmation", "error", err)
			}
		}
	}

	if event.MessageID != 0 {
		if err := d.transport.ClearMenu(ctx, event.ChatID, event.MessageID); err != nil {
			d.log.Warn("Failed to clear selection menu", "chat_id", event.ChatID, "error", err)
		}
	}

	return nil
}

// handleMessage applies the chat-type acceptance policy: in private chats
// every plain message is a prompt; in group chats plain text is ignored so
// the bot does not respond to ambient conversation.
func (d *Dispatcher) handleMessage(ctx context.Context, event channel.Event) error {
	if event.ChatType != channel.ChatPrivate {
		return nil
	}

	prompt := strings.TrimSpace(event.Text)
	if prompt == "" {
		return nil
	}

	return d.acceptPrompt(ctx, event, prompt)
}

// acceptPrompt runs the accepted-prompt lifecycle: typing indicator,
// threaded placeholder, enqueue. Control returns immediately; the worker
// delivers the terminal message later.
func (d *Dispatcher) acceptPrompt(ctx context.Context, event channel.Event, prompt string) error {
	if err := d.transport.SendTyping(ctx, event.ChatID); err != nil {
		d.log.Debug("Failed to send typing indicator", "chat_id", event.ChatID, "error", err)
	}

	placeholderID, err := d.transport.SendText(ctx, event.ChatID, placeholderText, event.MessageID)
	if err != nil {
		return fmt.Errorf("send placeholder message: %w", err)
	}

	d.queue.Enqueue(queue.Request{
		ChatID:               event.ChatID,
		Prompt:               prompt,
		OriginMessageID:      event.MessageID,
		PlaceholderMessageID: placeholderID,
	})

	d.log.Info("Prompt enqueued", "chat_id", event.ChatID, "queue_depth", d.queue.Depth())
	return nil
}

func (d *Dispatcher) sendModelMenu(ctx context.Context, chatID int64) error {
	keys := d.registry.Keys()
	options := make([]channel.MenuOption, 0, len(keys))
	for _, key := range keys {
		descriptor, err := d.registry.Lookup(key)
		if err != nil {
			continue
		}
		options = append(options, channel.MenuOption{
			Label: descriptor.DisplayName,
			Data:  CallbackPrefix + key,
		})
	}

	if err := d.transport.SendMenu(ctx, chatID, menuTitle, options); err != nil {
		return fmt.Errorf("send model menu: %w", err)
	}

	return nil
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) error {
	if _, err := d.transport.SendText(ctx, chatID, text, 0); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	return nil
}
