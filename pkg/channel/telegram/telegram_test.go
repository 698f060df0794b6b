package telegram

import (
	"strings"
	"testing"

	"hugbridge/pkg/channel"

	"github.com/mymmrac/telego"
)

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		input    string
		wantName string
		wantArgs string
	}{
		{input: "/start", wantName: "start", wantArgs: ""},
		{input: "/generate a red fox", wantName: "generate", wantArgs: "a red fox"},
		{input: "/Model", wantName: "model", wantArgs: ""},
		{input: "/generate@hugbridge_bot sunset over water", wantName: "generate", wantArgs: "sunset over water"},
	}

	for _, tc := range cases {
		name, args := splitCommand(tc.input)
		if name != tc.wantName || args != tc.wantArgs {
			t.Fatalf("splitCommand(%q) = (%q, %q), want (%q, %q)", tc.input, name, args, tc.wantName, tc.wantArgs)
		}
	}
}

func TestClassifyUpdateCommand(t *testing.T) {
	update := telego.Update{
		Message: &telego.Message{
			MessageID: 7,
			Chat:      telego.Chat{ID: 100, Type: telego.ChatTypeGroup},
			Text:      "/generate a red fox",
		},
	}

	event, ok := classifyUpdate(update)
	if !ok {
		t.Fatal("expected command update to classify")
	}
	if event.Kind != channel.KindCommand {
		t.Fatalf("kind = %q, want %q", event.Kind, channel.KindCommand)
	}
	if event.Command != "generate" || event.Text != "a red fox" {
		t.Fatalf("command = %q text = %q, want generate / a red fox", event.Command, event.Text)
	}
	if event.ChatType != channel.ChatGroup {
		t.Fatalf("chat type = %q, want %q", event.ChatType, channel.ChatGroup)
	}
	if event.MessageID != 7 {
		t.Fatalf("message id = %d, want 7", event.MessageID)
	}
}

func TestClassifyUpdatePlainMessage(t *testing.T) {
	update := telego.Update{
		Message: &telego.Message{
			MessageID: 8,
			Chat:      telego.Chat{ID: 100, Type: telego.ChatTypePrivate},
			Text:      "  hello  ",
		},
	}

	event, ok := classifyUpdate(update)
	if !ok {
		t.Fatal("expected message update to classify")
	}
	if event.Kind != channel.KindMessage {
		t.Fatalf("kind = %q, want %q", event.Kind, channel.KindMessage)
	}
	if event.Text != "hello" {
		t.Fatalf("text = %q, want %q", event.Text, "hello")
	}
	if event.ChatType != channel.ChatPrivate {
		t.Fatalf("chat type = %q, want %q", event.ChatType, channel.ChatPrivate)
	}
}

func TestClassifyUpdateCallback(t *testing.T) {
	update := telego.Update{
		CallbackQuery: &telego.CallbackQuery{
			ID:      "cb-1",
			Data:    "switch_model_beta",
			Message: &telego.Message{MessageID: 9, Chat: telego.Chat{ID: 100}},
		},
	}

	event, ok := classifyUpdate(update)
	if !ok {
		t.Fatal("expected callback update to classify")
	}
	if event.Kind != channel.KindCallback {
		t.Fatalf("kind = %q, want %q", event.Kind, channel.KindCallback)
	}
	if event.CallbackID != "cb-1" || event.CallbackData != "switch_model_beta" {
		t.Fatalf("callback = (%q, %q), want (cb-1, switch_model_beta)", event.CallbackID, event.CallbackData)
	}
	if event.ChatID != 100 || event.MessageID != 9 {
		t.Fatalf("chat = %d message = %d, want 100 / 9", event.ChatID, event.MessageID)
	}
}

func TestClassifyUpdateDropsNonText(t *testing.T) {
	if _, ok := classifyUpdate(telego.Update{}); ok {
		t.Fatal("expected empty update to be dropped")
	}

	update := telego.Update{
		Message: &telego.Message{Chat: telego.Chat{ID: 1, Type: telego.ChatTypePrivate}},
	}
	if _, ok := classifyUpdate(update); ok {
		t.Fatal("expected non-text message to be dropped")
	}

	update = telego.Update{
		Message: &telego.Message{Chat: telego.Chat{ID: 1, Type: telego.ChatTypeChannel}, Text: "hi"},
	}
	if _, ok := classifyUpdate(update); ok {
		t.Fatal("expected channel chat to be dropped")
	}
}

func TestPreviewText(t *testing.T) {
	short := " hello "
	if got := previewText(short); got != "hello" {
		t.Fatalf("previewText short = %q, want %q", got, "hello")
	}

	long := strings.Repeat("a", messagePreviewLimit+20)
	got := previewText(long)
	if len(got) != messagePreviewLimit+3 {
		t.Fatalf("previewText long len = %d, want %d", len(got), messagePreviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("previewText long = %q, want ellipsis suffix", got)
	}
}
