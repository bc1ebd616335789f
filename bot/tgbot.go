// Package bot sends operator notifications to a fixed set of Telegram chats
// in the background.
// Records reach it through lib/logger.TelegramHandler: warnings and errors,
// plus every access grant (tagged with tg_topic=access).
package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"brincafacil/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

const queueSize = 100

// TgBot delivers messages from a single worker goroutine; SendMessage only enqueues.
type TgBot struct {
	log     *slog.Logger
	api     Sender
	chatIds []int64
	queue   chan string
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewTgBot(apiKey string, chatIds []int64, log *slog.Logger) (*TgBot, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("telegram api key is empty")
	}
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return newWithSender(api, chatIds, log), nil
}

func newWithSender(api Sender, chatIds []int64, log *slog.Logger) *TgBot {
	t := &TgBot{
		log:     log.With(sl.Module("tgbot")),
		api:     api,
		chatIds: chatIds,
		queue:   make(chan string, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go t.run()
	return t
}

// SendMessage queues an already formatted MarkdownV2 message for every configured chat.
// It never blocks: when the queue is full or the bot is closed the message is dropped.
func (t *TgBot) SendMessage(msg string) {
	select {
	case <-t.done:
		return
	default:
	}
	select {
	case t.queue <- msg:
	default:
		// debug level: warnings are forwarded back to telegram
		t.log.Debug("queue full, message dropped")
	}
}

// Close delivers what is already queued and stops the worker.
func (t *TgBot) Close() {
	t.once.Do(func() {
		close(t.done)
	})
	<-t.stopped
}

func (t *TgBot) run() {
	defer close(t.stopped)
	for {
		select {
		case msg := <-t.queue:
			t.deliver(msg)
		case <-t.done:
			for {
				select {
				case msg := <-t.queue:
					t.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (t *TgBot) deliver(msg string) {
	for _, id := range t.chatIds {
		t.plainResponse(id, msg)
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		// debug level: warnings are forwarded back to telegram
		t.log.With(slog.Int64("id", chatId)).Debug("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Debug("sending safe message", sl.Err(err))
		}
	}
}

func Sanitize(input string) string {
	const reservedChars = "\\_*[]()~`>#+-=|{}.!"
	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
