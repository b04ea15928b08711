package telegram

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/command"
	"github.com/sandevgo/emilia/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

const (
	greeting = "Hi, I'm Emilia. Tell me how you're doing, or what you're working on. Type /help for commands."
	busyText = "I'm still answering your previous message. Give me a moment."
	failText = "Something went wrong on my side. Please try again."
)

type Bot struct {
	bot    *tele.Bot
	cfg    *config.TelegramConfig
	convs  core.Conversations
	cmds   core.CmdRouter
	sender *sender
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	convs core.Conversations,
	cmds core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		convs:  convs,
		cmds:   cmds,
		sender: newSender(b),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !allowed(cfg.AllowedChats, c.Chat().ID) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle("/start", func(c tele.Context) error { return c.Send(greeting) })
	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	base := c.Get(baseContextKey).(context.Context)
	sessionID := SessionID(c.Chat().ID)
	ctx := log.WithFields(base, "session", sessionID)
	logger := log.FromCtx(ctx)

	if out, ok := b.cmds.Execute(ctx, sessionID, c.Text()); ok {
		return b.sender.sendMarkdown(ctx, c.Chat(), out, false)
	}

	_ = c.Notify(tele.Typing)

	reply, err := b.convs.SubmitTurn(ctx, sessionID, c.Text())
	switch {
	case errors.Is(err, core.ErrTurnInProgress):
		return c.Send(busyText)
	case errors.Is(err, core.ErrEmptyInput):
		return nil
	case err != nil:
		logger.Error().Err(err).Msg("turn failed")
		return c.Send(failText)
	}

	return b.sender.sendMarkdown(ctx, c.Chat(), command.FormatReply(reply), false)
}

// SessionID maps a chat to its conversation.
func SessionID(chatID int64) string {
	return "telegram-" + strconv.FormatInt(chatID, 10)
}

// allowed admits every chat when the list is empty.
func allowed(list []int64, chatID int64) bool {
	return len(list) == 0 || slices.Contains(list, chatID)
}
