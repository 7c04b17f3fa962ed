package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/infra/http/middleware"
	"github.com/hirepro/funnel/internal/usecase"
)

const verificationFailedReply = "Mobile phone number verification failed. " +
	"It is different from the mobile phone number you submitted in the form."

// Bot wires the Telegram surface: applicant commands and contact sharing,
// plus the operator roster commands, which are only honored inside the
// operations group and only from the configured owner.
type Bot struct {
	api     *tgbotapi.BotAPI
	verify  *usecase.VerifyContactUseCase
	roster  *usecase.RosterUseCase
	groupID int64
	ownerID int64
}

func NewBot(
	api *tgbotapi.BotAPI,
	verify *usecase.VerifyContactUseCase,
	roster *usecase.RosterUseCase,
	groupID, ownerID int64,
) *Bot {
	return &Bot{
		api:     api,
		verify:  verify,
		roster:  roster,
		groupID: groupID,
		ownerID: ownerID,
	}
}

// Run starts long polling and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	online := tgbotapi.NewMessage(b.groupID, "Bot is online ✅")
	online.DisableWebPagePreview = true
	if _, err := b.api.Send(online); err != nil {
		log.Warn().Err(err).Msg("failed to announce bot startup")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	log.Info().Str("bot", b.api.Self.UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Contact != nil {
		b.handleContact(ctx, msg)
		return
	}
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "share":
		b.handleShare(msg)
	case "info":
		b.handleInfo(msg)
	case "status":
		b.handleStatus(ctx, msg)
	case "add":
		b.handleAdd(ctx, msg)
	case "remove":
		b.handleRemove(ctx, msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	name := ""
	if msg.From != nil {
		name = msg.From.FirstName
	}
	text := fmt.Sprintf(
		"Hello %s!\n\n"+
			"Use /info to view your account information\n"+
			"Use /share to share your contact details\n"+
			"Use /help to get instructions\n\n"+
			"Please click the button below to share your contact information",
		name,
	)
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = contactKeyboard()
	b.send(reply)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.send(tgbotapi.NewMessage(msg.Chat.ID,
		"You need to enter the same mobile phone number as your Telegram number "+
			"and submit it before you can get the job.\n\n"+
			"• /share – share your Telegram contact\n"+
			"• /info – show what we have for you"))
}

func (b *Bot) handleShare(msg *tgbotapi.Message) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Tap the button to send your Telegram phone number:")
	reply.ReplyMarkup = contactKeyboard()
	b.send(reply)
}

func (b *Bot) handleInfo(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	username := "(none)"
	if msg.From.UserName != "" {
		username = "@" + msg.From.UserName
	}
	fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	if fullName == "" {
		fullName = "(none)"
	}
	b.send(tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"ID: %d\nuser name: %s\nfull name: %s\n\nphone: please use the /share command to share.",
		msg.From.ID, username, fullName,
	)))
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	contact := msg.Contact

	fallbackName := ""
	if msg.From != nil {
		fallbackName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}

	out, err := b.verify.Execute(ctx, usecase.VerifyContactInput{
		RawPhone:     contact.PhoneNumber,
		FallbackName: fallbackName,
	})
	if err != nil {
		switch usecase.ErrCode(err) {
		case usecase.CodeInvalidPhone, usecase.CodeVerificationFailed:
			middleware.RecordVerification("failed")
			b.send(tgbotapi.NewMessage(msg.Chat.ID, verificationFailedReply))
		default:
			middleware.RecordVerification("error")
			log.Error().Err(err).Msg("contact verification failed")
			b.send(tgbotapi.NewMessage(msg.Chat.ID, "Something went wrong, please try again later."))
		}
		return
	}

	middleware.RecordVerification("verified")
	if out.Pending {
		middleware.RecordAssignment("pending")
	} else if out.Broadcast {
		middleware.RecordAssignment("assigned")
	} else {
		middleware.RecordAssignment("existing")
	}

	execText := "executive contact: (waiting – no executive online)"
	var execButton *tgbotapi.InlineKeyboardMarkup
	if out.Executive != nil {
		execText = "executive contact: " + out.Executive.Handle()
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Message now", "https://t.me/"+out.Executive.Username),
			),
		)
		execButton = &kb
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"Your work code is used to verify your identity.\n"+
			"Verify successfully!\n"+
			"Job code: %s\n%s",
		out.Code, execText,
	))
	if execButton != nil {
		reply.ReplyMarkup = *execButton
	}
	b.send(reply)
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != b.groupID {
		return // status only in the operations group
	}

	execs, err := b.roster.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list executives")
		return
	}
	if len(execs) == 0 {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "No executive assignments yet."))
		return
	}

	lines := make([]string, 0, len(execs))
	for _, e := range execs {
		mark := "❌"
		if e.Active {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("• %s %s — %s — assigned: %d",
			mark, e.PhoneE164, e.Handle(), e.AssignedCount))
	}
	b.send(tgbotapi.NewMessage(msg.Chat.ID, strings.Join(lines, "\n")))
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) {
	if !b.fromOwnerInGroup(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Usage: /add <phone_e164> <username>"))
		return
	}

	exec, claimed, err := b.roster.AddOrReactivate(ctx, args[0], args[1])
	if err != nil {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Failed to add executive: "+err.Error()))
		return
	}

	text := fmt.Sprintf(
		"Added/updated executive:\n• Phone: %s\n• Username: %s\n• Active: Yes\n• Assigned: %d ✅",
		exec.PhoneE164, exec.Handle(), exec.AssignedCount,
	)
	if claimed > 0 {
		text += fmt.Sprintf("\n• Claimed %d waiting applicant(s)", claimed)
	}
	b.send(tgbotapi.NewMessage(msg.Chat.ID, text))
}

func (b *Bot) handleRemove(ctx context.Context, msg *tgbotapi.Message) {
	if !b.fromOwnerInGroup(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Usage: /remove <phone_e164>"))
		return
	}

	if err := b.roster.Deactivate(ctx, args[0]); err != nil {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Failed to remove executive: "+err.Error()))
		return
	}
	b.send(tgbotapi.NewMessage(msg.Chat.ID, "Removed mapping for "+args[0]))
}

func (b *Bot) fromOwnerInGroup(msg *tgbotapi.Message) bool {
	return msg.Chat.ID == b.groupID && msg.From != nil && msg.From.ID == b.ownerID
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Warn().Err(err).Msg("failed to send telegram message")
		middleware.RecordNotificationFailure("dm")
	}
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("Click Accept Job Code."),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
