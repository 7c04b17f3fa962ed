package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hirepro/funnel/internal/infra/queue"
)

// GroupPoster implements queue.GroupSender: it delivers the one-time
// applicant summary to the operations group.
type GroupPoster struct {
	api     *tgbotapi.BotAPI
	groupID int64
}

func NewGroupPoster(api *tgbotapi.BotAPI, groupID int64) *GroupPoster {
	return &GroupPoster{api: api, groupID: groupID}
}

func (g *GroupPoster) SendGroupPost(ctx context.Context, payload queue.GroupPostPayload) error {
	text := fmt.Sprintf(
		"Name: %s\nAge: %s\nPhone: %s\nIP: %s\nCode: %s",
		payload.Name, payload.Age, payload.Phone, payload.IP, payload.Code,
	)

	msg := tgbotapi.NewMessage(g.groupID, text)
	msg.DisableWebPagePreview = true

	if _, err := g.api.Send(msg); err != nil {
		return fmt.Errorf("failed to post to group: %w", err)
	}
	return nil
}
