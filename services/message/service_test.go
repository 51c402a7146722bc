package message

import (
	"context"
	"strings"
	"testing"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decisionCall struct {
	side                        models.Role
	sponsorID, creatorID, state string
}

type fakeDecisions struct{ calls []decisionCall }

func (f *fakeDecisions) SetDecision(_ context.Context, side models.Role, sponsorID, creatorID, status string) error {
	f.calls = append(f.calls, decisionCall{side, sponsorID, creatorID, status})
	return nil
}

type fakeNotifier struct{ sent []models.PushNotification }

func (f *fakeNotifier) SendUserPush(_ context.Context, n models.PushNotification) error {
	f.sent = append(f.sent, n)
	return nil
}

func newTestService() (*DefaultMessageService, *fakeDecisions, *fakeNotifier) {
	decisions, notifier := &fakeDecisions{}, &fakeNotifier{}
	return &DefaultMessageService{
		Repo: &memstore.Messages{},
		Users: memstore.NewUsers(
			models.User{ID: "su", Name: "Acme", Role: models.RoleSponsor},
			models.User{ID: "cu", Name: "Jo", Role: models.RoleCreator},
		),
		Sponsors:  memstore.NewSponsors(models.Sponsor{ID: "s1", UserID: "su"}),
		Creators:  memstore.NewCreators(models.Creator{ID: "c1", UserID: "cu", Handle: "jo"}),
		Decisions: decisions,
		Notifier:  notifier,
	}, decisions, notifier
}

func TestSendValidatesBody(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, "su", models.SendMessageRequest{ToUserID: "cu", Body: "   "})
	require.ErrorIs(t, err, utils.ErrValidation)
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "please enter a message", verr.Message)

	_, err = svc.Send(ctx, "su", models.SendMessageRequest{ToUserID: "cu", Body: strings.Repeat("a", models.MaxMessageLength+1)})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Send(ctx, "su", models.SendMessageRequest{ToUserID: "su", Body: "hi"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Send(ctx, "su", models.SendMessageRequest{ToUserID: "ghost", Body: "hi"})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestSponsorContactMarksDecisionAndNotifies(t *testing.T) {
	svc, decisions, notifier := newTestService()
	ctx := context.Background()

	msg, err := svc.Send(ctx, "su", models.SendMessageRequest{ToUserID: "cu", Body: "  Let's work together  "})
	require.NoError(t, err)
	assert.Equal(t, "Let's work together", msg.Body)
	assert.Equal(t, "Acme", msg.FromName)

	require.Len(t, decisions.calls, 1)
	assert.Equal(t, decisionCall{models.RoleSponsor, "s1", "c1", models.DecisionContacted}, decisions.calls[0])
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "cu", notifier.sent[0].UserID)
	assert.Equal(t, "New message from Acme", notifier.sent[0].Title)

	// Creator replies do not touch decisions.
	_, err = svc.Send(ctx, "cu", models.SendMessageRequest{ToUserID: "su", Body: "Sure"})
	require.NoError(t, err)
	assert.Len(t, decisions.calls, 1)
}

func TestInboxAndMarkRead(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	msg, err := svc.Send(ctx, "su", models.SendMessageRequest{ToUserID: "cu", Body: "hello"})
	require.NoError(t, err)

	unread, err := svc.CountUnread(ctx, "cu")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	assert.ErrorIs(t, svc.MarkRead(ctx, "su", msg.ID), utils.ErrNotFound, "only the recipient can mark read")
	require.NoError(t, svc.MarkRead(ctx, "cu", msg.ID))
	unread, _ = svc.CountUnread(ctx, "cu")
	assert.Zero(t, unread)

	inbox, err := svc.Inbox(ctx, "cu", models.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inbox.Total)
	assert.Equal(t, utils.DefaultPageSize, inbox.PageSize)

	sent, err := svc.Sent(ctx, "cu", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []models.Message{}, sent.Items)
}
