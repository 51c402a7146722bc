package notification

import (
	"context"
	"errors"
	"testing"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	sent []*messaging.Message
	err  error
}

func (p *recordingPusher) Send(_ context.Context, m *messaging.Message) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, m)
	return "msg-1", nil
}

func newTestService(p Pusher) *DefaultNotificationService {
	on := models.DefaultUserSettings()
	on.FCMToken = "tok-1"
	off := models.DefaultUserSettings()
	off.PushNotifications = false
	off.FCMToken = "tok-2"
	return &DefaultNotificationService{
		Users: memstore.NewUsers(
			models.User{ID: "u1", Role: models.RoleCreator, Settings: on},
			models.User{ID: "u2", Role: models.RoleSponsor, Settings: off},
			models.User{ID: "u3", Role: models.RoleSponsor, Settings: models.DefaultUserSettings()},
		),
		Pusher: p,
	}
}

func TestSendUserPushDelivers(t *testing.T) {
	p := &recordingPusher{}
	svc := newTestService(p)
	err := svc.SendUserPush(context.Background(), models.PushNotification{
		UserID: "u1", Type: models.NotifyNewMessage, Title: "New message", Body: "Hi", Data: map[string]string{"messageId": "m1"},
	})
	require.NoError(t, err)
	require.Len(t, p.sent, 1)
	assert.Equal(t, "tok-1", p.sent[0].Token)
	assert.Equal(t, "m1", p.sent[0].Data["messageId"])
	assert.Equal(t, models.NotifyNewMessage, p.sent[0].Data["type"])
	assert.Equal(t, "creator", p.sent[0].Data["role"])
}

func TestSendUserPushSkipsOptedOutAndTokenless(t *testing.T) {
	p := &recordingPusher{}
	svc := newTestService(p)
	ctx := context.Background()
	require.NoError(t, svc.SendUserPush(ctx, models.PushNotification{UserID: "u2", Title: "x"}))
	require.NoError(t, svc.SendUserPush(ctx, models.PushNotification{UserID: "u3", Title: "x"}))
	assert.Empty(t, p.sent)

	assert.NoError(t, (&DefaultNotificationService{}).SendUserPush(ctx, models.PushNotification{UserID: "u1"}))
}

func TestSendUserPushReportsFailures(t *testing.T) {
	svc := newTestService(&recordingPusher{err: errors.New("unavailable")})
	err := svc.SendUserPush(context.Background(), models.PushNotification{UserID: "u1", Title: "x"})
	assert.Error(t, err)
}
