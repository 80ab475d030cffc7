package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/config"
)

func mentionRoster() []models.Member {
	return []models.Member{
		{ID: "1", Nickname: "Alice", Department: "SWAT"},
		{ID: "2", Nickname: "Bob", Department: "SWAT"},
		{ID: "3", Nickname: "Carol", Department: "SWAT"},
		{ID: "4", Nickname: "Dave", Department: "CID"},
	}
}

func TestResolveMentionRecipientsDeduplicates(t *testing.T) {
	roster := mentionRoster()
	sender := &roster[3]
	departments := map[string]string{"SWAT": "SWAT", "CID": "Criminal_Investigations"}

	ids := ResolveMentionRecipients("@SWAT @Alice @bob please report", sender, roster, departments)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestResolveMentionRecipientsExcludesSender(t *testing.T) {
	roster := mentionRoster()
	sender := &roster[0]

	ids := ResolveMentionRecipients("@alice @swat", sender, roster, map[string]string{"SWAT": "SWAT"})
	assert.Equal(t, []string{"2", "3"}, ids)
}

func TestResolveMentionRecipientsByDisplayName(t *testing.T) {
	roster := mentionRoster()
	ids := ResolveMentionRecipients("ping @criminal_investigations", &roster[0], roster,
		map[string]string{"CID": "Criminal_Investigations"})
	assert.Equal(t, []string{"4"}, ids)
}

func TestResolveMentionRecipientsUnknownToken(t *testing.T) {
	roster := mentionRoster()
	assert.Empty(t, ResolveMentionRecipients("@nobody hello", nil, roster, nil))
	assert.Empty(t, ResolveMentionRecipients("no mentions here", nil, roster, nil))
}

func TestNotificationServiceCreateAndPublish(t *testing.T) {
	store := &notificationStoreStub{}
	publisher := &publisherStub{}
	svc := NewNotificationService(store, publisher, NewMetricsService(), nil)
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	personal := PersonalNotification("m-1", "hello", models.LinkProfile)
	global := GlobalNotification("news", "")
	require.NoError(t, svc.Create(context.Background(), personal, global))
	assert.Equal(t, fixed, personal.CreatedAt)
	assert.Nil(t, global.Link)
	assert.Empty(t, publisher.published)

	svc.Publish(personal, global)
	assert.Len(t, publisher.published, 2)

	list, err := svc.ListFor(context.Background(), "m-2", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationGlobal, list[0].Kind)

	require.NoError(t, svc.MarkAllRead(context.Background(), "m-1"))
	list, err = svc.ListFor(context.Background(), "m-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.True(t, n.Read)
	}
}

func TestNotificationServicePublishWithoutPublisher(t *testing.T) {
	svc := NewNotificationService(&notificationStoreStub{}, nil, nil, nil)
	assert.NotPanics(t, func() { svc.Publish(GlobalNotification("x", "")) })
}

func TestNewPushDispatcherDisabled(t *testing.T) {
	assert.Nil(t, NewPushDispatcher(config.NotificationConfig{PushEnabled: false, WebhookURL: "http://example"}, nil, nil))
	assert.Nil(t, NewPushDispatcher(config.NotificationConfig{PushEnabled: true}, nil, nil))

	var d *PushDispatcher
	assert.NotPanics(t, func() {
		d.Start(context.Background())
		d.Publish(GlobalNotification("x", ""))
		d.Stop()
	})
}

func TestPushDispatcherDeliversToWebhook(t *testing.T) {
	received := make(chan pushPayload, 1)
	var header atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload pushPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		header.Store(r.Header.Get("X-Notification-ID"))
		w.WriteHeader(http.StatusAccepted)
		received <- payload
	}))
	defer server.Close()

	d := NewPushDispatcher(config.NotificationConfig{PushEnabled: true, WebhookURL: server.URL, Workers: 1}, NewMetricsService(), nil)
	require.NotNil(t, d)
	d.Start(context.Background())
	defer d.Stop()

	n := PersonalNotification("m-1", "You were promoted", models.LinkProfile)
	n.ID = "n-42"
	d.Publish(n)

	select {
	case payload := <-received:
		assert.Equal(t, "notification.created", payload.Event)
		assert.Equal(t, "You were promoted", payload.Notification.Text)
		assert.Equal(t, "n-42", header.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestPushDispatcherRetriesOnServerError(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer server.Close()

	d := NewPushDispatcher(config.NotificationConfig{PushEnabled: true, WebhookURL: server.URL, Workers: 1, Retries: 2}, nil, nil)
	d.Start(context.Background())
	defer d.Stop()

	d.Publish(GlobalNotification("charter updated", models.LinkCharter))
	select {
	case <-done:
	case <-time.After(4 * time.Second):
		t.Fatal("delivery was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
