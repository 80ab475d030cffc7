package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type chatStoreStub struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func (s *chatStoreStub) Create(ctx context.Context, message *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message.ID = fmt.Sprintf("msg-%d", len(s.messages)+1)
	s.messages = append(s.messages, *message)
	return nil
}

func (s *chatStoreStub) ListByChannel(ctx context.Context, channel string, limit int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.ChatMessage
	for _, m := range s.messages {
		if m.Channel == channel {
			result = append(result, m)
		}
	}
	return result, nil
}

func swatMember(id string) *models.Member {
	m := member(id, 4)
	m.Department = "SWAT"
	return m
}

func newChatFixture() (*governance, *chatStoreStub, *ChatService) {
	g := newGovernance(swatMember("alice"), swatMember("bob"), member("dave", 5))
	store := &chatStoreStub{}
	svc := NewChatService(store, g.members, g.settings, nil, g.notifySvc, nil)
	return g, store, svc
}

func TestChatChannels(t *testing.T) {
	_, _, svc := newChatFixture()
	channels, err := svc.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "academy", "cid", "iad", "management", "swat"}, channels)
}

func TestChatSendNotifiesMentionedMembersOnce(t *testing.T) {
	g, store, svc := newChatFixture()

	result, err := svc.Send(context.Background(), "dave", "SWAT", dto.SendMessageRequest{Text: "@SWAT @alice @Bob briefing at noon"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", result.MessageID)
	assert.Equal(t, 2, result.Notified)

	require.Len(t, store.messages, 1)
	assert.Equal(t, "swat", store.messages[0].Channel)
	assert.Equal(t, "dave", store.messages[0].Author)

	for _, id := range []string{"alice", "bob"} {
		sent := g.notifications.sentTo(id)
		require.Len(t, sent, 1, id)
		assert.Contains(t, sent[0].Text, "dave mentioned you in #swat")
		require.NotNil(t, sent[0].Link)
		assert.Equal(t, models.LinkChat, *sent[0].Link)
	}
	assert.Empty(t, g.notifications.sentTo("dave"))
	assert.Len(t, g.publisher.published, 2)
}

func TestChatSendWithoutMentions(t *testing.T) {
	g, _, svc := newChatFixture()
	result, err := svc.Send(context.Background(), "alice", "general", dto.SendMessageRequest{Text: "hello everyone"})
	require.NoError(t, err)
	assert.Zero(t, result.Notified)
	assert.Empty(t, g.notifications.notifications)
}

func TestChatSendValidation(t *testing.T) {
	_, store, svc := newChatFixture()

	_, err := svc.Send(context.Background(), "alice", "general", dto.SendMessageRequest{Text: "   "})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Send(context.Background(), "alice", "offtopic", dto.SendMessageRequest{Text: "hi"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Send(context.Background(), "ghost", "general", dto.SendMessageRequest{Text: "hi"})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	assert.Empty(t, store.messages)
}

func TestChatHistory(t *testing.T) {
	_, _, svc := newChatFixture()
	_, err := svc.Send(context.Background(), "alice", "swat", dto.SendMessageRequest{Text: "one"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), "alice", "general", dto.SendMessageRequest{Text: "two"})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), "SWAT", 50)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "one", history[0].Text)
}
