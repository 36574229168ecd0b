package telegramrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	delay time.Duration
	err   error
	got   []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	time.Sleep(f.delay)
	f.got = append(f.got, c)
	return tgbotapi.Message{}, f.err
}

func TestNotify_SendsToChat(t *testing.T) {
	f := &fakeSender{}
	r := NewWithSender(f, 42)

	require.NoError(t, r.Notify(context.Background(), "hello"))
	require.Len(t, f.got, 1)
	msg, ok := f.got[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.EqualValues(t, 42, msg.ChatID)
	assert.Equal(t, "hello", msg.Text)
}

func TestNotify_WrapsSendError(t *testing.T) {
	boom := errors.New("boom")
	r := NewWithSender(&fakeSender{err: boom}, 1)
	require.ErrorIs(t, r.Notify(context.Background(), "x"), boom)
}

func TestNotify_GivesUpOnTimeout(t *testing.T) {
	r := NewWithSender(&fakeSender{delay: 200 * time.Millisecond}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Notify(ctx, "slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestNew_RejectsEmptyToken(t *testing.T) {
	_, err := New("", 1, nil)
	require.Error(t, err)
}
