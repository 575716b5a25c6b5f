package tgbotapi

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/pkg/logger"
)

func TestConvertUpdate(t *testing.T) {
	update := convertUpdate(tgbotapi.Update{
		UpdateID: 3,
		Message: &tgbotapi.Message{
			MessageID: 11,
			Text:      "/ask what is an ETF",
			From:      &tgbotapi.User{ID: 9, FirstName: "Ana", UserName: "ana"},
			Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 4}},
		},
	})

	require.NotNil(t, update.Message)
	assert.Equal(t, 3, update.UpdateID)
	assert.True(t, update.Message.IsCommand)
	assert.Equal(t, "ask", update.Message.Command)
	assert.Equal(t, "what is an ETF", update.Message.Arguments)
	assert.Equal(t, int64(42), update.Message.Chat.ID)
	assert.Equal(t, "ana", update.Message.From.Username)

	plain := convertUpdate(tgbotapi.Update{UpdateID: 4, Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}})
	assert.False(t, plain.Message.IsCommand)
	assert.Nil(t, plain.Message.From)

	assert.Nil(t, convertUpdate(tgbotapi.Update{UpdateID: 5}).Message)
}

func TestNewBot_RequiresToken(t *testing.T) {
	_, err := NewBot(Config{}, logger.Nop())
	assert.Error(t, err)
}
