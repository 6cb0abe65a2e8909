package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestNormalize_MessagesArrayShape(t *testing.T) {
	payload := parsePayload(t, `{
		"event": "messages.upsert",
		"data": {
			"messages": [{
				"key": {"remoteJid": "5511999999999@s.whatsapp.net", "fromMe": false, "id": "BAE5F4A3"},
				"pushName": "Maria",
				"message": {"conversation": "quero saber o preço"}
			}]
		}
	}`)

	msg := Normalize(payload)

	require.NotNil(t, msg.RemoteJid)
	assert.Equal(t, "5511999999999@s.whatsapp.net", *msg.RemoteJid)
	require.NotNil(t, msg.Phone)
	assert.Equal(t, "5511999999999", *msg.Phone)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "quero saber o preço", *msg.Text)
	require.NotNil(t, msg.ExternalMessageID)
	assert.Equal(t, "BAE5F4A3", *msg.ExternalMessageID)
	require.NotNil(t, msg.DisplayName)
	assert.Equal(t, "Maria", *msg.DisplayName)
	assert.False(t, msg.FromMe)
}

func TestNormalize_SingleMessageShape(t *testing.T) {
	payload := parsePayload(t, `{
		"event": "MESSAGES_UPSERT",
		"data": {
			"pushName": "João",
			"message": {
				"key": {"remoteJid": "5521888887777@s.whatsapp.net", "id": "XYZ"},
				"message": {"extendedTextMessage": {"text": "hello"}}
			}
		}
	}`)

	msg := Normalize(payload)

	require.NotNil(t, msg.Phone)
	assert.Equal(t, "5521888887777", *msg.Phone)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello", *msg.Text, "extendedTextMessage body used when conversation is absent")
	require.NotNil(t, msg.DisplayName)
	assert.Equal(t, "João", *msg.DisplayName, "data.pushName wins")
}

func TestNormalize_FlatShapeWithoutKey(t *testing.T) {
	// Some provider versions place the addressing fields at the top level.
	payload := parsePayload(t, `{
		"event": "messages.upsert",
		"remoteJid": "551133334444@s.whatsapp.net",
		"fromMe": true,
		"id": "FLAT1",
		"pushName": "Echo",
		"conversation": "me falando comigo"
	}`)

	msg := Normalize(payload)

	require.NotNil(t, msg.Phone)
	assert.Equal(t, "551133334444", *msg.Phone)
	assert.True(t, msg.FromMe)
	require.NotNil(t, msg.ExternalMessageID)
	assert.Equal(t, "FLAT1", *msg.ExternalMessageID)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "me falando comigo", *msg.Text)
}

func TestNormalize_MediaCaption(t *testing.T) {
	payload := parsePayload(t, `{
		"data": {"messages": [{
			"key": {"remoteJid": "557799990000@s.whatsapp.net", "id": "IMG1"},
			"message": {"imageMessage": {"caption": "olha essa foto"}}
		}]}
	}`)

	msg := Normalize(payload)

	require.NotNil(t, msg.Text)
	assert.Equal(t, "olha essa foto", *msg.Text)
}

func TestNormalize_NoTextField(t *testing.T) {
	payload := parsePayload(t, `{
		"data": {"messages": [{
			"key": {"remoteJid": "5511999999999@s.whatsapp.net", "id": "AUD1"},
			"message": {"audioMessage": {"seconds": 12}}
		}]}
	}`)

	msg := Normalize(payload)

	assert.Nil(t, msg.Text, "audio-only message yields no text, no panic")
	require.NotNil(t, msg.Phone)
	assert.Equal(t, "5511999999999", *msg.Phone)
}

func TestNormalize_FromMeFromEitherLocation(t *testing.T) {
	byKey := parsePayload(t, `{"data": {"message": {"key": {"fromMe": true}}}}`)
	assert.True(t, Normalize(byKey).FromMe)

	byMessage := parsePayload(t, `{"data": {"message": {"fromMe": true}}}`)
	assert.True(t, Normalize(byMessage).FromMe)

	neither := parsePayload(t, `{"data": {"message": {"key": {}}}}`)
	assert.False(t, Normalize(neither).FromMe)
}

func TestNormalize_KeyBesideDataMessage(t *testing.T) {
	// Common provider shape: data.key sits next to data.message rather than
	// inside it. fromMe and id must resolve from there, not default.
	payload := parsePayload(t, `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999999999@s.whatsapp.net", "fromMe": true, "id": "ECHO-1"},
			"pushName": "Maria",
			"message": {"conversation": "me falando"}
		}
	}`)

	msg := Normalize(payload)

	assert.True(t, msg.FromMe)
	require.NotNil(t, msg.ExternalMessageID)
	assert.Equal(t, "ECHO-1", *msg.ExternalMessageID)
	require.NotNil(t, msg.Phone)
	assert.Equal(t, "5511999999999", *msg.Phone)
}

func TestNormalize_RemoteJidFallbackToDataKey(t *testing.T) {
	payload := parsePayload(t, `{
		"data": {
			"key": {"remoteJid": "558122223333@s.whatsapp.net"},
			"message": {"message": {"conversation": "oi"}}
		}
	}`)

	msg := Normalize(payload)

	require.NotNil(t, msg.Phone)
	assert.Equal(t, "558122223333", *msg.Phone)
}

func TestNormalize_JidWithoutDigits(t *testing.T) {
	payload := parsePayload(t, `{
		"data": {"message": {"key": {"remoteJid": "status@broadcast"}}}
	}`)

	msg := Normalize(payload)

	require.NotNil(t, msg.RemoteJid)
	assert.Nil(t, msg.Phone, "jid with no digits before @ yields nil phone")
}

func TestNormalize_EmptyPayload(t *testing.T) {
	msg := Normalize(map[string]any{})

	assert.Nil(t, msg.RemoteJid)
	assert.Nil(t, msg.Phone)
	assert.Nil(t, msg.Text)
	assert.Nil(t, msg.DisplayName)
	assert.Nil(t, msg.ExternalMessageID)
	assert.False(t, msg.FromMe)
}
