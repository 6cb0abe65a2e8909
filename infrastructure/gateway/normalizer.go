package gateway

import (
	"strings"
	"unicode"

	"github.com/oneelevenhq/leadbridge/domains/ingest"
)

// Normalize extracts a NormalizedMessage from the raw payload. The same
// logical field appears at different depths across gateway versions and
// event sub-types, so every step is a first-match-wins fallback chain and
// nothing here assumes a fixed schema. Fields that no variant carries stay
// nil; Normalize itself never fails.
func Normalize(payload map[string]any) ingest.NormalizedMessage {
	message := messageContainer(payload)
	key := asMap(message["key"])
	if key == nil {
		// Some providers put the key beside data.message instead of inside it.
		key = asMap(dig(payload, "data", "key"))
	}

	remoteJid := firstString(
		key["remoteJid"],
		message["remoteJid"],
		dig(payload, "data", "key", "remoteJid"),
	)

	fromMe := asBool(key["fromMe"]) || asBool(message["fromMe"])

	externalID := firstString(key["id"], message["id"])

	displayName := firstString(
		dig(payload, "data", "pushName"),
		message["pushName"],
		payload["pushName"],
	)

	return ingest.NormalizedMessage{
		RemoteJid:         remoteJid,
		Phone:             phoneFromJid(remoteJid),
		DisplayName:       displayName,
		Text:              extractText(message),
		ExternalMessageID: externalID,
		FromMe:            fromMe,
	}
}

// messageContainer locates the first message object: data.messages[0],
// else data.message, else the payload itself.
func messageContainer(payload map[string]any) map[string]any {
	data := asMap(payload["data"])
	if msgs, ok := data["messages"].([]any); ok && len(msgs) > 0 {
		if m := asMap(msgs[0]); m != nil {
			return m
		}
	}
	if m := asMap(data["message"]); m != nil {
		return m
	}
	return payload
}

// extractText walks the nested content object (message.message, legacy
// message.msg, or the message itself) looking for plain conversation text,
// an extended-text body, or a media caption. nil when nothing matches,
// e.g. audio or sticker events.
func extractText(message map[string]any) *string {
	var inner map[string]any
	if m := asMap(message["message"]); m != nil {
		inner = m
	} else if m := asMap(message["msg"]); m != nil {
		inner = m
	} else {
		inner = message
	}

	if s := firstString(inner["conversation"]); s != nil {
		return s
	}
	if s := firstString(dig(inner, "extendedTextMessage", "text")); s != nil {
		return s
	}
	for _, media := range []string{"imageMessage", "videoMessage", "documentMessage"} {
		if s := firstString(dig(inner, media, "caption")); s != nil {
			return s
		}
	}
	return nil
}

// phoneFromJid keeps the digits before the @ separator of an addressing
// string like "5511999999999@s.whatsapp.net". nil when the jid is absent
// or yields no digits.
func phoneFromJid(remoteJid *string) *string {
	if remoteJid == nil {
		return nil
	}
	user := *remoteJid
	if at := strings.Index(user, "@"); at >= 0 {
		user = user[:at]
	}
	var digits strings.Builder
	for _, r := range user {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return nil
	}
	out := digits.String()
	return &out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// dig walks nested maps by key, returning nil as soon as a level is
// missing or not a map.
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm := asMap(cur)
		if mm == nil {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

// firstString returns a pointer to the first non-empty string among vals.
func firstString(vals ...any) *string {
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out := s
			return &out
		}
	}
	return nil
}
