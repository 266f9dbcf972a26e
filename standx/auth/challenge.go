package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// decodeChallengeMessage extracts the human-readable message to sign from a
// challenge token. The token is three dot-separated base64url segments; the
// middle one is a JSON object carrying a "message" field.
func decodeChallengeMessage(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("challenge token has %d segments, want 3", len(parts))
	}

	seg := parts[1]
	if m := len(seg) % 4; m != 0 {
		seg += strings.Repeat("=", 4-m)
	}

	raw, err := base64.URLEncoding.DecodeString(seg)
	if err != nil {
		return "", fmt.Errorf("decode challenge segment: %w", err)
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("parse challenge payload: %w", err)
	}
	return payload.Message, nil
}
