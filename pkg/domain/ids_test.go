package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "beacon/pkg/domain-errors"
)

func TestParseRejectsHostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"sql fragment", "'; DROP TABLE location_shares;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"embedded null byte", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"oversized", strings.Repeat("a", 1000), true},
		{"zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"nil uuid", uuid.Nil.String(), true},
		{"urn form exceeds length bound", "urn:uuid:550e8400-e29b-41d4-a716-446655440000", true},
		{"uppercase", "550E8400-E29B-41D4-A716-446655440000", false},
		{"canonical", "550e8400-e29b-41d4-a716-446655440000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseShareID(tt.input)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseErrorNamesTheKind(t *testing.T) {
	_, err := ParseEventID("nope")
	assert.ErrorContains(t, err, "event ID")
	_, err = ParseCommunityID("")
	assert.ErrorContains(t, err, "community ID cannot be empty")
}

func TestIDsRoundTripAsJSONStrings(t *testing.T) {
	type payload struct {
		User  UserID  `json:"user"`
		Share ShareID `json:"share"`
		Event EventID `json:"event"`
	}
	in := payload{User: UserID(uuid.New()), Share: NewShareID(), Event: EventID(uuid.New())}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"share":"`+in.Share.String()+`"`)

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"user":"not-a-uuid"}`), &out))
}

func TestNewShareIDIsRandomAndNotNil(t *testing.T) {
	a, b := NewShareID(), NewShareID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
	assert.True(t, UserID{}.IsNil())
	assert.True(t, CommunityID(uuid.Nil).IsNil())
}
