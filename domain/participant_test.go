package domain

import (
	"journal-live/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParticipants_Validate(t *testing.T) {
	tests := []struct {
		name    string
		a, b    UserID
		wantErr bool
	}{
		{name: "two distinct users", a: "u1", b: "u2"},
		{name: "empty first slot", a: "", b: "u2", wantErr: true},
		{name: "empty second slot", a: "u1", b: "", wantErr: true},
		{name: "self pairing", a: "u1", b: "u1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParticipants(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidPairing)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParticipants_Includes(t *testing.T) {
	req := require.New(t)
	p := Participants{UserA: "u1", UserB: "u2"}

	req.True(p.Includes("u1"))
	req.True(p.Includes("u2"))
	req.False(p.Includes("u3"))
	req.False(p.Includes(""))
	req.Equal([]UserID{"u1", "u2"}, p.Both())
}

func TestMessage_Preview(t *testing.T) {
	req := require.New(t)

	short := Message{Content: "hello"}
	req.Equal("hello", short.Preview())

	long := Message{Content: strings.Repeat("é", summaryPreviewLength+5)}
	preview := long.Preview()
	req.True(strings.HasSuffix(preview, "…"))
	req.Equal(summaryPreviewLength+1, len([]rune(preview)))
}

func TestReactions_Clone(t *testing.T) {
	req := require.New(t)
	original := Reactions{"❤️": {"u1"}}

	clone := original.Clone()
	original["❤️"][0] = "u9"
	original["👍"] = []UserID{"u2"}

	req.Equal(Reactions{"❤️": {"u1"}}, clone)
	req.Equal(Reactions{}, Reactions(nil).Clone())
}

func TestCredential_Expiry(t *testing.T) {
	req := require.New(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	credential := Credential{UserID: "u1", ExpiresAt: now.Add(4 * time.Minute)}

	req.Equal(4*time.Minute, credential.Remaining(now))
	req.False(credential.Expired(now))
	req.True(credential.Expired(now.Add(4 * time.Minute)))
}
