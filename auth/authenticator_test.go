package auth

import (
	"context"
	"fmt"
	"journal-live/domain"
	"journal-live/errors"
	"journal-live/mocks"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHandshakeFromRequest(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws?token=query-token", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	h := HandshakeFromRequest(r)
	req.Equal("header-token", h.AuthField)
	req.Equal("query-token", h.QueryToken)

	h = HandshakeFromRequest(httptest.NewRequest("GET", "/ws", nil))
	req.Empty(h.AuthField)
	req.Empty(h.QueryToken)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	valid := domain.Credential{Token: "good", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("should accept a credential from the handshake field", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockITokenService(ctrl)
		tokens.EXPECT().Validate(gomock.Any(), "good").Return(valid, nil).Times(1)

		credential, err := NewAuthenticator(tokens, log).Authenticate(context.Background(), Handshake{AuthField: "good"})

		req.NoError(err)
		req.Equal(valid, credential)
	})

	t.Run("should accept a credential from the query parameter", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockITokenService(ctrl)
		tokens.EXPECT().Validate(gomock.Any(), "good").Return(valid, nil).Times(1)

		credential, err := NewAuthenticator(tokens, log).Authenticate(context.Background(), Handshake{QueryToken: "good"})

		req.NoError(err)
		req.Equal(valid, credential)
	})

	t.Run("should prefer the handshake field when both are present", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockITokenService(ctrl)
		// The query credential is never looked at
		tokens.EXPECT().Validate(gomock.Any(), "bad").
			Return(domain.Credential{}, fmt.Errorf("%w: signature", errors.ErrAuthRejected)).Times(1)

		_, err := NewAuthenticator(tokens, log).Authenticate(context.Background(),
			Handshake{AuthField: "bad", QueryToken: "good"})

		req.ErrorIs(err, errors.ErrAuthRejected)
	})

	t.Run("should reject when no credential is presented", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockITokenService(ctrl)
		tokens.EXPECT().Validate(gomock.Any(), gomock.Any()).Times(0)

		_, err := NewAuthenticator(tokens, log).Authenticate(context.Background(), Handshake{})

		require.ErrorIs(t, err, errors.ErrAuthRejected)
	})

	t.Run("should wrap unexpected token service errors as rejections", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		tokens := mocks.NewMockITokenService(ctrl)
		tokens.EXPECT().Validate(gomock.Any(), "good").Return(domain.Credential{}, fmt.Errorf("boom")).Times(1)

		_, err := NewAuthenticator(tokens, log).Authenticate(context.Background(), Handshake{QueryToken: "good"})

		req.ErrorIs(err, errors.ErrAuthRejected)
		req.Contains(err.Error(), "boom")
	})
}
