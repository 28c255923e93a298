package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/errors"
	"log/slog"
	"net/http"
	"strings"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	tokenQueryParam     = "token"
)

// Handshake holds the credential locations a client may use when connecting.
type Handshake struct {
	AuthField  string
	QueryToken string
}

// HandshakeFromRequest reads the bearer header and the token query parameter
// of a websocket upgrade request.
func HandshakeFromRequest(r *http.Request) Handshake {
	header := strings.TrimSpace(r.Header.Get(authorizationHeader))
	return Handshake{
		AuthField:  strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)),
		QueryToken: strings.TrimSpace(r.URL.Query().Get(tokenQueryParam)),
	}
}

// Authenticator resolves the credential presented at connection time.
type Authenticator struct {
	tokens contract.ITokenService
	log    *slog.Logger
}

func NewAuthenticator(tokens contract.ITokenService, log *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, log: log}
}

// Authenticate validates the handshake credential. The handshake field takes
// precedence; the query parameter is only used when the field is absent.
func (a *Authenticator) Authenticate(ctx context.Context, h Handshake) (domain.Credential, error) {
	token := h.AuthField
	if token == "" {
		token = h.QueryToken
	} else if h.QueryToken != "" && h.QueryToken != h.AuthField {
		a.log.Debug("Handshake and query credentials differ, using handshake")
	}
	if token == "" {
		return domain.Credential{}, fmt.Errorf("%w: credential is missing", errors.ErrAuthRejected)
	}

	credential, err := a.tokens.Validate(ctx, token)
	if err != nil {
		if !stderrors.Is(err, errors.ErrAuthRejected) {
			err = fmt.Errorf("%w: %w", errors.ErrAuthRejected, err)
		}
		return domain.Credential{}, err
	}
	return credential, nil
}
