package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arnavgupta/campus-events-api/internal/model"
)

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("super-secret"), time.Hour)

	tok, err := issuer.Issue("user-123", model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := issuer.Validate(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, model.RoleAdmin, claims.Role)
}

func TestValidateExpired(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), -time.Second)

	tok, err := issuer.Issue("u1", model.RoleMember)
	require.NoError(t, err)

	_, err = issuer.Validate(tok)
	require.ErrorIs(t, err, ErrExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("right-secret"), time.Hour)
	other := NewIssuer([]byte("wrong-secret"), time.Hour)

	tok, err := issuer.Issue("u2", model.RoleMember)
	require.NoError(t, err)

	_, err = other.Validate(tok)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestValidateMalformedString(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("k"), time.Hour)

	_, err := issuer.Validate("not.a.jwt")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), time.Hour)

	tok, err := issuer.Issue("u3", model.RoleMember)
	require.NoError(t, err)

	_, err = issuer.Validate(tok)
	require.NoError(t, err)

	issuer.Revoke(tok)

	_, err = issuer.Validate(tok)
	require.ErrorIs(t, err, ErrRevoked)
}

func TestRevokeIgnoresGarbage(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), time.Hour)
	issuer.Revoke("garbage")

	tok, err := issuer.Issue("u4", model.RoleMember)
	require.NoError(t, err)

	_, err = issuer.Validate(tok)
	require.NoError(t, err)
}
