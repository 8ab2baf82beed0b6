package producers

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func newTestSSHProducer() *SSHKeyProducer {
	return NewSSHKeyProducer("default-comment", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSSHKeyProducer_Create(t *testing.T) {
	p := newTestSSHProducer()

	result, err := p.Create(context.Background(), &interfaces.Arguments{Fields: map[string]any{"comment": "deploy@ci"}})
	require.NoError(t, err)

	pub, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(result["public_key"].(string)))
	require.NoError(t, err)
	assert.Equal(t, "deploy@ci", comment)
	assert.Equal(t, ssh.KeyAlgoED25519, pub.Type())
	assert.Equal(t, ssh.FingerprintSHA256(pub), result["fingerprint"])

	signer, err := ssh.ParsePrivateKey([]byte(result["private_key"].(string)))
	require.NoError(t, err)
	assert.Equal(t, pub.Marshal(), signer.PublicKey().Marshal())
}

func TestSSHKeyProducer_DefaultComment(t *testing.T) {
	p := newTestSSHProducer()

	result, err := p.Create(context.Background(), &interfaces.Arguments{Fields: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result["public_key"].(string), " default-comment"))
}

func TestSSHKeyProducer_RotateAndRevoke(t *testing.T) {
	p := newTestSSHProducer()
	ctx := context.Background()

	created, err := p.Create(ctx, &interfaces.Arguments{Fields: map[string]any{}})
	require.NoError(t, err)
	fp := created["fingerprint"].(string)

	rotated, err := p.Rotate(ctx, &interfaces.Arguments{Fields: map[string]any{"fingerprint": fp}, ForRotate: true})
	require.NoError(t, err)
	assert.NotEqual(t, fp, rotated["fingerprint"])
	assert.Equal(t, fp, rotated["replaces"])

	revoked, err := p.Revoke(ctx, &interfaces.Arguments{Fields: map[string]any{"fingerprint": fp}})
	require.NoError(t, err)
	assert.Equal(t, fp, revoked["fingerprint"])

	_, err = p.Revoke(ctx, &interfaces.Arguments{Fields: map[string]any{"fingerprint": "MD5:aa:bb"}})
	assert.ErrorIs(t, err, interfaces.ErrCredentialNotFound)

	_, err = p.Rotate(ctx, &interfaces.Arguments{Fields: map[string]any{}})
	assert.ErrorIs(t, err, interfaces.ErrCredentialNotFound)
}
