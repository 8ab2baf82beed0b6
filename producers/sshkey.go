package producers

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/schema"
	"golang.org/x/crypto/ssh"
)

const sshIDColumn = "fingerprint"

// SSHKeyProducer hands out ed25519 SSH keypairs. It keeps no state: the
// caller owns distributing and removing the public key, so revoke only
// acknowledges the fingerprint.
type SSHKeyProducer struct {
	comment string
	log     *slog.Logger
}

func NewSSHKeyProducer(comment string, log *slog.Logger) *SSHKeyProducer {
	return &SSHKeyProducer{comment: comment, log: log}
}

// Producer exposes the keypair operations as callables.
func (b *SSHKeyProducer) Producer() *Producer {
	return &Producer{
		Name:         b.Name(),
		Create:       interfaces.NewCallable("ssh-create", b.Create),
		Revoke:       interfaces.NewCallable("ssh-revoke", b.Revoke),
		Rotate:       interfaces.NewCallable("ssh-rotate", b.Rotate),
		IDColumnName: sshIDColumn,
		Schema: []schema.Field{
			{Name: "comment", Type: schema.TypeString, MaxLength: intPtr(256)},
			{Name: sshIDColumn, Type: schema.TypeString, Pattern: `^SHA256:`},
		},
	}
}

// Create generates a keypair.
func (b *SSHKeyProducer) Create(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	result, err := b.generate(args.String("comment"))
	if err != nil {
		return nil, err
	}

	b.log.Info("Generated SSH keypair", slog.Any(sshIDColumn, result[sshIDColumn]))
	return result, nil
}

// Revoke acknowledges the fingerprint.
func (b *SSHKeyProducer) Revoke(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	fingerprint := args.String(sshIDColumn)
	if !strings.HasPrefix(fingerprint, "SHA256:") {
		return nil, notFound("ssh key", fingerprint)
	}

	b.log.Info("Revoked SSH keypair", slog.String(sshIDColumn, fingerprint))
	return interfaces.CredentialResult{sshIDColumn: fingerprint}, nil
}

// Rotate generates a fresh keypair replacing the given fingerprint.
func (b *SSHKeyProducer) Rotate(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	old := args.String(sshIDColumn)
	if !strings.HasPrefix(old, "SHA256:") {
		return nil, notFound("ssh key", old)
	}

	result, err := b.generate(args.String("comment"))
	if err != nil {
		return nil, err
	}
	result["replaces"] = old

	b.log.Info("Rotated SSH keypair",
		slog.String("replaces", old),
		slog.Any(sshIDColumn, result[sshIDColumn]))
	return result, nil
}

// Name returns a unique identifier for this producer.
func (b *SSHKeyProducer) Name() string {
	return "ssh-ed25519"
}

func (b *SSHKeyProducer) generate(comment string) (interfaces.CredentialResult, error) {
	if comment == "" {
		comment = b.comment
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	authorizedKey := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		authorizedKey += " " + comment
	}

	return interfaces.CredentialResult{
		sshIDColumn:   ssh.FingerprintSHA256(sshPub),
		"public_key":  authorizedKey,
		"private_key": string(pem.EncodeToMemory(block)),
	}, nil
}
