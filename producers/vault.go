package producers

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/vault/api"
	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/schema"
)

const (
	vaultIDColumn  = "id"
	passwordLength = 32
	passwordChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
)

// VaultProducer issues username/password credentials and keeps them in a
// Vault KV v2 mount, one secret per credential id.
type VaultProducer struct {
	client    *api.Client
	mountPath string
	dataPath  string
	log       *slog.Logger
}

// NewVaultProducer creates a producer storing credentials under
// <mountPath>/data/<dataPath>/<id>.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "producers/db")
//   - token: Vault token; the client falls back to VAULT_TOKEN when empty
//   - log: Structured logger for operational insights
func NewVaultProducer(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultProducer, error) {
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read Vault configuration: %w", config.Error)
	}
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultProducer{
		client:    client,
		mountPath: strings.Trim(mountPath, "/"),
		dataPath:  strings.Trim(dataPath, "/"),
		log:       log,
	}, nil
}

// Producer exposes the Vault operations as callables.
func (b *VaultProducer) Producer() *Producer {
	return &Producer{
		Name:         b.Name(),
		Create:       interfaces.NewCallable("vault-create", b.Create),
		Revoke:       interfaces.NewCallable("vault-revoke", b.Revoke),
		Rotate:       interfaces.NewCallable("vault-rotate", b.Rotate),
		IDColumnName: vaultIDColumn,
		Schema: []schema.Field{
			{Name: "username", Type: schema.TypeString, MinLength: intPtr(1), MaxLength: intPtr(64), Pattern: `^[a-zA-Z0-9_.-]+$`},
			{Name: vaultIDColumn, Type: schema.TypeString},
		},
	}
}

// Create generates a credential and stores it.
func (b *VaultProducer) Create(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	id := uuid.New().String()

	username := args.String("username")
	if username == "" {
		username = "u-" + strings.ReplaceAll(id, "-", "")[:12]
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	if err := b.write(ctx, id, username, password); err != nil {
		return nil, err
	}

	b.log.Info("Created Vault credential", slog.String("id", id), slog.String("username", username))
	return interfaces.CredentialResult{
		vaultIDColumn: id,
		"username":    username,
		"password":    password,
	}, nil
}

// Revoke permanently deletes the credential with all its versions.
func (b *VaultProducer) Revoke(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	id := args.String(vaultIDColumn)

	if _, err := b.read(ctx, id); err != nil {
		return nil, err
	}

	path := b.path("metadata", id)
	if _, err := b.client.Logical().DeleteWithContext(ctx, path); err != nil {
		b.log.Error("Failed to delete from Vault", slog.String("path", path), "err", err)
		return nil, unavailable(err)
	}

	b.log.Info("Revoked Vault credential", slog.String("id", id))
	return interfaces.CredentialResult{vaultIDColumn: id}, nil
}

// Rotate replaces the password of an existing credential, keeping its id and
// username.
func (b *VaultProducer) Rotate(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	id := args.String(vaultIDColumn)

	current, err := b.read(ctx, id)
	if err != nil {
		return nil, err
	}

	username, _ := current["username"].(string)
	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	if err := b.write(ctx, id, username, password); err != nil {
		return nil, err
	}

	b.log.Info("Rotated Vault credential", slog.String("id", id))
	return interfaces.CredentialResult{
		vaultIDColumn: id,
		"username":    username,
		"password":    password,
	}, nil
}

// Name returns a unique identifier for this producer.
func (b *VaultProducer) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, strings.ReplaceAll(b.dataPath, "/", "-"))
}

func (b *VaultProducer) path(kind, id string) string {
	return fmt.Sprintf("%s/%s/%s/%s", b.mountPath, kind, b.dataPath, id)
}

func (b *VaultProducer) write(ctx context.Context, id, username, password string) error {
	path := b.path("data", id)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"username": username,
			"password": password,
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault", slog.String("path", path), "err", err)
		return unavailable(err)
	}
	return nil
}

func (b *VaultProducer) read(ctx context.Context, id string) (map[string]interface{}, error) {
	if id == "" || strings.Contains(id, "/") {
		return nil, notFound("vault credential", id)
	}

	path := b.path("data", id)
	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault", slog.String("path", path), "err", err)
		return nil, unavailable(err)
	}
	if secret == nil || secret.Data == nil {
		return nil, notFound("vault credential", id)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		// KV v2 returns data: null for soft-deleted versions
		return nil, notFound("vault credential", id)
	}
	return data, nil
}

func generatePassword() (string, error) {
	max := big.NewInt(int64(len(passwordChars)))
	buf := make([]byte, passwordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordChars[n.Int64()]
	}
	return string(buf), nil
}
