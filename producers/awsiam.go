package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/iam/iamiface"
	"github.com/ruteri/custom-producer-backend/api/producerhandler"
	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/schema"
)

const iamIDColumn = "access_key_id"

// IAMProducer issues access keys for a single IAM user.
type IAMProducer struct {
	client   iamiface.IAMAPI
	userName string
	log      *slog.Logger
}

// NewIAMProducer creates an access key producer for userName.
// With empty accessKey and secretKey the default credential chain is used.
func NewIAMProducer(userName, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*IAMProducer, error) {
	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewIAMProducerWithClient(iam.New(sess), userName, log), nil
}

// NewIAMProducerWithClient creates a producer around an existing IAM client.
func NewIAMProducerWithClient(client iamiface.IAMAPI, userName string, log *slog.Logger) *IAMProducer {
	return &IAMProducer{
		client:   client,
		userName: userName,
		log:      log,
	}
}

// Producer exposes the IAM operations as callables.
func (b *IAMProducer) Producer() *Producer {
	return &Producer{
		Name:         b.Name(),
		Create:       interfaces.NewCallable("iam-create", b.Create),
		Revoke:       interfaces.NewCallable("iam-revoke", b.Revoke),
		Rotate:       interfaces.NewCallable("iam-rotate", b.Rotate),
		IDColumnName: iamIDColumn,
		Schema: []schema.Field{
			{Name: "requested_by", Type: schema.TypeString, MaxLength: intPtr(128)},
			{Name: iamIDColumn, Type: schema.TypeString, MinLength: intPtr(16), MaxLength: intPtr(128)},
		},
	}
}

// Create issues a new access key.
func (b *IAMProducer) Create(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	out, err := b.client.CreateAccessKeyWithContext(ctx, &iam.CreateAccessKeyInput{
		UserName: aws.String(b.userName),
	})
	if err != nil {
		return nil, b.mapError("create", "", err)
	}

	key := out.AccessKey
	b.log.Info("Created IAM access key",
		slog.String("user", b.userName),
		slog.String("requested_by", args.String("requested_by")),
		slog.String("access_key_id", aws.StringValue(key.AccessKeyId)))

	return interfaces.CredentialResult{
		iamIDColumn:         aws.StringValue(key.AccessKeyId),
		"secret_access_key": aws.StringValue(key.SecretAccessKey),
		"user_name":         aws.StringValue(key.UserName),
	}, nil
}

// Revoke deletes an access key.
func (b *IAMProducer) Revoke(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	keyID := args.String(iamIDColumn)

	if err := b.deleteKey(ctx, keyID); err != nil {
		return nil, err
	}

	return interfaces.CredentialResult{iamIDColumn: keyID}, nil
}

// Rotate issues a new access key and then deletes the old one. The old key
// is checked first so a rotate of an unknown key creates nothing.
func (b *IAMProducer) Rotate(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
	oldKeyID := args.String(iamIDColumn)

	if err := b.ensureKey(ctx, oldKeyID); err != nil {
		return nil, err
	}

	result, err := b.Create(ctx, args)
	if err != nil {
		return nil, err
	}

	if err := b.deleteKey(ctx, oldKeyID); err != nil {
		b.log.Error("Rotated IAM key but failed to delete the previous one",
			slog.String("user", b.userName),
			slog.String("access_key_id", oldKeyID),
			"err", err)
		return nil, err
	}

	result["replaces"] = oldKeyID
	return result, nil
}

// Name returns a unique identifier for this producer.
func (b *IAMProducer) Name() string {
	return "aws-iam-" + b.userName
}

func (b *IAMProducer) ensureKey(ctx context.Context, keyID string) error {
	out, err := b.client.ListAccessKeysWithContext(ctx, &iam.ListAccessKeysInput{
		UserName: aws.String(b.userName),
	})
	if err != nil {
		return b.mapError("list", keyID, err)
	}
	for _, md := range out.AccessKeyMetadata {
		if aws.StringValue(md.AccessKeyId) == keyID {
			return nil
		}
	}
	return notFound("access key", keyID)
}

func (b *IAMProducer) deleteKey(ctx context.Context, keyID string) error {
	_, err := b.client.DeleteAccessKeyWithContext(ctx, &iam.DeleteAccessKeyInput{
		AccessKeyId: aws.String(keyID),
		UserName:    aws.String(b.userName),
	})
	if err != nil {
		return b.mapError("delete", keyID, err)
	}

	b.log.Info("Deleted IAM access key",
		slog.String("user", b.userName),
		slog.String("access_key_id", keyID))
	return nil
}

func (b *IAMProducer) mapError(op, keyID string, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case iam.ErrCodeNoSuchEntityException:
			return notFound("access key", keyID)
		case iam.ErrCodeLimitExceededException:
			return &producerhandler.RequestError{
				StatusCode: http.StatusConflict,
				Err:        fmt.Errorf("access key limit reached for IAM user %s", b.userName),
			}
		}
	}

	b.log.Error("IAM request failed", slog.String("op", op), slog.String("user", b.userName), "err", err)
	return unavailable(err)
}
