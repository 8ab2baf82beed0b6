package producers

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/custom-producer-backend/interfaces"
)

const defaultVaultPort = "8200"

// ProducerFactory creates producers from URI strings.
type ProducerFactory struct {
	log *slog.Logger
}

func NewProducerFactory(logger *slog.Logger) *ProducerFactory {
	return &ProducerFactory{log: logger}
}

// ProducerFor creates a producer from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - vault:// - username/password credentials kept in a Vault KV v2 mount
//   - aws-iam:// - IAM access keys of a single IAM user
//   - ssh:// - stateless ed25519 SSH keypairs
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (pf *ProducerFactory) ProducerFor(locationURI string) (*Producer, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "vault":
		return pf.createVaultProducer(u)
	case "aws-iam":
		return pf.createIAMProducer(u)
	case "ssh":
		return pf.createSSHProducer(u)
	default:
		return nil, fmt.Errorf("%w: unsupported producer scheme: %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createVaultProducer creates a Vault backed producer.
// URI format: vault://host:port/<mount>/<path>?token=...&tls=false
// The token falls back to the VAULT_TOKEN environment variable.
func (pf *ProducerFactory) createVaultProducer(u *url.URL) (*Producer, error) {
	pf.log.Debug("Creating Vault producer", slog.String("host", u.Host))

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: vault URI requires a host", interfaces.ErrInvalidLocationURI)
	}
	port := u.Port()
	if port == "" {
		port = defaultVaultPort
	}

	query := u.Query()
	scheme := "https"
	if query.Get("tls") == "false" {
		scheme = "http"
	}

	mountPath, dataPath, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if mountPath == "" || dataPath == "" {
		return nil, fmt.Errorf("%w: vault URI must be vault://host:port/<mount>/<path>", interfaces.ErrInvalidLocationURI)
	}

	address := fmt.Sprintf("%s://%s:%s", scheme, host, port)
	backend, err := NewVaultProducer(address, mountPath, dataPath, query.Get("token"), pf.log)
	if err != nil {
		return nil, err
	}
	return backend.Producer(), nil
}

// createIAMProducer creates an AWS IAM access key producer.
// URI format: aws-iam://[ACCESS_KEY:SECRET_KEY@]user-name?region=us-east-1&endpoint=custom.iam.com
// Without embedded credentials the default AWS credential chain is used.
func (pf *ProducerFactory) createIAMProducer(u *url.URL) (*Producer, error) {
	pf.log.Debug("Creating IAM producer", slog.String("user", u.Host))

	userName := u.Host
	if userName == "" {
		return nil, fmt.Errorf("%w: aws-iam URI requires a user name", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		pf.log.Debug("Using embedded IAM credentials")
	}

	backend, err := NewIAMProducer(userName, region, query.Get("endpoint"), accessKey, secretKey, pf.log)
	if err != nil {
		return nil, err
	}
	return backend.Producer(), nil
}

// createSSHProducer creates an SSH keypair producer.
// URI format: ssh://?comment=deploy-key
func (pf *ProducerFactory) createSSHProducer(u *url.URL) (*Producer, error) {
	pf.log.Debug("Creating SSH key producer")
	return NewSSHKeyProducer(u.Query().Get("comment"), pf.log).Producer(), nil
}
