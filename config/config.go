package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ruteri/custom-producer-backend/api/producerhandler"
	"github.com/ruteri/custom-producer-backend/producers"
	"gopkg.in/yaml.v3"
)

// Definition is the producer definition file.
//
//	name: db-users
//	producer: vault://vault.internal:8200/secret/db-users?token=${VAULT_TOKEN}
//	base_url: producers/db
//	can_rotate: true
//	id_column_name: id
//	auth:
//	  bearer_token: ${PRODUCER_TOKEN}
//	schema:
//	  - username
//	  - name: email
//	    type: email
//	    required: true
//
// ${VAR} references are expanded from the environment before parsing.
type Definition struct {
	Name     string `yaml:"name"`
	Producer string `yaml:"producer"`

	BaseURL        string `yaml:"base_url,omitempty"`
	CreateEndpoint string `yaml:"create_endpoint,omitempty"`
	RevokeEndpoint string `yaml:"revoke_endpoint,omitempty"`
	RotateEndpoint string `yaml:"rotate_endpoint,omitempty"`

	// CanRotate is a pointer: an absent key follows the backend's rotate support.
	CanRotate *bool `yaml:"can_rotate,omitempty"`

	IDColumnName string `yaml:"id_column_name,omitempty"`
	Schema       []any  `yaml:"schema,omitempty"`
	Auth         Auth   `yaml:"auth,omitempty"`
}

type Auth struct {
	BearerToken string `yaml:"bearer_token,omitempty"`
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("producer definition %s not found", path)
		}
		return nil, fmt.Errorf("failed to read producer definition: %w", err)
	}
	return Parse(data)
}

// Parse parses a definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("invalid producer definition: %w", err)
	}

	if def.Name == "" {
		def.Name = "producer"
	}
	if def.Producer == "" {
		return nil, errors.New("invalid producer definition: 'producer' URI is required")
	}
	return &def, nil
}

// HandlerConfig builds the handler configuration, creating the producer
// through factory. The result still has to pass producerhandler.NewHandler.
func (d *Definition) HandlerConfig(factory *producers.ProducerFactory) (producerhandler.Config, error) {
	cfg := producerhandler.DefaultConfig()
	cfg.BaseURL = d.BaseURL
	if d.CreateEndpoint != "" {
		cfg.CreateEndpoint = d.CreateEndpoint
	}
	if d.RevokeEndpoint != "" {
		cfg.RevokeEndpoint = d.RevokeEndpoint
	}
	if d.RotateEndpoint != "" {
		cfg.RotateEndpoint = d.RotateEndpoint
	}
	cfg.IDColumnName = d.IDColumnName
	if d.Schema != nil {
		cfg.Schema = d.Schema
	}

	producer, err := factory.ProducerFor(d.Producer)
	if err != nil {
		return cfg, fmt.Errorf("failed to create producer %q: %w", d.Name, err)
	}
	producer.Apply(&cfg)

	if d.CanRotate != nil {
		cfg.CanRotate = *d.CanRotate
	} else {
		cfg.CanRotate = producer.CanRotate()
	}

	if d.Auth.BearerToken != "" {
		cfg.Authentication = producerhandler.BearerAuth{Token: d.Auth.BearerToken}
	}

	return cfg, nil
}
