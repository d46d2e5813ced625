package credstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/oauth1/oauth1"
)

// File is the YAML layout accepted by Load.
type File struct {
	Consumers []ConsumerEntry `yaml:"consumers" validate:"dive"`
	Tokens    []TokenEntry    `yaml:"tokens" validate:"dive"`
}

// ConsumerEntry describes one registered consumer. Secret may be empty
// only for consumers that sign with RSA-SHA1.
type ConsumerEntry struct {
	Key        string `yaml:"key" validate:"required"`
	Secret     string `yaml:"secret" validate:"required_without=PublicCert"`
	PublicCert string `yaml:"public_cert,omitempty"`
}

// TokenEntry describes one pre-provisioned token.
type TokenEntry struct {
	Key      string `yaml:"key" validate:"required"`
	Secret   string `yaml:"secret" validate:"required"`
	Kind     string `yaml:"kind" validate:"required,oneof=request access"`
	Consumer string `yaml:"consumer" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a YAML document from r and returns a populated Store. An
// empty document yields an empty Store.
func Load(r io.Reader) (*Store, error) {
	var f File

	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("credstore: decode: %w", err)
	}

	if err := validate.Struct(f); err != nil {
		return nil, validationError(err)
	}

	s := New()

	for _, c := range f.Consumers {
		var cert []byte
		if c.PublicCert != "" {
			cert = []byte(c.PublicCert)
		}

		if err := s.AddConsumer(oauth1.Consumer{Key: c.Key, Secret: c.Secret}, cert); err != nil {
			return nil, err
		}
	}

	for _, t := range f.Tokens {
		token := oauth1.Token{Key: t.Key, Secret: t.Secret, Kind: oauth1.TokenKind(t.Kind)}
		if err := s.AddToken(t.Consumer, token); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// LoadFile reads the YAML document at path.
func LoadFile(path string) (*Store, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("credstore: %w", err)
	}
	defer fh.Close()

	return Load(fh)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("credstore: validate: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}

	return fmt.Errorf("credstore: invalid fields: %s", strings.Join(fields, ", "))
}
