package sqlschema

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/persist/schema"
)

// KeyGen names a key generation strategy.
type KeyGen string

// Key generators.
const (
	UUIDv7 KeyGen = "uuidv7"
	UUIDv4 KeyGen = "uuidv4"
)

// Generate returns a new key.
func (g KeyGen) Generate() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	switch g {
	case UUIDv7:
		id, err = uuid.NewV7()
	case UUIDv4:
		id, err = uuid.NewRandom()
	default:
		return "", fmt.Errorf("sqlschema: unknown key generator %q", g)
	}
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// GeneratorOf returns the key generator configured on m, or "".
func GeneratorOf(m *schema.Model) KeyGen {
	return annotation(m).KeyGenerator
}
