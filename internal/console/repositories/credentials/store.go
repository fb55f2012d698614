// Package credentials persists the bearer token and the cached role tag of
// the console session. Both entries are always written or removed together.
package credentials

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

// ErrSealed is returned by Load when the stored token cannot be opened with
// the configured passphrase.
var ErrSealed = errors.New("stored token cannot be unsealed")

// Store is the durable credential pair. Load returns a zero Credentials and
// a nil error when nothing is stored.
type Store interface {
	Load(ctx context.Context) (models.Credentials, error)
	Save(ctx context.Context, c models.Credentials) error
	Clear(ctx context.Context) error
}
