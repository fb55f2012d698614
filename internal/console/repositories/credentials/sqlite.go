package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/cryptox"
	"github.com/dmitrijs2005/tradeconsole/internal/dbx"
)

const saltSize = 16

type sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// SQLiteStore keeps the credential pair in the credentials key/value table.
type SQLiteStore struct {
	db     *sql.DB
	sealer sealer
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// NewSealedSQLiteStore returns a store that encrypts the token with a key
// derived from passphrase. The argon2 salt is created on first use and kept
// next to the credentials.
func NewSealedSQLiteStore(ctx context.Context, db *sql.DB, passphrase []byte) (*SQLiteStore, error) {
	salt, err := get(ctx, db, common.SaltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		salt = common.GenerateRandByteArray(saltSize)
		if err := set(ctx, db, common.SaltKey, salt); err != nil {
			return nil, err
		}
	}

	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	s, err := cryptox.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build sealer: %w", err)
	}
	return &SQLiteStore{db: db, sealer: s}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (models.Credentials, error) {
	token, err := get(ctx, s.db, common.TokenKey)
	if err != nil {
		return models.Credentials{}, err
	}
	if len(token) == 0 {
		return models.Credentials{}, nil
	}

	if s.sealer != nil {
		token, err = s.sealer.Open(token)
		if err != nil {
			return models.Credentials{}, fmt.Errorf("%w: %v", ErrSealed, err)
		}
	}

	role, err := get(ctx, s.db, common.RoleKey)
	if err != nil {
		return models.Credentials{}, err
	}

	return models.Credentials{Token: string(token), Role: models.Role(role)}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, c models.Credentials) error {
	token := []byte(c.Token)
	if s.sealer != nil {
		var err error
		if token, err = s.sealer.Seal(token); err != nil {
			return fmt.Errorf("failed to seal token: %w", err)
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, common.TokenKey, token); err != nil {
			return err
		}
		if c.Role == models.RoleNone {
			return del(ctx, tx, common.RoleKey)
		}
		return set(ctx, tx, common.RoleKey, []byte(c.Role))
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := del(ctx, tx, common.TokenKey); err != nil {
			return err
		}
		return del(ctx, tx, common.RoleKey)
	})
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
	}
	return nil
}

func del(ctx context.Context, db dbx.DBTX, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete credentials[%s]: %w", key, err)
	}
	return nil
}
