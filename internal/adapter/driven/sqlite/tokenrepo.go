package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port. Token
// values are encrypted with AES-256-GCM before write and decrypted after
// read; plaintext never reaches the database file.
type TokenRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables the store.
}

// NewTokenRepo creates a TokenRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable credential storage (all operations return
// ErrEncryptionKeyNotSet).
func NewTokenRepo(db *DB, key []byte) *TokenRepo {
	return &TokenRepo{db: db, key: key}
}

// Save stores or replaces the user's credential. One credential per user:
// a refresh overwrites the existing row in a single statement, never
// appending history.
func (r *TokenRepo) Save(ctx context.Context, cred model.Credential) error {
	encAccess, err := r.encrypt(cred.AccessToken)
	if err != nil {
		return err
	}
	encRefresh, err := r.encrypt(cred.RefreshToken)
	if err != nil {
		return err
	}

	scopes := cred.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	scopesJSON, err := json.Marshal(scopes)
	if err != nil {
		return fmt.Errorf("marshal scopes: %w", err)
	}

	const query = `
		INSERT INTO oauth_tokens (user_id, access_token, refresh_token, token_type, expires_at, scopes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`

	_, err = r.db.Writer.ExecContext(ctx, query,
		cred.UserID, encAccess, encRefresh, cred.TokenType,
		formatTime(cred.ExpiresAt), string(scopesJSON), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save credential for user %d: %w", cred.UserID, err)
	}

	return nil
}

// Get retrieves the user's credential with decrypted token values.
// Returns (nil, nil) if no credential exists.
func (r *TokenRepo) Get(ctx context.Context, userID int64) (*model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `
		SELECT user_id, access_token, refresh_token, token_type, expires_at, scopes, created_at, updated_at
		FROM oauth_tokens
		WHERE user_id = ?
	`

	var cred model.Credential
	var encAccess, encRefresh, scopesJSON string
	var expiresAt, createdAt, updatedAt string

	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(
		&cred.UserID, &encAccess, &encRefresh, &cred.TokenType,
		&expiresAt, &scopesJSON, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential for user %d: %w", userID, err)
	}

	cred.AccessToken, err = r.decrypt(encAccess)
	if err != nil {
		return nil, fmt.Errorf("access token for user %d: %w", userID, err)
	}
	cred.RefreshToken, err = r.decrypt(encRefresh)
	if err != nil {
		return nil, fmt.Errorf("refresh token for user %d: %w", userID, err)
	}

	if err := json.Unmarshal([]byte(scopesJSON), &cred.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshal scopes for user %d: %w", userID, err)
	}

	cred.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at for user %d: %w", userID, err)
	}
	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for user %d: %w", userID, err)
	}
	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for user %d: %w", userID, err)
	}

	return &cred, nil
}

// Delete removes the user's credential. Reports whether a row existed.
func (r *TokenRepo) Delete(ctx context.Context, userID int64) (bool, error) {
	const query = `DELETE FROM oauth_tokens WHERE user_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("delete credential for user %d: %w", userID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rows > 0, nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *TokenRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext. Corrupt data or
// a changed key surfaces as ErrDecryptionFailed.
func (r *TokenRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", driven.ErrDecryptionFailed, err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", driven.ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", driven.ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}
