// Package driven defines the driven ports consumed by the application layer.
package driven

import "errors"

// ErrEncryptionKeyNotSet is returned by TokenStore operations when the
// adapter was constructed without an encryption key.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set WHOOPSYNC_ENCRYPTION_KEY")

// ErrNoToken is returned by the API client when no usable access token
// exists for the user. Authorization must be (re-)bootstrapped before
// syncing can proceed.
var ErrNoToken = errors.New("no valid access token available")

// ErrDecryptionFailed wraps failures to decrypt a stored credential --
// corrupt ciphertext or a changed encryption key. Distinct from a missing
// credential, which is reported as an absent value.
var ErrDecryptionFailed = errors.New("credential decryption failed")
