package jwtx

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// MinSecretSize is the smallest HMAC secret accepted for signing.
const MinSecretSize = 32

var (
	ErrNoKey       = errors.New("jwtx: key not found")
	ErrWeakSecret  = errors.New("jwtx: signing secret too short")
	ErrDuplicateID = errors.New("jwtx: duplicate key id")
)

// Key is a symmetric signing secret and its identifier.
type Key struct {
	ID     string
	Secret []byte
}

// NewKey derives a stable key id from secret so the same secret always
// produces the same kid across restarts.
func NewKey(secret []byte) Key {
	sum := sha256.Sum256(secret)
	return Key{
		ID:     base64.RawURLEncoding.EncodeToString(sum[:9]),
		Secret: secret,
	}
}

// Keyring hides secret management from the codec. Tokens are always signed
// with CurrentKey and verified against CurrentKey plus PreviousKeys.
type Keyring interface {
	CurrentKey() Key
	PreviousKeys() []Key
}

// KeySet is a Keyring for static secrets loaded at startup. Rotating means
// restarting with the old secret moved to the previous keys.
type KeySet struct {
	current  Key
	previous []Key
}

// NewKeySet builds a KeySet signing with current and still accepting
// tokens signed by any of previous.
func NewKeySet(current Key, previous ...Key) (*KeySet, error) {
	if len(current.Secret) < MinSecretSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretSize, len(current.Secret))
	}

	ks := &KeySet{current: current}
	seen := map[string]bool{current.ID: true}
	for _, k := range previous {
		if len(k.Secret) == 0 {
			continue
		}
		if len(k.Secret) < MinSecretSize {
			return nil, fmt.Errorf("%w: previous key %s needs %d bytes, got %d", ErrWeakSecret, k.ID, MinSecretSize, len(k.Secret))
		}
		if seen[k.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, k.ID)
		}
		seen[k.ID] = true
		ks.previous = append(ks.previous, k)
	}
	return ks, nil
}

func (k *KeySet) CurrentKey() Key { return k.current }

func (k *KeySet) PreviousKeys() []Key {
	out := make([]Key, len(k.previous))
	copy(out, k.previous)
	return out
}

// IsReady returns true once a signing key is loaded.
func (k *KeySet) IsReady() bool {
	return len(k.current.Secret) > 0
}

// lookup finds a verification key by id in any Keyring.
func lookup(ring Keyring, id string) (Key, error) {
	if cur := ring.CurrentKey(); cur.ID == id {
		return cur, nil
	}
	for _, k := range ring.PreviousKeys() {
		if k.ID == id {
			return k, nil
		}
	}
	return Key{}, ErrNoKey
}
