package authservice

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// identityCodec is a reversible, keyed transformation of an email address
// into an opaque transport token. It exists so the plaintext address never
// appears in a browser URL or referrer log; validity is bounded entirely by
// the paired secret entry, so tokens carry no expiry of their own.
type identityCodec struct {
	key *fernet.Key
}

func newIdentityCodec(encodedKey string) (*identityCodec, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid identity key: %w", err)
	}
	return &identityCodec{key: key}, nil
}

// Encode wraps subject in a signed, encrypted token. Deterministically
// reversible by Decode under the same key.
func (c *identityCodec) Encode(subject string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(subject), c.key)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// Decode recovers the subject from a token produced by Encode. Tokens that
// are malformed, tampered with, or produced under a different key fail with
// ErrIdentityDecode. TTL 0 disables the codec-level age check: entry expiry
// is the secret store's job.
func (c *identityCodec) Decode(token string) (string, error) {
	message := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{c.key})
	if message == nil {
		return "", ErrIdentityDecode
	}
	return string(message), nil
}
