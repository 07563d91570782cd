package ledger

import "context"

// Store is the durable, ordered append medium behind the ledger. Appends must
// be durable before returning; Replay must yield entries in sequence order.
// The Ledger serializes writers, so stores never see concurrent Append calls.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	Head(ctx context.Context) (*Head, error)
	Replay(ctx context.Context, fn func(*Entry) error) error
}

// SecretProvider supplies the HMAC key for chain signing. Key management is
// external; the ledger only consumes bytes.
type SecretProvider interface {
	HMACSecret() ([]byte, error)
}

// StaticSecret is a SecretProvider over a fixed key, used when the key comes
// from the environment.
type StaticSecret []byte

func (s StaticSecret) HMACSecret() ([]byte, error) { return []byte(s), nil }
