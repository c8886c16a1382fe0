package syncstate

import "context"

// KeyLastSync holds the RFC 3339 timestamp of the last fully successful
// sync cycle.
const KeyLastSync = "last_sync"

// KeyDeviceID holds the stable identifier of this installation, generated
// on first start. It survives watermark resets and sign-outs.
const KeyDeviceID = "device_id"

// Repository is a small key/value store for sync bookkeeping.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
