// Package transport defines the BLE GATT collaborator every session talks
// through: scan, connect, write, and subscribe on a single characteristic.
// No concrete BLE implementation lives here or anywhere in this module —
// the retrieved example pack carries no BLE/GATT library, and spec.md
// excludes a transport implementation as a non-goal. transport/fake
// provides an in-memory double for tests.
package transport

import (
	"context"
	"sync"
	"time"
)

// Advertisement is one scan result: a BLE device's address and advertised
// name, the latter used by joints.VariantFromAdvertisingName to identify
// which robot variant it is.
type Advertisement struct {
	Address string
	Name    string
}

// Scanner discovers nearby BLE peripherals advertising the robot's GATT
// service.
type Scanner interface {
	Scan(ctx context.Context, timeout time.Duration) ([]Advertisement, error)
}

// Transport is a connected link to one robot's single read/write/notify
// characteristic.
type Transport interface {
	// Connect establishes the GATT connection to addr.
	Connect(ctx context.Context, addr string) error

	// Write sends one already-encoded frame.
	Write(ctx context.Context, frame []byte) error

	// Subscribe registers handler to receive every notification payload
	// delivered on the characteristic, in arrival order, until the
	// transport is closed or the context is canceled.
	Subscribe(ctx context.Context, handler func(data []byte)) error

	// Close tears down the connection.
	Close(ctx context.Context) error
}

// scanLock is the process-level mutex guarding Scan: the underlying BLE
// adapter on most platforms cannot run two discovery scans concurrently,
// so every caller goes through ScanSerialized regardless of which session
// or goroutine initiated the scan.
var scanLock sync.Mutex

// ScanSerialized runs scanner.Scan while holding the process-wide scan
// lock, so concurrent callers queue rather than colliding on the adapter.
// Canceling ctx while waiting for the lock returns ctx.Err() without ever
// starting the scan.
func ScanSerialized(ctx context.Context, scanner Scanner, timeout time.Duration) ([]Advertisement, error) {
	locked := make(chan struct{})
	go func() {
		scanLock.Lock()
		close(locked)
	}()
	select {
	case <-locked:
	case <-ctx.Done():
		go func() {
			<-locked
			scanLock.Unlock()
		}()
		return nil, ctx.Err()
	}
	defer scanLock.Unlock()
	return scanner.Scan(ctx, timeout)
}
