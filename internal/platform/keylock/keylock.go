package keylock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock cannot be acquired before the
// context is done.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Release frees a held lock. Calling it more than once is a no-op.
type Release func()

// Locker grants exclusive access to a key. Different keys never contend.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// SessionKey is the lock key for a diagnostic session.
func SessionKey(sessionID string) string {
	return "session:" + sessionID
}

// ReviewKey is the lock key for one user's review record of one item.
func ReviewKey(userID, itemID string) string {
	return "review:" + userID + ":" + itemID
}

// UserModeKey is the lock key for starting a user's session in a test mode.
func UserModeKey(userID, mode string) string {
	return "start:" + userID + ":" + mode
}
