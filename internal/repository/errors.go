// Package repository implements the MySQL persistence layer.  The Store
// type satisfies the permit.Store contract; standalone repos cover users,
// refresh tokens and the assistant query log.  Sentinel errors from the
// permit package are returned directly so handlers can use errors.Is
// without knowing which store implementation served the request.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/notaryops/travel-permits/internal/permit"
)

// isDuplicateKey detects MySQL error 1062 (duplicate entry) from the
// driver's error string.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// mapStorageErr folds transient storage failures (lock wait timeout 1205,
// deadlock 1213, cancelled/expired context) into ErrRetryableStorage so
// that callers see one retryable sentinel instead of driver internals.
func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return permit.ErrRetryableStorage
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "1205") || strings.Contains(msg, "1213") ||
		strings.Contains(msg, "lock wait") || strings.Contains(msg, "deadlock") {
		return permit.ErrRetryableStorage
	}
	return err
}
