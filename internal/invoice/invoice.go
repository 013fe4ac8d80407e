// Package invoice archives downloaded order invoices.
package invoice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no archived invoice exists under a name.
var ErrNotFound = errors.New("invoice not found")

// Store keeps invoice PDFs by file name.
type Store interface {
	// Put archives pdf under name, replacing any earlier copy.
	Put(ctx context.Context, name string, pdf []byte) error

	// Get returns the archived PDF or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
}

// FileName is the download name for an order's invoice:
// <prefix>_<last 8 characters of the order id, upper-cased>.pdf.
func FileName(prefix, orderID string) string {
	suffix := orderID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("%s_%s.pdf", prefix, strings.ToUpper(suffix))
}

// ArchiveKey is the storage key of an order's invoice. It carries the full
// order id scoped to its owner, so distinct orders never share an entry.
func ArchiveKey(owner, orderID string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(owner)) + "." + enc.EncodeToString([]byte(orderID)) + ".pdf"
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid invoice name %q", name)
	}
	return nil
}
