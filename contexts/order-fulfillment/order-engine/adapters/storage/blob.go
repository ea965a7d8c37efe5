package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// BlobPaths issues deterministic storage pointers under a configured prefix.
// Raw byte transfer happens out of band; the engine only tracks where the
// object lives.
type BlobPaths struct {
	Prefix string
}

func NewBlobPaths(prefix string) BlobPaths {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "orders"
	}
	return BlobPaths{Prefix: prefix}
}

func (b BlobPaths) StoragePath(_ context.Context, orderID string, fileName string) (string, error) {
	fileName = path.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return "", fmt.Errorf("storage: invalid file name")
	}
	return fmt.Sprintf("%s/%s/%s", b.Prefix, strings.TrimSpace(orderID), fileName), nil
}

var _ ports.BlobStorage = BlobPaths{}
