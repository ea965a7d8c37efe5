package entities

import "time"

type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// OrderAsset is uploaded binary metadata plus the blob-storage pointer.
// Immutable once created; referenced by id from order payloads.
type OrderAsset struct {
	AssetID     string
	OrderID     string
	Kind        AssetKind
	FileName    string
	ContentType string
	SizeBytes   int64
	StoragePath string
	CreatedAt   time.Time
}

func IsSupportedAssetKind(value AssetKind) bool {
	return value == AssetKindImage || value == AssetKindVideo
}
