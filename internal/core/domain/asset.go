package domain

import "time"

// AssetType identifies the kind of ingestion source behind an asset.
type AssetType string

// Supported asset types.
const (
	// AssetTypeFile is an uploaded local file.
	AssetTypeFile AssetType = "file"

	// AssetTypeURLScrape is a scraped base URL.
	AssetTypeURLScrape AssetType = "url-scrape"

	// AssetTypePrescriptionVirtual is a virtual asset grouping structured
	// prescription records ingested without a backing file.
	AssetTypePrescriptionVirtual AssetType = "prescription-virtual"
)

// Valid reports whether the asset type is one of the known values.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeFile, AssetTypeURLScrape, AssetTypePrescriptionVirtual:
		return true
	}
	return false
}

// Asset represents one ingestion source (an uploaded file or a scraped
// base URL). Deleting an asset cascades to its chunks and to any dense
// vectors or sparse postings referencing those chunk ids.
type Asset struct {
	// ID is assigned by the store on insert.
	ID int64

	// ProjectID is the owning project.
	ProjectID int64

	// Type is the kind of source.
	Type AssetType

	// Name is the file name or base URL.
	Name string

	// Size is the source size in bytes (0 when unknown, e.g. scrapes).
	Size int64

	// CreatedAt is when the asset was registered.
	CreatedAt time.Time
}
