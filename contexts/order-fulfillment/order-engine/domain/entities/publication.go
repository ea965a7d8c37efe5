package entities

import "time"

type PublicationStatus string
type SiteStage string

const (
	PublicationStatusPending   PublicationStatus = "pending"
	PublicationStatusPublished PublicationStatus = "published"
	PublicationStatusFailed    PublicationStatus = "failed"

	SiteStagePending          SiteStage = "pending"
	SiteStageBuilding         SiteStage = "building"
	SiteStagePreviewPublished SiteStage = "preview_published"
	SiteStagePublishing       SiteStage = "publishing"
	SiteStagePublished        SiteStage = "published"
	SiteStageFailed           SiteStage = "failed"
)

// lastErrorLimit bounds the stored upstream error text so operator views stay
// readable even when the external API returns a page of HTML.
const lastErrorLimit = 600

// AdsPublication is the durable checkpoint of the ads publish pipeline.
// One row per order, upserted on every step.
type AdsPublication struct {
	OrderID     string
	CampaignID  string
	AdsetID     string
	AdID        string
	CreativeID  string
	MediaHash   string
	Status      PublicationStatus
	RawResponse string
	Retries     int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SitePublication is the durable checkpoint of the site build/publish
// pipeline. The stage field is re-derived on every claim so a crashed worker
// resumes instead of restarting the whole order.
type SitePublication struct {
	OrderID    string
	Stage      SiteStage
	Slug       string
	PreviewURL string
	PublicURL  string
	Retries    int
	LastError  string
	Metadata   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClipError truncates upstream error text for checkpoint storage.
func ClipError(message string) string {
	if len(message) <= lastErrorLimit {
		return message
	}
	return message[:lastErrorLimit]
}
