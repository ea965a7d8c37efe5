package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateOrderRequest struct {
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Summary  string          `json:"summary"`
	Payload  json.RawMessage `json:"payload"`
	Priority int             `json:"priority"`
}

type UpdateOrderRequest struct {
	Title    string          `json:"title"`
	Summary  string          `json:"summary"`
	Payload  json.RawMessage `json:"payload"`
	Priority *int            `json:"priority"`
}

type PostOrderInfoRequest struct {
	Payload json.RawMessage `json:"payload"`
	Note    string          `json:"note"`
}

type SetApprovalRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

type SetApprovalResponse struct {
	Outcome string `json:"outcome"`
}

type AddAssetRequest struct {
	Kind        string `json:"kind"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type OrderDTO struct {
	OrderID   string          `json:"order_id"`
	OwnerID   string          `json:"owner_id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Title     string          `json:"title"`
	Summary   string          `json:"summary,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Priority  int             `json:"priority"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type OrderEventDTO struct {
	EventID        string `json:"event_id"`
	Actor          string `json:"actor"`
	Message        string `json:"message"`
	StatusSnapshot string `json:"status_snapshot,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type DeliverableDTO struct {
	DeliverableID  string   `json:"deliverable_id"`
	Type           string   `json:"type"`
	Status         string   `json:"status"`
	Content        string   `json:"content"`
	AssetURLs      []string `json:"asset_urls,omitempty"`
	ApprovalStatus string   `json:"approval_status,omitempty"`
	Feedback       string   `json:"feedback,omitempty"`
	UpdatedAt      string   `json:"updated_at"`
}

type AssetDTO struct {
	AssetID     string `json:"asset_id"`
	Kind        string `json:"kind"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	StoragePath string `json:"storage_path"`
	CreatedAt   string `json:"created_at"`
}

type AdsPublicationDTO struct {
	CampaignID string `json:"campaign_id,omitempty"`
	AdsetID    string `json:"adset_id,omitempty"`
	AdID       string `json:"ad_id,omitempty"`
	CreativeID string `json:"creative_id,omitempty"`
	Status     string `json:"status"`
	Retries    int    `json:"retries"`
	LastError  string `json:"last_error,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

type SitePublicationDTO struct {
	Stage      string `json:"stage"`
	Slug       string `json:"slug,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	PublicURL  string `json:"public_url,omitempty"`
	Retries    int    `json:"retries"`
	LastError  string `json:"last_error,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

type OrderResponse struct {
	Order OrderDTO `json:"order"`
}

type OrderDetailResponse struct {
	Order           OrderDTO            `json:"order"`
	Events          []OrderEventDTO     `json:"events"`
	Deliverables    []DeliverableDTO    `json:"deliverables"`
	Assets          []AssetDTO          `json:"assets"`
	AdsPublication  *AdsPublicationDTO  `json:"ads_publication,omitempty"`
	SitePublication *SitePublicationDTO `json:"site_publication,omitempty"`
}

type ListOrdersResponse struct {
	Items []OrderDTO `json:"items"`
}

type AddAssetResponse struct {
	Asset AssetDTO `json:"asset"`
}

type OperatorActionRequest struct {
	Reason string `json:"reason"`
}

type ClaimOrderRequest struct {
	WorkerID     string `json:"worker_id"`
	LeaseSeconds int    `json:"lease_seconds"`
}

type ClaimOrderResponse struct {
	Claimed    bool      `json:"claimed"`
	Order      *OrderDTO `json:"order,omitempty"`
	ClaimID    string    `json:"claim_id,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	LeaseUntil string    `json:"lease_until,omitempty"`
}

type CompleteOrderRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type DeliverableInputDTO struct {
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	Content   string   `json:"content"`
	AssetURLs []string `json:"asset_urls"`
}

type RecordDeliverablesRequest struct {
	Items []DeliverableInputDTO `json:"items"`
}

type RecordDeliverablesResponse struct {
	Items []DeliverableDTO `json:"items"`
}

type RecordAdsPublicationRequest struct {
	CampaignID  string `json:"campaign_id"`
	AdsetID     string `json:"adset_id"`
	AdID        string `json:"ad_id"`
	CreativeID  string `json:"creative_id"`
	Status      string `json:"status"`
	RawResponse string `json:"raw_response"`
	Retries     int    `json:"retries"`
	LastError   string `json:"last_error"`
}

type RecordSitePublicationRequest struct {
	Stage      string `json:"stage"`
	Slug       string `json:"slug"`
	PreviewURL string `json:"preview_url"`
	PublicURL  string `json:"public_url"`
	Retries    int    `json:"retries"`
	LastError  string `json:"last_error"`
	Metadata   string `json:"metadata"`
}

type HeartbeatRequest struct {
	WorkerID  string `json:"worker_id"`
	Claimed   bool   `json:"claimed"`
	LastError string `json:"last_error"`
}

type AppendEventRequest struct {
	Actor          string `json:"actor"`
	Message        string `json:"message"`
	StatusSnapshot string `json:"status_snapshot"`
}

type WorkerDTO struct {
	WorkerID   string `json:"worker_id"`
	Claimed    bool   `json:"claimed"`
	LastError  string `json:"last_error,omitempty"`
	LastSeenAt string `json:"last_seen_at"`
}

type ListWorkersResponse struct {
	Items []WorkerDTO `json:"items"`
}
