package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// StubAdsPlatform is the in-memory advertising collaborator. FailStep lets a
// scenario inject one failing step; FailWith controls whether the failure is
// transient or fatal.
type StubAdsPlatform struct {
	mu sync.Mutex

	Templates map[string]ports.AdsTemplate
	FailStep  string
	FailWith  *ports.PublishError
	FailCount int

	Calls []string
	next  int
}

func templateKey(destinationType string, mediaKind string) string {
	return destinationType + "|" + mediaKind
}

func NewStubAdsPlatform() *StubAdsPlatform {
	return &StubAdsPlatform{
		Templates: map[string]ports.AdsTemplate{
			templateKey("whatsapp", "image"): {TemplateID: "tpl_wa_img", Name: "WA imagem", DestinationType: "whatsapp", MediaKind: "image"},
			templateKey("whatsapp", "video"): {TemplateID: "tpl_wa_vid", Name: "WA vídeo", DestinationType: "whatsapp", MediaKind: "video"},
			templateKey("website", "image"):  {TemplateID: "tpl_web_img", Name: "Site imagem", DestinationType: "website", MediaKind: "image"},
		},
	}
}

func (f *StubAdsPlatform) failFor(step string) error {
	if f.FailStep != step || f.FailCount == 0 {
		return nil
	}
	f.FailCount--
	if f.FailWith != nil {
		return f.FailWith
	}
	return &ports.PublishError{Code: "rate_limit", Message: "too many requests", Retriable: true}
}

func (f *StubAdsPlatform) record(step string) string {
	f.Calls = append(f.Calls, step)
	f.next++
	return fmt.Sprintf("%s_%d", step, f.next)
}

func (f *StubAdsPlatform) ResolveTemplate(ctx context.Context, destinationType string, mediaKind string) (ports.AdsTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "template")
	if err := f.failFor("template"); err != nil {
		return ports.AdsTemplate{}, err
	}
	if template, ok := f.Templates[templateKey(destinationType, mediaKind)]; ok {
		return template, nil
	}
	// No media-compatible template: the caller decides whether a fallback is
	// acceptable, which for campaign publishing it never is.
	return ports.AdsTemplate{TemplateID: "tpl_fallback", DestinationType: destinationType, MediaKind: mediaKind, FallbackMedia: true}, nil
}

func (f *StubAdsPlatform) CreateCampaign(ctx context.Context, input ports.CampaignInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor("campaign"); err != nil {
		f.Calls = append(f.Calls, "campaign")
		return "", err
	}
	return f.record("campaign"), nil
}

func (f *StubAdsPlatform) CreateAdSet(ctx context.Context, input ports.AdSetInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor("adset"); err != nil {
		f.Calls = append(f.Calls, "adset")
		return "", err
	}
	return f.record("adset"), nil
}

func (f *StubAdsPlatform) UploadMedia(ctx context.Context, input ports.MediaInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor("media"); err != nil {
		f.Calls = append(f.Calls, "media")
		return "", err
	}
	f.Calls = append(f.Calls, "media")
	sum := sha256.Sum256([]byte(input.OrderID + "|" + input.StoragePath))
	return hex.EncodeToString(sum[:8]), nil
}

func (f *StubAdsPlatform) CreateCreative(ctx context.Context, input ports.CreativeInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor("creative"); err != nil {
		f.Calls = append(f.Calls, "creative")
		return "", err
	}
	return f.record("creative"), nil
}

func (f *StubAdsPlatform) CreateAd(ctx context.Context, input ports.AdInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor("ad"); err != nil {
		f.Calls = append(f.Calls, "ad")
		return "", err
	}
	return f.record("ad"), nil
}

// StubSiteBuilder publishes deterministic preview and public URLs under a
// test domain.
type StubSiteBuilder struct {
	mu sync.Mutex

	FailStage string
	FailWith  *ports.PublishError
	FailCount int

	Calls []string
}

func NewStubSiteBuilder() *StubSiteBuilder {
	return &StubSiteBuilder{}
}

func (f *StubSiteBuilder) failFor(stage string) error {
	if f.FailStage != stage || f.FailCount == 0 {
		return nil
	}
	f.FailCount--
	if f.FailWith != nil {
		return f.FailWith
	}
	return &ports.PublishError{Code: "upstream_unavailable", Message: "builder timed out", Retriable: true}
}

func (f *StubSiteBuilder) Autobuild(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "autobuild")
	if err := f.failFor("autobuild"); err != nil {
		return "", err
	}
	return fmt.Sprintf(`{"sections":["hero","about","contact"],"prompt":%q}`, prompt), nil
}

func (f *StubSiteBuilder) PublishPreview(ctx context.Context, slug string, spec string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "preview")
	if err := f.failFor("preview"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://preview.sites.test/%s", slug), nil
}

func (f *StubSiteBuilder) PublishFinal(ctx context.Context, slug string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "publish")
	if err := f.failFor("publish"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.sites.test", slug), nil
}

// StubVideoEditor returns a deterministic edited-video URL.
type StubVideoEditor struct {
	mu sync.Mutex

	FailWith  *ports.PublishError
	FailCount int

	Calls int
}

func NewStubVideoEditor() *StubVideoEditor {
	return &StubVideoEditor{}
}

func (f *StubVideoEditor) SubmitEdit(ctx context.Context, input ports.VideoEditInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.FailCount > 0 {
		f.FailCount--
		if f.FailWith != nil {
			return "", f.FailWith
		}
		return "", &ports.PublishError{Code: "render_queue_full", Message: "renderer busy", Retriable: true}
	}
	return fmt.Sprintf("https://videos.test/%s/edited.mp4", input.OrderID), nil
}

// StubBillingPlans answers funding checks per owner; unknown owners default
// to funded so the common scenario path skips waiting_payment.
type StubBillingPlans struct {
	mu       sync.Mutex
	unfunded map[string]bool
}

func NewStubBillingPlans() *StubBillingPlans {
	return &StubBillingPlans{unfunded: make(map[string]bool)}
}

func (f *StubBillingPlans) SetFunded(ownerID string, funded bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unfunded[ownerID] = !funded
}

func (f *StubBillingPlans) PlanActiveAndFunded(ctx context.Context, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unfunded[ownerID], nil
}

var _ ports.AdsPlatform = (*StubAdsPlatform)(nil)
var _ ports.SiteBuilder = (*StubSiteBuilder)(nil)
var _ ports.VideoEditor = (*StubVideoEditor)(nil)
var _ ports.BillingPlans = (*StubBillingPlans)(nil)
