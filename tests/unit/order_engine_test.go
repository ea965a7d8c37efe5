package unit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	orderengine "maestro/contexts/order-fulfillment/order-engine"
	httptransport "maestro/contexts/order-fulfillment/order-engine/transport/http"
)

const owner = "user-1"

func createOrder(t *testing.T, module orderengine.Module, orderType string, payload string) string {
	t.Helper()
	response, err := module.Handler.CreateOrderHandler(context.Background(), owner, httptransport.CreateOrderRequest{
		Type:    orderType,
		Title:   "Pedido da padaria",
		Payload: json.RawMessage(payload),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if response.Order.Status != "draft" {
		t.Fatalf("new order status = %s, want draft", response.Order.Status)
	}
	return response.Order.OrderID
}

func submitOrder(t *testing.T, module orderengine.Module, orderID string) httptransport.OrderDTO {
	t.Helper()
	response, err := module.Handler.SubmitOrderHandler(context.Background(), owner, orderID)
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}
	return response.Order
}

func runWorker(t *testing.T, module orderengine.Module) {
	t.Helper()
	if err := module.Worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("worker run: %v", err)
	}
}

func orderDetail(t *testing.T, module orderengine.Module, orderID string) httptransport.OrderDetailResponse {
	t.Helper()
	detail, err := module.Handler.GetOrderHandler(context.Background(), owner, orderID)
	if err != nil {
		t.Fatalf("get order %s: %v", orderID, err)
	}
	return detail
}

func deliverableOfType(t *testing.T, detail httptransport.OrderDetailResponse, deliverableType string) httptransport.DeliverableDTO {
	t.Helper()
	for _, item := range detail.Deliverables {
		if item.Type == deliverableType {
			return item
		}
	}
	t.Fatalf("no %s deliverable on order %s", deliverableType, detail.Order.OrderID)
	return httptransport.DeliverableDTO{}
}

func hasEventContaining(detail httptransport.OrderDetailResponse, fragment string) bool {
	for _, event := range detail.Events {
		if strings.Contains(event.Message, fragment) {
			return true
		}
	}
	return false
}

func approve(t *testing.T, module orderengine.Module, deliverableID string, status string, feedback string) string {
	t.Helper()
	response, err := module.Handler.SetApprovalHandler(context.Background(), owner, deliverableID, httptransport.SetApprovalRequest{
		Status:   status,
		Feedback: feedback,
	})
	if err != nil {
		t.Fatalf("set approval %s on %s: %v", status, deliverableID, err)
	}
	return response.Outcome
}

func TestAdsOrderLifecycleWithApprovalLoop(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "ads", `{}`)

	if order := submitOrder(t, module, orderID); order.Status != "queued" {
		t.Fatalf("funded submit should queue, got %s", order.Status)
	}

	// Empty payload: the first run asks for the campaign objective.
	runWorker(t, module)
	detail := orderDetail(t, module, orderID)
	if detail.Order.Status != "needs_info" {
		t.Fatalf("status = %s, want needs_info", detail.Order.Status)
	}
	if !hasEventContaining(detail, "objetivo da campanha") {
		t.Fatalf("expected the objective question on the timeline")
	}

	if _, err := module.Handler.PostOrderInfoHandler(context.Background(), owner, orderID, httptransport.PostOrderInfoRequest{
		Payload: json.RawMessage(`{
			"objective": "vender mais pães",
			"destination": "whatsapp",
			"daily_budget_cents": 5000,
			"media_kind": "image",
			"customer_name": "Padaria Central"
		}`),
	}); err != nil {
		t.Fatalf("post order info: %v", err)
	}
	if detail = orderDetail(t, module, orderID); detail.Order.Status != "queued" {
		t.Fatalf("answered order should requeue, got %s", detail.Order.Status)
	}

	// Complete payload: the run produces the approval bundle.
	runWorker(t, module)
	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "needs_approval" {
		t.Fatalf("status = %s, want needs_approval", detail.Order.Status)
	}
	if len(detail.Deliverables) != 3 {
		t.Fatalf("ads bundle should have 3 deliverables, got %d", len(detail.Deliverables))
	}

	creative := deliverableOfType(t, detail, "creative")
	if outcome := approve(t, module, creative.DeliverableID, "changes_requested", "use as cores da marca"); outcome != "iterate" {
		t.Fatalf("changes_requested outcome = %s, want iterate", outcome)
	}
	if detail = orderDetail(t, module, orderID); detail.Order.Status != "in_progress" {
		t.Fatalf("iterate must resume production, got %s", detail.Order.Status)
	}

	runWorker(t, module)
	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "needs_approval" {
		t.Fatalf("revised bundle should wait for approval again, got %s", detail.Order.Status)
	}
	revised := deliverableOfType(t, detail, "creative")
	if revised.DeliverableID != creative.DeliverableID {
		t.Fatalf("revision must keep the deliverable id, got %s and %s", creative.DeliverableID, revised.DeliverableID)
	}
	if !strings.Contains(revised.Content, "revisado: use as cores da marca") {
		t.Fatalf("revised creative must carry the feedback, got %q", revised.Content)
	}

	if outcome := approve(t, module, revised.DeliverableID, "approved", ""); outcome != "wait" {
		t.Fatalf("first approval outcome = %s, want wait", outcome)
	}
	copyItem := deliverableOfType(t, detail, "copy")
	if outcome := approve(t, module, copyItem.DeliverableID, "approved", ""); outcome != "finalize" {
		t.Fatalf("last approval outcome = %s, want finalize", outcome)
	}

	// One transient campaign failure: the retry budget absorbs it.
	module.Ads.FailStep = "campaign"
	module.Ads.FailCount = 1
	runWorker(t, module)

	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "done" {
		t.Fatalf("status = %s, want done", detail.Order.Status)
	}
	if detail.AdsPublication == nil {
		t.Fatalf("published order must carry the ads publication record")
	}
	publication := detail.AdsPublication
	if publication.Status != "published" {
		t.Fatalf("publication status = %s, want published", publication.Status)
	}
	if publication.Retries != 1 {
		t.Fatalf("retries = %d, want 1", publication.Retries)
	}
	if publication.CampaignID == "" || publication.AdsetID == "" || publication.CreativeID == "" || publication.AdID == "" {
		t.Fatalf("all external ids must be recorded, got %+v", publication)
	}
	if !hasEventContaining(detail, "Falha temporária ao publicar (campaign, tentativa 1)") {
		t.Fatalf("expected the retry progress event on the timeline")
	}
	if !hasEventContaining(detail, "Campanha publicada com sucesso.") {
		t.Fatalf("expected the publish success event on the timeline")
	}
}

func TestAdsPublishFailsWithoutCompatibleTemplate(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	// destination profile has no registered template for any media kind.
	orderID := createOrder(t, module, "ads", `{
		"objective": "divulgar a marca",
		"destination": "profile",
		"daily_budget_cents": 3000,
		"media_kind": "image"
	}`)
	submitOrder(t, module, orderID)

	runWorker(t, module)
	detail := orderDetail(t, module, orderID)
	approve(t, module, deliverableOfType(t, detail, "creative").DeliverableID, "approved", "")
	approve(t, module, deliverableOfType(t, detail, "copy").DeliverableID, "approved", "")

	runWorker(t, module)
	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "failed" {
		t.Fatalf("fallback template must fail the order, got %s", detail.Order.Status)
	}
	if detail.AdsPublication == nil || detail.AdsPublication.Status != "failed" {
		t.Fatalf("publication must be marked failed, got %+v", detail.AdsPublication)
	}
	if !strings.Contains(detail.AdsPublication.LastError, "fallback_media_template") {
		t.Fatalf("last error must name the template mismatch, got %q", detail.AdsPublication.LastError)
	}
	if detail.AdsPublication.CampaignID != "" {
		t.Fatalf("no campaign may be created with mismatched media, got %s", detail.AdsPublication.CampaignID)
	}
}

func TestUnfundedOrderWaitsForFundingConfirmation(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	module.Plans.SetFunded(owner, false)

	orderID := createOrder(t, module, "ads", `{}`)
	if order := submitOrder(t, module, orderID); order.Status != "waiting_payment" {
		t.Fatalf("unfunded submit should wait for payment, got %s", order.Status)
	}

	// The worker must not pick up an order that is waiting on payment.
	runWorker(t, module)
	if detail := orderDetail(t, module, orderID); detail.Order.Status != "waiting_payment" {
		t.Fatalf("waiting order must stay parked, got %s", detail.Order.Status)
	}

	response, err := module.Handler.ConfirmFundingHandler(context.Background(), orderID)
	if err != nil {
		t.Fatalf("confirm funding: %v", err)
	}
	if response.Order.Status != "queued" {
		t.Fatalf("confirmed funding should queue, got %s", response.Order.Status)
	}
}

func TestResubmitFromNeedsInfoWhileUnfunded(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "ads", `{}`)
	submitOrder(t, module, orderID)

	runWorker(t, module)
	if detail := orderDetail(t, module, orderID); detail.Order.Status != "needs_info" {
		t.Fatalf("status = %s, want needs_info", detail.Order.Status)
	}

	// Funding lapsed while the order sat in the interview; a resubmit must
	// park it on payment instead of rejecting the transition.
	module.Plans.SetFunded(owner, false)
	if order := submitOrder(t, module, orderID); order.Status != "waiting_payment" {
		t.Fatalf("unfunded resubmit should wait for payment, got %s", order.Status)
	}

	response, err := module.Handler.ConfirmFundingHandler(context.Background(), orderID)
	if err != nil {
		t.Fatalf("confirm funding: %v", err)
	}
	if response.Order.Status != "queued" {
		t.Fatalf("confirmed funding should queue, got %s", response.Order.Status)
	}
}

func TestSiteOrderPublishesThroughCheckpoints(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "site", `{
		"business_name": "Padaria Central",
		"prompt": "Site para uma padaria artesanal no centro da cidade."
	}`)
	submitOrder(t, module, orderID)

	runWorker(t, module)
	detail := orderDetail(t, module, orderID)
	if detail.Order.Status != "done" {
		t.Fatalf("status = %s, want done", detail.Order.Status)
	}
	if detail.SitePublication == nil {
		t.Fatalf("site order must carry the publication record")
	}
	publication := detail.SitePublication
	if publication.Stage != "published" {
		t.Fatalf("stage = %s, want published", publication.Stage)
	}
	if publication.Slug != "padaria-central" {
		t.Fatalf("slug = %s, want padaria-central", publication.Slug)
	}
	if publication.PreviewURL != "https://preview.sites.test/padaria-central" {
		t.Fatalf("preview url = %s", publication.PreviewURL)
	}
	if publication.PublicURL != "https://padaria-central.sites.test" {
		t.Fatalf("public url = %s", publication.PublicURL)
	}

	preview := deliverableOfType(t, detail, "url_preview")
	if preview.Status != "published" || len(preview.AssetURLs) != 1 {
		t.Fatalf("preview deliverable must be published with its url, got %+v", preview)
	}
	if !hasEventContaining(detail, "Site publicado em https://padaria-central.sites.test") {
		t.Fatalf("expected the publish event on the timeline")
	}
}

func TestSiteOrderResumesAfterStageFailure(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "site", `{
		"business_name": "Padaria Central",
		"prompt": "Site para uma padaria artesanal no centro da cidade."
	}`)
	submitOrder(t, module, orderID)

	// Exhaust the three-attempt budget on the final publish stage.
	module.Sites.FailStage = "publish"
	module.Sites.FailCount = 3
	runWorker(t, module)

	detail := orderDetail(t, module, orderID)
	if detail.Order.Status != "failed" {
		t.Fatalf("exhausted retries must fail the order, got %s", detail.Order.Status)
	}
	if detail.SitePublication == nil || detail.SitePublication.Stage != "failed" {
		t.Fatalf("publication must be marked failed, got %+v", detail.SitePublication)
	}
	if detail.SitePublication.Retries != 2 {
		t.Fatalf("retries = %d, want 2", detail.SitePublication.Retries)
	}
	if detail.SitePublication.PreviewURL == "" {
		t.Fatalf("the preview checkpoint must survive the failure")
	}

	if _, err := module.Handler.RequeueOrderHandler(context.Background(), orderID, httptransport.OperatorActionRequest{
		Reason: "builder voltou ao ar",
	}); err != nil {
		t.Fatalf("requeue: %v", err)
	}

	runWorker(t, module)
	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "done" {
		t.Fatalf("requeued order should finish, got %s", detail.Order.Status)
	}
	if detail.SitePublication.Stage != "published" {
		t.Fatalf("stage = %s, want published", detail.SitePublication.Stage)
	}

	// The resumed run must skip the completed build and preview checkpoints.
	builds := 0
	for _, call := range module.Sites.Calls {
		if call == "autobuild" {
			builds++
		}
	}
	if builds != 1 {
		t.Fatalf("autobuild ran %d times, checkpoints must prevent a rebuild", builds)
	}
}

func TestContentOrderApprovalAndDelivery(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "content", `{
		"topic": "pães artesanais",
		"platforms": ["instagram", "tiktok"],
		"post_count": 8,
		"tone": "leve"
	}`)
	submitOrder(t, module, orderID)

	runWorker(t, module)
	detail := orderDetail(t, module, orderID)
	if detail.Order.Status != "needs_approval" {
		t.Fatalf("status = %s, want needs_approval", detail.Order.Status)
	}
	if len(detail.Deliverables) != 3 {
		t.Fatalf("content bundle should have 3 deliverables, got %d", len(detail.Deliverables))
	}
	calendar := deliverableOfType(t, detail, "calendar")
	if !strings.Contains(calendar.Content, "8 publicações") {
		t.Fatalf("calendar must honor the requested post count, got %q", calendar.Content)
	}

	// Only the copy passes through the client gate.
	copyItem := deliverableOfType(t, detail, "copy")
	if outcome := approve(t, module, copyItem.DeliverableID, "approved", ""); outcome != "finalize" {
		t.Fatalf("copy approval outcome = %s, want finalize", outcome)
	}

	runWorker(t, module)
	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "done" {
		t.Fatalf("status = %s, want done", detail.Order.Status)
	}
	if published := deliverableOfType(t, detail, "copy"); published.Status != "published" {
		t.Fatalf("approved copy must flip to published, got %s", published.Status)
	}
	if !hasEventContaining(detail, "Pacote de conteúdo aprovado e entregue.") {
		t.Fatalf("expected the delivery event on the timeline")
	}
}

func TestVideoEditOrderRequiresUploadedAsset(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "video_edit", `{}`)
	submitOrder(t, module, orderID)

	runWorker(t, module)
	detail := orderDetail(t, module, orderID)
	if detail.Order.Status != "needs_info" {
		t.Fatalf("status = %s, want needs_info", detail.Order.Status)
	}
	if !hasEventContaining(detail, "Envie o vídeo bruto") {
		t.Fatalf("expected the upload request on the timeline")
	}

	asset, err := module.Handler.AddAssetHandler(context.Background(), owner, orderID, httptransport.AddAssetRequest{
		Kind:        "video",
		FileName:    "bruto.mp4",
		ContentType: "video/mp4",
		SizeBytes:   4 << 20,
	})
	if err != nil {
		t.Fatalf("add asset: %v", err)
	}

	if _, err := module.Handler.PostOrderInfoHandler(context.Background(), owner, orderID, httptransport.PostOrderInfoRequest{
		Payload: json.RawMessage(`{"source_asset_id": "` + asset.Asset.AssetID + `", "language": "pt"}`),
	}); err != nil {
		t.Fatalf("post order info: %v", err)
	}

	runWorker(t, module)
	detail = orderDetail(t, module, orderID)
	if detail.Order.Status != "done" {
		t.Fatalf("status = %s, want done", detail.Order.Status)
	}
	preview := deliverableOfType(t, detail, "url_preview")
	wantURL := "https://videos.test/" + orderID + "/edited.mp4"
	if len(preview.AssetURLs) != 1 || preview.AssetURLs[0] != wantURL {
		t.Fatalf("edited video url = %v, want %s", preview.AssetURLs, wantURL)
	}
	if module.Videos.Calls != 1 {
		t.Fatalf("editor called %d times, want 1", module.Videos.Calls)
	}
}

func TestOperatorBlockAndRequeue(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)
	orderID := createOrder(t, module, "ads", `{}`)
	submitOrder(t, module, orderID)

	response, err := module.Handler.BlockOrderHandler(context.Background(), orderID, httptransport.OperatorActionRequest{
		Reason: "suspeita de fraude",
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if response.Order.Status != "blocked" {
		t.Fatalf("status = %s, want blocked", response.Order.Status)
	}

	// Blocked orders are invisible to the worker.
	runWorker(t, module)
	if detail := orderDetail(t, module, orderID); detail.Order.Status != "blocked" {
		t.Fatalf("blocked order must stay blocked, got %s", detail.Order.Status)
	}

	response, err = module.Handler.RequeueOrderHandler(context.Background(), orderID, httptransport.OperatorActionRequest{
		Reason: "liberado pela revisão",
	})
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if response.Order.Status != "queued" {
		t.Fatalf("status = %s, want queued", response.Order.Status)
	}

	detail := orderDetail(t, module, orderID)
	if !hasEventContaining(detail, "Pedido bloqueado pelo operador.") {
		t.Fatalf("expected the block event on the timeline")
	}
	if !hasEventContaining(detail, "Pedido reenfileirado pelo operador.") {
		t.Fatalf("expected the requeue event on the timeline")
	}
}

func TestWorkerHeartbeatsAreListed(t *testing.T) {
	module := orderengine.NewInMemoryModule(nil)

	// An idle pass still reports the worker as alive.
	runWorker(t, module)

	workers, err := module.Handler.ListWorkersHandler(context.Background())
	if err != nil {
		t.Fatalf("list workers: %v", err)
	}
	if len(workers.Items) != 1 {
		t.Fatalf("expected one worker, got %d", len(workers.Items))
	}
	beat := workers.Items[0]
	if beat.WorkerID != "worker-1" {
		t.Fatalf("worker id = %s", beat.WorkerID)
	}
	if beat.Claimed {
		t.Fatalf("idle pass must report claimed=false")
	}
}
