package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/application/queries"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
	httptransport "maestro/contexts/order-fulfillment/order-engine/transport/http"
)

// Handler maps transport DTOs onto use cases. Client routes always carry the
// acting user id; operator and worker routes pass an empty actor and rely on
// the internal-key middleware upstream.
type Handler struct {
	CreateOrder        commands.CreateOrderUseCase
	UpdateOrder        commands.UpdateOrderUseCase
	SubmitOrder        commands.SubmitOrderUseCase
	PostOrderInfo      commands.PostOrderInfoUseCase
	ConfirmFunding     commands.ConfirmFundingUseCase
	SetApproval        commands.SetApprovalUseCase
	AddAsset           commands.AddAssetUseCase
	ClaimOrder         commands.ClaimOrderUseCase
	CompleteOrder      commands.CompleteOrderUseCase
	RecordDeliverables commands.RecordDeliverablesUseCase
	RecordPublication  commands.RecordPublicationUseCase
	OperatorActions    commands.OperatorActionsUseCase
	AppendEvent        commands.AppendEventUseCase
	Heartbeat          commands.HeartbeatUseCase
	GetOrder           queries.GetOrderUseCase
	ListOrders         queries.ListOrdersUseCase
	ListWorkers        queries.ListWorkersUseCase
	Logger             *slog.Logger
}

func (h Handler) CreateOrderHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreateOrderRequest,
) (httptransport.OrderResponse, error) {
	order, err := h.CreateOrder.Execute(ctx, commands.CreateOrderCommand{
		OwnerID:  userID,
		Type:     entities.OrderType(req.Type),
		Title:    req.Title,
		Summary:  req.Summary,
		Payload:  req.Payload,
		Priority: req.Priority,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) UpdateOrderHandler(
	ctx context.Context,
	userID string,
	orderID string,
	req httptransport.UpdateOrderRequest,
) (httptransport.OrderResponse, error) {
	order, err := h.UpdateOrder.Execute(ctx, commands.UpdateOrderCommand{
		OrderID:      orderID,
		ActorID:      userID,
		Title:        req.Title,
		Summary:      req.Summary,
		PayloadPatch: req.Payload,
		Priority:     req.Priority,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) SubmitOrderHandler(ctx context.Context, userID string, orderID string) (httptransport.OrderResponse, error) {
	order, err := h.SubmitOrder.Execute(ctx, commands.SubmitOrderCommand{
		OrderID: orderID,
		ActorID: userID,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) PostOrderInfoHandler(
	ctx context.Context,
	userID string,
	orderID string,
	req httptransport.PostOrderInfoRequest,
) (httptransport.OrderResponse, error) {
	order, err := h.PostOrderInfo.Execute(ctx, commands.PostOrderInfoCommand{
		OrderID:      orderID,
		ActorID:      userID,
		PayloadPatch: req.Payload,
		Note:         req.Note,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) GetOrderHandler(ctx context.Context, userID string, orderID string) (httptransport.OrderDetailResponse, error) {
	detail, err := h.GetOrder.Execute(ctx, userID, orderID)
	if err != nil {
		return httptransport.OrderDetailResponse{}, err
	}
	return mapOrderDetail(detail), nil
}

func (h Handler) ListOrdersHandler(
	ctx context.Context,
	ownerID string,
	orderType string,
	status string,
) (httptransport.ListOrdersResponse, error) {
	items, err := h.ListOrders.Execute(ctx, entities.OrderFilter{
		OwnerID: ownerID,
		Type:    entities.OrderType(orderType),
		Status:  entities.OrderStatus(status),
	})
	if err != nil {
		return httptransport.ListOrdersResponse{}, err
	}
	result := make([]httptransport.OrderDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapOrder(item))
	}
	return httptransport.ListOrdersResponse{Items: result}, nil
}

func (h Handler) SetApprovalHandler(
	ctx context.Context,
	userID string,
	deliverableID string,
	req httptransport.SetApprovalRequest,
) (httptransport.SetApprovalResponse, error) {
	outcome, err := h.SetApproval.Execute(ctx, commands.SetApprovalCommand{
		DeliverableID: deliverableID,
		ActorID:       userID,
		Status:        entities.ApprovalStatus(req.Status),
		Feedback:      req.Feedback,
	})
	if err != nil {
		return httptransport.SetApprovalResponse{}, err
	}
	return httptransport.SetApprovalResponse{Outcome: string(outcome)}, nil
}

func (h Handler) AddAssetHandler(
	ctx context.Context,
	userID string,
	orderID string,
	req httptransport.AddAssetRequest,
) (httptransport.AddAssetResponse, error) {
	asset, err := h.AddAsset.Execute(ctx, commands.AddAssetCommand{
		OrderID:     orderID,
		ActorID:     userID,
		Kind:        entities.AssetKind(req.Kind),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		return httptransport.AddAssetResponse{}, err
	}
	return httptransport.AddAssetResponse{Asset: mapAsset(asset)}, nil
}

func (h Handler) ConfirmFundingHandler(ctx context.Context, orderID string) (httptransport.OrderResponse, error) {
	order, err := h.ConfirmFunding.Execute(ctx, commands.ConfirmFundingCommand{OrderID: orderID})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) BlockOrderHandler(
	ctx context.Context,
	orderID string,
	req httptransport.OperatorActionRequest,
) (httptransport.OrderResponse, error) {
	order, err := h.OperatorActions.Block(ctx, commands.OperatorActionCommand{
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) RequeueOrderHandler(
	ctx context.Context,
	orderID string,
	req httptransport.OperatorActionRequest,
) (httptransport.OrderResponse, error) {
	order, err := h.OperatorActions.Requeue(ctx, commands.OperatorActionCommand{
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) ClaimOrderHandler(
	ctx context.Context,
	req httptransport.ClaimOrderRequest,
) (httptransport.ClaimOrderResponse, error) {
	result, err := h.ClaimOrder.Execute(ctx, commands.ClaimOrderCommand{
		WorkerID:     req.WorkerID,
		LeaseSeconds: req.LeaseSeconds,
	})
	if err != nil {
		return httptransport.ClaimOrderResponse{}, err
	}
	if !result.Claimed {
		return httptransport.ClaimOrderResponse{Claimed: false}, nil
	}
	order := mapOrder(result.Order)
	return httptransport.ClaimOrderResponse{
		Claimed:    true,
		Order:      &order,
		ClaimID:    result.Claim.ClaimID,
		Attempt:    result.Claim.Attempt,
		LeaseUntil: result.Claim.LeaseUntil.Format(time.RFC3339),
	}, nil
}

func (h Handler) CompleteOrderHandler(
	ctx context.Context,
	orderID string,
	req httptransport.CompleteOrderRequest,
) (httptransport.OrderResponse, error) {
	order, err := h.CompleteOrder.Execute(ctx, commands.CompleteOrderCommand{
		OrderID: orderID,
		Status:  entities.OrderStatus(req.Status),
		Message: req.Message,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) RecordDeliverablesHandler(
	ctx context.Context,
	orderID string,
	req httptransport.RecordDeliverablesRequest,
) (httptransport.RecordDeliverablesResponse, error) {
	items := make([]commands.DeliverableInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, commands.DeliverableInput{
			Type:      entities.DeliverableType(item.Type),
			Status:    entities.DeliverableStatus(item.Status),
			Content:   item.Content,
			AssetURLs: append([]string(nil), item.AssetURLs...),
		})
	}
	stored, err := h.RecordDeliverables.Execute(ctx, commands.RecordDeliverablesCommand{
		OrderID: orderID,
		Items:   items,
	})
	if err != nil {
		return httptransport.RecordDeliverablesResponse{}, err
	}
	result := make([]httptransport.DeliverableDTO, 0, len(stored))
	for _, item := range stored {
		result = append(result, mapDeliverable(item, nil))
	}
	return httptransport.RecordDeliverablesResponse{Items: result}, nil
}

func (h Handler) RecordAdsPublicationHandler(
	ctx context.Context,
	orderID string,
	req httptransport.RecordAdsPublicationRequest,
) (httptransport.AdsPublicationDTO, error) {
	record, err := h.RecordPublication.ExecuteAds(ctx, commands.RecordAdsPublicationCommand{
		OrderID:     orderID,
		CampaignID:  req.CampaignID,
		AdsetID:     req.AdsetID,
		AdID:        req.AdID,
		CreativeID:  req.CreativeID,
		Status:      entities.PublicationStatus(req.Status),
		RawResponse: req.RawResponse,
		Retries:     req.Retries,
		LastError:   req.LastError,
	})
	if err != nil {
		return httptransport.AdsPublicationDTO{}, err
	}
	return mapAdsPublication(record), nil
}

func (h Handler) RecordSitePublicationHandler(
	ctx context.Context,
	orderID string,
	req httptransport.RecordSitePublicationRequest,
) (httptransport.SitePublicationDTO, error) {
	record, err := h.RecordPublication.ExecuteSite(ctx, commands.RecordSitePublicationCommand{
		OrderID:    orderID,
		Stage:      entities.SiteStage(req.Stage),
		Slug:       req.Slug,
		PreviewURL: req.PreviewURL,
		PublicURL:  req.PublicURL,
		Retries:    req.Retries,
		LastError:  req.LastError,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return httptransport.SitePublicationDTO{}, err
	}
	return mapSitePublication(record), nil
}

func (h Handler) AppendEventHandler(
	ctx context.Context,
	orderID string,
	req httptransport.AppendEventRequest,
) error {
	cmd := commands.AppendEventCommand{
		OrderID: orderID,
		Actor:   entities.Actor(req.Actor),
		Message: req.Message,
	}
	if req.StatusSnapshot != "" {
		snapshot := entities.OrderStatus(req.StatusSnapshot)
		cmd.StatusSnapshot = &snapshot
	}
	return h.AppendEvent.Execute(ctx, cmd)
}

func (h Handler) HeartbeatHandler(ctx context.Context, req httptransport.HeartbeatRequest) error {
	return h.Heartbeat.Execute(ctx, commands.HeartbeatCommand{
		WorkerID:  req.WorkerID,
		Claimed:   req.Claimed,
		LastError: req.LastError,
	})
}

func (h Handler) ListWorkersHandler(ctx context.Context) (httptransport.ListWorkersResponse, error) {
	items, err := h.ListWorkers.Execute(ctx)
	if err != nil {
		return httptransport.ListWorkersResponse{}, err
	}
	result := make([]httptransport.WorkerDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.WorkerDTO{
			WorkerID:   item.WorkerID,
			Claimed:    item.Claimed,
			LastError:  item.LastError,
			LastSeenAt: item.LastSeenAt.Format(time.RFC3339),
		})
	}
	return httptransport.ListWorkersResponse{Items: result}, nil
}

func mapOrder(item entities.Order) httptransport.OrderDTO {
	return httptransport.OrderDTO{
		OrderID:   item.OrderID,
		OwnerID:   item.OwnerID,
		Type:      string(item.Type),
		Status:    string(item.Status),
		Title:     item.Title,
		Summary:   item.Summary,
		Payload:   item.Payload,
		Priority:  item.Priority,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
}

func mapOrderDetail(detail ports.OrderDetail) httptransport.OrderDetailResponse {
	response := httptransport.OrderDetailResponse{
		Order:        mapOrder(detail.Order),
		Events:       make([]httptransport.OrderEventDTO, 0, len(detail.Events)),
		Deliverables: make([]httptransport.DeliverableDTO, 0, len(detail.Deliverables)),
		Assets:       make([]httptransport.AssetDTO, 0, len(detail.Assets)),
	}
	for _, event := range detail.Events {
		dto := httptransport.OrderEventDTO{
			EventID:   event.EventID,
			Actor:     string(event.Actor),
			Message:   event.Message,
			CreatedAt: event.CreatedAt.Format(time.RFC3339),
		}
		if event.StatusSnapshot != nil {
			dto.StatusSnapshot = string(*event.StatusSnapshot)
		}
		response.Events = append(response.Events, dto)
	}
	for _, item := range detail.Deliverables {
		var approval *entities.Approval
		if found, ok := detail.Approvals[item.DeliverableID]; ok {
			approval = &found
		}
		response.Deliverables = append(response.Deliverables, mapDeliverable(item, approval))
	}
	for _, asset := range detail.Assets {
		response.Assets = append(response.Assets, mapAsset(asset))
	}
	if detail.AdsPublication != nil {
		dto := mapAdsPublication(*detail.AdsPublication)
		response.AdsPublication = &dto
	}
	if detail.SitePublication != nil {
		dto := mapSitePublication(*detail.SitePublication)
		response.SitePublication = &dto
	}
	return response
}

func mapDeliverable(item entities.Deliverable, approval *entities.Approval) httptransport.DeliverableDTO {
	dto := httptransport.DeliverableDTO{
		DeliverableID: item.DeliverableID,
		Type:          string(item.Type),
		Status:        string(item.Status),
		Content:       item.Content,
		AssetURLs:     append([]string(nil), item.AssetURLs...),
		UpdatedAt:     item.UpdatedAt.Format(time.RFC3339),
	}
	if approval != nil {
		dto.ApprovalStatus = string(approval.Status)
		dto.Feedback = approval.Feedback
	}
	return dto
}

func mapAsset(item entities.OrderAsset) httptransport.AssetDTO {
	return httptransport.AssetDTO{
		AssetID:     item.AssetID,
		Kind:        string(item.Kind),
		FileName:    item.FileName,
		ContentType: item.ContentType,
		SizeBytes:   item.SizeBytes,
		StoragePath: item.StoragePath,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
	}
}

func mapAdsPublication(item entities.AdsPublication) httptransport.AdsPublicationDTO {
	return httptransport.AdsPublicationDTO{
		CampaignID: item.CampaignID,
		AdsetID:    item.AdsetID,
		AdID:       item.AdID,
		CreativeID: item.CreativeID,
		Status:     string(item.Status),
		Retries:    item.Retries,
		LastError:  item.LastError,
		UpdatedAt:  item.UpdatedAt.Format(time.RFC3339),
	}
}

func mapSitePublication(item entities.SitePublication) httptransport.SitePublicationDTO {
	return httptransport.SitePublicationDTO{
		Stage:      string(item.Stage),
		Slug:       item.Slug,
		PreviewURL: item.PreviewURL,
		PublicURL:  item.PublicURL,
		Retries:    item.Retries,
		LastError:  item.LastError,
		UpdatedAt:  item.UpdatedAt.Format(time.RFC3339),
	}
}
