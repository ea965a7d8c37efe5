package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	incidentservice "maestro/contexts/internal-ops/incident-service"
	incidenterrors "maestro/contexts/internal-ops/incident-service/domain/errors"
	incidenthttp "maestro/contexts/internal-ops/incident-service/transport/http"
	orderengine "maestro/contexts/order-fulfillment/order-engine"
	orderdomainerrors "maestro/contexts/order-fulfillment/order-engine/domain/errors"
	orderhttp "maestro/contexts/order-fulfillment/order-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "maestro/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	internalKey  string
	incidentFeed bool
	orders       orderengine.Module
	incidents    incidentservice.Module
}

func New(
	orders orderengine.Module,
	incidents incidentservice.Module,
	internalKey string,
	incidentFeed bool,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		internalKey:  internalKey,
		incidentFeed: incidentFeed,
		orders:       orders,
		incidents:    incidents,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/orders", s.handleCreateOrder)
	s.mux.HandleFunc("GET /v1/orders", s.handleListOrders)
	s.mux.HandleFunc("GET /v1/orders/{order_id}", s.handleGetOrder)
	s.mux.HandleFunc("PATCH /v1/orders/{order_id}", s.handleUpdateOrder)
	s.mux.HandleFunc("POST /v1/orders/{order_id}/submit", s.handleSubmitOrder)
	s.mux.HandleFunc("POST /v1/orders/{order_id}/info", s.handlePostOrderInfo)
	s.mux.HandleFunc("POST /v1/orders/{order_id}/assets", s.handleAddAsset)
	s.mux.HandleFunc("POST /v1/deliverables/{deliverable_id}/approval", s.handleSetApproval)

	s.mux.HandleFunc("POST /internal/orders/{order_id}/funding-confirmed", s.internal(s.handleConfirmFunding))
	s.mux.HandleFunc("POST /internal/orders/{order_id}/block", s.internal(s.handleBlockOrder))
	s.mux.HandleFunc("POST /internal/orders/{order_id}/requeue", s.internal(s.handleRequeueOrder))
	s.mux.HandleFunc("POST /internal/orders/{order_id}/complete", s.internal(s.handleCompleteOrder))
	s.mux.HandleFunc("POST /internal/orders/{order_id}/events", s.internal(s.handleAppendEvent))
	s.mux.HandleFunc("PUT /internal/orders/{order_id}/deliverables", s.internal(s.handleRecordDeliverables))
	s.mux.HandleFunc("PUT /internal/orders/{order_id}/ads-publication", s.internal(s.handleRecordAdsPublication))
	s.mux.HandleFunc("PUT /internal/orders/{order_id}/site-publication", s.internal(s.handleRecordSitePublication))
	s.mux.HandleFunc("POST /internal/worker/claim", s.internal(s.handleClaimOrder))
	s.mux.HandleFunc("POST /internal/worker/heartbeat", s.internal(s.handleHeartbeat))
	s.mux.HandleFunc("GET /internal/workers", s.internal(s.handleListWorkers))

	if s.incidentFeed {
		s.mux.HandleFunc("POST /v1/debug/client-events", s.handleRegisterIncident)
		s.mux.HandleFunc("GET /internal/incidents", s.internal(s.handleListIncidents))
		s.mux.HandleFunc("GET /internal/incidents/tail", s.internal(s.handleTailIncidents))
		s.mux.HandleFunc("GET /internal/incidents/{fingerprint}", s.internal(s.handleGetIncident))
	}
}

// internal guards operator and worker routes with the shared internal key.
// An empty configured key closes the surface entirely.
func (s *Server) internal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get("X-Internal-Key")
		if s.internalKey == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(s.internalKey)) != 1 {
			writeOrderError(w, http.StatusUnauthorized, "invalid_internal_key", "X-Internal-Key header is missing or invalid")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req orderhttp.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.CreateOrderHandler(r.Context(), userID, req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	query := r.URL.Query()
	resp, err := s.orders.Handler.ListOrdersHandler(
		r.Context(),
		userID,
		query.Get("type"),
		query.Get("status"),
	)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.orders.Handler.GetOrderHandler(r.Context(), userID, r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req orderhttp.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.UpdateOrderHandler(r.Context(), userID, r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.orders.Handler.SubmitOrderHandler(r.Context(), userID, r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePostOrderInfo(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req orderhttp.PostOrderInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.PostOrderInfoHandler(r.Context(), userID, r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req orderhttp.AddAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.AddAssetHandler(r.Context(), userID, r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeOrderError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req orderhttp.SetApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.SetApprovalHandler(r.Context(), userID, r.PathValue("deliverable_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmFunding(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.ConfirmFundingHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBlockOrder(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.OperatorActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.BlockOrderHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequeueOrder(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.OperatorActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.RequeueOrderHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.CompleteOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.CompleteOrderHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordDeliverables(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.RecordDeliverablesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.RecordDeliverablesHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordAdsPublication(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.RecordAdsPublicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.RecordAdsPublicationHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordSitePublication(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.RecordSitePublicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.RecordSitePublicationHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.AppendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.orders.Handler.AppendEventHandler(r.Context(), r.PathValue("order_id"), req); err != nil {
		writeOrderDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.orders.Handler.HeartbeatHandler(r.Context(), req); err != nil {
		writeOrderDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClaimOrder(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.ClaimOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrderError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.orders.Handler.ClaimOrderHandler(r.Context(), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.ListWorkersHandler(r.Context())
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterIncident(w http.ResponseWriter, r *http.Request) {
	var req incidenthttp.RegisterIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIncidentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.incidents.Handler.RegisterIncidentHandler(r.Context(), req)
	if err != nil {
		writeIncidentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	resp, err := s.incidents.Handler.ListIncidentsHandler(r.Context())
	if err != nil {
		writeIncidentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTailIncidents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeIncidentError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	minLevel := 0
	if levelRaw := query.Get("min_level"); levelRaw != "" {
		parsed, err := strconv.Atoi(levelRaw)
		if err != nil {
			writeIncidentError(w, http.StatusBadRequest, "invalid_min_level", "min_level must be an integer")
			return
		}
		minLevel = parsed
	}

	resp, err := s.incidents.Handler.TailHandler(r.Context(), query.Get("fingerprint"), minLevel, limit)
	if err != nil {
		writeIncidentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	resp, err := s.incidents.Handler.GetIncidentHandler(r.Context(), r.PathValue("fingerprint"))
	if err != nil {
		writeIncidentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeOrderDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderdomainerrors.ErrOrderNotFound):
		writeOrderError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, orderdomainerrors.ErrDeliverableNotFound):
		writeOrderError(w, http.StatusNotFound, "deliverable_not_found", err.Error())
	case errors.Is(err, orderdomainerrors.ErrAssetNotFound):
		writeOrderError(w, http.StatusNotFound, "asset_not_found", err.Error())
	case errors.Is(err, orderdomainerrors.ErrPublicationNotFound):
		writeOrderError(w, http.StatusNotFound, "publication_not_found", err.Error())
	case errors.Is(err, orderdomainerrors.ErrInvalidOrderInput):
		writeOrderError(w, http.StatusBadRequest, "invalid_order_input", err.Error())
	case errors.Is(err, orderdomainerrors.ErrWorkerIDRequired):
		writeOrderError(w, http.StatusBadRequest, "worker_id_required", err.Error())
	case errors.Is(err, orderdomainerrors.ErrInvalidApprovalStatus):
		writeOrderError(w, http.StatusBadRequest, "invalid_approval_status", err.Error())
	case errors.Is(err, orderdomainerrors.ErrApprovalNotRequired):
		writeOrderError(w, http.StatusUnprocessableEntity, "approval_not_required", err.Error())
	case errors.Is(err, orderdomainerrors.ErrOrderNotEditable):
		writeOrderError(w, http.StatusConflict, "order_not_editable", err.Error())
	case errors.Is(err, orderdomainerrors.ErrInvalidTransition):
		writeOrderError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, orderdomainerrors.ErrClaimConflict):
		writeOrderError(w, http.StatusConflict, "claim_conflict", err.Error())
	default:
		writeOrderError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeIncidentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, incidenterrors.ErrInvalidRequest):
		writeIncidentError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, incidenterrors.ErrIncidentNotFound):
		writeIncidentError(w, http.StatusNotFound, "incident_not_found", err.Error())
	default:
		writeIncidentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOrderError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, orderhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeIncidentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, incidenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
