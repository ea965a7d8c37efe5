package orderengine

import (
	"log/slog"
	"time"

	httpadapter "maestro/contexts/order-fulfillment/order-engine/adapters/http"
	"maestro/contexts/order-fulfillment/order-engine/adapters/memory"
	"maestro/contexts/order-fulfillment/order-engine/application/commands"
	"maestro/contexts/order-fulfillment/order-engine/application/queries"
	"maestro/contexts/order-fulfillment/order-engine/application/workers"
	"maestro/contexts/order-fulfillment/order-engine/domain/entities"
	"maestro/contexts/order-fulfillment/order-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Worker  workers.OrderWorker
	Store   *memory.Store

	Ads    *memory.StubAdsPlatform
	Sites  *memory.StubSiteBuilder
	Videos *memory.StubVideoEditor
	Plans  *memory.StubBillingPlans
}

type Dependencies struct {
	Orders       ports.OrderRepository
	Events       ports.EventRepository
	Claims       ports.ClaimRepository
	Deliverables ports.DeliverableRepository
	Approvals    ports.ApprovalRepository
	Publications ports.PublicationRepository
	Assets       ports.AssetRepository
	Heartbeats   ports.HeartbeatRepository
	Blobs        ports.BlobStorage
	Plans        ports.BillingPlans
	AdsPlatform  ports.AdsPlatform
	SiteBuilder  ports.SiteBuilder
	VideoEditor  ports.VideoEditor
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	WorkerID     string
	LeaseSeconds int
	RetryDelay   time.Duration
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createOrder := commands.CreateOrderUseCase{
		Orders: deps.Orders,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	updateOrder := commands.UpdateOrderUseCase{
		Orders: deps.Orders,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	submitOrder := commands.SubmitOrderUseCase{
		Orders: deps.Orders,
		Plans:  deps.Plans,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	postOrderInfo := commands.PostOrderInfoUseCase{
		Orders: deps.Orders,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	confirmFunding := commands.ConfirmFundingUseCase{
		Orders: deps.Orders,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	setApproval := commands.SetApprovalUseCase{
		Orders:       deps.Orders,
		Deliverables: deps.Deliverables,
		Approvals:    deps.Approvals,
		Clock:        deps.Clock,
		IDGen:        deps.IDGenerator,
		Logger:       deps.Logger,
	}
	addAsset := commands.AddAssetUseCase{
		Orders: deps.Orders,
		Assets: deps.Assets,
		Blobs:  deps.Blobs,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	claimOrder := commands.ClaimOrderUseCase{
		Claims: deps.Claims,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	completeOrder := commands.CompleteOrderUseCase{
		Orders: deps.Orders,
		Claims: deps.Claims,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	recordDeliverables := commands.RecordDeliverablesUseCase{
		Orders:       deps.Orders,
		Deliverables: deps.Deliverables,
		Approvals:    deps.Approvals,
		Clock:        deps.Clock,
		IDGen:        deps.IDGenerator,
		Logger:       deps.Logger,
	}
	recordPublication := commands.RecordPublicationUseCase{
		Orders:       deps.Orders,
		Publications: deps.Publications,
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}
	appendEvent := commands.AppendEventUseCase{
		Orders: deps.Orders,
		Events: deps.Events,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	heartbeat := commands.HeartbeatUseCase{
		Heartbeats: deps.Heartbeats,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	operatorActions := commands.OperatorActionsUseCase{
		Orders: deps.Orders,
		Claims: deps.Claims,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}

	getOrder := queries.GetOrderUseCase{
		Orders: deps.Orders,
		Logger: deps.Logger,
	}
	listOrders := queries.ListOrdersUseCase{
		Orders: deps.Orders,
		Logger: deps.Logger,
	}
	listWorkers := queries.ListWorkersUseCase{
		Heartbeats: deps.Heartbeats,
		Logger:     deps.Logger,
	}

	retryDelay := deps.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	adsPipeline := workers.AdsPipeline{
		Orders:       deps.Orders,
		Deliverables: deps.Deliverables,
		Approvals:    deps.Approvals,
		Publications: deps.Publications,
		Assets:       deps.Assets,
		Ads:          deps.AdsPlatform,
		Record:       recordDeliverables,
		Complete:     completeOrder,
		Progress:     appendEvent,
		Retry:        workers.RetryPolicy{MaxAttempts: 2, Delay: retryDelay},
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}
	sitePipeline := workers.SitePipeline{
		Publications: deps.Publications,
		Builder:      deps.SiteBuilder,
		Record:       recordDeliverables,
		Complete:     completeOrder,
		Progress:     appendEvent,
		Retry:        workers.RetryPolicy{MaxAttempts: 3, Delay: retryDelay},
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}
	contentPipeline := workers.ContentPipeline{
		Deliverables: deps.Deliverables,
		Approvals:    deps.Approvals,
		Record:       recordDeliverables,
		Complete:     completeOrder,
		Logger:       deps.Logger,
	}
	videoPipeline := workers.VideoEditPipeline{
		Assets:   deps.Assets,
		Editor:   deps.VideoEditor,
		Record:   recordDeliverables,
		Complete: completeOrder,
		Progress: appendEvent,
		Retry:    workers.RetryPolicy{MaxAttempts: 2, Delay: retryDelay},
		Logger:   deps.Logger,
	}

	workerID := deps.WorkerID
	if workerID == "" {
		workerID = "worker-1"
	}
	worker := workers.OrderWorker{
		WorkerID:     workerID,
		LeaseSeconds: deps.LeaseSeconds,
		Claim:        claimOrder,
		Heartbeat:    heartbeat,
		Complete:     completeOrder,
		Pipelines: map[entities.OrderType]workers.Processor{
			entities.OrderTypeAds:       adsPipeline,
			entities.OrderTypeSite:      sitePipeline,
			entities.OrderTypeContent:   contentPipeline,
			entities.OrderTypeVideoEdit: videoPipeline,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateOrder:        createOrder,
			UpdateOrder:        updateOrder,
			SubmitOrder:        submitOrder,
			PostOrderInfo:      postOrderInfo,
			ConfirmFunding:     confirmFunding,
			SetApproval:        setApproval,
			AddAsset:           addAsset,
			ClaimOrder:         claimOrder,
			CompleteOrder:      completeOrder,
			RecordDeliverables: recordDeliverables,
			RecordPublication:  recordPublication,
			OperatorActions:    operatorActions,
			AppendEvent:        appendEvent,
			Heartbeat:          heartbeat,
			GetOrder:           getOrder,
			ListOrders:         listOrders,
			ListWorkers:        listWorkers,
			Logger:             deps.Logger,
		},
		Worker: worker,
	}
}

// NewInMemoryModule wires the engine onto the memory store and stub external
// collaborators. Used by the unit scenarios and local runs without postgres.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	ads := memory.NewStubAdsPlatform()
	sites := memory.NewStubSiteBuilder()
	videos := memory.NewStubVideoEditor()
	plans := memory.NewStubBillingPlans()

	module := NewModule(Dependencies{
		Orders:       store,
		Events:       store,
		Claims:       store,
		Deliverables: store,
		Approvals:    store,
		Publications: store,
		Assets:       store,
		Heartbeats:   store,
		Blobs:        store,
		Plans:        plans,
		AdsPlatform:  ads,
		SiteBuilder:  sites,
		VideoEditor:  videos,
		Clock:        store,
		IDGenerator:  store,
		RetryDelay:   time.Millisecond,
		Logger:       logger,
	})
	module.Store = store
	module.Ads = ads
	module.Sites = sites
	module.Videos = videos
	module.Plans = plans
	return module
}
