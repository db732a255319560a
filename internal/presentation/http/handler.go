package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	appinv "github.com/Zhima-Mochi/inventory-bridge/internal/application/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/codec"
	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// InventoryFacade is the application surface served over HTTP.
type InventoryFacade interface {
	GetAllItems(ctx context.Context) ([]appinv.ItemDetails, error)
	ConsumeItem(ctx context.Context, itemID codec.BoundaryInt, quantity uint32) error
	StartPurchase(ctx context.Context, items []dominv.PurchaseLineItem, onComplete func(appinv.PurchaseOutcome)) (*appinv.PurchaseHandle, error)
}

type Handler struct {
	facade      InventoryFacade
	log         observability.Logger
	tel         observability.Observability
	validate    *Validator
	waitTimeout time.Duration
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	defaultWaitTimeout   = 5 * time.Second
)

func NewHandler(facade InventoryFacade, logger observability.Logger, tel observability.Observability, waitTimeout time.Duration) *Handler {
	baseLogger := logger
	if baseLogger == nil && tel != nil {
		baseLogger = tel.Logger()
	}
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}
	return &Handler{
		facade:      facade,
		log:         baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:         tel,
		validate:    NewValidator(),
		waitTimeout: waitTimeout,
	}
}

// Router mounts the inventory routes. Extra routes (such as /metrics) can be
// added with mount before serving.
func (h *Handler) Router(mount ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()

	h.handle(r, http.MethodGet, "/inventory/items", h.handleListItems)
	h.handle(r, http.MethodPost, "/inventory/items/{itemID}/consume", h.handleConsumeItem)
	h.handle(r, http.MethodPost, "/inventory/purchases", h.handleStartPurchase)
	h.handle(r, http.MethodGet, "/health", h.handleHealth)

	for _, m := range mount {
		m(r)
	}
	return r
}

// handle wires one route as Trace → request logger and metrics → access log → handler.
func (h *Handler) handle(r chi.Router, method, pattern string, handler http.HandlerFunc) {
	route := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req = req.WithContext(contextWithRoute(req.Context(), route))

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(req.Context(), h.log),
				func(r *http.Request) string { return r.Header.Get(headerRequestID) },
				h.tel,
			)(
				h.withAccessLog(handler),
			),
		)
		wrapped.ServeHTTP(w, req)
	}))
}

type itemResponse struct {
	ItemID     codec.BoundaryInt `json:"item_id"`
	Definition int32             `json:"definition"`
	Quantity   uint16            `json:"quantity"`
	Flags      uint16            `json:"flags"`
}

type listItemsResponse struct {
	Items []itemResponse `json:"items"`
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.facade.GetAllItems(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := listItemsResponse{Items: make([]itemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, itemResponse{
			ItemID:     it.ItemID,
			Definition: it.Definition,
			Quantity:   it.Quantity,
			Flags:      it.Flags,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type consumeItemRequest struct {
	Quantity uint32 `json:"quantity" validate:"required"`
}

func (h *Handler) handleConsumeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := codec.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, dominv.InvalidInput(err, "item_id: %v", err))
		return
	}

	var req consumeItemRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.facade.ConsumeItem(r.Context(), itemID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type purchaseLineRequest struct {
	DefinitionID int32  `json:"definition_id"`
	Quantity     uint32 `json:"quantity" validate:"required"`
}

type startPurchaseRequest struct {
	Items []purchaseLineRequest `json:"items" validate:"required,min=1,dive"`
	Wait  bool                  `json:"wait"`
}

type purchaseResponse struct {
	PurchaseID    string             `json:"purchase_id"`
	OrderID       *codec.BoundaryInt `json:"order_id,omitempty"`
	TransactionID *codec.BoundaryInt `json:"transaction_id,omitempty"`
}

func (h *Handler) handleStartPurchase(w http.ResponseWriter, r *http.Request) {
	var req startPurchaseRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]dominv.PurchaseLineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, dominv.PurchaseLineItem{
			DefinitionID: dominv.DefinitionID(it.DefinitionID),
			Quantity:     it.Quantity,
		})
	}

	handle, err := h.facade.StartPurchase(r.Context(), items, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !req.Wait {
		writeJSON(w, http.StatusAccepted, purchaseResponse{PurchaseID: handle.ID()})
		return
	}

	waitCtx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()
	_, _ = handle.Wait(waitCtx)

	outcome, done := handle.Outcome()
	if !done {
		logctx.FromOr(r.Context(), h.log).Info("purchase_wait_expired",
			observability.F("purchase_id", handle.ID()),
			observability.F("wait_timeout", h.waitTimeout.String()),
		)
		writeJSON(w, http.StatusAccepted, purchaseResponse{PurchaseID: handle.ID()})
		return
	}
	if outcome.Err != nil {
		writePurchaseError(w, handle.ID(), outcome.Err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResponse{
		PurchaseID:    handle.ID(),
		OrderID:       &outcome.Result.OrderID,
		TransactionID: &outcome.Result.TransactionID,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("inventory-bridge.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return dominv.InvalidInput(err, "request body: %v", err)
	}
	if err := h.validate.ValidateStruct(dst); err != nil {
		return dominv.InvalidInput(err, "%s", FormatValidationError(err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
