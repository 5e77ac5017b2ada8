package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/router"
)

// CartHandler exposes the cart operations over JSON.
type CartHandler struct {
	service  domain.CartService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service domain.CartService, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes registers the cart routes. The caller supplies the
// middleware that enforces authentication.
func (h *CartHandler) RegisterRoutes(r *router.Router, requireUser router.Middleware) {
	r.Post("/cart", h.AddItem, requireUser)
	r.Get("/cart", h.List, requireUser)
	r.Patch("/cart/{itemID}", h.UpdateItem, requireUser)
	r.Delete("/cart/{itemID}", h.RemoveItem, requireUser)
	r.Delete("/cart", h.Clear, requireUser)
}

// ============================================================================
// REQUEST / RESPONSE SHAPES
// ============================================================================

type addItemRequest struct {
	VariantID uuid.UUID `json:"variantId" validate:"required"`
	// Quantity is range-checked by hand so a bad value surfaces as
	// invalid_quantity rather than the generic validation code.
	Quantity int32 `json:"quantity"`
}

type updateItemRequest struct {
	VariantID *uuid.UUID `json:"variantId"`
	Quantity  *int32     `json:"quantity"`
}

type priceBreakdownResponse struct {
	RegularPrice    int64 `json:"regularPrice"`
	DiscountRate    int32 `json:"discountRate"`
	SalePrice       int64 `json:"salePrice"`
	MaxBenefitPrice int64 `json:"maxBenefitPrice"`
}

type cartLineResponse struct {
	ID           uuid.UUID              `json:"id"`
	VariantID    uuid.UUID              `json:"variantId"`
	ProductID    uuid.UUID              `json:"productId"`
	MarketID     uuid.UUID              `json:"marketId"`
	OptionNames  []string               `json:"optionNames"`
	Quantity     int32                  `json:"quantity"`
	Unit         priceBreakdownResponse `json:"unit"`
	RegularTotal int64                  `json:"regularTotal"`
	SaleTotal    int64                  `json:"saleTotal"`
	DeliveryFee  int64                  `json:"deliveryFee"`
	SoldOut      bool                   `json:"soldOut"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

type cartSummaryResponse struct {
	RegularTotal     int64 `json:"regularTotal"`
	SaleTotal        int64 `json:"saleTotal"`
	DiscountTotal    int64 `json:"discountTotal"`
	DeliveryFeeTotal int64 `json:"deliveryFeeTotal"`
	FinalTotal       int64 `json:"finalTotal"`
}

type pageInfoResponse struct {
	Page         int  `json:"page"`
	Size         int  `json:"size"`
	TotalResults int  `json:"totalResults"`
	TotalPages   int  `json:"totalPages"`
	HasNext      bool `json:"hasNext"`
}

type cartMutationResponse struct {
	Item    *cartLineResponse   `json:"item,omitempty"`
	Summary cartSummaryResponse `json:"summary"`
}

type cartClearResponse struct {
	Message string              `json:"message"`
	Removed int64               `json:"removed"`
	Summary cartSummaryResponse `json:"summary"`
}

type cartPageResponse struct {
	Items   []cartLineResponse  `json:"items"`
	Summary cartSummaryResponse `json:"summary"`
	Pager   pageInfoResponse    `json:"pager"`
}

func toLineResponse(l domain.CartLine) cartLineResponse {
	options := l.OptionNames
	if options == nil {
		options = []string{}
	}
	return cartLineResponse{
		ID:          l.ID,
		VariantID:   l.VariantID,
		ProductID:   l.ProductID,
		MarketID:    l.MarketID,
		OptionNames: options,
		Quantity:    l.Quantity,
		Unit: priceBreakdownResponse{
			RegularPrice:    l.Unit.RegularPrice,
			DiscountRate:    l.Unit.DiscountRate,
			SalePrice:       l.Unit.SalePrice,
			MaxBenefitPrice: l.Unit.MaxBenefitPrice,
		},
		RegularTotal: l.RegularTotal,
		SaleTotal:    l.SaleTotal,
		DeliveryFee:  l.DeliveryFee,
		SoldOut:      l.SoldOut,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func toSummaryResponse(s domain.CartSummary) cartSummaryResponse {
	return cartSummaryResponse{
		RegularTotal:     s.RegularTotal,
		SaleTotal:        s.SaleTotal,
		DiscountTotal:    s.DiscountTotal,
		DeliveryFeeTotal: s.DeliveryFeeTotal,
		FinalTotal:       s.FinalTotal,
	}
}

func toMutationResponse(m *domain.CartMutation) cartMutationResponse {
	resp := cartMutationResponse{Summary: toSummaryResponse(m.Summary)}
	if m.Item != nil {
		line := toLineResponse(*m.Item)
		resp.Item = &line
	}
	return resp
}

// ============================================================================
// HANDLERS
// ============================================================================

// AddItem handles POST /cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, domain.Invalid("cart.add", "variantId is required"))
		return
	}
	if req.Quantity < 1 {
		respondError(w, r, domain.ErrInvalidQuantity)
		return
	}

	userID := domain.UserIDFromContext(r.Context())
	result, err := h.service.AddItem(r.Context(), userID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toMutationResponse(result))
}

// UpdateItem handles PATCH /cart/{itemID}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		respondError(w, r, domain.Invalid("cart.update", "item ID must be a valid UUID"))
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		respondError(w, r, domain.ErrInvalidQuantity)
		return
	}

	userID := domain.UserIDFromContext(r.Context())
	result, err := h.service.UpdateItem(r.Context(), userID, itemID, domain.UpdateItemParams{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toMutationResponse(result))
}

// RemoveItem handles DELETE /cart/{itemID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		respondError(w, r, domain.Invalid("cart.remove", "item ID must be a valid UUID"))
		return
	}

	userID := domain.UserIDFromContext(r.Context())
	result, err := h.service.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toMutationResponse(result))
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	result, err := h.service.Clear(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartClearResponse{
		Message: result.Message,
		Removed: result.Removed,
		Summary: toSummaryResponse(result.Summary),
	})
}

// List handles GET /cart?page=&size=.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondError(w, r, domain.Invalid("cart.list", "page must be an integer"))
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		respondError(w, r, domain.Invalid("cart.list", "size must be an integer"))
		return
	}

	userID := domain.UserIDFromContext(r.Context())
	result, err := h.service.List(r.Context(), userID, page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items := make([]cartLineResponse, len(result.Items))
	for i, l := range result.Items {
		items[i] = toLineResponse(l)
	}

	respondJSON(w, http.StatusOK, cartPageResponse{
		Items:   items,
		Summary: toSummaryResponse(result.Summary),
		Pager: pageInfoResponse{
			Page:         result.Pager.Page,
			Size:         result.Pager.Size,
			TotalResults: result.Pager.TotalResults,
			TotalPages:   result.Pager.TotalPages,
			HasNext:      result.Pager.HasNext,
		},
	})
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
