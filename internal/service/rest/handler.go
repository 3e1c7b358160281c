package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
	"github.com/vladislavdragonenkov/credits/internal/service/credit"
	"github.com/vladislavdragonenkov/credits/internal/service/promo"
	"github.com/vladislavdragonenkov/credits/internal/service/saga"
)

// maxRequestBody ограничивает размер JSON-тела запроса.
const maxRequestBody = 1 << 20

// Handler — HTTP JSON API поверх прикладных сервисов.
// Транспортный слой тонкий: разбор запроса, вызов сервиса,
// маппинг доменной ошибки в статус ответа.
type Handler struct {
	credits   *credit.Service
	promos    *promo.Service
	purchases saga.Orchestrator
	store     domain.Store
	logger    *log.Entry
}

// NewHandler конструирует обработчик с зависимостями.
func NewHandler(
	credits *credit.Service,
	promos *promo.Service,
	purchases saga.Orchestrator,
	store domain.Store,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "rest")
	}
	return &Handler{
		credits:   credits,
		promos:    promos,
		purchases: purchases,
		store:     store,
		logger:    logger,
	}
}

// Register вешает все маршруты API на mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/credits/grant", h.grantCredit)
	mux.HandleFunc("POST /api/credits/deduct", h.deductCredit)
	mux.HandleFunc("GET /api/credits/balance/{customerId}", h.getBalance)
	mux.HandleFunc("GET /api/credits/transactions/{customerId}", h.listTransactions)

	mux.HandleFunc("POST /api/purchases", h.createPurchase)
	mux.HandleFunc("GET /api/purchases", h.listPurchases)
	mux.HandleFunc("GET /api/purchases/{id}", h.getPurchase)
	mux.HandleFunc("POST /api/purchases/{id}/refund", h.refundPurchase)

	mux.HandleFunc("POST /api/promo-codes", h.createPromoCode)
	mux.HandleFunc("POST /api/promo-codes/validate", h.validatePromoCode)
	mux.HandleFunc("GET /api/promo-codes", h.listPromoCodes)
	mux.HandleFunc("POST /api/promo-codes/{id}/disable", h.disablePromoCode)
	mux.HandleFunc("POST /api/promo-codes/{id}/activate", h.activatePromoCode)
}

type creditOperationRequest struct {
	CustomerID        string                 `json:"customerId"`
	Amount            domain.Money           `json:"amount"`
	Reason            string                 `json:"reason"`
	RelatedPurchaseID string                 `json:"relatedPurchaseId,omitempty"`
	CreatedBy         string                 `json:"createdBy,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

type balanceResponse struct {
	CustomerID string       `json:"customerId"`
	Balance    domain.Money `json:"balance"`
	Version    int64        `json:"version"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func newBalanceResponse(balance domain.CreditBalance) balanceResponse {
	return balanceResponse{
		CustomerID: balance.CustomerID.String(),
		Balance:    balance.CurrentBalance,
		Version:    balance.Version,
		UpdatedAt:  balance.UpdatedAt,
	}
}

func (h *Handler) grantCredit(w http.ResponseWriter, r *http.Request) {
	var req creditOperationRequest
	if !h.decode(w, r, &req) {
		return
	}
	balance, err := h.credits.Grant(r.Context(), credit.GrantParams{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Reason:     req.Reason,
		CreatedBy:  req.CreatedBy,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newBalanceResponse(balance))
}

func (h *Handler) deductCredit(w http.ResponseWriter, r *http.Request) {
	var req creditOperationRequest
	if !h.decode(w, r, &req) {
		return
	}
	balance, err := h.credits.Deduct(r.Context(), credit.DeductParams{
		CustomerID:        req.CustomerID,
		Amount:            req.Amount,
		Reason:            req.Reason,
		RelatedPurchaseID: req.RelatedPurchaseID,
		CreatedBy:         req.CreatedBy,
		Metadata:          req.Metadata,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newBalanceResponse(balance))
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.credits.Balance(r.Context(), r.PathValue("customerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newBalanceResponse(balance))
}

type transactionResponse struct {
	ID                string                 `json:"id"`
	CustomerID        string                 `json:"customerId"`
	Type              string                 `json:"type"`
	Amount            domain.Money           `json:"amount"`
	BalanceBefore     domain.Money           `json:"balanceBefore"`
	BalanceAfter      domain.Money           `json:"balanceAfter"`
	Reason            string                 `json:"reason"`
	RelatedPurchaseID string                 `json:"relatedPurchaseId,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CreatedBy         string                 `json:"createdBy,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	transactions, total, err := h.credits.History(r.Context(), r.PathValue("customerId"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, transactionResponse{
			ID:                tx.ID,
			CustomerID:        tx.CustomerID.String(),
			Type:              string(tx.Type),
			Amount:            tx.Amount,
			BalanceBefore:     tx.BalanceBefore,
			BalanceAfter:      tx.BalanceAfter,
			Reason:            tx.Reason,
			RelatedPurchaseID: tx.RelatedPurchaseID,
			Metadata:          tx.Metadata,
			CreatedBy:         tx.CreatedBy,
			CreatedAt:         tx.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, transactionListResponse{
		Transactions: items,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

type createPurchaseRequest struct {
	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	CreatedBy  string `json:"createdBy,omitempty"`
}

type refundResponse struct {
	ID         string       `json:"id"`
	Amount     domain.Money `json:"amount"`
	Reason     string       `json:"reason,omitempty"`
	RefundedBy string       `json:"refundedBy,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

type purchaseResponse struct {
	ID               string                   `json:"id"`
	CustomerID       string                   `json:"customerId"`
	ProductID        string                   `json:"productId"`
	Quantity         int                      `json:"quantity"`
	UnitPrice        domain.Money             `json:"unitPrice"`
	TotalAmount      domain.Money             `json:"totalAmount"`
	RefundedAmount   domain.Money             `json:"refundedAmount"`
	Status           string                   `json:"status"`
	ShipmentID       string                   `json:"shipmentId,omitempty"`
	ProductSnapshot  *domain.ProductSnapshot  `json:"productSnapshot,omitempty"`
	CustomerSnapshot *domain.CustomerSnapshot `json:"customerSnapshot,omitempty"`
	Refunds          []refundResponse         `json:"refunds,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

func newPurchaseResponse(purchase domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:               purchase.ID,
		CustomerID:       purchase.CustomerID.String(),
		ProductID:        purchase.ProductID.String(),
		Quantity:         purchase.Quantity,
		UnitPrice:        purchase.UnitPrice,
		TotalAmount:      purchase.TotalAmount,
		RefundedAmount:   purchase.RefundedAmount,
		Status:           string(purchase.Status),
		ShipmentID:       purchase.ShipmentID,
		ProductSnapshot:  purchase.ProductSnapshot,
		CustomerSnapshot: purchase.CustomerSnapshot,
		CreatedAt:        purchase.CreatedAt,
		UpdatedAt:        purchase.UpdatedAt,
	}
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	purchase, err := h.purchases.CreatePurchase(r.Context(), saga.CreatePurchaseParams{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newPurchaseResponse(purchase))
}

type purchaseListResponse struct {
	Purchases []purchaseResponse `json:"purchases"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	filter := domain.PurchaseFilter{
		CustomerID: r.URL.Query().Get("customerId"),
		Status:     domain.PurchaseStatus(r.URL.Query().Get("status")),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	purchases, total, err := h.store.Purchases().List(filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]purchaseResponse, 0, len(purchases))
	for _, purchase := range purchases {
		items = append(items, newPurchaseResponse(purchase))
	}
	h.writeJSON(w, http.StatusOK, purchaseListResponse{
		Purchases: items,
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.store.Purchases().Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	refunds, err := h.store.Refunds().ListByPurchase(purchase.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := newPurchaseResponse(purchase)
	for _, refund := range refunds {
		resp.Refunds = append(resp.Refunds, refundResponse{
			ID:         refund.ID,
			Amount:     refund.Amount,
			Reason:     refund.Reason,
			RefundedBy: refund.RefundedBy,
			CreatedAt:  refund.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type refundRequest struct {
	Amount     domain.Money `json:"amount"`
	Reason     string       `json:"reason,omitempty"`
	RefundedBy string       `json:"refundedBy,omitempty"`
}

func (h *Handler) refundPurchase(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if !h.decode(w, r, &req) {
		return
	}
	purchase, err := h.purchases.RefundPurchase(r.Context(), saga.RefundParams{
		PurchaseID: r.PathValue("id"),
		Amount:     req.Amount,
		Reason:     req.Reason,
		RefundedBy: req.RefundedBy,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newPurchaseResponse(purchase))
}

type createPromoCodeRequest struct {
	Code                 string        `json:"code"`
	Type                 string        `json:"type"`
	Value                string        `json:"value"`
	MinPurchaseAmount    *domain.Money `json:"minPurchaseAmount,omitempty"`
	MaxDiscountAmount    *domain.Money `json:"maxDiscountAmount,omitempty"`
	MaxUsageCount        int           `json:"maxUsageCount,omitempty"`
	ValidFrom            time.Time     `json:"validFrom"`
	ValidUntil           time.Time     `json:"validUntil"`
	ApplicableProductIDs []string      `json:"applicableProductIds,omitempty"`
}

type promoCodeResponse struct {
	ID                   string        `json:"id"`
	Code                 string        `json:"code"`
	Type                 string        `json:"type"`
	Value                string        `json:"value"`
	MinPurchaseAmount    *domain.Money `json:"minPurchaseAmount,omitempty"`
	MaxDiscountAmount    *domain.Money `json:"maxDiscountAmount,omitempty"`
	MaxUsageCount        int           `json:"maxUsageCount,omitempty"`
	CurrentUsageCount    int           `json:"currentUsageCount"`
	ValidFrom            time.Time     `json:"validFrom"`
	ValidUntil           time.Time     `json:"validUntil"`
	Status               string        `json:"status"`
	ApplicableProductIDs []string      `json:"applicableProductIds,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
}

func newPromoCodeResponse(promoCode domain.PromoCode) promoCodeResponse {
	return promoCodeResponse{
		ID:                   promoCode.ID,
		Code:                 promoCode.Code,
		Type:                 string(promoCode.Type),
		Value:                promoCode.Value.String(),
		MinPurchaseAmount:    promoCode.MinPurchaseAmount,
		MaxDiscountAmount:    promoCode.MaxDiscountAmount,
		MaxUsageCount:        promoCode.MaxUsageCount,
		CurrentUsageCount:    promoCode.CurrentUsageCount,
		ValidFrom:            promoCode.ValidFrom,
		ValidUntil:           promoCode.ValidUntil,
		Status:               string(promoCode.Status),
		ApplicableProductIDs: promoCode.ApplicableProductIDs,
		CreatedAt:            promoCode.CreatedAt,
	}
}

func (h *Handler) createPromoCode(w http.ResponseWriter, r *http.Request) {
	var req createPromoCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		h.writeError(w, r, domain.NewValidationError("value must be a decimal string", "value"))
		return
	}
	promoCode, err := h.promos.Create(r.Context(), promo.CreateParams{
		Code:                 req.Code,
		Type:                 domain.PromoCodeType(req.Type),
		Value:                value,
		MinPurchaseAmount:    req.MinPurchaseAmount,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		MaxUsageCount:        req.MaxUsageCount,
		ValidFrom:            req.ValidFrom,
		ValidUntil:           req.ValidUntil,
		ApplicableProductIDs: req.ApplicableProductIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newPromoCodeResponse(promoCode))
}

type validatePromoCodeRequest struct {
	Code           string       `json:"code"`
	PurchaseAmount domain.Money `json:"purchaseAmount"`
	ProductID      string       `json:"productId,omitempty"`
}

type validatePromoCodeResponse struct {
	Valid          bool         `json:"valid"`
	Message        string       `json:"message,omitempty"`
	DiscountAmount domain.Money `json:"discountAmount"`
	FinalAmount    domain.Money `json:"finalAmount"`
}

func (h *Handler) validatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req validatePromoCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.promos.Validate(r.Context(), req.Code, req.PurchaseAmount, req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, validatePromoCodeResponse{
		Valid:          result.Valid,
		Message:        result.Message,
		DiscountAmount: result.DiscountAmount,
		FinalAmount:    result.FinalAmount,
	})
}

type promoCodeListResponse struct {
	PromoCodes []promoCodeResponse `json:"promoCodes"`
	Total      int64               `json:"total"`
}

func (h *Handler) listPromoCodes(w http.ResponseWriter, r *http.Request) {
	status := domain.PromoCodeStatus(r.URL.Query().Get("status"))
	promoCodes, total, err := h.promos.List(r.Context(), status, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]promoCodeResponse, 0, len(promoCodes))
	for _, promoCode := range promoCodes {
		items = append(items, newPromoCodeResponse(promoCode))
	}
	h.writeJSON(w, http.StatusOK, promoCodeListResponse{PromoCodes: items, Total: total})
}

func (h *Handler) disablePromoCode(w http.ResponseWriter, r *http.Request) {
	promoCode, err := h.promos.Disable(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newPromoCodeResponse(promoCode))
}

func (h *Handler) activatePromoCode(w http.ResponseWriter, r *http.Request) {
	promoCode, err := h.promos.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newPromoCodeResponse(promoCode))
}

// decode разбирает JSON-тело; на ошибку сам пишет 400 и возвращает false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		h.writeError(w, r, domain.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
