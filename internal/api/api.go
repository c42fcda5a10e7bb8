package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"pricing-rule-service/internal/entity"
	"pricing-rule-service/internal/service"
)

type PricingHandler struct {
	pricingService *service.PricingService
}

func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

type evaluateRequest struct {
	TenantID   int64   `json:"tenant_id"`
	ProductID  int64   `json:"product_id"`
	CategoryID int64   `json:"category_id"`
	TagIDs     []int64 `json:"tag_ids"`
	ZoneID     int64   `json:"zone_id"`
	IsRetail   bool    `json:"is_retail"`
	BasePrice  float64 `json:"base_price"`
	EvalTime   int64   `json:"eval_time"` // epoch millis; 0 means now
}

func (r evaluateRequest) context() entity.EvaluationContext {
	at := time.Now()
	if r.EvalTime > 0 {
		at = time.UnixMilli(r.EvalTime)
	}
	return entity.NewEvaluationContext(r.ProductID, r.CategoryID, r.TagIDs, r.ZoneID, r.IsRetail, r.BasePrice, at)
}

// EvaluatePrice prices one sale line --> POST /pricing/evaluate
func (h *PricingHandler) EvaluatePrice(c echo.Context) error {
	ctx := c.Request().Context()
	req := evaluateRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.TenantID <= 0 || req.BasePrice < 0 {
		return c.JSON(400, map[string]string{"error": "Invalid tenant or base price"})
	}

	result, err := h.pricingService.EvaluatePrice(ctx, req.TenantID, req.context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, result)
}

// PreviewPrice sums all matching rules for the console's what-if view
// --> POST /pricing/preview
func (h *PricingHandler) PreviewPrice(c echo.Context) error {
	ctx := c.Request().Context()
	req := evaluateRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.TenantID <= 0 || req.BasePrice < 0 {
		return c.JSON(400, map[string]string{"error": "Invalid tenant or base price"})
	}

	result, err := h.pricingService.PreviewPrice(ctx, req.TenantID, req.context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, result)
}

// GetRule returns one rule for line-item display --> GET /pricing/rules/:id
func (h *PricingHandler) GetRule(c echo.Context) error {
	id := c.Param("id")
	idInt, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	tenantID, err := strconv.ParseInt(c.QueryParam("tenant_id"), 10, 64)
	if err != nil || tenantID <= 0 {
		return c.JSON(400, map[string]string{"error": "Invalid tenant ID"})
	}

	rule, err := h.pricingService.GetRule(c.Request().Context(), tenantID, idInt)
	if err != nil {
		return c.JSON(404, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, rule)
}
