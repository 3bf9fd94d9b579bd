package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stockledger/backend/internal/application/inventory"
)

// StockHandler exposes manual adjustments and the movement ledger
type StockHandler struct {
	BaseHandler
	adjustments *inventory.AdjustmentService
	movements   *inventory.MovementQueryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(adjustments *inventory.AdjustmentService, movements *inventory.MovementQueryService) *StockHandler {
	return &StockHandler{
		adjustments: adjustments,
		movements:   movements,
	}
}

// AdjustStock godoc
// @ID           adjustStock
// @Summary      Apply a manual stock adjustment
// @Description  Adds or withdraws stock on one product, variation or accessory and records the movement
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventory.AdjustStockRequest true "Adjustment"
// @Success      201 {object} dto.Envelope[inventory.AdjustStockResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/adjustments [post]
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req inventory.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ActorID = getActorID(c)

	result, err := h.adjustments.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListMovements godoc
// @ID           listStockMovements
// @Summary      List stock movements
// @Description  Newest first. movement_type matches as a prefix; bare dates cover the whole UTC day.
// @Tags         stock
// @Produce      json
// @Param        target_kind       query string false "product, variation or accessory"
// @Param        target_id         query string false "Item ID"
// @Param        parent_product_id query string false "Owning product ID"
// @Param        movement_type     query string false "Movement type prefix"
// @Param        actor_id          query string false "Acting user ID"
// @Param        start_date        query string false "YYYY-MM-DD or RFC 3339"
// @Param        end_date          query string false "YYYY-MM-DD or RFC 3339"
// @Param        page              query int    false "Page number"
// @Param        page_size         query int    false "Page size, unpaginated when omitted"
// @Success      200 {object} dto.Envelope[[]inventory.MovementResponse]
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var query inventory.MovementListFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	filter, err := query.ToDomain()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	movements, total, err := h.movements.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = len(movements)
	}
	h.SuccessWithMeta(c, movements, total, page, pageSize)
}

// GetMovement godoc
// @ID           getStockMovement
// @Summary      Get a stock movement
// @Tags         stock
// @Produce      json
// @Param        id path string true "Movement ID"
// @Success      200 {object} dto.Envelope[inventory.MovementResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *gin.Context) {
	id, ok := h.parseID(c, "id", "movement")
	if !ok {
		return
	}

	movement, err := h.movements.GetMovement(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, movement)
}
