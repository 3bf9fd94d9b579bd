package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/stockledger/backend/internal/application/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
)

// CatalogHandler handles product, variation and accessory endpoints
type CatalogHandler struct {
	BaseHandler
	catalog *catalogapp.Service
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *catalogapp.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateProduct godoc
// @ID           createProduct
// @Summary      Create a product
// @Description  initial_quantity is booked as an initial_stock movement on simple products
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Envelope[catalogapp.ProductResponse]
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ActorID = getActorID(c)

	product, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, product)
}

// ListProducts godoc
// @ID           listProducts
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Param        search       query string false "Name or SKU fragment"
// @Param        product_type query string false "simple, variable or customisable"
// @Param        in_stock     query bool   false "Only products with stock on hand"
// @Param        page         query int    false "Page number" default(1)
// @Param        page_size    query int    false "Page size" default(20)
// @Param        order_by     query string false "Sort column"
// @Param        order_dir    query string false "asc or desc"
// @Success      200 {object} dto.Envelope[[]catalogapp.ProductResponse]
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// GetProduct godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Envelope[catalogapp.ProductResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// UpdateProduct godoc
// @ID           updateProduct
// @Summary      Update a product
// @Description  A quantity is the absolute count wanted on hand; the difference is booked as an adjustment
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Product ID"
// @Param        request body catalogapp.UpdateProductRequest true "Patch"
// @Success      200 {object} dto.Envelope[catalogapp.ProductResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}

	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ActorID = getActorID(c)

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// DeleteProduct godoc
// @ID           deleteProduct
// @Summary      Delete a product
// @Description  Zeroes out and removes the product and every variation and accessory it owns
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Envelope[catalogapp.DeleteItemResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	h.deleteItem(c, "product", ledger.ProductTarget)
}

// CreateVariation godoc
// @ID           createVariation
// @Summary      Add a variation to a variable product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Product ID"
// @Param        request body catalogapp.CreateVariationRequest true "Variation"
// @Success      201 {object} dto.Envelope[catalogapp.VariationResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id}/variations [post]
func (h *CatalogHandler) CreateVariation(c *gin.Context) {
	productID, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}

	var req catalogapp.CreateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ProductID = productID
	req.ActorID = getActorID(c)

	variation, err := h.catalog.CreateVariation(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, variation)
}

// ListVariations godoc
// @ID           listVariations
// @Summary      List a product's variations
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Envelope[[]catalogapp.VariationResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id}/variations [get]
func (h *CatalogHandler) ListVariations(c *gin.Context) {
	productID, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}

	variations, err := h.catalog.ListVariations(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, variations)
}

// GetVariation godoc
// @ID           getVariation
// @Summary      Get a variation
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Variation ID"
// @Success      200 {object} dto.Envelope[catalogapp.VariationResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/variations/{id} [get]
func (h *CatalogHandler) GetVariation(c *gin.Context) {
	id, ok := h.parseID(c, "id", "variation")
	if !ok {
		return
	}

	variation, err := h.catalog.GetVariation(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, variation)
}

// UpdateVariation godoc
// @ID           updateVariation
// @Summary      Update a variation
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Variation ID"
// @Param        request body catalogapp.UpdateVariationRequest true "Patch"
// @Success      200 {object} dto.Envelope[catalogapp.VariationResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/variations/{id} [put]
func (h *CatalogHandler) UpdateVariation(c *gin.Context) {
	id, ok := h.parseID(c, "id", "variation")
	if !ok {
		return
	}

	var req catalogapp.UpdateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ActorID = getActorID(c)

	variation, err := h.catalog.UpdateVariation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, variation)
}

// DeleteVariation godoc
// @ID           deleteVariation
// @Summary      Delete a variation
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Variation ID"
// @Success      200 {object} dto.Envelope[catalogapp.DeleteItemResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/variations/{id} [delete]
func (h *CatalogHandler) DeleteVariation(c *gin.Context) {
	h.deleteItem(c, "variation", ledger.VariationTarget)
}

// CreateAccessory godoc
// @ID           createAccessory
// @Summary      Add an accessory to a customisable product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Product ID"
// @Param        request body catalogapp.CreateAccessoryRequest true "Accessory"
// @Success      201 {object} dto.Envelope[catalogapp.AccessoryResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id}/accessories [post]
func (h *CatalogHandler) CreateAccessory(c *gin.Context) {
	productID, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}

	var req catalogapp.CreateAccessoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ProductID = productID
	req.ActorID = getActorID(c)

	accessory, err := h.catalog.CreateAccessory(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, accessory)
}

// ListAccessories godoc
// @ID           listAccessories
// @Summary      List a product's accessories
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Envelope[[]catalogapp.AccessoryResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id}/accessories [get]
func (h *CatalogHandler) ListAccessories(c *gin.Context) {
	productID, ok := h.parseID(c, "id", "product")
	if !ok {
		return
	}

	accessories, err := h.catalog.ListAccessories(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, accessories)
}

// GetAccessory godoc
// @ID           getAccessory
// @Summary      Get an accessory
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Accessory ID"
// @Success      200 {object} dto.Envelope[catalogapp.AccessoryResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/accessories/{id} [get]
func (h *CatalogHandler) GetAccessory(c *gin.Context) {
	id, ok := h.parseID(c, "id", "accessory")
	if !ok {
		return
	}

	accessory, err := h.catalog.GetAccessory(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, accessory)
}

// UpdateAccessory godoc
// @ID           updateAccessory
// @Summary      Update an accessory
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Accessory ID"
// @Param        request body catalogapp.UpdateAccessoryRequest true "Patch"
// @Success      200 {object} dto.Envelope[catalogapp.AccessoryResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/accessories/{id} [put]
func (h *CatalogHandler) UpdateAccessory(c *gin.Context) {
	id, ok := h.parseID(c, "id", "accessory")
	if !ok {
		return
	}

	var req catalogapp.UpdateAccessoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ActorID = getActorID(c)

	accessory, err := h.catalog.UpdateAccessory(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, accessory)
}

// DeleteAccessory godoc
// @ID           deleteAccessory
// @Summary      Delete an accessory
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Accessory ID"
// @Success      200 {object} dto.Envelope[catalogapp.DeleteItemResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/accessories/{id} [delete]
func (h *CatalogHandler) DeleteAccessory(c *gin.Context) {
	h.deleteItem(c, "accessory", ledger.AccessoryTarget)
}

func (h *CatalogHandler) deleteItem(c *gin.Context, label string, target func(uuid.UUID) ledger.TargetRef) {
	id, ok := h.parseID(c, "id", label)
	if !ok {
		return
	}

	result, err := h.catalog.DeleteItem(c.Request.Context(), target(id), getActorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
