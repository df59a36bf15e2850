package handler

import (
	"log/slog"

	"github.com/flash-wallet-ledger/internal/api_gateway/service"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler lists and configures deposit methods, withdrawal methods and services
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *slog.Logger
}

func NewCatalogHandler(logger *slog.Logger, catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger}
}

func (h *CatalogHandler) DepositMethods(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	methods, err := h.catalogService.DepositMethods(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, methods)
}

func (h *CatalogHandler) WithdrawalMethods(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	methods, err := h.catalogService.WithdrawalMethods(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, methods)
}

func (h *CatalogHandler) Services(c *gin.Context) {
	services, err := h.catalogService.Services(c.Request.Context())
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, services)
}

func (h *CatalogHandler) CreateDepositMethod(c *gin.Context) {
	var req CreateDepositMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	m, err := h.catalogService.CreateDepositMethod(c.Request.Context(), &catalog.DepositMethod{
		Name:         req.Name,
		Country:      req.Country,
		Instructions: req.Instructions,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, m)
}

func (h *CatalogHandler) CreateWithdrawalMethod(c *gin.Context) {
	var req CreateWithdrawalMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	m, err := h.catalogService.CreateWithdrawalMethod(c.Request.Context(), &catalog.WithdrawalMethod{
		Name:           req.Name,
		Country:        req.Country,
		Currency:       req.Currency,
		ExchangeRate:   req.ExchangeRate,
		FeeType:        catalog.FeeType(req.FeeType),
		FeeValue:       req.FeeValue,
		RequiredFields: req.RequiredFields,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, m)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	s, err := h.catalogService.CreateService(c.Request.Context(), &catalog.Service{
		Name:       req.Name,
		Category:   req.Category,
		Price:      req.Price,
		Variants:   req.Variants,
		InputLabel: req.InputLabel,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, s)
}
