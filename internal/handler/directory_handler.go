package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/internal/middleware"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DirectoryHandler serves tenant-scoped reads of clients and technicians.
type DirectoryHandler struct {
	db *gorm.DB
}

// NewDirectoryHandler creates a DirectoryHandler.
func NewDirectoryHandler(db *gorm.DB) *DirectoryHandler {
	return &DirectoryHandler{db: db}
}

// ListClients handles GET /clients.
func (h *DirectoryHandler) ListClients(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var clients []model.Client
	if err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&clients).Error; err != nil {
		log.Error("Failed to list clients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve clients"})
	}
	return c.JSON(http.StatusOK, clients)
}

// GetClient handles GET /clients/:id.
func (h *DirectoryHandler) GetClient(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	id := c.Param("id")

	var client model.Client
	err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		}
		log.Error("Failed to get client", zap.String("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve client"})
	}
	return c.JSON(http.StatusOK, client)
}

// ListTechnicians handles GET /technicians.
func (h *DirectoryHandler) ListTechnicians(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var users []model.User
	if err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&users).Error; err != nil {
		log.Error("Failed to list technicians", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve technicians"})
	}
	return c.JSON(http.StatusOK, users)
}

// GetTechnician handles GET /technicians/:id.
func (h *DirectoryHandler) GetTechnician(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	id := c.Param("id")

	var user model.User
	err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Technician not found"})
		}
		log.Error("Failed to get technician", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve technician"})
	}
	return c.JSON(http.StatusOK, user)
}

// TechnicianRequest is the body for technician creation.
type TechnicianRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// CreateTechnician handles POST /technicians.
func (h *DirectoryHandler) CreateTechnician(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var req TechnicianRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(requiredField{"name", req.Name}); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}

	role := req.Role
	if role == "" {
		role = model.RoleTechnician
	}
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role"})
	}

	user := model.User{
		ID:       orNewID(req.ID),
		TenantID: tenantID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     role,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&user).Error; err != nil {
		log.Error("Failed to create technician", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create technician"})
	}

	log.Info("Technician created", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}
