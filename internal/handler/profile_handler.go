package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/errs"
	"github.com/UniM0cha/gilton-system/internal/model"
	"github.com/UniM0cha/gilton-system/internal/store"
)

// ProfileHandler handles REST API for saved profiles.
type ProfileHandler struct {
	profiles *store.ProfileStore
	logger   *zap.Logger
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(profiles *store.ProfileStore, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// ListProfiles godoc
// GET /profiles
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.profiles.List()
	if err != nil {
		h.logger.Error("list profiles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read profiles"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// CreateProfile godoc
// POST /profiles
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req model.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	profile, err := h.profiles.Create(req)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidProfile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and role required"})
			return
		}
		h.logger.Error("create profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	c.JSON(http.StatusCreated, profile)
}
