package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/model"
	"github.com/UniM0cha/gilton-system/internal/service"
	"github.com/UniM0cha/gilton-system/internal/store"
)

// SheetHandler handles REST API for the sheet catalog and uploads.
type SheetHandler struct {
	sheets *store.SheetStore
	hub    *service.RoomHub
	logger *zap.Logger
}

// NewSheetHandler creates a sheet handler.
func NewSheetHandler(sheets *store.SheetStore, hub *service.RoomHub, logger *zap.Logger) *SheetHandler {
	return &SheetHandler{sheets: sheets, hub: hub, logger: logger}
}

// ListSheets godoc
// GET /api/sheets
func (h *SheetHandler) ListSheets(c *gin.Context) {
	c.JSON(http.StatusOK, model.SheetCatalogDocument{Sheets: h.sheets.List()})
}

// UploadSheet godoc
// POST /api/upload-sheet
//
// Stores the image under <data>/sheets/<date>/<serviceType>/, appends a
// catalog entry and notifies every connected participant with the full
// catalog (sheets-updated).
func (h *SheetHandler) UploadSheet(c *gin.Context) {
	var req model.SheetUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.SheetUploadResponse{Success: false, Error: "missing required fields"})
		return
	}

	image, err := decodeDataURL(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.SheetUploadResponse{Success: false, Error: "invalid image data"})
		return
	}

	date, err := normalizeDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.SheetUploadResponse{Success: false, Error: "invalid date"})
		return
	}

	sheetID := fmt.Sprintf("sheet_%d", time.Now().UnixMilli())
	fileName := sheetID + filepath.Ext(req.FileName)

	relPath, err := h.sheets.SaveImage(date, req.ServiceType, fileName, image)
	if err != nil {
		h.logger.Error("save sheet image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.SheetUploadResponse{Success: false, Error: "failed to save sheet"})
		return
	}

	sheet := model.Sheet{
		ID:          sheetID,
		Title:       req.Title,
		FileName:    relPath,
		UploadedAt:  time.Now().UTC(),
		Date:        date,
		ServiceType: req.ServiceType,
	}
	if err := h.sheets.Append(sheet); err != nil {
		h.logger.Error("append sheet catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.SheetUploadResponse{Success: false, Error: "failed to update catalog"})
		return
	}

	h.hub.BroadcastSheetsUpdated()
	c.JSON(http.StatusOK, model.SheetUploadResponse{Success: true, Sheet: &sheet})
}

// decodeDataURL strips an optional "data:...;base64," prefix and decodes the
// remainder.
func decodeDataURL(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

// normalizeDate reduces incoming date strings to yyyy-MM-dd.
func normalizeDate(s string) (string, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}
