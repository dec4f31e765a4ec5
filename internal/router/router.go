package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UniM0cha/gilton-system/internal/handler"
	"github.com/UniM0cha/gilton-system/pkg/constants"
)

// New builds the HTTP router.
func New(
	profileHandler *handler.ProfileHandler,
	sheetHandler *handler.SheetHandler,
	relayWS *handler.RelayWSHandler,
	health *handler.HealthHandler,
	sheetImageDir string,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST profiles
	profiles := r.Group(constants.PathProfiles)
	{
		profiles.GET("", profileHandler.ListProfiles)
		profiles.POST("", profileHandler.CreateProfile)
	}

	// REST sheet catalog + upload
	r.GET(constants.PathSheets, sheetHandler.ListSheets)
	r.POST(constants.PathUploadSheet, sheetHandler.UploadSheet)

	// Uploaded sheet images
	r.Static(constants.PathSheetFiles, sheetImageDir)

	// WebSocket: single shared room
	r.GET(constants.PathWS, relayWS.ServeWS)

	return r
}
