package constants

// Route paths shared by the router and tests.
const (
	PathHealth      = "/health"
	PathReady       = "/ready"
	PathWS          = "/ws"
	PathProfiles    = "/profiles"
	PathSheets      = "/api/sheets"
	PathUploadSheet = "/api/upload-sheet"
	PathSheetFiles  = "/sheets"
)
