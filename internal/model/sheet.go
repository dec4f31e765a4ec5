package model

import "time"

// Sheet is one catalog entry for an uploaded piece of sheet music.
// FileName is the path relative to the sheet image root.
type Sheet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	FileName    string    `json:"fileName"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Date        string    `json:"date,omitempty"`
	ServiceType string    `json:"serviceType,omitempty"`
}

// SheetCatalogDocument is the on-disk shape of sheets.json and the body of
// GET /api/sheets.
type SheetCatalogDocument struct {
	Sheets []Sheet `json:"sheets"`
}

// SheetUploadRequest is the body of POST /api/upload-sheet. ImageData is a
// base64 data URL as produced by a browser FileReader.
type SheetUploadRequest struct {
	Title       string `json:"title" binding:"required"`
	Date        string `json:"date" binding:"required"`
	ServiceType string `json:"serviceType" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ImageData   string `json:"imageData" binding:"required"`
}

// SheetUploadResponse is the server response after an upload attempt.
type SheetUploadResponse struct {
	Success bool   `json:"success"`
	Sheet   *Sheet `json:"sheet,omitempty"`
	Error   string `json:"error,omitempty"`
}
