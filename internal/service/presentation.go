package service

import "github.com/UniM0cha/gilton-system/internal/model"

// PresentationState is the single shared "what is on screen" value for the
// whole room. Like the registry it is process-lifetime only and mutated
// exclusively from the hub's event loop; a restart simply means the next
// sheet-change re-selects a sheet.
type PresentationState struct {
	currentSheetID string
	currentPage    int
}

// NewPresentationState creates an empty state on page 1.
func NewPresentationState() *PresentationState {
	return &PresentationState{currentPage: 1}
}

// Set overwrites the displayed sheet. A nil page resets to page 1.
func (s *PresentationState) Set(sheetID string, page *int) {
	s.currentSheetID = sheetID
	if page != nil && *page > 0 {
		s.currentPage = *page
	} else {
		s.currentPage = 1
	}
}

// Snapshot returns the current state for replay to a joining participant.
func (s *PresentationState) Snapshot() model.PresentationSnapshot {
	return model.PresentationSnapshot{
		CurrentSheetID: s.currentSheetID,
		CurrentPage:    s.currentPage,
	}
}
