package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/UniM0cha/gilton-system/internal/model"
)

// DefaultCommands is the command palette seeded into a fresh data directory.
func DefaultCommands() []model.Command {
	return []model.Command{
		{Emoji: "1️⃣", Text: "1절"},
		{Emoji: "2️⃣", Text: "2절"},
		{Emoji: "3️⃣", Text: "3절"},
		{Emoji: "🔂", Text: "한 번 더 반복"},
		{Emoji: "🔁", Text: "계속 반복"},
		{Emoji: "▶️", Text: "시작"},
		{Emoji: "⏹️", Text: "정지"},
		{Emoji: "⏭️", Text: "다음 곡"},
		{Emoji: "🔊", Text: "볼륨 업"},
		{Emoji: "🔉", Text: "볼륨 다운"},
		{Emoji: "👍", Text: "좋음"},
	}
}

// EnsureDataFiles creates the data directory, the sheet image tree and the
// default JSON documents. Existing files are left alone, so it is safe to
// run on every start.
func EnsureDataFiles(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, "sheets"), 0o755); err != nil {
		return err
	}

	if err := initJSONFile(filepath.Join(dir, "profiles.json"), []model.StoredProfile{}); err != nil {
		return err
	}
	if err := initJSONFile(filepath.Join(dir, "sheets.json"), model.SheetCatalogDocument{Sheets: []model.Sheet{}}); err != nil {
		return err
	}
	commands := struct {
		Commands []model.Command `json:"commands"`
	}{Commands: DefaultCommands()}
	return initJSONFile(filepath.Join(dir, "commands.json"), commands)
}

func initJSONFile(path string, defaultData any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	data, err := json.MarshalIndent(defaultData, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
