package models

import (
	"fmt"
	"strings"
	"time"
)

// HistoryTimeLayout, history dosya adının başındaki zaman damgası (YYYY-MM-DD_HH-MM).
const HistoryTimeLayout = "2006-01-02_15-04"

// HistoryEntry, historical/ altındaki bir fiyat listesi kopyası.
type HistoryEntry struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"` // dosya adından; çözülemezse nesnenin güncellenme zamanı
	Size    int64     `json:"size"`
}

// HistoryName, kayıt anı ve liste adından history dosya adını üretir.
// Aynı dakikadaki iki kayıt aynı adı alır.
func HistoryName(savedAt time.Time, listName string) string {
	return savedAt.Format(HistoryTimeLayout) + "_" + listName + ".csv"
}

// ParseHistoryTime, dosya adının başındaki zaman damgasını çözer (UTC).
func ParseHistoryTime(name string) (time.Time, bool) {
	if len(name) < len(HistoryTimeLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(HistoryTimeLayout, name[:len(HistoryTimeLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidateHistoryName, istemciden gelen history adını kontrol eder.
func ValidateHistoryName(name string) error {
	if name == "" || name == ".csv" {
		return fmt.Errorf("history name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid history name %q", name)
	}
	if !strings.HasSuffix(name, ".csv") {
		return fmt.Errorf("history name must end with .csv")
	}
	return nil
}
