package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nordicastudio/gestion3d/internal/backup"
)

// handleBackupDownload streams the full data export as a downloadable JSON
// file.
func (s *server) handleBackupDownload(w http.ResponseWriter, r *http.Request) {
	data, err := s.backup.ExportJSON()
	if err != nil {
		http.Error(w, "failed to export backup", http.StatusInternalServerError)
		return
	}

	// Bookkeeping failure should not kill a download that already succeeded.
	if err := s.settings.RecordBackup(time.Now().UTC()); err != nil {
		log.Printf("failed to record backup time: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(time.Now().UTC())))
	_, _ = w.Write(data)
}
