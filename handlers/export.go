// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
)

type ExportHandler struct {
	mgr *manager.Manager
}

func NewExportHandler(mgr *manager.Manager) *ExportHandler {
	return &ExportHandler{mgr: mgr}
}

// ExportCSV handles GET /api/sessions/{id}/export/csv and streams the ranked
// tally as a CSV download.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "session_"+sessionID+"_results.csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Position", "Item Name", "Description", "Votes", "Percentage"}); err != nil {
		slog.Error("csv export failed", "session_id", sessionID, "error", err)
		return
	}
	for _, res := range rec.Results() {
		row := []string{
			fmt.Sprintf("%d", res.Rank),
			res.Name,
			res.Description,
			fmt.Sprintf("%d", res.Votes),
			fmt.Sprintf("%.1f%%", res.Percentage),
		}
		if err := cw.Write(row); err != nil {
			slog.Error("csv export failed", "session_id", sessionID, "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("csv export failed", "session_id", sessionID, "error", err)
	}
}
