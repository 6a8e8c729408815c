// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
)

// Export handles POST /api/v1/forensics/export?format=csv
//
// Exports every violation matching the filter in result order, up to the
// configured row limit. Pagination fields in the body are ignored.
//
// @Summary Export search results
// @Tags Forensics
// @Accept json
// @Produce text/csv
// @Produce json
// @Param format query string false "csv (default) or json"
// @Param filter body FilterRequest false "Search filter"
// @Success 200 {file} file "Export attachment"
// @Failure 400 {object} models.APIResponse
// @Router /forensics/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = forensics.FormatCSV
	}

	var req FilterRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	spec, err := req.ToFilterSpec()
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	data, contentType, err := h.engine.ExportSearch(r.Context(), caller(r), spec, format)
	if err != nil {
		h.engineError(w, r, forensics.PermViolationExport, err)
		return
	}

	if h.audit != nil {
		h.audit.LogDataExport(r.Context(), audit.ActorFromAuth(caller(r)), audit.SourceFromRequest(r), format, len(data))
	}

	filename := fmt.Sprintf("violations-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to write export")
	}
}
