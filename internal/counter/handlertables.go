package counter

import (
	"net/http"

	"github.com/appetiteclub/apt"
)

// Tables lists the tables currently open for seating.
func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Tables")
	defer finish()

	tables, err := h.catalog.ListAvailableTables(r.Context())
	if err != nil {
		h.log().Error("cannot list tables", "error", err)
		apt.RespondError(w, http.StatusBadGateway, "Could not retrieve tables")
		return
	}

	apt.RespondCollection(w, tables, "table")
}
