package counter

import (
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
)

// MenuGroups lists the catalog's menu categories.
func (h *Handler) MenuGroups(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MenuGroups")
	defer finish()

	groups, err := h.catalog.ListMenuGroups(r.Context())
	if err != nil {
		h.log().Error("cannot list menu groups", "error", err)
		apt.RespondError(w, http.StatusBadGateway, "Could not retrieve menu groups")
		return
	}

	apt.RespondCollection(w, groups, "menu-group")
}

// MenuItems lists the items of one menu group.
func (h *Handler) MenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MenuItems")
	defer finish()

	groupID, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.catalog.ListMenuItems(r.Context(), groupID)
	if err != nil {
		h.log().Error("cannot list menu items", "error", err, "group_id", groupID)
		apt.RespondError(w, http.StatusBadGateway, "Could not retrieve menu items")
		return
	}

	apt.RespondCollection(w, items, "menu-item")
}

// MenuSizes lists the orderable sizes of one menu item with prices.
func (h *Handler) MenuSizes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MenuSizes")
	defer finish()

	menuID, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	sizes, err := h.catalog.ListSizes(r.Context(), menuID)
	if err != nil {
		h.log().Error("cannot list menu sizes", "error", err, "menu_id", menuID)
		apt.RespondError(w, http.StatusBadGateway, "Could not retrieve sizes")
		return
	}

	apt.RespondCollection(w, sizes, "menu-size")
}

// RefreshCatalog drops the cached catalog queries.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RefreshCatalog")
	defer finish()

	h.catalog.Refresh()
	apt.RespondSuccess(w, map[string]interface{}{"refreshed": true})
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.log().Debug("invalid id parameter", "value", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return id, true
}
