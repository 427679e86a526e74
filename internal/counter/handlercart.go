package counter

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"

	"github.com/bobaclub/counter/internal/vault"
)

const themeVaultKey = "theme"

type cartItemBody struct {
	MenuID    int64  `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	SizeID    int64  `json:"size_id"`
	SizeName  string `json:"size_name"`
	UnitPrice int64  `json:"unit_price"`
	Note      string `json:"note"`
}

type cartTableBody struct {
	Table *Table `json:"table"`
}

type cartModeBody struct {
	Mode          CartMode `json:"mode"`
	TargetOrderID int64    `json:"target_order_id"`
}

type themeBody struct {
	Theme string `json:"theme"`
}

// Cart returns the current cart snapshot.
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Cart")
	defer finish()

	apt.RespondSuccess(w, h.cart.Snapshot())
}

// AddCartItem adds one unit of a (menu, size) selection to the cart.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddCartItem")
	defer finish()

	var body cartItemBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	if body.MenuID <= 0 || body.SizeID <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "menu_id and size_id are required")
		return
	}
	if body.UnitPrice < 0 {
		apt.RespondError(w, http.StatusBadRequest, "unit_price cannot be negative")
		return
	}

	h.cart.AddOrIncrement(body.MenuID, body.MenuName, body.SizeID, body.SizeName, body.UnitPrice)
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// DecrementCartItem lowers a line's quantity by one.
func (h *Handler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DecrementCartItem")
	defer finish()

	var body cartItemBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	h.cart.Decrement(body.MenuID, body.SizeID)
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// RemoveCartItem drops a line from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveCartItem")
	defer finish()

	var body cartItemBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	h.cart.RemoveItem(body.MenuID, body.SizeID)
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// SetCartItemNote attaches a free-text note to a line.
func (h *Handler) SetCartItemNote(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetCartItemNote")
	defer finish()

	var body cartItemBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	h.cart.SetLineNote(body.MenuID, body.SizeID, body.Note)
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// SetCartTable selects (or deselects) the table the order is for.
func (h *Handler) SetCartTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetCartTable")
	defer finish()

	var body cartTableBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	h.cart.SetTable(body.Table)
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// SetCartMode switches between the create and add-items flows.
func (h *Handler) SetCartMode(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetCartMode")
	defer finish()

	var body cartModeBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	if err := h.cart.SetMode(body.Mode, body.TargetOrderID); err != nil {
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// ClearCart abandons the in-progress order.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearCart")
	defer finish()

	h.cart.Clear()
	apt.RespondSuccess(w, h.cart.Snapshot())
}

// Theme reads the persisted theme preference.
func (h *Handler) Theme(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Theme")
	defer finish()

	pref := themeBody{Theme: "light"}
	if h.vault != nil {
		if err := h.vault.Get(themeVaultKey, &pref); err != nil && !errors.Is(err, vault.ErrNotFound) {
			h.log().Error("cannot read theme preference", "error", err)
		}
	}
	apt.RespondSuccess(w, pref)
}

// SetTheme persists the theme preference under a plain vault key.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetTheme")
	defer finish()

	var body themeBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	if body.Theme == "" {
		apt.RespondError(w, http.StatusBadRequest, "theme is required")
		return
	}

	if h.vault != nil {
		if err := h.vault.Put(themeVaultKey, body); err != nil {
			h.log().Error("cannot persist theme preference", "error", err)
			apt.RespondError(w, http.StatusInternalServerError, "Could not save preference")
			return
		}
	}
	apt.RespondSuccess(w, body)
}
