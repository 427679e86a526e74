package counter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"

	"github.com/bobaclub/counter/internal/apiclient"
)

// SubmitOrder sends the cart as a create or append operation. A
// rejected submission answers 422 with the tagged error so the UI can
// pin messages to the right cart lines or raise a blocking alert.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SubmitOrder")
	defer finish()

	if !h.requirePermission(w, "orders:write") {
		return
	}

	receipt, err := h.submitter.Submit(r.Context())
	if err != nil {
		var subErr *SubmitError
		if errors.As(err, &subErr) {
			h.respondSubmitError(w, subErr)
			return
		}

		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			apt.RespondError(w, http.StatusUnauthorized, "Sign in required")
			return
		}

		h.log().Error("order submission failed", "error", err)
		h.respondSubmitError(w, &SubmitError{Kind: SubmitAlert, Alert: GenericErrorMessage})
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, receipt)
}

// OpenOrders lists the orders still open, for the status screen and
// the add-items picker.
func (h *Handler) OpenOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenOrders")
	defer finish()

	orders, err := h.orders.ListOpenOrders(r.Context())
	if err != nil {
		h.log().Error("cannot list open orders", "error", err)
		apt.RespondError(w, http.StatusBadGateway, "Could not retrieve orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

// OrderStatus reports one order's current state.
func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OrderStatus")
	defer finish()

	orderID, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.log().Error("cannot load order", "error", err, "order_id", orderID)
		apt.RespondError(w, http.StatusBadGateway, "Could not retrieve order")
		return
	}

	apt.RespondSuccess(w, order)
}

// respondSubmitError writes the tagged rejection shape. The apt
// helpers cover plain success and message-only errors; the inline
// line-item annotations need the full structure.
func (h *Handler) respondSubmitError(w http.ResponseWriter, subErr *SubmitError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)

	payload := map[string]interface{}{
		"code":    "order-rejected",
		"message": subErr.Error(),
		"data":    subErr,
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log().Error("cannot write submit error response", "error", err)
	}
}
