package counter

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"

	"github.com/bobaclub/counter/internal/vault"
)

const MaxBodyBytes = 1 << 20

// Handler is the counter's own JSON surface, consumed by the staff UI.
// It owns no business state itself; every route drives the stores and
// data-access layers it is handed.
type Handler struct {
	logger    aqm.Logger
	config    *aqm.Config
	tlm       *telemetry.HTTP
	sessions  *SessionStore
	cart      *CartStore
	catalog   *CatalogDataAccess
	orders    *OrderDataAccess
	auth      *AuthDataAccess
	submitter *OrderSubmitter
	vault     *vault.Vault
	notices   *NoticeQueue
}

type HandlerDeps struct {
	Sessions  *SessionStore
	Cart      *CartStore
	Catalog   *CatalogDataAccess
	Orders    *OrderDataAccess
	Auth      *AuthDataAccess
	Submitter *OrderSubmitter
	Vault     *vault.Vault
	Notices   *NoticeQueue
}

func NewHandler(hd HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		sessions:  hd.Sessions,
		cart:      hd.Cart,
		catalog:   hd.Catalog,
		orders:    hd.Orders,
		auth:      hd.Auth,
		submitter: hd.Submitter,
		vault:     hd.Vault,
		notices:   hd.Notices,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Public routes
	r.Post("/signin", h.SignIn)
	r.Post("/signout", h.SignOut)

	// Protected routes (require session)
	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/session", h.CurrentSession)

		r.Get("/tables", h.Tables)

		r.Get("/menu/groups", h.MenuGroups)
		r.Get("/menu/groups/{id}/items", h.MenuItems)
		r.Get("/menu/items/{id}/sizes", h.MenuSizes)
		r.Post("/menu/refresh", h.RefreshCatalog)

		r.Get("/cart", h.Cart)
		r.Post("/cart/items", h.AddCartItem)
		r.Post("/cart/items/decrement", h.DecrementCartItem)
		r.Post("/cart/items/remove", h.RemoveCartItem)
		r.Post("/cart/items/note", h.SetCartItemNote)
		r.Post("/cart/table", h.SetCartTable)
		r.Post("/cart/mode", h.SetCartMode)
		r.Post("/cart/clear", h.ClearCart)

		r.Post("/orders", h.SubmitOrder)
		r.Get("/orders", h.OpenOrders)
		r.Get("/orders/{id}", h.OrderStatus)

		r.Get("/notices", h.Notices)
		r.Get("/preferences/theme", h.Theme)
		r.Put("/preferences/theme", h.SetTheme)
	})
}

func (h *Handler) log() aqm.Logger {
	return h.logger
}

// SessionMiddleware rejects requests arriving without a signed-in
// session.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.sessions == nil || !h.sessions.IsAuthenticated() {
			apt.RespondError(w, http.StatusUnauthorized, "Sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requirePermission(w http.ResponseWriter, permission string) bool {
	if h.sessions != nil && h.sessions.HasPermission(permission) {
		return true
	}
	h.log().Debug("permission denied", "permission", permission)
	apt.RespondError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
	return false
}

// decodeBody reads a JSON request body into dest, answering 400 on
// malformed input.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		h.log().Debug("cannot read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		h.log().Debug("cannot decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Notices drains the transient notice queue for the UI toast layer.
func (h *Handler) Notices(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Notices")
	defer finish()

	apt.RespondSuccess(w, h.notices.Drain())
}
