package counter

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"

	"github.com/bobaclub/counter/internal/apiclient"
)

type signInBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionView struct {
	User        User     `json:"user"`
	Permissions []string `json:"permissions"`
}

// SignIn authenticates against the auth service and installs the
// returned session.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SignIn")
	defer finish()

	var body signInBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" {
		apt.RespondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	sess, err := h.auth.SignIn(r.Context(), body.Username, body.Password)
	if err != nil {
		h.log().Debug("sign-in failed", "username", body.Username, "error", err)

		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && (apiErr.Unauthorized() || apiErr.Validation()) {
			code, field := firstErrorCode(apiErr.Data)
			apt.RespondError(w, http.StatusUnauthorized, Resolve(DomainAuth, code, field))
			return
		}
		apt.RespondError(w, http.StatusBadGateway, "Authentication service unavailable")
		return
	}

	if err := h.sessions.SignIn(sess); err != nil {
		h.log().Error("cannot install session", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Session error")
		return
	}

	h.log().Info("staff signed in", "username", sess.User.Username)
	apt.RespondSuccess(w, sessionView{User: sess.User, Permissions: sess.Permissions})
}

// SignOut destroys the session and abandons the in-progress cart.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SignOut")
	defer finish()

	h.sessions.Invalidate()
	h.cart.Clear()
	apt.RespondSuccess(w, map[string]interface{}{"signed_out": true})
}

// CurrentSession reports who is signed in.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CurrentSession")
	defer finish()

	sess := h.sessions.Current()
	if sess == nil {
		apt.RespondError(w, http.StatusUnauthorized, "Sign in required")
		return
	}
	apt.RespondSuccess(w, sessionView{User: sess.User, Permissions: sess.Permissions})
}
