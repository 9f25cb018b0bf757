package http

import (
	"net/http"

	"github.com/yaroph/connect/internal/domain"
)

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.services.Users.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	type userWithBalance struct {
		domain.User
		Pending float64 `json:"pending"`
	}
	out := make([]userWithBalance, 0, len(users))
	for _, u := range users {
		pending, err := a.services.Wallet.Pending(r.Context(), u.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, userWithBalance{User: u, Pending: pending})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.services.Users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.User
	if !decodeBody(w, r, &in) {
		return
	}
	id := r.PathValue("id")
	user, err := a.services.Users.Update(r.Context(), id, func(u *domain.User) error {
		in.ID = u.ID
		// Account standing is managed by dedicated flows, never by profile
		// edits.
		in.GagneSurBNI = u.GagneSurBNI
		in.Retrait = u.Retrait
		in.Token = u.Token
		in.CreatedAt = u.CreatedAt
		*u = in
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.services.RemoveUserData(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *API) handleRequestWithdraw(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	retrait, payment, err := a.services.Wallet.RequestWithdrawal(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"retrait": retrait,
		"payment": payment,
	})
}

func (a *API) handleListPayments(w http.ResponseWriter, r *http.Request) {
	ledger, err := a.services.Wallet.Ledger(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (a *API) handleValidatePayment(w http.ResponseWriter, r *http.Request) {
	user, payment, err := a.services.Wallet.ValidateWithdrawal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"payment": payment,
	})
}

func (a *API) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	user, pending, err := a.services.Wallet.CancelWithdrawal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"pending": pending,
	})
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.services.Settings.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in domain.Settings
	if !decodeBody(w, r, &in) {
		return
	}
	settings, err := a.services.Settings.Update(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
