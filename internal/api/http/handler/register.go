package handler

import (
	"errors"
	"net/http"

	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/service"
)

type registerUserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type registerResponse struct {
	Message string               `json:"message"`
	User    registerUserResponse `json:"user"`
}

// Register creates a credential account.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	fields, err := formValues(w, r, "name", "email", "password")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.authService.Register(r.Context(), h.store.Acquire(r.Context()), service.RegisterParams{
		Name:     fields["name"],
		Email:    fields["email"],
		Password: fields["password"],
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingFields),
			errors.Is(err, model.ErrPasswordTooShort),
			errors.Is(err, model.ErrEmailTaken):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.logger.Error("Auth handler: registration failed",
				"error", err.Error())
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}

	msg := "Account created successfully"
	if res.Demo {
		msg += " (demo mode)"
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: msg,
		User: registerUserResponse{
			ID:    res.User.ID,
			Name:  res.User.Name,
			Email: res.User.Email,
		},
	})
}
