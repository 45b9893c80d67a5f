// Copyright (c) 2026 CBCoder. All rights reserved.

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucleber13/webapp/internal/platform/respond"
	"github.com/lucleber13/webapp/internal/platform/validate"
	"github.com/lucleber13/webapp/internal/users/auth"

	requestutil "github.com/lucleber13/webapp/internal/platform/request"
)

// Handler implements the superadmin HTTP endpoints.
type Handler struct {
	adminService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{adminService: service}
}

// Routes returns a [chi.Router] configured with the role administration routes.
//
// # Endpoints
//   - POST   /admins      : Grants ADMIN to an account.
//   - DELETE /admins/{id} : Revokes ADMIN from an account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/admins", handler.grant)
	router.Delete("/admins/{id}", handler.revoke)

	return router
}

type grantRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// grant handles POST /superadmin/admins.
func (handler *Handler) grant(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input grantRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldUserID, input.UserID).
		UUID(auth.FieldUserID, input.UserID).
		Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.adminService.GrantAdmin(request.Context(), caller, GrantInput{
		UserID: input.UserID,
		Email:  input.Email,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// revoke handles DELETE /superadmin/admins/{id}.
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID(auth.FieldUserID, id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.adminService.RevokeAdmin(request.Context(), caller, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
