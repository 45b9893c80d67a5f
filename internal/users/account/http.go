// Copyright (c) 2026 CBCoder. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lucleber13/webapp/internal/platform/respond"
	"github.com/lucleber13/webapp/internal/platform/validate"
	"github.com/lucleber13/webapp/internal/users/auth"
	"github.com/lucleber13/webapp/pkg/pagination"
	"github.com/lucleber13/webapp/pkg/query"

	requestutil "github.com/lucleber13/webapp/internal/platform/request"
)

// Handler implements the user management HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the user management routes.
//
// # Endpoints
//   - GET    /      : Paginated account list, optional ?roles= filter.
//   - GET    /{id}  : Single account by ID.
//   - PUT    /{id}  : Partial profile update.
//   - DELETE /{id}  : Permanent removal.
//
// The router mounting this group applies the staff role policy; the handlers
// themselves assume an already-authorized caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

type updateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Enabled   *bool   `json:"enabled"`
}

// list handles GET /users.
//
// Supports ?page= and ?limit= plus an optional comma-separated ?roles=
// filter (e.g. ?roles=ADMIN,SALES).
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	roleFilter := query.StringSlice(request.URL.Query().Get("roles"))

	users, meta, err := handler.accountService.List(request.Context(), params, roleFilter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if users == nil {
		users = []*auth.User{}
	}
	respond.Paginated(writer, users, meta)
}

// get handles GET /users/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID(auth.FieldUserID, id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// update handles PUT /users/{id}.
//
// Fields absent from the payload keep their stored value. Responds 409 when
// the new email is already taken.
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.UUID(auth.FieldUserID, id)
	if input.FirstName != nil {
		validator.Required(auth.FieldFirstName, *input.FirstName)
	}
	if input.LastName != nil {
		validator.Required(auth.FieldLastName, *input.LastName)
	}
	if input.Email != nil {
		validator.Required(auth.FieldEmail, *input.Email).
			Email(auth.FieldEmail, *input.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Update(request.Context(), id, UpdateInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Enabled:   input.Enabled,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// delete handles DELETE /users/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID(auth.FieldUserID, id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
