package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/luisfigueroa/merchantflow-backend/api/responses"
	"github.com/luisfigueroa/merchantflow-backend/api/validators"
	"github.com/luisfigueroa/merchantflow-backend/internal/merchants"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
)

type merchantCreateRequest struct {
	Name          string   `json:"name" validate:"required,min=1,max=200"`
	Category      string   `json:"category" validate:"required"`
	ContactName   *string  `json:"contact_name,omitempty"`
	ContactPhone  *string  `json:"contact_phone,omitempty"`
	ContactEmail  *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	City          *string  `json:"city,omitempty"`
	District      *string  `json:"district,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	AssignedRepID string   `json:"assigned_rep_id" validate:"required,uuid"`
}

type merchantUpdateRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category     *string  `json:"category,omitempty"`
	ContactName  *string  `json:"contact_name,omitempty"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	ContactEmail *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	City         *string  `json:"city,omitempty"`
	District     *string  `json:"district,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Archived     *bool    `json:"archived,omitempty"`
}

type merchantReassignRequest struct {
	NewRepID string `json:"new_rep_id" validate:"required,uuid"`
}

// MerchantCreate registers a merchant and opens its pipeline.
func MerchantCreate(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body merchantCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		repID, err := uuid.Parse(body.AssignedRepID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rep id"))
			return
		}

		merchant, err := svc.Create(r.Context(), merchants.CreateInput{
			Name:          validators.SanitizeString(body.Name, 200),
			Category:      enums.MerchantCategory(strings.ToUpper(strings.TrimSpace(body.Category))),
			ContactName:   body.ContactName,
			ContactPhone:  body.ContactPhone,
			ContactEmail:  body.ContactEmail,
			City:          body.City,
			District:      body.District,
			Tags:          body.Tags,
			AssignedRepID: repID,
			ActorUserID:   actorID,
			ActorRole:     actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, merchant)
	}
}

// MerchantGet returns a single merchant with its pipeline preloaded.
func MerchantGet(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		id, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchant, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, merchant)
	}
}

// MerchantList returns a filtered, cursor-paginated merchant page.
func MerchantList(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		params, err := validators.ParseCursorParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseMerchantFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// MerchantUpdate patches the mutable profile fields.
func MerchantUpdate(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body merchantUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := merchants.UpdateInput{
			MerchantID:   id,
			Name:         body.Name,
			ContactName:  body.ContactName,
			ContactPhone: body.ContactPhone,
			ContactEmail: body.ContactEmail,
			City:         body.City,
			District:     body.District,
			Tags:         body.Tags,
			Archived:     body.Archived,
			ActorUserID:  actorID,
			ActorRole:    actorRole,
		}
		if body.Category != nil {
			category := enums.MerchantCategory(strings.ToUpper(strings.TrimSpace(*body.Category)))
			input.Category = &category
		}

		merchant, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, merchant)
	}
}

// MerchantReassign hands the merchant to a different rep.
func MerchantReassign(svc merchants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body merchantReassignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		repID, err := uuid.Parse(body.NewRepID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rep id"))
			return
		}

		merchant, err := svc.ReassignRep(r.Context(), merchants.ReassignInput{
			MerchantID:  id,
			NewRepID:    repID,
			ActorUserID: actorID,
			ActorRole:   actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, merchant)
	}
}

func parseMerchantFilters(r *http.Request) (merchants.ListFilters, error) {
	filters := merchants.ListFilters{
		Query: validators.SanitizeString(r.URL.Query().Get("q"), 120),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category := enums.MerchantCategory(strings.ToUpper(raw))
		if !category.IsValid() {
			return merchants.ListFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown merchant category").
				WithDetails(map[string]any{"field": "category"})
		}
		filters.Category = &category
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("stage")); raw != "" {
		stage := enums.PipelineStage(strings.ToUpper(raw))
		if !stage.IsValid() {
			return merchants.ListFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown pipeline stage").
				WithDetails(map[string]any{"field": "stage"})
		}
		filters.Stage = &stage
	}

	repID, err := validators.ParseQueryUUID(r, "assigned_rep_id")
	if err != nil {
		return merchants.ListFilters{}, err
	}
	filters.AssignedRepID = repID

	archived, err := validators.ParseQueryBool(r, "archived")
	if err != nil {
		return merchants.ListFilters{}, err
	}
	filters.Archived = archived

	if raw := validators.SanitizeString(r.URL.Query().Get("city"), 120); raw != "" {
		filters.City = &raw
	}
	if raw := validators.SanitizeString(r.URL.Query().Get("district"), 120); raw != "" {
		filters.District = &raw
	}

	return filters, nil
}
