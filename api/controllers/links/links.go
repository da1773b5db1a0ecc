package links

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/module-swap/api/responses"
	"github.com/angelmondragon/module-swap/api/validators"
	linksvc "github.com/angelmondragon/module-swap/internal/links"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/pagination"
)

// IDParam names the chi URL parameter carrying the link id.
const IDParam = "linkId"

func unavailable(svc linksvc.Service, w http.ResponseWriter, r *http.Request, logg *logger.Logger) bool {
	if svc != nil {
		return false
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "links service unavailable"))
	return true
}

// List returns one page of links ordered by id.
func List(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// NewForm returns the choices for a blank link form.
func NewForm(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		form, err := svc.Form(r.Context(), nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, form)
	}
}

// EditForm returns the choices plus the current values of one link.
func EditForm(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		id, err := validators.ParsePathID(r, IDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, err := svc.Form(r.Context(), &id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, form)
	}
}

func Create(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		var input linksvc.LinkInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/v1/module-swap/links/%d", view.ID))
		responses.WriteSuccessMessage(w, http.StatusCreated, "Created module inventory link.", view)
	}
}

func Update(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		id, err := validators.ParsePathID(r, IDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input linksvc.LinkInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, "Modified module inventory link.", view)
	}
}

// ConfirmDelete returns the link about to be deleted.
func ConfirmDelete(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		id, err := validators.ParsePathID(r, IDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func Delete(svc linksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		id, err := validators.ParsePathID(r, IDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, "Deleted module inventory link.", map[string]int64{"id": id})
	}
}
