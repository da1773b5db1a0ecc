package swap

import (
	"net/http"
	"time"

	"github.com/angelmondragon/module-swap/api/middleware"
	"github.com/angelmondragon/module-swap/api/responses"
	"github.com/angelmondragon/module-swap/api/validators"
	swapsvc "github.com/angelmondragon/module-swap/internal/swap"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/pagination"
)

// CookiePath scopes the workflow cookie to the relocation routes.
const CookiePath = "/api/v1/module-swap"

// CookieOptions describes the workflow cookie handed out by the selection step.
type CookieOptions struct {
	Name   string
	Secure bool
}

func actorFrom(r *http.Request) swapsvc.Actor {
	return swapsvc.Actor{UserID: middleware.UserIDFromContext(r.Context())}
}

func unavailable(svc swapsvc.Service, w http.ResponseWriter, r *http.Request, logg *logger.Logger) bool {
	if svc != nil {
		return false
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "module swap service unavailable"))
	return true
}

// SelectionForm lists the modules and the devices with a free bay.
// ?module_id= pins the module list to one module.
func SelectionForm(svc swapsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		pinned, err := validators.ParseQueryID(r, "module_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, err := svc.SelectionForm(r.Context(), pinned)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, form)
	}
}

// Select stores the chosen module and device and returns the workflow token
// as body, header and cookie.
func Select(svc swapsvc.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		var input swapsvc.SelectInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		token := middleware.WorkflowTokenFromContext(r.Context())
		result, err := svc.Select(r.Context(), actorFrom(r), token, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(middleware.WorkflowTokenHeader, result.Token)
		if cookie.Name != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    result.Token,
				Path:     CookiePath,
				Expires:  result.ExpiresAt,
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		responses.WriteSuccess(w, result)
	}
}

// PlacementForm lists the bays of the selected device.
func PlacementForm(svc swapsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		token := middleware.WorkflowTokenFromContext(r.Context())
		form, err := svc.PlacementForm(r.Context(), actorFrom(r), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, form)
	}
}

// Place moves the selected module into the chosen bay and expires the cookie.
func Place(svc swapsvc.Service, cookie CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		var input swapsvc.PlaceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		token := middleware.WorkflowTokenFromContext(r.Context())
		result, err := svc.Place(r.Context(), actorFrom(r), token, input)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeWorkflow) {
				expireCookie(w, cookie)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expireCookie(w, cookie)
		responses.WriteSuccessMessage(w, http.StatusOK, result.Message, result)
	}
}

// expireCookie drops the workflow cookie once its state is gone.
func expireCookie(w http.ResponseWriter, cookie CookieOptions) {
	if cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     CookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// History pages through committed relocations, newest first.
func History(svc swapsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		moduleID, err := validators.ParseQueryID(r, "module_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.History(r.Context(), swapsvc.HistoryFilter{ModuleID: moduleID}, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
