package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
)

type idBody struct {
	Module *int64 `json:"module" validate:"omitempty,min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	var body idBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"module":4}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	require.NotNil(t, body.Module)
	assert.Equal(t, int64(4), *body.Module)
}

func TestDecodeJSONBodyAllowsEmptyBody(t *testing.T) {
	var body idBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Nil(t, body.Module)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var body idBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"device":1}`))
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyRejectsNonPositiveIDs(t *testing.T) {
	var body idBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"module":0}`))
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"module": msgInvalidChoice}, typed.Details())
}

func TestParseQueryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?module_id=9", nil)
	id, err := ParseQueryID(req, "module_id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(9), *id)

	id, err = ParseQueryID(httptest.NewRequest(http.MethodGet, "/", nil), "module_id")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseQueryID(httptest.NewRequest(http.MethodGet, "/?module_id=-1", nil), "module_id")
	require.Error(t, err)
}

func TestParsePathID(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("linkId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	id, err := ParsePathID(withParam("12"), "linkId")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = ParsePathID(withParam("abc"), "linkId")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestParseQueryInt(t *testing.T) {
	limit, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=5", nil), "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=500", nil), "limit", 25, 1, 100)
	require.Error(t, err)
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	var body idBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"module":4}{"module":5}`))
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
