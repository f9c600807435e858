package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/config"
	"github.com/skiffworks/skiff/logger"
	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/transfer"
	"github.com/skiffworks/skiff/typemap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.LoadBytes(nil)
	require.NoError(t, err)
	return New(cfg, logger.NewWithWriter("error", io.Discard))
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var envelope APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

type updateUserRequest struct {
	UserID uuid.UUID `param:"user_id"`
	Limit  int64     `query:"limit"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

type userResponse struct {
	UserID string `json:"userId"`
	Limit  int64  `json:"limit"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func registerUpdateUser(t *testing.T, s *Server) {
	t.Helper()
	s.Models().Register("UpdateUser",
		transfer.FieldDefinition{Name: "name", Type: typemap.String},
		transfer.FieldDefinition{Name: "role", Type: typemap.String, Default: "member", HasDefault: true},
	)

	handler := func(req updateUserRequest, _ HandlerContext) (userResponse, IAPIError) {
		return userResponse{
			UserID: req.UserID.String(),
			Limit:  req.Limit,
			Name:   req.Name,
			Role:   req.Role,
		}, nil
	}

	err := PUT(s.Handlers(), s.ModuleGroup(), "/users/:user_id", handler,
		WithParameter(params.Declaration{
			Name:     "userID",
			Location: params.InPath,
			WireName: "user_id",
			Type:     typemap.UUID,
		}),
		WithParameter(params.Declaration{
			Name:        "limit",
			Type:        typemap.Int,
			Constraints: params.Constraints{Min: params.Float64(1), Max: params.Float64(100)},
			Default:     int64(20),
			HasDefault:  true,
		}),
		WithRequestModel("UpdateUser"),
	)
	require.NoError(t, err)
}

func TestTypedHandlerBindsParamsAndBody(t *testing.T) {
	s := newTestServer(t)
	registerUpdateUser(t, s)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/users/"+id.String()+"?limit=5",
		strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, id.String(), data["userId"])
	assert.Equal(t, float64(5), data["limit"])
	assert.Equal(t, "Ada", data["name"])
	// Model default injected by inbound transfer.
	assert.Equal(t, "member", data["role"])
	assert.Contains(t, envelope.Meta, "traceId")
}

func TestTypedHandlerAppliesParameterDefault(t *testing.T) {
	s := newTestServer(t)
	registerUpdateUser(t, s)

	req := httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString(),
		strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, float64(20), data["limit"])
}

func TestTypedHandlerRejectsConstraintViolation(t *testing.T) {
	s := newTestServer(t)
	registerUpdateUser(t, s)

	req := httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString()+"?limit=1000",
		strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "BAD_REQUEST", envelope.Error.Code)
	assert.Equal(t, "limit", envelope.Error.Details["parameter"])
}

func TestTypedHandlerRejectsMalformedPathParam(t *testing.T) {
	s := newTestServer(t)
	registerUpdateUser(t, s)

	req := httptest.NewRequest(http.MethodPut, "/users/not-a-uuid",
		strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "user_id", envelope.Error.Details["parameter"])
}

func TestTypedHandlerRejectsMissingBodyField(t *testing.T) {
	s := newTestServer(t)
	registerUpdateUser(t, s)

	req := httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString(),
		strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "name", envelope.Error.Details["field"])
}

func TestHandlerScopeOverridesApplicationScope(t *testing.T) {
	s := newTestServer(t)
	s.DeclareParameter(params.Declaration{
		Name:       "limit",
		Type:       typemap.Int,
		Default:    int64(10),
		HasDefault: true,
	})

	type listRequest struct {
		Limit int64 `query:"limit"`
	}
	handler := func(req listRequest, _ HandlerContext) (map[string]any, IAPIError) {
		return map[string]any{"limit": req.Limit}, nil
	}
	err := GET(s.Handlers(), s.ModuleGroup(), "/items", handler,
		WithParameter(params.Declaration{
			Name:       "limit",
			Type:       typemap.Int,
			Default:    int64(50),
			HasDefault: true,
		}))
	require.NoError(t, err)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, float64(50), data["limit"])
}

func TestRegisterHandlerReportsWireNameConflict(t *testing.T) {
	s := newTestServer(t)
	handler := func(_ struct{}, _ HandlerContext) (struct{}, IAPIError) {
		return struct{}{}, nil
	}
	err := GET(s.Handlers(), s.ModuleGroup(), "/conflict", handler,
		WithParameter(params.Declaration{Name: "token", WireName: "x-id"}),
		WithParameter(params.Declaration{Name: "userID", WireName: "x-id"}),
	)
	require.Error(t, err)
	var conflict *params.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRegisterHandlerRejectsUnknownRequestModel(t *testing.T) {
	s := newTestServer(t)
	handler := func(_ struct{}, _ HandlerContext) (struct{}, IAPIError) {
		return struct{}{}, nil
	}
	err := POST(s.Handlers(), s.ModuleGroup(), "/things", handler, WithRequestModel("Thing"))
	require.Error(t, err)
	var unsupported *transfer.UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestResultWrapperControlsStatus(t *testing.T) {
	s := newTestServer(t)
	handler := func(_ struct{}, _ HandlerContext) (Result[map[string]string], IAPIError) {
		return Created(map[string]string{"id": "42"}), nil
	}
	require.NoError(t, POST(s.Handlers(), s.ModuleGroup(), "/things", handler))

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/things", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "42", data["id"])
}

func TestValidationFailureReturnsFieldErrors(t *testing.T) {
	s := newTestServer(t)
	s.Models().Register("Note",
		transfer.FieldDefinition{Name: "Text", Type: typemap.String},
	)
	type noteRequest struct {
		Text string `json:"Text" validate:"min=3"`
	}
	handler := func(req noteRequest, _ HandlerContext) (struct{}, IAPIError) {
		return struct{}{}, nil
	}
	require.NoError(t, POST(s.Handlers(), s.ModuleGroup(), "/notes", handler, WithRequestModel("Note")))

	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"Text":"ab"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "BAD_REQUEST", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details, "validationErrors")
}

func TestHandlerAPIErrorPassesThrough(t *testing.T) {
	s := newTestServer(t)
	handler := func(_ struct{}, _ HandlerContext) (struct{}, IAPIError) {
		return struct{}{}, NewNotFoundError("user")
	}
	require.NoError(t, GET(s.Handlers(), s.ModuleGroup(), "/missing", handler))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	assert.Equal(t, "user not found", envelope.Error.Message)
}

func TestHealthAndDocsEndpoints(t *testing.T) {
	s := newTestServer(t)
	registerUpdateUser(t, s)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "openapi: 3.1.0")
	assert.Contains(t, body, "/users/{user_id}:")
	assert.Contains(t, body, "UpdateUser")
}

