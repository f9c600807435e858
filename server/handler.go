// Package server provides typed HTTP handlers on Echo with declarative
// parameter tables and transfer-backed request bodies.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skiffworks/skiff/config"
	"github.com/skiffworks/skiff/internal/reflection"
	"github.com/skiffworks/skiff/logger"
	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/transfer"
)

// APIResponse is the standardized response envelope.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse is the error portion of an API response.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HandlerFunc is the typed handler signature focused on business logic.
type HandlerFunc[T any, R any] func(request T, ctx HandlerContext) (R, IAPIError)

// HandlerContext gives handlers access to the Echo context, the resolved
// parameter values and ambient services.
type HandlerContext struct {
	Echo   echo.Context
	Config *config.Config
	Logger logger.Logger
	// Params holds coerced parameter values keyed by semantic name, with
	// defaults applied.
	Params map[string]any
}

// HandlerRegistry wires typed handlers to routes. It owns the model
// registry used for request bodies and records descriptors for document
// generation.
type HandlerRegistry struct {
	cfg    *config.Config
	log    logger.Logger
	models transfer.ModelRegistry
	routes *RouteRegistry
}

// NewHandlerRegistry creates a handler registry.
func NewHandlerRegistry(cfg *config.Config, log logger.Logger, models transfer.ModelRegistry) *HandlerRegistry {
	return &HandlerRegistry{
		cfg:    cfg,
		log:    log,
		models: models,
		routes: NewRouteRegistry(),
	}
}

// Routes exposes the registered route descriptors.
func (hr *HandlerRegistry) Routes() *RouteRegistry { return hr.routes }

// RegisterHandler registers a typed handler with the route registrar.
// Scope-chain parameter declarations merge with the handler's own; merge
// conflicts and unknown request models are registration errors.
func RegisterHandler[T any, R any](
	hr *HandlerRegistry,
	r RouteRegistrar,
	method, path string,
	handler HandlerFunc[T, R],
	opts ...RouteOption,
) error {
	fullPath := r.FullPath(path)
	descriptor := RouteDescriptor{
		Method:      method,
		Path:        fullPath,
		HandlerID:   fmt.Sprintf("%s:%s", method, fullPath),
		HandlerName: reflection.ExtractHandlerName(handler),
	}
	for _, opt := range opts {
		opt(&descriptor)
	}

	declarations := append(r.Declarations(), descriptor.Declarations...)
	if len(declarations) > 0 {
		table, err := params.Merge(declarations)
		if err != nil {
			return fmt.Errorf("route %s: %w", descriptor.HandlerID, err)
		}
		descriptor.Table = table
	}

	if descriptor.RequestModel != "" {
		builder := transfer.NewBuilder(hr.models, transfer.Config{
			MaxNestedDepth:  hr.cfg.Binding.MaxNestedDepth,
			MaxWrapperDepth: hr.cfg.Binding.MaxWrapperDepth,
			Direction:       transfer.DirectionIn,
		})
		fields, err := builder.BuildModel(descriptor.RequestModel)
		if err != nil {
			return fmt.Errorf("route %s: %w", descriptor.HandlerID, err)
		}
		descriptor.RequestFields = fields
	}

	hr.routes.Register(&descriptor)
	r.Add(method, path, wrapHandler(hr, &descriptor, handler))
	return nil
}

// GET registers a GET handler.
func GET[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], opts ...RouteOption) error {
	return RegisterHandler(hr, r, http.MethodGet, path, handler, opts...)
}

// POST registers a POST handler.
func POST[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], opts ...RouteOption) error {
	return RegisterHandler(hr, r, http.MethodPost, path, handler, opts...)
}

// PUT registers a PUT handler.
func PUT[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], opts ...RouteOption) error {
	return RegisterHandler(hr, r, http.MethodPut, path, handler, opts...)
}

// PATCH registers a PATCH handler.
func PATCH[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], opts ...RouteOption) error {
	return RegisterHandler(hr, r, http.MethodPatch, path, handler, opts...)
}

// DELETE registers a DELETE handler.
func DELETE[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], opts ...RouteOption) error {
	return RegisterHandler(hr, r, http.MethodDelete, path, handler, opts...)
}

// wrapHandler adapts a typed handler into an Echo handler. Request flow:
// resolve the parameter table, run the body through inbound transfer, bind
// the typed request, validate, then invoke the handler.
func wrapHandler[T any, R any](hr *HandlerRegistry, d *RouteDescriptor, handler HandlerFunc[T, R]) echo.HandlerFunc {
	return func(c echo.Context) error {
		var request T

		var resolved map[string]any
		if d.Table != nil {
			values, err := d.Table.Resolve(echoSource{c})
			if err != nil {
				return formatErrorResponse(c, apiErrorFromBindingError(err), hr.cfg)
			}
			resolved = values
		}

		if d.RequestFields != nil && hasJSONBody(c) {
			if err := bindBody(c, d.RequestFields, &request); err != nil {
				return formatErrorResponse(c, err, hr.cfg)
			}
		}

		if d.Table != nil {
			if err := bindParams(d.Table, resolved, &request); err != nil {
				return formatErrorResponse(c, NewInternalServerError("").WithDetails("error", err.Error()), hr.cfg)
			}
		}

		if err := c.Validate(&request); err != nil {
			vErr := NewBadRequestError("Request validation failed")
			var ve *ValidationError
			if errors.As(err, &ve) {
				vErr.WithDetails("validationErrors", ve.Errors)
			} else {
				vErr.WithDetails("error", err.Error())
			}
			return formatErrorResponse(c, vErr, hr.cfg)
		}

		ctx := HandlerContext{
			Echo:   c,
			Config: hr.cfg,
			Logger: hr.log,
			Params: resolved,
		}
		response, apiErr := handler(request, ctx)
		if apiErr != nil {
			return formatErrorResponse(c, apiErr, hr.cfg)
		}

		if rl, ok := any(response).(ResultLike); ok {
			status, headers, data := rl.ResultMeta()
			return formatSuccessResponseWithStatus(c, data, status, headers)
		}
		return formatSuccessResponse(c, response)
	}
}

// echoSource adapts an Echo context to the parameter value source.
type echoSource struct {
	c echo.Context
}

func (s echoSource) Value(location params.Location, wireName string) (string, bool) {
	switch location {
	case params.InPath:
		for _, name := range s.c.ParamNames() {
			if name == wireName {
				return s.c.Param(wireName), true
			}
		}
	case params.InQuery:
		if values, ok := s.c.QueryParams()[wireName]; ok && len(values) > 0 {
			return values[0], true
		}
	case params.InHeader:
		if values := s.c.Request().Header.Values(wireName); len(values) > 0 {
			return values[0], true
		}
	case params.InCookie:
		if cookie, err := s.c.Cookie(wireName); err == nil {
			return cookie.Value, true
		}
	}
	return "", false
}

func hasJSONBody(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == echo.MIMEApplicationJSON || strings.HasSuffix(mt, "+json")
}

// bindBody decodes the JSON body, runs it through inbound transfer so wire
// names, defaults and exclusions apply, then unmarshals the result into the
// typed request.
func bindBody(c echo.Context, fields []transfer.TransferFieldDefinition, target any) IAPIError {
	var payload map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return NewBadRequestError("Invalid JSON body").WithDetails("error", err.Error())
	}
	transferred, err := transfer.TransferIn(fields, payload)
	if err != nil {
		return apiErrorFromBindingError(err)
	}
	raw, err := json.Marshal(transferred)
	if err != nil {
		return NewInternalServerError("").WithDetails("error", err.Error())
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return NewBadRequestError("Request body does not match the expected structure").
			WithDetails("error", err.Error())
	}
	return nil
}

// bindParams assigns resolved parameter values to struct fields tagged with
// param, query, header or cookie wire names.
func bindParams(table *params.ResolvedTable, resolved map[string]any, target any) error {
	targetValue := reflect.ValueOf(target).Elem()
	targetType := targetValue.Type()

	for i := 0; i < targetType.NumField(); i++ {
		field := targetType.Field(i)
		fieldValue := targetValue.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		wireName := ""
		for _, tag := range []string{"param", "query", "header", "cookie"} {
			if name := field.Tag.Get(tag); name != "" {
				wireName = name
				break
			}
		}
		if wireName == "" {
			continue
		}

		p, ok := table.ByWireName(wireName)
		if !ok {
			continue
		}
		value, ok := resolved[p.Name]
		if !ok {
			continue
		}
		if err := setResolvedValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set parameter %s: %w", wireName, err)
		}
	}
	return nil
}

// setResolvedValue assigns an already-coerced parameter value to a struct
// field, converting between compatible numeric kinds.
func setResolvedValue(fieldValue reflect.Value, value any) error {
	if fieldValue.Kind() == reflect.Pointer {
		if fieldValue.IsNil() {
			fieldValue.Set(reflect.New(fieldValue.Type().Elem()))
		}
		return setResolvedValue(fieldValue.Elem(), value)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(fieldValue.Type()) {
		converted := rv.Convert(fieldValue.Type())
		fieldValue.Set(converted)
		return nil
	}
	if stringer, ok := value.(fmt.Stringer); ok && fieldValue.Kind() == reflect.String {
		fieldValue.SetString(stringer.String())
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, fieldValue.Type())
}

// ResultLike exposes status, headers and payload for successful responses.
type ResultLike interface {
	ResultMeta() (status int, headers http.Header, data any)
}

// Result is a success wrapper letting handlers customize status and headers
// while keeping the response payload typed.
type Result[R any] struct {
	Data    R
	Status  int
	Headers http.Header
}

// ResultMeta implements ResultLike.
func (r Result[R]) ResultMeta() (status int, headers http.Header, data any) {
	return r.Status, r.Headers, r.Data
}

// Created returns a 201 Created result for the given data.
func Created[R any](data R) Result[R] {
	return Result[R]{Data: data, Status: http.StatusCreated}
}

// NoContentResult represents a 204 response without a body.
type NoContentResult struct{}

// ResultMeta implements ResultLike.
func (NoContentResult) ResultMeta() (status int, headers http.Header, data any) {
	return http.StatusNoContent, nil, nil
}

// NoContent returns a 204 No Content result.
func NoContent() NoContentResult { return NoContentResult{} }

func formatSuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, APIResponse{Data: data, Meta: responseMeta(c)})
}

func formatSuccessResponseWithStatus(c echo.Context, data any, status int, headers http.Header) error {
	if status == 0 {
		status = http.StatusOK
	}
	for key, values := range headers {
		for _, v := range values {
			c.Response().Header().Add(key, v)
		}
	}
	if status == http.StatusNoContent {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(status, APIResponse{Data: data, Meta: responseMeta(c)})
}

func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}
	// Details are exposed only in development.
	if cfg == nil || cfg.App.IsDevelopment() {
		if details := apiErr.Details(); len(details) > 0 {
			errorResp.Details = details
		}
	}
	return c.JSON(apiErr.HTTPStatus(), APIResponse{Error: errorResp, Meta: responseMeta(c)})
}

func responseMeta(c echo.Context) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"traceId":   requestID(c),
	}
}

// requestID extracts or generates the request's trace identifier.
func requestID(c echo.Context) string {
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	id := uuid.New().String()
	c.Response().Header().Set(echo.HeaderXRequestID, id)
	return id
}
