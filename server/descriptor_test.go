package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/params"
)

func TestOpenAPIPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/users/:user_id", "/users/{user_id}"},
		{"/users/:user_id/orders/:order_id", "/users/{user_id}/orders/{order_id}"},
		{"/health", "/health"},
		{"/", "/"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, openAPIPath(tc.in))
	}
}

func TestRouteRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRouteRegistry()
	registry.Register(&RouteDescriptor{
		Method: http.MethodGet,
		Path:   "/users/:user_id",
	})
	registry.Register(&RouteDescriptor{
		Method: http.MethodPut,
		Path:   "/users/:user_id",
	})
	registry.Register(&RouteDescriptor{
		Method: http.MethodGet,
		Path:   "/health",
	})

	assert.Equal(t, 3, registry.Count())

	byPath := registry.ByPath("/users/:user_id")
	require.Len(t, byPath, 2)
	assert.Equal(t, http.MethodGet, byPath[0].Method)
	assert.Equal(t, http.MethodPut, byPath[1].Method)

	assert.Empty(t, registry.ByPath("/missing"))

	registry.Clear()
	assert.Equal(t, 0, registry.Count())
	assert.Empty(t, registry.Routes())
}

func TestRouteRegistryCloneSemantics(t *testing.T) {
	registry := NewRouteRegistry()
	descriptor := &RouteDescriptor{
		Method: http.MethodGet,
		Path:   "/users",
		Tags:   []string{"users"},
		Declarations: []params.Declaration{
			{Name: "limit", Scope: params.ScopeHandler},
		},
	}
	registry.Register(descriptor)

	// Mutating the caller's descriptor after registration must not leak in.
	descriptor.Tags[0] = "mutated"
	descriptor.Declarations[0].Name = "mutated"

	routes := registry.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, []string{"users"}, routes[0].Tags)
	assert.Equal(t, "limit", routes[0].Declarations[0].Name)

	// Mutating a returned copy must not affect the registry either.
	routes[0].Tags[0] = "changed"
	assert.Equal(t, []string{"users"}, registry.Routes()[0].Tags)
}

func TestOpenAPIRoutesMapping(t *testing.T) {
	registry := NewRouteRegistry()
	table := &params.ResolvedTable{}
	registry.Register(&RouteDescriptor{
		Method:        http.MethodPost,
		Path:          "/users/:user_id/orders",
		HandlerName:   "createOrder",
		Summary:       "Create an order",
		Description:   "Creates an order for the given user.",
		Tags:          []string{"orders"},
		Deprecated:    true,
		Table:         table,
		RequestModel:  "CreateOrder",
		ResponseModel: "Order",
	})

	routes := registry.OpenAPIRoutes()
	require.Len(t, routes, 1)

	route := routes[0]
	assert.Equal(t, http.MethodPost, route.Method)
	assert.Equal(t, "/users/{user_id}/orders", route.Path)
	assert.Equal(t, "createOrder", route.OperationID)
	assert.Equal(t, "Create an order", route.Summary)
	assert.Equal(t, "Creates an order for the given user.", route.Description)
	assert.Equal(t, []string{"orders"}, route.Tags)
	assert.True(t, route.Deprecated)
	assert.Same(t, table, route.Params)
	assert.Equal(t, "CreateOrder", route.RequestModel)
	assert.Equal(t, "Order", route.ResponseModel)
}

func TestRouteOptions(t *testing.T) {
	d := &RouteDescriptor{}
	opts := []RouteOption{
		WithTags("a", "b"),
		WithSummary("summary"),
		WithDescription("description"),
		WithDeprecated(),
		WithHandlerName("listThings"),
		WithRequestModel("Thing"),
		WithResponseModel("ThingView"),
		WithParameter(params.Declaration{Name: "limit", Scope: params.ScopeApplication}),
	}
	for _, opt := range opts {
		opt(d)
	}

	assert.Equal(t, []string{"a", "b"}, d.Tags)
	assert.Equal(t, "summary", d.Summary)
	assert.Equal(t, "description", d.Description)
	assert.True(t, d.Deprecated)
	assert.Equal(t, "listThings", d.HandlerName)
	assert.Equal(t, "Thing", d.RequestModel)
	assert.Equal(t, "ThingView", d.ResponseModel)
	require.Len(t, d.Declarations, 1)
	// Handler options always stamp handler scope regardless of input.
	assert.Equal(t, params.ScopeHandler, d.Declarations[0].Scope)
}
