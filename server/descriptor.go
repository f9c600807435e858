package server

import (
	"strings"
	"sync"

	"github.com/skiffworks/skiff/openapi"
	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/transfer"
)

// RouteDescriptor captures metadata about a registered route.
type RouteDescriptor struct {
	Method      string
	Path        string
	HandlerID   string
	HandlerName string
	Tags        []string
	Summary     string
	Description string
	Deprecated  bool

	// Table is the merged parameter table for the handler.
	Table *params.ResolvedTable
	// RequestModel and ResponseModel name registered transfer models.
	RequestModel  string
	ResponseModel string
	// RequestFields is the inbound transfer field set, built at registration.
	RequestFields []transfer.TransferFieldDefinition
	// Declarations are the handler-scope parameter declarations before merge.
	Declarations []params.Declaration
}

// RouteOption configures a route descriptor during registration.
type RouteOption func(*RouteDescriptor)

// WithTags adds grouping tags to a route.
func WithTags(tags ...string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Tags = append(d.Tags, tags...)
	}
}

// WithSummary sets a summary for the route.
func WithSummary(summary string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Summary = summary
	}
}

// WithDescription sets a detailed description for the route.
func WithDescription(description string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Description = description
	}
}

// WithDeprecated marks the route as deprecated in generated documents.
func WithDeprecated() RouteOption {
	return func(d *RouteDescriptor) {
		d.Deprecated = true
	}
}

// WithHandlerName explicitly sets the handler function name.
func WithHandlerName(name string) RouteOption {
	return func(d *RouteDescriptor) {
		d.HandlerName = name
	}
}

// WithParameter declares a handler-scope parameter for the route.
func WithParameter(decl params.Declaration) RouteOption {
	return func(d *RouteDescriptor) {
		decl.Scope = params.ScopeHandler
		d.Declarations = append(d.Declarations, decl)
	}
}

// WithRequestModel binds the JSON request body to a registered model.
func WithRequestModel(model string) RouteOption {
	return func(d *RouteDescriptor) {
		d.RequestModel = model
	}
}

// WithResponseModel names the registered model documented as the response.
func WithResponseModel(model string) RouteOption {
	return func(d *RouteDescriptor) {
		d.ResponseModel = model
	}
}

// RouteRegistry maintains registered routes for introspection and document
// generation.
type RouteRegistry struct {
	mu     sync.RWMutex
	routes []RouteDescriptor
}

// NewRouteRegistry creates an empty route registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{}
}

// Register adds a route descriptor to the registry.
func (r *RouteRegistry) Register(descriptor *RouteDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, cloneDescriptor(descriptor))
}

// Routes returns a copy of all registered routes.
func (r *RouteRegistry) Routes() []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]RouteDescriptor, len(r.routes))
	for i := range r.routes {
		result[i] = cloneDescriptor(&r.routes[i])
	}
	return result
}

// ByPath returns routes registered under a path pattern.
func (r *RouteRegistry) ByPath(path string) []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []RouteDescriptor
	for i := range r.routes {
		if r.routes[i].Path == path {
			result = append(result, cloneDescriptor(&r.routes[i]))
		}
	}
	return result
}

// Count returns the number of registered routes.
func (r *RouteRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// Clear removes all registered routes. Useful for tests.
func (r *RouteRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
}

// OpenAPIRoutes converts the registered routes into the generator's route
// representation.
func (r *RouteRegistry) OpenAPIRoutes() []openapi.Route {
	descriptors := r.Routes()
	routes := make([]openapi.Route, 0, len(descriptors))
	for i := range descriptors {
		d := &descriptors[i]
		routes = append(routes, openapi.Route{
			Method:        d.Method,
			Path:          openAPIPath(d.Path),
			OperationID:   d.HandlerName,
			Summary:       d.Summary,
			Description:   d.Description,
			Tags:          d.Tags,
			Deprecated:    d.Deprecated,
			Params:        d.Table,
			RequestModel:  d.RequestModel,
			ResponseModel: d.ResponseModel,
		})
	}
	return routes
}

// openAPIPath converts an Echo path pattern to OpenAPI template style,
// so /users/:id becomes /users/{id}.
func openAPIPath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

// cloneDescriptor deep-copies slice fields to prevent external mutation.
func cloneDescriptor(d *RouteDescriptor) RouteDescriptor {
	if d == nil {
		return RouteDescriptor{}
	}
	out := *d
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	if d.Declarations != nil {
		out.Declarations = append([]params.Declaration(nil), d.Declarations...)
	}
	return out
}
