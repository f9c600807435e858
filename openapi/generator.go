package openapi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/schema"
	"github.com/skiffworks/skiff/transfer"
)

// Route is the generator's view of one registered handler.
type Route struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool

	// Params is the merged parameter table for the handler, nil when the
	// handler declares none.
	Params *params.ResolvedTable
	// RequestModel and ResponseModel name registered transfer models; empty
	// means no body or an opaque response.
	RequestModel  string
	ResponseModel string
}

// Config carries the document-level settings.
type Config struct {
	Title       string
	Version     string
	Description string
}

// Generator assembles OpenAPI documents. Paths are built concurrently; the
// schema registry deduplicates named schemas across all of them.
type Generator struct {
	cfg    Config
	models transfer.ModelRegistry
}

// New creates a generator resolving body models against models.
func New(cfg Config, models transfer.ModelRegistry) *Generator {
	return &Generator{cfg: cfg, models: models}
}

// Generate builds the document for the given routes. Route order within a
// path is irrelevant; output maps are keyed and the encoder sorts keys, so
// repeated runs produce identical documents.
func (g *Generator) Generate(ctx context.Context, routes []Route) (*Document, error) {
	doc := &Document{
		OpenAPI: Version,
		Info: Info{
			Title:       g.cfg.Title,
			Version:     g.cfg.Version,
			Description: g.cfg.Description,
		},
		Paths: make(map[string]*PathItem),
	}

	registry := schema.NewRegistry()
	if _, err := registry.Add("ErrorResponse", errorResponseSchema()); err != nil {
		return nil, err
	}

	byPath := make(map[string][]Route)
	paths := make([]string, 0)
	for _, route := range routes {
		if _, ok := byPath[route.Path]; !ok {
			paths = append(paths, route.Path)
		}
		byPath[route.Path] = append(byPath[route.Path], route)
	}
	sort.Strings(paths)

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := g.buildPathItem(byPath[path], registry)
			if err != nil {
				return fmt.Errorf("path %s: %w", path, err)
			}
			mu.Lock()
			doc.Paths[path] = item
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	doc.Components = &Components{Schemas: registry.Schemas()}
	return doc, nil
}

func (g *Generator) buildPathItem(routes []Route, registry *schema.Registry) (*PathItem, error) {
	builder := schema.NewBuilder(registry)
	item := &PathItem{}
	for _, route := range routes {
		op, err := g.buildOperation(route, builder)
		if err != nil {
			return nil, err
		}
		if err := item.setOperation(strings.ToUpper(route.Method), op); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (g *Generator) buildOperation(route Route, builder *schema.Builder) (*Operation, error) {
	op := &Operation{
		OperationID: operationID(route),
		Summary:     summary(route),
		Description: route.Description,
		Tags:        route.Tags,
		Deprecated:  route.Deprecated,
		Responses:   make(map[string]Response),
	}

	if route.Params != nil {
		for _, p := range route.Params.Parameters() {
			op.Parameters = append(op.Parameters, Parameter{
				Name:     p.WireName,
				In:       string(p.Location),
				Required: p.Required || p.Location == params.InPath,
				Schema:   parameterSchema(p),
			})
		}
	}

	if route.RequestModel != "" {
		ref, err := g.bodySchema(route.RequestModel, transfer.DirectionIn, builder)
		if err != nil {
			return nil, err
		}
		op.RequestBody = &RequestBody{
			Required: true,
			Content:  map[string]MediaType{"application/json": {Schema: ref}},
		}
	}

	success := Response{Description: responseDescription(route.Method)}
	if route.ResponseModel != "" {
		ref, err := g.bodySchema(route.ResponseModel, transfer.DirectionOut, builder)
		if err != nil {
			return nil, err
		}
		success.Content = map[string]MediaType{"application/json": {Schema: ref}}
	}
	op.Responses[successStatus(route.Method)] = success
	op.Responses["400"] = Response{
		Description: "Bad Request",
		Content:     map[string]MediaType{"application/json": {Schema: schema.RefTo("ErrorResponse")}},
	}
	return op, nil
}

// bodySchema resolves a model's transfer field set for the given direction
// and registers its named schema.
func (g *Generator) bodySchema(model string, direction transfer.Direction, builder *schema.Builder) (schema.SchemaOrRef, error) {
	fields, err := transfer.NewBuilder(g.models, transfer.Config{Direction: direction}).BuildModel(model)
	if err != nil {
		return nil, err
	}
	return builder.BuildNamed(model, fields)
}

func operationID(route Route) string {
	if route.OperationID != "" {
		return route.OperationID
	}
	cleaned := strings.ReplaceAll(route.Path, "/", "_")
	cleaned = strings.ReplaceAll(cleaned, ":", "")
	cleaned = strings.ReplaceAll(cleaned, "{", "")
	cleaned = strings.ReplaceAll(cleaned, "}", "")
	return strings.ToLower(route.Method) + cleaned
}

func summary(route Route) string {
	if route.Summary != "" {
		return route.Summary
	}
	return strings.ToUpper(route.Method) + " " + route.Path
}

func successStatus(method string) string {
	if strings.EqualFold(method, "POST") {
		return "201"
	}
	return "200"
}

func responseDescription(method string) string {
	switch strings.ToUpper(method) {
	case "POST":
		return "Resource created successfully"
	case "PUT":
		return "Resource updated successfully"
	case "PATCH":
		return "Resource partially updated"
	case "DELETE":
		return "Resource deleted successfully"
	default:
		return "Successful response"
	}
}

func errorResponseSchema() *schema.Node {
	return &schema.Node{
		Type:  schema.TypeObject,
		Title: "ErrorResponse",
		Properties: map[string]schema.SchemaOrRef{
			"error": &schema.Node{
				Type: schema.TypeObject,
				Properties: map[string]schema.SchemaOrRef{
					"code":    &schema.Node{Type: schema.TypeString},
					"message": &schema.Node{Type: schema.TypeString},
				},
				Required: []string{"code", "message"},
			},
			"meta": &schema.Node{Type: schema.TypeObject},
		},
		Required: []string{"error"},
	}
}
