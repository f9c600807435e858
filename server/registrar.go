package server

import (
	"github.com/labstack/echo/v4"

	"github.com/skiffworks/skiff/params"
)

// RouteRegistrar abstracts the subset of Echo's routing surface modules
// register against. Registrars form a scope chain: the server root carries
// application-scope parameter declarations, each nested group narrows the
// scope, and handler declarations are merged innermost-wins on top.
type RouteRegistrar interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
	Group(prefix string, declarations ...params.Declaration) RouteRegistrar
	Use(middleware ...echo.MiddlewareFunc)
	FullPath(path string) string

	// Declarations returns the accumulated scope-chain declarations,
	// outermost first.
	Declarations() []params.Declaration
}

type routeGroup struct {
	group  *echo.Group
	prefix string
	scope  params.Scope
	decls  []params.Declaration
}

// newRouteGroup wraps an Echo group at the given scope with inherited
// declarations already stamped.
func newRouteGroup(group *echo.Group, prefix string, scope params.Scope, inherited []params.Declaration) RouteRegistrar {
	return &routeGroup{
		group:  group,
		prefix: prefix,
		scope:  scope,
		decls:  inherited,
	}
}

func (g *routeGroup) Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route {
	return g.group.Add(method, path, handler, middleware...)
}

// Group creates a nested registrar one scope level down. Declarations are
// stamped with the child scope; nesting below controller scope stays at
// controller scope.
func (g *routeGroup) Group(prefix string, declarations ...params.Declaration) RouteRegistrar {
	childScope := g.scope
	if childScope < params.ScopeController {
		childScope++
	}
	child := append([]params.Declaration(nil), g.decls...)
	for _, decl := range declarations {
		decl.Scope = childScope
		child = append(child, decl)
	}
	return newRouteGroup(g.group.Group(prefix), g.prefix+prefix, childScope, child)
}

func (g *routeGroup) Use(middleware ...echo.MiddlewareFunc) {
	g.group.Use(middleware...)
}

// FullPath returns the route path including accumulated group prefixes.
func (g *routeGroup) FullPath(path string) string {
	return g.prefix + path
}

func (g *routeGroup) Declarations() []params.Declaration {
	return append([]params.Declaration(nil), g.decls...)
}
