// Package openapi assembles OpenAPI 3.1 documents from route metadata,
// resolved parameter tables and transfer schemas.
package openapi

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/skiffworks/skiff/schema"
)

// Version is the OpenAPI specification version emitted in documents.
const Version = "3.1.0"

// Document is a complete OpenAPI document.
type Document struct {
	OpenAPI    string               `yaml:"openapi" json:"openapi"`
	Info       Info                 `yaml:"info" json:"info"`
	Paths      map[string]*PathItem `yaml:"paths" json:"paths"`
	Components *Components          `yaml:"components,omitempty" json:"components,omitempty"`
}

// Info is the document info section.
type Info struct {
	Title       string `yaml:"title" json:"title"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Components holds the named schemas registered during generation.
type Components struct {
	Schemas map[string]*schema.Node `yaml:"schemas,omitempty" json:"schemas,omitempty"`
}

// PathItem groups the operations registered under one path.
type PathItem struct {
	Get    *Operation `yaml:"get,omitempty" json:"get,omitempty"`
	Post   *Operation `yaml:"post,omitempty" json:"post,omitempty"`
	Put    *Operation `yaml:"put,omitempty" json:"put,omitempty"`
	Patch  *Operation `yaml:"patch,omitempty" json:"patch,omitempty"`
	Delete *Operation `yaml:"delete,omitempty" json:"delete,omitempty"`
	Head   *Operation `yaml:"head,omitempty" json:"head,omitempty"`
}

// setOperation stores an operation under its HTTP method. Registering the
// same method twice on one path is a caller error.
func (p *PathItem) setOperation(method string, op *Operation) error {
	var slot **Operation
	switch method {
	case "GET":
		slot = &p.Get
	case "POST":
		slot = &p.Post
	case "PUT":
		slot = &p.Put
	case "PATCH":
		slot = &p.Patch
	case "DELETE":
		slot = &p.Delete
	case "HEAD":
		slot = &p.Head
	default:
		return fmt.Errorf("unsupported HTTP method %q", method)
	}
	if *slot != nil {
		return fmt.Errorf("duplicate %s operation", method)
	}
	*slot = op
	return nil
}

// Operation describes one HTTP operation.
type Operation struct {
	OperationID string              `yaml:"operationId,omitempty" json:"operationId,omitempty"`
	Summary     string              `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string            `yaml:"tags,omitempty" json:"tags,omitempty"`
	Deprecated  bool                `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Parameters  []Parameter         `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *RequestBody        `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   map[string]Response `yaml:"responses" json:"responses"`
}

// Parameter describes one path, query, header or cookie parameter.
type Parameter struct {
	Name     string             `yaml:"name" json:"name"`
	In       string             `yaml:"in" json:"in"`
	Required bool               `yaml:"required,omitempty" json:"required,omitempty"`
	Schema   schema.SchemaOrRef `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// RequestBody describes the JSON request body of an operation.
type RequestBody struct {
	Required bool                 `yaml:"required,omitempty" json:"required,omitempty"`
	Content  map[string]MediaType `yaml:"content" json:"content"`
}

// MediaType pairs a content type with its schema.
type MediaType struct {
	Schema schema.SchemaOrRef `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Response describes one response status of an operation.
type Response struct {
	Description string               `yaml:"description" json:"description"`
	Content     map[string]MediaType `yaml:"content,omitempty" json:"content,omitempty"`
}

// Encode writes the document as YAML with two-space indentation.
func (d *Document) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close YAML encoder: %w", err)
	}
	return nil
}

// YAML renders the document as a YAML string.
func (d *Document) YAML() (string, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
