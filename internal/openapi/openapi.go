// Package openapi serves the API description of the service.
package openapi

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var source []byte

// Document is an OpenAPI 3.0 document.
type Document struct {
	OpenAPI    string                `yaml:"openapi" json:"openapi"`
	Info       Info                  `yaml:"info" json:"info"`
	Servers    []Server              `yaml:"servers" json:"servers"`
	Tags       []Tag                 `yaml:"tags" json:"tags"`
	Paths      map[string]PathItem   `yaml:"paths" json:"paths"`
	Components Components            `yaml:"components" json:"components"`
	Security   []SecurityRequirement `yaml:"security,omitempty" json:"security,omitempty"`
}

// Info describes the API.
type Info struct {
	Title       string `yaml:"title" json:"title"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Server is a base URL the API is reachable at.
type Server struct {
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Tag groups operations.
type Tag struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// PathItem holds the operations of one path.
type PathItem struct {
	Get    *Operation `yaml:"get,omitempty" json:"get,omitempty"`
	Post   *Operation `yaml:"post,omitempty" json:"post,omitempty"`
	Put    *Operation `yaml:"put,omitempty" json:"put,omitempty"`
	Delete *Operation `yaml:"delete,omitempty" json:"delete,omitempty"`
}

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string                `yaml:"summary" json:"summary"`
	Tags        []string              `yaml:"tags,omitempty" json:"tags,omitempty"`
	Security    []SecurityRequirement `yaml:"security,omitempty" json:"security,omitempty"`
	Parameters  []Parameter           `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *RequestBody          `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   map[string]Response   `yaml:"responses" json:"responses"`
}

// SecurityRequirement maps a security scheme name to its scopes.
type SecurityRequirement map[string][]string

// Parameter describes a query or path parameter.
type Parameter struct {
	Name        string  `yaml:"name" json:"name"`
	In          string  `yaml:"in" json:"in"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool    `yaml:"required" json:"required"`
	Schema      *Schema `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// RequestBody describes an operation's request payload.
type RequestBody struct {
	Required bool                 `yaml:"required" json:"required"`
	Content  map[string]MediaType `yaml:"content" json:"content"`
}

// Response describes one status code of an operation.
type Response struct {
	Description string               `yaml:"description" json:"description"`
	Content     map[string]MediaType `yaml:"content,omitempty" json:"content,omitempty"`
}

// MediaType binds a schema to a content type.
type MediaType struct {
	Schema *Schema `yaml:"schema" json:"schema"`
}

// Schema is the subset of JSON Schema the document uses.
type Schema struct {
	Type       string             `yaml:"type,omitempty" json:"type,omitempty"`
	Format     string             `yaml:"format,omitempty" json:"format,omitempty"`
	Required   []string           `yaml:"required,omitempty" json:"required,omitempty"`
	Properties map[string]*Schema `yaml:"properties,omitempty" json:"properties,omitempty"`
	Items      *Schema            `yaml:"items,omitempty" json:"items,omitempty"`
	MinLength  *int               `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	Default    any                `yaml:"default,omitempty" json:"default,omitempty"`
	Example    any                `yaml:"example,omitempty" json:"example,omitempty"`
}

// Components holds reusable document parts.
type Components struct {
	SecuritySchemes map[string]SecurityScheme `yaml:"securitySchemes" json:"securitySchemes"`
}

// SecurityScheme describes an authentication method.
type SecurityScheme struct {
	Type         string `yaml:"type" json:"type"`
	Scheme       string `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	BearerFormat string `yaml:"bearerFormat,omitempty" json:"bearerFormat,omitempty"`
}

// Options selects the advertised server.
type Options struct {
	Production    bool
	PublicBaseURL string
	HTTPPort      string
}

// New decodes the embedded document and sets its server entry.
func New(opts Options) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode openapi document: %w", err)
	}

	if opts.Production {
		doc.Servers = []Server{{URL: opts.PublicBaseURL, Description: "Production server"}}
	} else {
		port := opts.HTTPPort
		if port == "" {
			port = "3000"
		}
		doc.Servers = []Server{{URL: "http://localhost:" + port, Description: "Development server"}}
	}

	return &doc, nil
}

// JSON renders the document for the docs endpoint.
func (d *Document) JSON() ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi document: %w", err)
	}
	return b, nil
}
