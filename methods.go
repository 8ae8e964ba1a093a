package mure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// Resource is the loosely-typed shape mure's per-method convenience constructors accept:
// a URL plus the optional fields a caller would naturally fill in by hand. It is
// validated against a small schema at the construction boundary before being turned into
// a RequestRecord, so a missing url or an unsupported method raises a UsageError
// immediately rather than surfacing as a transport failure mid-run.
type Resource = muretypes.Resource

var (
	schemaOnce     sync.Once
	resourceSchema *jsonschema.Schema
	mixedSchema    *jsonschema.Schema
	schemaErr      error
)

const resourceSchemaJSON = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"url": {"type": "string", "minLength": 1}
	}
}`

const mixedResourceSchemaJSON = `{
	"type": "object",
	"required": ["url", "method"],
	"properties": {
		"url":    {"type": "string", "minLength": 1},
		"method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"]}
	}
}`

// compileSchemas compiles both resource schemas once per process. A compile failure here
// is a bug in the schema literals above, not a caller mistake, so it's cached and
// returned (rather than panicking) the first time a constructor actually needs it.
func compileSchemas() {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("mure://resource.json", mustUnmarshalSchema(resourceSchemaJSON)); err != nil {
		schemaErr = fmt.Errorf("mure: compile resource schema: %w", err)
		return
	}
	if err := compiler.AddResource("mure://mixed-resource.json", mustUnmarshalSchema(mixedResourceSchemaJSON)); err != nil {
		schemaErr = fmt.Errorf("mure: compile mixed resource schema: %w", err)
		return
	}

	resourceSchema, schemaErr = compiler.Compile("mure://resource.json")
	if schemaErr != nil {
		schemaErr = fmt.Errorf("mure: compile resource schema: %w", schemaErr)
		return
	}
	mixedSchema, schemaErr = compiler.Compile("mure://mixed-resource.json")
	if schemaErr != nil {
		schemaErr = fmt.Errorf("mure: compile mixed resource schema: %w", schemaErr)
	}
}

func mustUnmarshalSchema(raw string) any {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic("mure: invalid built-in schema literal: " + err.Error())
	}
	return doc
}

// validateResource checks instance against *schema, returning a UsageError describing the
// first violation. instance is the minimal map the schema actually inspects — only the
// fields that matter for validation, not the whole Resource. schema is read only after
// compileSchemas has run, so the first call in a process sees the compiled schema.
func validateResource(schema **jsonschema.Schema, instance map[string]any, index int) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	if err := (*schema).Validate(instance); err != nil {
		return &UsageError{
			Field:  fmt.Sprintf("requests[%d]", index),
			Reason: err.Error(),
		}
	}
	return nil
}

// buildRecords validates every resource against the single-method schema and converts it
// to a RequestRecord under method. It returns the first UsageError encountered rather
// than launching any request.
func buildRecords(method muretypes.Method, resources []Resource) ([]*muretypes.RequestRecord, error) {
	records := make([]*muretypes.RequestRecord, len(resources))
	for i, r := range resources {
		if err := validateResource(&resourceSchema, map[string]any{"url": r.URL}, i); err != nil {
			return nil, err
		}
		records[i] = r.ToRequestRecord(method)
	}
	return records, nil
}

// Get drives one GET request per resource.
func Get(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	return driveMethod(ctx, muretypes.MethodGet, resources, cfg)
}

// Post drives one POST request per resource.
func Post(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	return driveMethod(ctx, muretypes.MethodPost, resources, cfg)
}

// Put drives one PUT request per resource.
func Put(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	return driveMethod(ctx, muretypes.MethodPut, resources, cfg)
}

// Patch drives one PATCH request per resource.
func Patch(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	return driveMethod(ctx, muretypes.MethodPatch, resources, cfg)
}

// Delete drives one DELETE request per resource.
func Delete(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	return driveMethod(ctx, muretypes.MethodDelete, resources, cfg)
}

// Head drives one HEAD request per resource.
func Head(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	return driveMethod(ctx, muretypes.MethodHead, resources, cfg)
}

func driveMethod(ctx context.Context, method muretypes.Method, resources []Resource, cfg Config) (*Iterator, error) {
	records, err := buildRecords(method, resources)
	if err != nil {
		return nil, err
	}
	return Drive(ctx, records, cfg), nil
}

// Requests drives a mixed batch where each Resource names its own Method — the one entry
// point that requires it. Every resource is validated (url and method both required, and
// method must be one of the six supported verbs) before any request is launched.
func Requests(ctx context.Context, resources []Resource, cfg Config) (*Iterator, error) {
	records := make([]*muretypes.RequestRecord, len(resources))
	for i, r := range resources {
		instance := map[string]any{"url": r.URL, "method": string(r.Method)}
		if err := validateResource(&mixedSchema, instance, i); err != nil {
			return nil, err
		}
		records[i] = r.ToRequestRecord(r.Method)
	}
	return Drive(ctx, records, cfg), nil
}
