// Package openapi builds the service's OpenAPI 3.1 document. The route set
// is fixed, so the document is assembled programmatically once at startup
// and served as-is from /openapi.json.
package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document generates the OpenAPI spec for the full HTTP surface.
func Document(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "LogVault API",
			Description: "Schema-governed log ingestion and retrieval.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["apiKey"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "header",
			Name: "X-API-Key",
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"apiKey": {}},
		{"bearerAuth": {}},
	}

	registerComponentSchemas(doc)

	doc.Paths = openapi3.NewPaths()
	addSchemaPaths(doc)
	addLogPaths(doc)
	addAPIKeyPaths(doc)
	addSystemPaths(doc)

	return doc
}

// ─── Component Schemas ──────────────────────────────────────────────────────

func registerComponentSchemas(doc *openapi3.T) {
	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error":      stringProp("Machine-readable error code."),
				"message":    stringProp("Human-readable description."),
				"request_id": stringProp("Correlation ID for this request."),
			},
			Required: []string{"error", "message"},
		},
	}

	doc.Components.Schemas["Schema"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":                uuidProp(),
				"name":              stringProp(""),
				"version":           stringProp("Dotted numeric version, e.g. \"1.2.0\"."),
				"description":       stringProp(""),
				"schema_definition": objectProp("JSON Schema document."),
				"created_at":        timeProp(),
				"updated_at":        timeProp(),
			},
		},
	}

	doc.Components.Schemas["Log"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":         int64Prop(),
				"schema_id":  uuidProp(),
				"log_data":   objectProp("The ingested log payload."),
				"created_at": timeProp(),
			},
		},
	}

	doc.Components.Schemas["CursorMetadata"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"limit":       int32Prop("Page size used for this page."),
				"next_cursor": int64Prop(),
				"prev_cursor": int64Prop(),
				"has_more":    boolProp("Whether more records exist in the scan direction."),
			},
		},
	}

	doc.Components.Schemas["APIKey"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":                    int64Prop(),
				"key_prefix":            stringProp("Display prefix; the secret is never stored."),
				"name":                  stringProp(""),
				"description":           stringProp(""),
				"created_at":            timeProp(),
				"last_used_at":          timeProp(),
				"expires_at":            timeProp(),
				"is_active":             boolProp(""),
				"usage_count":           int64Prop(),
				"allowed_ips":           &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: stringProp("CIDR network.")}},
				"rate_limit_per_second": int32Prop(""),
				"rate_limit_burst":      int32Prop(""),
			},
		},
	}
}

// ─── Path Builders ──────────────────────────────────────────────────────────

func addSchemaPaths(doc *openapi3.T) {
	schemaRef := openapi3.NewSchemaRef("#/components/schemas/Schema", nil)

	listResp := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"items": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: schemaRef},
				},
				"cursor": openapi3.NewSchemaRef("#/components/schemas/CursorMetadata", nil),
			},
		},
	}

	doc.Paths.Set("/api/v1/schemas", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "List schemas",
			OperationID: "list_schemas",
			Parameters: openapi3.Parameters{
				queryParam("cursor", "Schema ID of the pagination boundary.", openapi3.NewStringSchema()),
				queryParam("limit", "Maximum records per page.", int32Schema()),
				queryParam("direction", "\"forward\" (older) or \"backward\" (newer).", openapi3.NewStringSchema()),
				queryParam("name", "Restrict to schemas with this name.", openapi3.NewStringSchema()),
			},
			Responses: newResponses("200", "A page of schemas", listResp),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "Create a schema",
			OperationID: "create_schema",
			RequestBody: jsonBody("Schema to register.", schemaRef),
			Responses:   newResponses("201", "Created schema", schemaRef),
		},
	})

	doc.Paths.Set("/api/v1/schemas/{id}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "Get a schema",
			OperationID: "get_schema",
			Parameters:  openapi3.Parameters{pathParam("id", openapi3.NewUUIDSchema())},
			Responses:   newResponses("200", "The schema", schemaRef),
		},
		Put: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "Update a schema",
			OperationID: "update_schema",
			Parameters:  openapi3.Parameters{pathParam("id", openapi3.NewUUIDSchema())},
			RequestBody: jsonBody("Replacement fields.", schemaRef),
			Responses:   newResponses("200", "Updated schema", schemaRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "Delete a schema",
			Description: "Refuses while logs reference the schema unless force is set.",
			OperationID: "delete_schema",
			Parameters: openapi3.Parameters{
				pathParam("id", openapi3.NewUUIDSchema()),
				queryParam("force", "Also delete the schema's logs.", openapi3.NewBoolSchema()),
			},
			Responses: newResponses("200", "Deleted schema with cascade count", objectSchemaRef()),
		},
	})

	doc.Paths.Set("/api/v1/schemas/by-name/{name}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "Resolve the latest schema version by name",
			OperationID: "get_schema_by_name",
			Parameters:  openapi3.Parameters{pathParam("name", openapi3.NewStringSchema())},
			Responses:   newResponses("200", "The schema", schemaRef),
		},
	})

	doc.Paths.Set("/api/v1/schemas/by-name/{name}/versions/{version}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"schemas"},
			Summary:     "Resolve an exact schema version by name",
			OperationID: "get_schema_by_name_version",
			Parameters: openapi3.Parameters{
				pathParam("name", openapi3.NewStringSchema()),
				pathParam("version", openapi3.NewStringSchema()),
			},
			Responses: newResponses("200", "The schema", schemaRef),
		},
	})
}

func addLogPaths(doc *openapi3.T) {
	logRef := openapi3.NewSchemaRef("#/components/schemas/Log", nil)

	pageResp := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"items": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: logRef},
				},
				"cursor": openapi3.NewSchemaRef("#/components/schemas/CursorMetadata", nil),
			},
		},
	}

	queryBody := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"cursor":     int64Prop(),
				"limit":      int32Prop(""),
				"direction":  stringProp("\"forward\" or \"backward\"."),
				"filters":    objectProp("JSON containment filter: returned logs must be supersets."),
				"date_begin": timeProp(),
				"date_end":   timeProp(),
			},
		},
	}

	listParams := openapi3.Parameters{
		queryParam("cursor", "Log ID of the pagination boundary.", int64Schema()),
		queryParam("limit", "Maximum records per page.", int32Schema()),
		queryParam("direction", "\"forward\" (older) or \"backward\" (newer).", openapi3.NewStringSchema()),
		queryParam("filters", "JSON-encoded containment filter object.", openapi3.NewStringSchema()),
		queryParam("date_begin", "Inclusive lower bound on created_at.", openapi3.NewDateTimeSchema()),
		queryParam("date_end", "Inclusive upper bound on created_at.", openapi3.NewDateTimeSchema()),
	}

	doc.Paths.Set("/api/v1/logs", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"logs"},
			Summary:     "Ingest a log record",
			OperationID: "create_log",
			Parameters: openapi3.Parameters{
				queryParam("validate", "Validate log_data against the schema definition.", openapi3.NewBoolSchema()),
			},
			RequestBody: jsonBody("Log record to ingest.", &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"schema_id": uuidProp(),
						"log_data":  objectProp("The log payload."),
					},
					Required: []string{"schema_id", "log_data"},
				},
			}),
			Responses: newResponses("201", "Created log record", logRef),
		},
	})

	doc.Paths.Set("/api/v1/logs/{id}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"logs"},
			Summary:     "Get a log record",
			OperationID: "get_log",
			Parameters:  openapi3.Parameters{pathParam("id", int64Schema())},
			Responses:   newResponses("200", "The log record", logRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"logs"},
			Summary:     "Delete a log record",
			OperationID: "delete_log",
			Parameters:  openapi3.Parameters{pathParam("id", int64Schema())},
			Responses:   newResponses("200", "Deleted log record", objectSchemaRef()),
		},
	})

	doc.Paths.Set("/api/v1/logs/schemas/{schema_id}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"logs"},
			Summary:     "List a schema's logs",
			OperationID: "list_logs",
			Parameters:  append(openapi3.Parameters{pathParam("schema_id", openapi3.NewUUIDSchema())}, listParams...),
			Responses:   newResponses("200", "A page of logs", pageResp),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"logs"},
			Summary:     "Query a schema's logs",
			Description: "Same listing as GET, with the query carried in the body.",
			OperationID: "query_logs",
			Parameters:  openapi3.Parameters{pathParam("schema_id", openapi3.NewUUIDSchema())},
			RequestBody: jsonBody("Listing parameters.", queryBody),
			Responses:   newResponses("200", "A page of logs", pageResp),
		},
	})

	doc.Paths.Set("/api/v1/logs/schemas/{schema_id}/cursor", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"logs"},
			Summary:     "Get the initial pagination cursor",
			Description: "Returns a cursor one past the newest log; a forward scan from it yields the newest page first.",
			OperationID: "get_initial_cursor",
			Parameters:  openapi3.Parameters{pathParam("schema_id", openapi3.NewUUIDSchema())},
			Responses: newResponses("200", "The initial cursor", &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type:       &openapi3.Types{"object"},
					Properties: openapi3.Schemas{"cursor": int64Prop()},
				},
			}),
		},
	})

	for _, byName := range []struct {
		path   string
		params openapi3.Parameters
		suffix string
	}{
		{
			path:   "/api/v1/logs/by-schema-name/{name}",
			params: openapi3.Parameters{pathParam("name", openapi3.NewStringSchema())},
			suffix: "by_name",
		},
		{
			path: "/api/v1/logs/by-schema-name/{name}/versions/{version}",
			params: openapi3.Parameters{
				pathParam("name", openapi3.NewStringSchema()),
				pathParam("version", openapi3.NewStringSchema()),
			},
			suffix: "by_name_version",
		},
	} {
		doc.Paths.Set(byName.path, &openapi3.PathItem{
			Get: &openapi3.Operation{
				Tags:        []string{"logs"},
				Summary:     "List logs by schema name",
				OperationID: fmt.Sprintf("list_logs_%s", byName.suffix),
				Parameters:  append(append(openapi3.Parameters{}, byName.params...), listParams...),
				Responses:   newResponses("200", "A page of logs", pageResp),
			},
			Post: &openapi3.Operation{
				Tags:        []string{"logs"},
				Summary:     "Query logs by schema name",
				OperationID: fmt.Sprintf("query_logs_%s", byName.suffix),
				Parameters:  byName.params,
				RequestBody: jsonBody("Listing parameters.", queryBody),
				Responses:   newResponses("200", "A page of logs", pageResp),
			},
		})
	}
}

func addAPIKeyPaths(doc *openapi3.T) {
	keyRef := openapi3.NewSchemaRef("#/components/schemas/APIKey", nil)

	doc.Paths.Set("/api/v1/admin/api-keys", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"api-keys"},
			Summary:     "List API keys",
			OperationID: "list_api_keys",
			Parameters: openapi3.Parameters{
				queryParam("expired", "Only keys past expiry but still active.", openapi3.NewBoolSchema()),
			},
			Responses: newResponses("200", "All API keys", &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: keyRef},
			}),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"api-keys"},
			Summary:     "Create an API key",
			Description: "The plaintext secret appears in this response only.",
			OperationID: "create_api_key",
			RequestBody: jsonBody("Key parameters.", objectSchemaRef()),
			Responses:   newResponses("201", "Created key with one-time plaintext", keyRef),
		},
	})

	doc.Paths.Set("/api/v1/admin/api-keys/{id}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"api-keys"},
			Summary:     "Get an API key",
			OperationID: "get_api_key",
			Parameters:  openapi3.Parameters{pathParam("id", int64Schema())},
			Responses:   newResponses("200", "The key", keyRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"api-keys"},
			Summary:     "Delete an API key",
			OperationID: "delete_api_key",
			Parameters:  openapi3.Parameters{pathParam("id", int64Schema())},
			Responses:   newResponses("200", "Deleted key", objectSchemaRef()),
		},
	})

	doc.Paths.Set("/api/v1/admin/api-keys/{id}/rotate", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"api-keys"},
			Summary:     "Rotate an API key",
			Description: "Replaces the secret in place. The old secret stops working immediately.",
			OperationID: "rotate_api_key",
			Parameters:  openapi3.Parameters{pathParam("id", int64Schema())},
			Responses:   newResponses("200", "Rotated key with one-time plaintext", keyRef),
		},
	})
}

func addSystemPaths(doc *openapi3.T) {
	statusResp := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"status":  stringProp(""),
				"version": stringProp(""),
			},
		},
	}

	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Security:    &openapi3.SecurityRequirements{},
			Responses:   newResponses("200", "Process is alive", statusResp),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Readiness probe",
			OperationID: "readyz",
			Security:    &openapi3.SecurityRequirements{},
			Responses:   newResponses("200", "Store is reachable", statusResp),
		},
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func stringProp(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func boolProp(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}, Description: desc}}
}

func objectProp(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}, Description: desc}}
}

func objectSchemaRef() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func uuidProp() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "uuid"}}
}

func timeProp() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}}
}

func int64Prop() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: int64Schema()}
}

func int32Prop(desc string) *openapi3.SchemaRef {
	s := int32Schema()
	s.Description = desc
	return &openapi3.SchemaRef{Value: s}
}

func int64Schema() *openapi3.Schema {
	return &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}
}

func int32Schema() *openapi3.Schema {
	return &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}
}

func queryParam(name, desc string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).WithDescription(desc).WithSchema(schema),
	}
}

func pathParam(name string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter(name).WithSchema(schema),
	}
}

// newResponses builds a Responses map with a success response and the
// standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Unauthorized",
		"404": "Not found",
		"429": "Rate limit exceeded",
		"500": "Internal server error",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}

func jsonBody(desc string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}
