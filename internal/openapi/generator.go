// Package openapi builds the OpenAPI 3.1 document describing the student API.
// The surface is fixed, so the document is assembled statically rather than
// introspected.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the spec for the student management API served at baseURL.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Student Management API",
			Description: "REST API for the student roster with JWT bearer authentication.",
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

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"bearerAuth": {}},
	}

	doc.Components.Schemas["Student"] = studentSchema()
	doc.Components.Schemas["StudentInput"] = studentInputSchema()
	doc.Components.Schemas["ErrorResponse"] = errorSchema()
	doc.Components.Schemas["Pagination"] = paginationSchema()

	doc.Paths = openapi3.NewPaths()

	doc.Paths.Set("/auth/login", &openapi3.PathItem{
		Post: loginOperation(),
	})
	doc.Paths.Set("/students", &openapi3.PathItem{
		Get:  listOperation(),
		Post: createOperation(),
	})
	doc.Paths.Set("/students/{id}", &openapi3.PathItem{
		Get:    getOperation(),
		Put:    updateOperation(),
		Delete: deleteOperation(),
	})
	doc.Paths.Set("/health", &openapi3.PathItem{
		Get: healthOperation(),
	})

	return doc
}

func studentSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"id":           intProp("int64"),
		"name":         strProp(),
		"email":        strProp(),
		"age":          intProp("int32"),
		"grade":        strProp(),
		"total_points": intProp("int32"),
		"created_at":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
		"updated_at":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
	}, nil)
}

func studentInputSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"name":         strProp(),
		"email":        &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "email"}},
		"age":          intProp("int32"),
		"grade":        strProp(),
		"total_points": intProp("int32"),
	}, []string{"name", "email", "age", "grade"})
}

func errorSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"error":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
		"message": strProp(),
		"status":  intProp("int32"),
	}, nil)
}

func paginationSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"current_page": intProp("int32"),
		"per_page":     intProp("int32"),
		"total":        intProp("int64"),
		"total_pages":  intProp("int32"),
		"has_next":     &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
		"has_prev":     &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
	}, nil)
}

func loginOperation() *openapi3.Operation {
	op := newOperation("login", "Authenticate and receive a bearer token", "auth")
	op.Security = &openapi3.SecurityRequirements{} // the one unauthenticated route
	op.RequestBody = jsonRequestBody(objectSchema(openapi3.Schemas{
		"email":    strProp(),
		"password": strProp(),
	}, []string{"email", "password"}))
	op.AddResponse(200, jsonResponse("Login successful", objectSchema(openapi3.Schemas{
		"success":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
		"message":    strProp(),
		"token":      strProp(),
		"expires_in": intProp("int32"),
	}, nil)))
	op.AddResponse(401, errorResponse("Invalid credentials"))
	return op
}

func listOperation() *openapi3.Operation {
	op := newOperation("listStudents", "List students with pagination and search", "students")
	op.Parameters = openapi3.Parameters{
		queryParam("page", "Page number (1-based)"),
		queryParam("limit", "Page size, clamped to [1,100]"),
		queryParam("search", "Case-insensitive partial match on name or email"),
	}
	op.AddResponse(200, jsonResponse("One page of students", objectSchema(openapi3.Schemas{
		"success":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
		"data":       arrayOf("#/components/schemas/Student"),
		"pagination": openapi3.NewSchemaRef("#/components/schemas/Pagination", nil),
	}, nil)))
	op.AddResponse(401, errorResponse("Authentication required"))
	return op
}

func getOperation() *openapi3.Operation {
	op := newOperation("getStudent", "Get a single student by id", "students")
	op.Parameters = openapi3.Parameters{idParam()}
	op.AddResponse(200, jsonResponse("The student", openapi3.NewSchemaRef("#/components/schemas/Student", nil)))
	op.AddResponse(400, errorResponse("Invalid student ID"))
	op.AddResponse(404, errorResponse("Student not found"))
	return op
}

func createOperation() *openapi3.Operation {
	op := newOperation("createStudent", "Create a new student", "students")
	op.RequestBody = jsonRequestBody(openapi3.NewSchemaRef("#/components/schemas/StudentInput", nil))
	op.AddResponse(201, jsonResponse("Created", objectSchema(openapi3.Schemas{
		"id": intProp("int64"),
	}, nil)))
	op.AddResponse(400, errorResponse("Validation failure"))
	op.AddResponse(409, errorResponse("Email already exists"))
	return op
}

func updateOperation() *openapi3.Operation {
	op := newOperation("updateStudent", "Replace all fields of a student", "students")
	op.Parameters = openapi3.Parameters{idParam()}
	op.RequestBody = jsonRequestBody(openapi3.NewSchemaRef("#/components/schemas/StudentInput", nil))
	op.AddResponse(200, jsonResponse("Updated", nil))
	op.AddResponse(400, errorResponse("Validation failure"))
	op.AddResponse(404, errorResponse("Student not found"))
	return op
}

func deleteOperation() *openapi3.Operation {
	op := newOperation("deleteStudent", "Soft-delete a student", "students")
	op.Parameters = openapi3.Parameters{idParam()}
	op.AddResponse(200, jsonResponse("Deleted", nil))
	op.AddResponse(404, errorResponse("Student not found"))
	return op
}

func healthOperation() *openapi3.Operation {
	op := newOperation("health", "Liveness check", "system")
	op.AddResponse(200, jsonResponse("Service is healthy", objectSchema(openapi3.Schemas{
		"status":    strProp(),
		"timestamp": intProp("int64"),
		"version":   strProp(),
	}, nil)))
	return op
}

// --- Builders ---

func newOperation(id, summary, tag string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Tags:        []string{tag},
		Responses:   openapi3.NewResponses(),
	}
}

func objectSchema(props openapi3.Schemas, required []string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

func strProp() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func intProp(format string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: format}}
}

func arrayOf(ref string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: openapi3.NewSchemaRef(ref, nil),
		},
	}
}

func idParam() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     "id",
			In:       "path",
			Required: true,
			Schema:   intProp("int64"),
		},
	}
}

func queryParam(name, description string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:        name,
			In:          "query",
			Description: description,
			Schema:      strProp(),
		},
	}
}

func jsonRequestBody(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func jsonResponse(description string, schema *openapi3.SchemaRef) *openapi3.Response {
	resp := openapi3.NewResponse().WithDescription(description)
	if schema != nil {
		resp.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	return resp
}

func errorResponse(description string) *openapi3.Response {
	return jsonResponse(description, openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil))
}
