package api

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// jobRequestSchema describes the POST /etl body. Values are not enumerated
// here: unknown sources and destinations get their own error codes.
func jobRequestSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("source", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("destination", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("dbname", openapi3.NewStringSchema()).
		WithRequired([]string{"source", "destination"})
}

func errorSchema() *openapi3.Schema {
	detail := openapi3.NewObjectSchema().
		WithProperty("code", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithRequired([]string{"code", "message"})
	return openapi3.NewObjectSchema().
		WithProperty("error", detail).
		WithProperty("request_id", openapi3.NewStringSchema()).
		WithRequired([]string{"error"})
}

func runLogSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("job", openapi3.NewStringSchema()).
		WithProperty("request_id", openapi3.NewStringSchema()).
		WithProperty("source", openapi3.NewStringSchema()).
		WithProperty("destination", openapi3.NewStringSchema()).
		WithProperty("dbname", openapi3.NewStringSchema()).
		WithProperty("target", openapi3.NewStringSchema()).
		WithProperty("started_at", openapi3.NewDateTimeSchema()).
		WithProperty("finished_at", openapi3.NewDateTimeSchema()).
		WithProperty("duration_ms", openapi3.NewInt64Schema()).
		WithProperty("status", openapi3.NewStringSchema().WithEnum("success", "error")).
		WithProperty("rows_read", openapi3.NewIntegerSchema()).
		WithProperty("rows_written", openapi3.NewIntegerSchema()).
		WithProperty("multiplier", openapi3.NewFloat64Schema()).
		WithProperty("error", openapi3.NewStringSchema())
}

func jsonResponse(desc string, schema *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchema(schema)}
}

func errorResponses(extra ...int) []openapi3.NewResponsesOption {
	opts := []openapi3.NewResponsesOption{
		openapi3.WithStatus(http.StatusBadRequest, jsonResponse("Invalid request or unsupported source/destination", errorSchema())),
		openapi3.WithStatus(http.StatusTooManyRequests, jsonResponse("Rate limit exceeded", errorSchema())),
		openapi3.WithStatus(http.StatusInternalServerError, jsonResponse("Storage or internal failure", errorSchema())),
	}
	for _, status := range extra {
		opts = append(opts, openapi3.WithStatus(status, jsonResponse(http.StatusText(status), errorSchema())))
	}
	return opts
}

// NewOpenAPI builds the document served at /openapi.json.
func NewOpenAPI(version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	runResult := openapi3.NewObjectSchema().
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("run", runLogSchema())

	sourceSpec := openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema()).
		WithProperty("label", openapi3.NewStringSchema()).
		WithProperty("config_fields", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema()))

	preview := openapi3.NewObjectSchema().
		WithProperty("source", openapi3.NewStringSchema()).
		WithProperty("schema", openapi3.NewObjectSchema()).
		WithProperty("rows", openapi3.NewArraySchema().WithItems(openapi3.NewArraySchema().WithItems(&openapi3.Schema{}))).
		WithProperty("total_rows", openapi3.NewIntegerSchema())

	runETL := &openapi3.Operation{
		OperationID: "runETL",
		Summary:     "Run the pipeline once",
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(jobRequestSchema()),
		},
		Responses: openapi3.NewResponses(append(errorResponses(http.StatusBadGateway, http.StatusGatewayTimeout),
			openapi3.WithStatus(http.StatusOK, jsonResponse("Pipeline completed", runResult)))...),
	}

	preflight := &openapi3.Operation{
		OperationID: "preflightETL",
		Summary:     "CORS preflight",
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK,
			jsonResponse("Preflight allowed", openapi3.NewObjectSchema().WithProperty("message", openapi3.NewStringSchema())))),
	}

	listSources := &openapi3.Operation{
		OperationID: "listETLSources",
		Summary:     "List registered sources",
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK,
			jsonResponse("Registered sources", openapi3.NewArraySchema().WithItems(sourceSpec)))),
	}

	previewSource := &openapi3.Operation{
		OperationID: "previewETLSource",
		Summary:     "Preview a source without transforming or writing",
		Parameters: openapi3.Parameters{
			{Value: openapi3.NewQueryParameter("source").WithRequired(true).WithSchema(openapi3.NewStringSchema())},
			{Value: openapi3.NewQueryParameter("limit").WithSchema(openapi3.NewIntegerSchema())},
		},
		Responses: openapi3.NewResponses(append(errorResponses(http.StatusBadGateway, http.StatusGatewayTimeout),
			openapi3.WithStatus(http.StatusOK, jsonResponse("Schema and leading rows", preview)))...),
	}

	listRuns := &openapi3.Operation{
		OperationID: "listETLRuns",
		Summary:     "List recent runs, newest first",
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK,
			jsonResponse("Recent runs", openapi3.NewArraySchema().WithItems(runLogSchema())))),
	}

	health := &openapi3.Operation{
		OperationID: "health",
		Summary:     "Liveness message",
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Service is running").
				WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"})),
		})),
	}

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "ETL API",
			Version: version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/", &openapi3.PathItem{Get: health}),
			openapi3.WithPath("/etl", &openapi3.PathItem{Post: runETL, Options: preflight}),
			openapi3.WithPath("/etl/sources", &openapi3.PathItem{Get: listSources}),
			openapi3.WithPath("/etl/preview", &openapi3.PathItem{Get: previewSource}),
			openapi3.WithPath("/etl/runs", &openapi3.PathItem{Get: listRuns}),
		),
	}
}
