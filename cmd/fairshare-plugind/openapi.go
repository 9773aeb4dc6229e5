// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// updateSchema documents and validates the update RPC's request body. It is
// built programmatically rather than loaded from a YAML file on disk, since
// the daemon ships as a single static binary.
var updateSchema = openapi3.NewObjectSchema().WithProperties(map[string]*openapi3.Schema{
	"banks": openapi3.NewArraySchema().WithItems(
		openapi3.NewObjectSchema().WithProperties(map[string]*openapi3.Schema{
			"name":     openapi3.NewStringSchema(),
			"priority": openapi3.NewFloat64Schema(),
		}),
	),
	"queues": openapi3.NewArraySchema().WithItems(
		openapi3.NewObjectSchema().WithProperties(map[string]*openapi3.Schema{
			"name":                openapi3.NewStringSchema(),
			"priority":            openapi3.NewFloat64Schema(),
			"max_running_jobs":    openapi3.NewIntegerSchema(),
			"max_nodes_per_assoc": openapi3.NewIntegerSchema(),
			"min_nodes_per_job":   openapi3.NewIntegerSchema(),
			"max_nodes_per_job":   openapi3.NewIntegerSchema(),
			"max_time_per_job":    openapi3.NewIntegerSchema(),
		}),
	),
	"associations": openapi3.NewArraySchema().WithItems(
		openapi3.NewObjectSchema().WithProperties(map[string]*openapi3.Schema{
			"userid":            openapi3.NewStringSchema(),
			"bank":              openapi3.NewStringSchema(),
			"fairshare":         openapi3.NewFloat64Schema(),
			"max_run_jobs":      openapi3.NewIntegerSchema(),
			"max_active_jobs":   openapi3.NewIntegerSchema(),
			"max_nodes":         openapi3.NewIntegerSchema(),
			"max_cores":         openapi3.NewIntegerSchema(),
			"max_compute_hours": openapi3.NewFloat64Schema(),
			"active":            openapi3.NewBoolSchema(),
		}).WithRequired([]string{"userid", "bank"}),
	),
}).WithRequired([]string{"banks", "queues", "associations"})

// openapiDocument builds the daemon's OpenAPI 3 document describing the
// update/query JSON RPC payload shapes, served at GET /v1/openapi.json for
// schedulers that generate a typed client against it.
func openapiDocument() *openapi3.T {
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "fairshare-plugind",
			Version: Version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/v1/update", &openapi3.PathItem{
				Post: &openapi3.Operation{
					OperationID: "update",
					RequestBody: &openapi3.RequestBodyRef{
						Value: openapi3.NewRequestBody().WithJSONSchema(updateSchema),
					},
					Responses: openapi3.NewResponses(),
				},
			}),
			openapi3.WithPath("/v1/query", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "query",
					Responses:   openapi3.NewResponses(),
				},
			}),
		),
	}
}

// validateUpdateBody checks a decoded update request body against
// updateSchema before it is translated into priority.UpdateData, catching
// malformed RPC payloads with a structured error instead of a panic deep in
// the translation layer.
func validateUpdateBody(body []byte) error {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("decoding update payload: %w", err)
	}
	return updateSchema.VisitJSON(value)
}

func handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openapiDocument())
}
