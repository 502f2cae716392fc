// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the engine operations over HTTP.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/archscope/engine"
	"github.com/AleutianAI/archscope/weaviate"
)

// HandleExplore runs the structure exploration operation.
func HandleExplore(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req engine.ExploreRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		resp := eng.ExploreStructure(c.Request.Context(), req)
		c.JSON(statusFor(resp.Status, resp.Error), resp)
	}
}

// HandleTrace runs the execution path tracing operation.
func HandleTrace(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req engine.TraceRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		resp := eng.TracePath(c.Request.Context(), req)
		c.JSON(statusFor(resp.Status, resp.Error), resp)
	}
}

// HealthCheck reports process liveness and graph store connectivity.
func HealthCheck(store *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status": "ok",
			"store":  store.GetState().String(),
		}
		if !store.IsAvailable() {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	}
}

// statusFor maps an envelope error code to an HTTP status. The full envelope
// is returned either way; the status is a transport-level summary.
func statusFor(status string, errInfo *engine.ErrorInfo) int {
	if status == engine.StatusOK || errInfo == nil {
		return http.StatusOK
	}
	switch errInfo.Code {
	case engine.CodeInputError:
		return http.StatusBadRequest
	case engine.CodeDependencyUnavailable:
		return http.StatusServiceUnavailable
	case engine.CodeCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
