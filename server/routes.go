// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/archscope/engine"
	"github.com/AleutianAI/archscope/weaviate"
)

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, eng *engine.Engine, store *weaviate.Client) {
	router.GET("/health", HealthCheck(store))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/explore", HandleExplore(eng))
		v1.POST("/trace", HandleTrace(eng))
	}
}
