// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/archscope/server"
	"github.com/AleutianAI/archscope/weaviate"
)

// runServe starts the HTTP API server.
func runServe(cmd *cobra.Command, args []string) {
	client, eng := bootstrap()

	if ensureSchema {
		if err := weaviate.EnsureSchema(context.Background(), client); err != nil {
			log.Fatalf("Error ensuring graph schema: %v", err)
		}
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("archscope-service"))

	server.SetupRoutes(router, eng, client)

	log.Println("Starting the archscope server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
