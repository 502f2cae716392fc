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
	"encoding/json"
	"log"
	"os"

	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/engine"
	"github.com/AleutianAI/archscope/weaviate"
)

// bootstrap wires the graph store client and the engine from the global flags.
func bootstrap() (*weaviate.Client, *engine.Engine) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config %s: %v", configPath, err)
		}
		cfg = loaded
	}

	clientCfg := weaviate.DefaultClientConfig()
	clientCfg.URL = weaviateURL
	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		log.Fatalf("Error creating graph store client: %v", err)
	}

	provider, err := weaviate.NewProvider(client)
	if err != nil {
		log.Fatalf("Error creating graph provider: %v", err)
	}

	eng, err := engine.New(provider, cfg)
	if err != nil {
		log.Fatalf("Error creating engine: %v", err)
	}
	return client, eng
}

// printJSON writes a response envelope to stdout as indented JSON.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Error encoding response: %v", err)
	}
}
