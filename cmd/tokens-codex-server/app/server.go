/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package app

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/volcano-sh/tokens-codex/pkg/config"
	"github.com/volcano-sh/tokens-codex/pkg/server"
)

type Server struct {
	config *config.Config
}

func NewServer(cfg *config.Config) *Server {
	return &Server{config: cfg}
}

// LoadConfig reads the optional configuration file and applies command line overrides.
// Command line flags win over the file and the environment.
func LoadConfig(path string, port int, tlsCert, tlsKey string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if port != 0 {
		cfg.Port = port
	}
	if tlsCert != "" {
		cfg.TLSCert = tlsCert
		cfg.TLSKey = tlsKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	klog.Infof("Loading tokenizer")
	srv, err := server.New(s.config)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			klog.Errorf("Failed to release server resources: %v", err)
		}
	}()

	srv.SetReady(true)
	return srv.Run(ctx)
}
