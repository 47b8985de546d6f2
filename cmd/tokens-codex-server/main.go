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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/tokens-codex/cmd/tokens-codex-server/app"
)

func main() {
	var (
		configFile string
		port       int
		tlsCert    string
		tlsKey     string
	)

	// Initialize klog flags
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.StringVar(&configFile, "config", "", "Path to the YAML configuration file")
	pflag.IntVar(&port, "port", 0, "Server listen port, overrides the configuration file")
	pflag.StringVar(&tlsCert, "tls-cert", "", "TLS certificate file path")
	pflag.StringVar(&tlsKey, "tls-key", "", "TLS key file path")
	defer klog.Flush()
	pflag.Parse()

	if (tlsCert != "" && tlsKey == "") || (tlsCert == "" && tlsKey != "") {
		klog.Fatal("tls-cert and tls-key must be specified together")
	}

	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		klog.V(2).Infof("Flag: %s, Value: %s", f.Name, f.Value.String())
	})

	cfg, err := app.LoadConfig(configFile, port, tlsCert, tlsKey)
	if err != nil {
		klog.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		klog.Info("Received termination, signaling shutdown")
		cancel()
	}()

	if err := app.NewServer(cfg).Run(ctx); err != nil {
		klog.Errorf("Server exited: %v", err)
		klog.Flush()
		os.Exit(1)
	}
}
