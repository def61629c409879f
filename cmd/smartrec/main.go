// Copyright 2026 SmartRec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Evilgadron/SmartRec/base/log"
	"github.com/Evilgadron/SmartRec/cmd/version"
	"github.com/Evilgadron/SmartRec/config"
	"github.com/Evilgadron/SmartRec/engine"
	"github.com/Evilgadron/SmartRec/server"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "smartrec",
	Short: "Memory-based collaborative filtering recommender.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version of smartrec.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over RESTful APIs.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		if cmd.Flags().Changed("port") {
			conf.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		shutdown := setupTracing(conf)
		defer shutdown()
		e := loadEngine(ctx, conf)
		s := server.NewRestServer(e, conf)
		if err := s.Serve(ctx); err != nil {
			log.Logger().Fatal("failed to serve", zap.Error(err))
		}
		log.Logger().Info("stop smartrec server successfully")
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	serveCommand.Flags().IntP("port", "p", 0, "port of RESTful APIs")
	rootCommand.AddCommand(versionCommand, serveCommand)
}

func loadConfig(cmd *cobra.Command) *config.Config {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return conf
}

// setupTracing installs the global tracer provider. The returned function
// flushes pending spans.
func setupTracing(conf *config.Config) func() {
	tp, err := conf.Tracing.NewTracerProvider()
	if err != nil {
		log.Logger().Fatal("failed to create trace provider", zap.Error(err))
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return func() {
		if sdkProvider, ok := tp.(*tracesdk.TracerProvider); ok {
			if err := sdkProvider.Shutdown(context.Background()); err != nil {
				log.Logger().Warn("failed to shutdown trace provider", zap.Error(err))
			}
		}
	}
}

func loadEngine(ctx context.Context, conf *config.Config) *engine.Engine {
	e, err := engine.Load(ctx, conf)
	if err != nil {
		log.Logger().Fatal("failed to load engine", zap.Error(err))
	}
	return e
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
