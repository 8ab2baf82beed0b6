package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/custom-producer-backend/api/producerhandler"
	"github.com/ruteri/custom-producer-backend/api/server"
	"github.com/ruteri/custom-producer-backend/cmd/flags"
	"github.com/ruteri/custom-producer-backend/config"
	"github.com/ruteri/custom-producer-backend/producers"
	"github.com/urfave/cli/v2"
)

var flagDefinition = &cli.StringFlag{
	Name:    "definition",
	Aliases: []string{"c"},
	Usage:   "YAML producer definition file",
	EnvVars: []string{"PRODUCER_DEFINITION"},
}

var flagProducer = &cli.StringFlag{
	Name:    "producer",
	Usage:   "producer URI (vault://, aws-iam://, ssh://), used when no definition file is given",
	EnvVars: []string{"PRODUCER_URI"},
}

var flagBaseURL = &cli.StringFlag{
	Name:  "base-url",
	Usage: "path prefix of the producer endpoints, used when no definition file is given",
}

var flagBearerToken = &cli.StringFlag{
	Name:    "bearer-token",
	Usage:   "require this bearer token on producer requests, used when no definition file is given",
	EnvVars: []string{"PRODUCER_BEARER_TOKEN"},
}

func main() {
	app := &cli.App{
		Name:  "producer-server",
		Usage: "Serve a custom credential producer",
		Flags: append([]cli.Flag{
			flagDefinition,
			flagProducer,
			flagBaseURL,
			flagBearerToken,
			flags.ListenAddrFlag,
			flags.LogServiceFlagFn("custom-producer"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			def, err := loadDefinition(cCtx)
			if err != nil {
				logger.Error("Failed to load producer definition", "err", err)
				return err
			}

			factory := producers.NewProducerFactory(logger)
			cfg, err := def.HandlerConfig(factory)
			if err != nil {
				logger.Error("Failed to configure producer", "err", err)
				return err
			}

			handler, err := producerhandler.NewHandler(def.Name, cfg, logger)
			if err != nil {
				logger.Error("Invalid producer configuration", "err", err)
				return err
			}

			final := handler.Config()
			logger.Info("Producer configured",
				"name", def.Name,
				"create", final.CreateEndpoint,
				"revoke", final.RevokeEndpoint,
				"rotate", final.RotateEndpoint,
				"canRotate", final.CanRotate)

			srv, err := server.New(flags.ConfigureServer(cCtx, logger), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			srv.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadDefinition(cCtx *cli.Context) (*config.Definition, error) {
	if path := cCtx.String(flagDefinition.Name); path != "" {
		return config.Load(path)
	}

	uri := cCtx.String(flagProducer.Name)
	if uri == "" {
		return nil, errors.New("either --definition or --producer is required")
	}

	return &config.Definition{
		Name:     "producer",
		Producer: uri,
		BaseURL:  cCtx.String(flagBaseURL.Name),
		Auth:     config.Auth{BearerToken: cCtx.String(flagBearerToken.Name)},
	}, nil
}
