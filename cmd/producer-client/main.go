package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ruteri/custom-producer-backend/api/producerhandler"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:  "producer-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "producer address including the base path, e.g. http://127.0.0.1:8080/producers/db",
}
var flagBearerToken = &cli.StringFlag{
	Name:    "bearer-token",
	Usage:   "bearer token to authenticate with",
	EnvVars: []string{"PRODUCER_BEARER_TOKEN"},
}
var flagPayload = &cli.StringFlag{
	Name:  "payload",
	Value: "{}",
	Usage: "payload as a JSON object",
}
var flagID = &cli.StringSliceFlag{
	Name:     "id",
	Required: true,
	Usage:    "credential identifier; repeat to revoke several",
}

func main() {
	app := &cli.App{
		Name:  "producer-client",
		Usage: "Call a custom producer the way the secrets manager does",
		Flags: []cli.Flag{
			flagServerAddr,
			flagBearerToken,
			flagPayload,
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a credential",
				Action: func(cCtx *cli.Context) error {
					client, payload, err := setup(cCtx)
					if err != nil {
						return err
					}
					resp, err := client.Create(cCtx.Context, payload)
					if err != nil {
						return fmt.Errorf("create failed: %w", err)
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "revoke",
				Usage: "revoke credentials",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					client, payload, err := setup(cCtx)
					if err != nil {
						return err
					}
					var ids []any
					for _, id := range cCtx.StringSlice(flagID.Name) {
						ids = append(ids, id)
					}
					resp, err := client.Revoke(cCtx.Context, payload, ids...)
					if err != nil {
						return fmt.Errorf("revoke failed: %w", err)
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "rotate",
				Usage: "rotate a credential",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					client, payload, err := setup(cCtx)
					if err != nil {
						return err
					}
					ids := cCtx.StringSlice(flagID.Name)
					if len(ids) != 1 {
						return fmt.Errorf("rotate takes exactly one --id")
					}
					resp, err := client.Rotate(cCtx.Context, payload, ids[0])
					if err != nil {
						return fmt.Errorf("rotate failed: %w", err)
					}
					return printJSON(resp)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(cCtx *cli.Context) (*producerhandler.Client, map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(cCtx.String(flagPayload.Name)), &payload); err != nil {
		return nil, nil, fmt.Errorf("--payload must be a JSON object: %w", err)
	}

	client := producerhandler.NewClient(cCtx.String(flagServerAddr.Name), nil)
	client.BearerToken = cCtx.String(flagBearerToken.Name)
	return client, payload, nil
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
