// Package main (cmd/producer-server) serves a custom credential producer.
//
// The producer is described by a YAML definition file (see package config)
// naming the secrets backend as a URI, the endpoint layout, the payload schema
// and an optional bearer token. The server exposes create, revoke and, when
// enabled, rotate next to the usual health and drain endpoints, and serves
// Prometheus metrics on a separate address.
//
// The server shuts down gracefully on SIGINT/SIGTERM.
//
// Example usage:
//
//	producer-server --definition=./producer.yaml \
//	    --listen-addr=0.0.0.0:8080 \
//	    --metrics-addr=0.0.0.0:8090
//
// A definition can also be replaced by a bare producer URI:
//
//	producer-server --producer=ssh://?comment=deploy --bearer-token=$TOKEN
package main
