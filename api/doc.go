/*
Package api holds the shared types of the custom producer backend.

The backend exposes a credential lifecycle (create, revoke and optionally
rotate) over HTTP for a secrets-management platform. Subpackages:

  - producerhandler: configuration validation, request dispatch and a client
  - server: HTTP server lifecycle, health and drain endpoints, metrics

Request and response envelopes shared by the handler and the client live in
this package (types.go), as does HTTPServerConfig.
*/
package api
