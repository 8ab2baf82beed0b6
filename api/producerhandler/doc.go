/*
Package producerhandler implements the HTTP endpoint of a custom credential
producer: the secrets manager calls it to create, revoke and rotate dynamically
provisioned credentials, while the provisioning itself is done by callables
supplied by the integration.

# Configuration

A Config starts from DefaultConfig and is checked and finalized by NewHandler.
Check reports every problem at once, each prefixed with the handler name:

  - create and revoke callables are required, rotate only when CanRotate is set
  - IDColumnName must name the identifier column of the create result
  - the schema, if any, must normalize and compile
  - parameters declared by a callable must be satisfiable by the schema

Finalize composes the endpoint paths (BaseURL + "/" + endpoint, without
leading or trailing slashes) and is idempotent.

# Endpoints

	POST <base_url>/sync/create  {"payload": "<json object>"}
	POST <base_url>/sync/revoke  {"payload": "<json object>", "ids": [...]}
	POST <base_url>/sync/rotate  {"payload": "<json object>", "id": ...}

Create and rotate answer {"id": ..., "response": {...}}; revoke answers
{"revoked": [...], "message": ""}. Envelope problems yield 400, payload
validation problems 422 with per-field input errors, unknown paths and a
disabled rotate endpoint 404 {"error": "Page not found"}. A callable failure, or
a result without the identifier column, yields 500.
*/
package producerhandler
