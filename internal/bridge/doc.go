/*
Package bridge is the boundary between the bindings and the host runtime.

A Transport carries one JSON command to the host and returns one JSON
result or a RemoteError. Hosts push events back by invoking numbered
callbacks; the Bridge keeps the callback table and routes each delivery
to the function registered under that number.

Command names follow the host's own naming, `plugin:<module>|<op>`, and
are passed through untouched.

Transports:
  - wsbridge: a host reachable over a WebSocket
  - script: a host implemented in JavaScript, run in-process by goja
  - simhost.Transport: the in-memory simulated host used by tests

Errors returned by Invoke are always *errs.HostBridgeError or
*errs.SerializationError.
*/
package bridge
