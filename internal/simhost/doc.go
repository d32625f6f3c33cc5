/*
Package simhost is an in-memory windowing host.

A Host keeps the authoritative state the bindings query and mutate:
windows keyed by label, the monitor topology, event listeners per client
connection and OS/app facts. It answers the same plugin:<module>|<op>
commands a real host does, so the bindings can be exercised end to end
without a desktop.

Clients attach in process through Transport or over a websocket through
Server. Events raised while the host lock is held are queued and delivered
after it is released; a listener callback may call back into the host.

Topology files (TOML) describe monitors and startup windows; on X11 the
monitors can be read from RandR instead.
*/
package simhost
