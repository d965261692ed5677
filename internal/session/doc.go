// Package session runs the client-side lifecycle of a signed-in session:
// the inactivity timeout, the remember-token expiry sweep, and the server
// heartbeat. Browser globals are replaced by small abstractions (Clock,
// ActivityBus, KVStore, Environment) so every timer and listener can be
// driven and inspected from tests.
package session
