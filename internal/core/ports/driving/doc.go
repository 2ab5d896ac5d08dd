// Package driving defines the interfaces through which the outside world
// drives the core (primary ports). The CLI and HTTP adapters call these;
// core services implement them.
package driving
