// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [TransportClient]: issues one request and returns a status-coded response
//   - [ClientProvider]: offers a TransportClient for a scope, if it has one
//   - [Processor]: handles one message from a connection and produces a reply
//   - [Connection]: one live client connection carrying messages
//   - [ConnectionListener]: host capability that delivers inbound connections
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// HTTP and websocket code.
package ports
