// Package sheetbridge provides an embeddable backend for browser clients
// that read remote spreadsheet documents.
//
// A Bridge owns three things: a registry of transport clients keyed by scope,
// a bounded store of documents whose worksheet lists are fetched once and
// then served from memory, and a channel service that gives every websocket
// connection its own relay to one shared message processor.
//
// # Basic Usage
//
//	b, err := sheetbridge.New(sheetbridge.DefaultConfig(),
//	    sheetbridge.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8787", b.Handler())
//
// # Transport Clients
//
// Requests for a document's worksheet feed go through the first client found
// in this order: a client bound to the document, the client registered for
// the "spreadsheets" scope, the client registered for the "default" scope,
// and finally an unauthenticated client built for that request alone.
// Tokens from [Config] are registered at New; plugins may replace them
// later through [PluginConfig.Clients].
//
// # Plugins
//
// Plugins are initialized in registration order by Start and shut down in
// reverse order by Stop.
package sheetbridge
