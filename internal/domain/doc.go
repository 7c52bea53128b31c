// Package domain contains the core value types and errors for sheetbridge.
//
// It has no dependencies on infrastructure concerns (HTTP, websockets,
// logging) and is shared by every other layer.
//
// # Types
//
//   - [FeedEntry]: one raw entry of a remote spreadsheet's worksheet feed
//   - [WorksheetSummary]: the wire form of a worksheet sent to UI clients
//   - [Message]: the envelope relayed between a connection and the processor
//
// # Errors
//
// Sentinel errors are checked with errors.Is. [RemoteFetchError],
// [TransportFailure] and [DecodeError] carry details and are checked with
// errors.As.
package domain
