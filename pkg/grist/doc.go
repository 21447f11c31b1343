// Package grist provides types, interfaces, and helpers for working with the
// Grist REST API.
//
// # Overview
//
// The grist package defines the domain types (e.g., Org, Workspace, Doc,
// Record, Webhook) and the interfaces for resource-oriented clients (e.g.,
// DocsClient, RecordsClient). A concrete implementation of these clients is
// provided by the gristclient package, which wires configuration resolution
// and HTTP transport. Most consumers should import gristclient to construct a
// client and then interact with the resource client interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/gridworks-io/grist/pkg/grist"
//	  "github.com/gridworks-io/grist/pkg/gristclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := gristclient.New(&grist.Config{APIKey: "your-api-key", TeamSite: "myteam"})
//	  if err != nil { log.Fatal(err) }
//
//	  // List the rows of a table, sorted and capped
//	  records, err := cli.Records().List(ctx, "docid", "Invoices",
//	    grist.NewListOptions().WithSort("-Date").WithLimit(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = records
//	}
//
// # Configuration
//
// The Configurator resolves GRIST_* settings through four layers: built-in
// defaults, the JSON config file, environment variables, and in-process
// overrides. The resolved snapshot is live; Reconfig and UpdateConfig on a
// client change the behavior of its next call. ObfuscateKey and DumpConfig
// render configuration without leaking the API key.
//
// # Sessions and diagnostics
//
// Every client keeps a TransactionRecord of its last call: state, request,
// response, and status. Inspect renders it for debugging. SetDryRun stops
// calls short of the wire, and GRIST_SAFEMODE blocks every write at the
// client. Both leave a fully built record behind for inspection.
//
// # Errors
//
// API failures are represented by StatusError (a completed call with a bad
// status, payload attached) and TransportError (no response at all, with a
// synthetic 52x classification). Helpers such as IsNotFound, IsUnauthorized,
// and IsWriteBlocked make it easy to branch on common cases. With
// GRIST_RAISE_ERROR=N bad statuses are not returned as errors; callers then
// watch the transaction record instead.
//
// # Converters
//
// ConverterMap holds per table and column cell converters. Outbound
// converters run before a write and abort it on failure; inbound converters
// run on received cells and degrade to the raw value when a cell is outside
// the converter domain.
//
// # Interceptors, caching and batching
//
// The package includes generic building blocks such as request/response
// interceptors (for logging, auth headers, metrics, rate limiting, circuit
// breaking), a pluggable Cache abstraction with in-memory, NATS and tiered
// implementations, and a BatchExecutor for running many row operations
// concurrently. Applications compose these on top of a constructed client.
package grist
