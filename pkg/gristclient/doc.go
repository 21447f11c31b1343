// Package gristclient provides the primary entry point for constructing a
// Grist API client that implements the grist.Client interface.
//
// It layers configuration resolution and HTTP transport on top of the
// resource interfaces and types defined in the grist package. Most
// applications should import gristclient to build a client, then use the
// returned grist.Client to access resource-specific clients, for example
// Docs(), Records(), Attachments(), etc.
//
// Quick start
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
//
//	  // Minimal: everything from GRIST_* variables and the config file.
//	  cli, err := gristclient.New(nil)
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an API key and team site spelled out:
//	  cli, err = gristclient.New(&grist.Config{
//	    APIKey:   "your-api-key",
//	    TeamSite: "myteam",
//	    DocID:    "8g7f9dqpXkQLq4DpJ4NRgo",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the grist.Client interface. The empty
//	  // docID addresses the DocID configured above.
//	  records, err := cli.Records().List(ctx, "", "Invoices", nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = records
//	}
//
// # Configuration
//
// Every setting resolves through four layers: built-in defaults, the
// JSON config file (~/.gristapi/config.json by default), GRIST_*
// environment variables, and the explicit grist.Config fields, each
// layer beating the one before it. See the grist.Configurator docs for
// the full key list.
//
// # Self-hosted servers
//
// Setting Config.SelfManagedHome switches the client to self-managed
// URLs. The home URL is normalized here: a trailing slash is dropped
// and a missing scheme defaults to https.
//
// # Helpers
//
// The package also provides convenience constructors NewWithAPIKey,
// NewWithTeamSite, NewWithSelfManaged, and NewWithDoc that wrap New
// with the appropriate configuration.
package gristclient
