// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package supervisor runs Vigil's long-lived components under suture v4.

Services are grouped into layers so that a failure in one layer is
restarted without disturbing the others:

	vigil
	├── maintenance-layer   audit retention, lockout pruning
	├── ingest-layer        violation.detected subscriber
	└── api-layer           HTTP server

Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from the logging package. Service wrappers for components
with other lifecycle shapes live in the services subpackage.

Usage:

	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddIngestService(ingestService)
	return tree.Serve(ctx)
*/
package supervisor
