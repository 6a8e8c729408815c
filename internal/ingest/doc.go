// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package ingest persists violations published by the detection pipeline.

The pipeline publishes one JSON-encoded violation per message on the
configured topic (violation.detected by default). A Watermill router feeds
each message to Handler, which validates and stores it:

	outcome     ack   metric
	stored      yes   stored
	duplicate   yes   duplicate
	malformed   yes   rejected
	invalid     yes   rejected
	store error no    failed

Malformed and invalid messages are dropped with a warning since
redelivery cannot fix them. Store failures are returned to the router,
retried with backoff and finally nacked so the broker redelivers.

Two subscriber backends exist. NewGoChannel returns an in-process
subscriber used by tests and single-binary deployments that publish
in-process. With the nats build tag, NewNATSSubscriber connects to
JetStream, optionally starting an embedded server first.
*/
package ingest
