// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

// Package testinfra provides container-backed infrastructure for
// integration tests, built on testcontainers-go.
//
// The NATS container backs integration tests for the -tags nats ingest
// pipeline against a real external broker rather than the embedded
// server:
//
//	func TestIngestAgainstExternalNATS(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    broker, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, broker)
//
//	    // broker.URL is a nats:// address with JetStream enabled
//	}
//
// Everything here is behind the integration build tag; unit tests never
// pull Docker in.
package testinfra
