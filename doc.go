// Copyright 2015 WP Technology Inc. All rights reserved.
// Use of this source code is governed by a <TBD>-style
// license that can be found in the LICENSE file.

/*
Package sqsconsumer is a high-level client for an SQS-compatible hosted
message queue. It presents a single managed Consumer that continuously
long-polls a queue, hands messages to the application one at a time through
an event stream, bounds the number of in-flight messages, batches deletes
and sends, and can auto-extend visibility timeouts for long-running
handlers.

Overview

Consumers long-poll in batches sized to the number of free in-flight slots
and emit a Message event for each decoded message. No retry limit is
managed by this package, so use the queue's dead-letter facility for
poison messages.

SQS semantics

The underlying service provides at-least-once delivery with no ordering
guarantee. Receiving a message starts a visibility timeout; if it expires
before the message is deleted, it is redelivered. Long-running handlers
should either delete the message promptly or enable AutoExtendTimeout.

Transport

The Consumer talks to the queue through the Transport interface, not a
concrete SDK client. The transport/awssqs subpackage adapts aws-sdk-go-v2's
SQS client to that interface; tests in this package use a hand-written fake.

Middleware

Deleting messages after successful handling, SNS envelope unwrapping,
concurrency limiting, metrics, and tracing are implemented as handler
decorators in the middleware subpackage. Visibility extension is handled
directly by the Consumer when AutoExtendTimeout is enabled.

Use

See the example package for a demonstration of wiring a Consumer end to end.
*/
package sqsconsumer
