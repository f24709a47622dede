/*
Package stathub implements a small real-time broker for cluster telemetry.

Agents connect over a persistent WebSocket, subscribe to named channels,
and publish jobs on the privileged "stats" channel. Jobs are executed
against MongoDB by a fixed-size worker pool with FIFO backpressure; the
other channels are pure fan-out subscription registries.

# Architecture

Three coupled pieces do the real work:

  - The dispatcher owns the worker pool and the request queue. A submitted
    job is handed to the first idle worker in pool order, or appended to
    the unbounded FIFO queue when every worker is busy. When a worker
    reports completion the queue head, if any, is assigned to that same
    worker in one step.

  - The channel registry maps the fixed channel set to ordered subscriber
    sets. Subscribing is idempotent and acknowledged once; a closing
    connection is removed from every channel. Frames on the intake channel
    become jobs; they are never fanned out.

  - The connection supervisor decodes one JSON frame per inbound message
    and runs the liveness protocol: a ping every period, termination when
    a probe goes unanswered, worst-case detection latency of two periods.

Workers communicate with the dispatcher only through assignment and
completion channels. A handler error or panic is reported in the
completion signal and the worker stays usable; failed jobs are logged and
dropped, never retried.

# Usage

Run a broker with default settings:

	settings := stathub.DefaultSettings()
	settings.PoolSize = 8

	broker, err := stathub.New(settings)
	if err != nil {
		log.Fatal(err)
	}

	if err := broker.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

Agents then publish frames such as:

	{"message_type": 0, "channel": "stats", "request": "insert",
	 "data": {"cluster_id": "c-42", "nodes": 3, "cpu_percent": 51.0}}

MONGODB_URI and REDIS_URL environment variables are honored by
DefaultSettings.
*/
package stathub
