// Package producer is the send-side client: it assigns sortable message ids
// and pushes payloads through a broker.
package producer
