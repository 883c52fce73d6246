// Package exchange implements the payment-request exchange protocol. The
// asynchronous path stores sealed envelopes in the sender's own directory
// for the recipient to discover; the synchronous path delivers a request
// over a direct Noise channel when the recipient is reachable.
package exchange
