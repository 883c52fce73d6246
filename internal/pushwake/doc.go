// Package pushwake implements the push-relay client used to wake a
// sleeping peer so it can stand up a Noise responder.
//
// Device push tokens are registered with the relay privately; waking a peer
// names only its public identity, so tokens never appear in the directory.
// Every request is authenticated by signing the canonical string
//
//	method:path:timestamp:bodyHash
//
// with the caller's long-term identity key and attaching signature,
// timestamp and identity as headers. A 429 from the relay is surfaced as
// domain.RateLimitedError carrying the server's Retry-After, which callers
// must honor before retrying.
package pushwake
