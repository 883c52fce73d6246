// Package autopay decides whether a discovered payment request may be
// executed without user interaction. The decision itself is a pure
// function of the request and a policy snapshot; the engine only adds
// the snapshot loading on top.
package autopay
