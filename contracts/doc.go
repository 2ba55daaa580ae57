// Package contracts provides optional base types for rendezvous payloads.
//
// Payloads exchanged through a messaging.Registry can be any Go value. Types that
// embed BaseMessage gain:
//   - a generated ID and UTC timestamp
//   - a free-form type tag
//   - a correlation ID, used by BaseReply to link an answer to its request
//
// Interceptors recognise the Message interface and attach these identifiers to
// log lines and metrics.
package contracts
