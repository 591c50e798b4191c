// Package sailthru wires the Sailthru marketing platform into the sync
// engine's stream ports.
//
// The platform exposes two record acquisition paths and this package
// implements both:
//
//   - Synchronous REST reads through the signed form protocol, driven
//     by the Paginator for endpoints that page their results.
//   - Asynchronous export jobs through the JobManager, which submits a
//     job, polls it to completion and hands the export location to the
//     Decoder for streaming CSV decode.
//
// The stream catalog covers accounts, blasts, blast stats, blast query
// exports, lists, list stats, list member exports and user profiles,
// wired into the parent/child hierarchy the sync engine walks.
//
// All requests are signed with the account's key and secret and pass
// through a shared rate limiter that combines proactive throttling
// with the platform's X-Rate-Limit response headers.
package sailthru
