// Package completion issues single chat completion requests and classifies
// their outcome.
//
// An [Issuer] picks a prompt, sends one POST to the completions URL and
// turns the exchange into a [metrics.Outcome]:
//
//   - HTTP 200: Success, latency recorded, tokens read from usage.total_tokens.
//   - any other status: HTTP failure, latency recorded, no tokens.
//   - no response (dial, TLS, timeout, body read): transport failure, no latency.
//
// Latency is measured from just before the request is sent until the response
// body has been fully read. Requests are never retried.
package completion
