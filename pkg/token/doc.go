// Package token talks to the remote token generation server.
//
// The XiaoHongShu web API requires X-S, X-T and X-S-Common request headers
// computed by a closed-source signing algorithm. That algorithm runs on a
// separate token server; this package only fetches the results over HTTPS:
//
//   - POST /api/v1/tokens/xs        -> per-request X-S token and X-T timestamp
//   - POST /api/v1/tokens/xs-common -> X-S-Common token with an expiry,
//     cached locally until it expires
//   - GET  /health                  -> liveness probe
//   - GET  /api/v1/stats            -> server-side generation statistics
//
// Requests authenticate with a Bearer API key and are retried with
// exponential backoff when the failure looks transient.
package token
