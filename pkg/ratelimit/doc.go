// Package ratelimit provides rate limiting for requests against the
// XiaoHongShu web API and the token server.
//
// Available implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Default implementation used by the client
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
package ratelimit
