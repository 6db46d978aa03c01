// Package xhs provides a client for the XiaoHongShu web API.
//
// The web API requires two signing headers, X-S and X-S-Common, whose
// generation algorithm is obfuscated in the site's frontend JavaScript.
// This package does not implement the signing itself; it delegates to a
// token server through the TokenProvider interface (see pkg/token).
//
// A Client is built from browser-exported cookies (see pkg/cookies) and
// offers one method pair per endpoint: a Fetch* method that performs a
// single request, and a higher-level helper that handles pagination:
//
//	client, err := xhs.New(ctx, cfg, log)
//	if err != nil {
//		log.Fatal(err)
//	}
//	posts, err := client.GetHomefeedPosts(ctx, 50)
//
// All methods take a context and return typed errors from pkg/errors, so
// callers can distinguish stale cookies (auth) from rate limiting or
// server trouble.
package xhs
