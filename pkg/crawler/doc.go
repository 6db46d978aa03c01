// Package crawler orchestrates multi-page crawls over the homefeed, search
// results or a user's posted notes. It deduplicates notes through the
// checkpoint package, so an interrupted crawl resumes where it stopped, and
// optionally fans comment fetching out over a worker pool.
package crawler
