// Package checkpoint provides functionality for saving and resuming crawl progress.
//
// The checkpoint system allows a crawl to resume after interruptions such as
// network failures, rate limits, or manual stops. It tracks:
//   - The pagination cursor and page/note index position
//   - Already fetched note IDs (to avoid duplicates)
//   - Overall progress statistics
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: ~/.local/share/xhsclient/checkpoints/
//   - macOS: ~/Library/Application Support/xhsclient/checkpoints/
//   - Windows: %APPDATA%/xhsclient/checkpoints/
//
// The checkpoint files are saved atomically to prevent corruption and include
// versioning for future compatibility.
package checkpoint
