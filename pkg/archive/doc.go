// Package archive persists raw API responses to disk as JSON files, one
// file per response, named {apiType}_{unixms}.json. The archive plugs into
// the client through the xhs.ResponseRecorder interface.
package archive
