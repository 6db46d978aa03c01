// Package logger provides a structured logging interface for the XiaoHongShu client.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "xhsclient/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/xhsclient.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Client started")
//	logger.WithField("note_id", noteID).Info("Fetching comments")
//	logger.WithError(err).Error("Token server unreachable")
package logger
