package logger

// LogRequest logs HTTP request information
func LogRequest(method, url string, statusCode int, durationMS float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMS,
	}

	if statusCode >= 200 && statusCode < 300 {
		GetLogger().InfoWithFields("HTTP request completed", fields)
	} else if statusCode >= 400 && statusCode < 500 {
		GetLogger().WarnWithFields("HTTP request client error", fields)
	} else if statusCode >= 500 {
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	}
}

// LogTokenFetch logs token server operations
func LogTokenFetch(tokenType string, cached bool, err error) {
	fields := map[string]interface{}{
		"token_type": tokenType,
		"cached":     cached,
	}

	logger := GetLogger().WithFields(fields)

	if err != nil {
		logger.WithError(err).Error("Token fetch failed")
	} else if cached {
		logger.Debug("Token served from cache")
	} else {
		logger.Debug("Token fetched from server")
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogCrawlProgress logs crawl progress
func LogCrawlProgress(source string, fetched, pages int) {
	GetLogger().WithFields(map[string]interface{}{
		"source":  source,
		"fetched": fetched,
		"pages":   pages,
	}).Info("Crawl progress")
}
