package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	operations := []string{
		"convert", "trim", "merge", "compress", "extract",
		"split", "volume", "speed", "probe", "download",
	}
	for _, op := range operations {
		FFmpegInvocationsTotal.WithLabelValues(op, "success")
		FFmpegInvocationsTotal.WithLabelValues(op, "error")
		FFmpegInvocationsTotal.WithLabelValues(op, "timeout")
		FFmpegInvocationDuration.WithLabelValues(op)
	}

	for _, q := range []string{"sample_rate", "bitrate", "codec_type", "duration"} {
		ProbesTotal.WithLabelValues(q, "success")
		ProbesTotal.WithLabelValues(q, "error")
	}

	for _, tier := range []string{"container", "stream", "packet_scan", "full_decode", "exhausted"} {
		DurationFallbackTier.WithLabelValues(tier)
	}

	for _, kind := range []string{"merge", "split_time", "split_segments"} {
		PipelinesTotal.WithLabelValues(kind, "success")
		PipelinesTotal.WithLabelValues(kind, "error")
		PipelineDuration.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error"} {
		DownloadsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "record_operation", "recent_operations", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
