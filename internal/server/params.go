package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Пределы параметров запросов. Значения вне пределов зажимаются, а не
// отклоняются: оверлей не должен падать из-за кривого query.
const (
	minMax        = 1
	maxMaxHTTP    = 200
	maxMaxSniff   = 500
	minTimeoutMs  = 1000
	maxTimeoutMs  = 15000
	minPollMs     = 200
	maxPollMs     = 5000
	minPollCount  = 1
	maxPollCount  = 40
	minListenMs   = 500
	maxListenMs   = 30000
	minIntervalMs = 3000
	maxIntervalMs = 60000
)

// queryInt читает целочисленный параметр, зажимая его в [min, max].
func queryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// queryDurationMs читает параметр-длительность в миллисекундах.
func queryDurationMs(r *http.Request, name string, defMs, minMs, maxMs int) time.Duration {
	return time.Duration(queryInt(r, name, defMs, minMs, maxMs)) * time.Millisecond
}

// queryPrefer разбирает prefer=chat|any; булевы формы истины принимаются
// как синонимы chat.
func queryPrefer(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("prefer")) {
	case "chat", "1", "true", "yes":
		return true
	}
	return false
}

// queryBool трактует "1", "true", "yes" как истину.
func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// queryList разбирает параметр со списком значений через запятую.
func queryList(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
