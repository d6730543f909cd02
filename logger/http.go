// Copyright 2020 Hewlett Packard Enterprise Development LP

package logger

import (
	"net/http"
	"runtime"
	"time"
)

// HTTPLogger : wrapper for http logging
func HTTPLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panicked := true
		defer func() {
			if panicked {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				sourced().Errorf("HTTPLogger: panic serving %v:\n%s", name, buf)
			}
		}()

		sourced().Infof(">>>>> %s %s - %s", r.Method, r.RequestURI, name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		sourced().Infof("<<<<< %s %s - %s %s", r.Method, r.RequestURI, name, time.Since(start))

		panicked = false
	})
}
