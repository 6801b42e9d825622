// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /polls/{slug}", middleware.WithLogging(handler))

Every request gets a request_id, taken from X-Request-ID or a fresh UUID. It is
echoed in the response header, available to handlers via RequestID(ctx), and
attached to the start and completion log lines (status, duration_ms).

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST and OPTIONS with the X-Admin-Key, X-Voter-Token,
X-Device-UUID and X-Request-ID headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes exactly one JSON value of at most 1 MiB.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Checks X-Forwarded-For, then X-Real-IP, then RemoteAddr. The result is hashed
with auth.HashIP before it is stored next to a ballot.
*/
package middleware
