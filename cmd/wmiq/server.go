// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

const (
	errorMessageEmptyQuery   = "empty query passed in the request"
	errorMessageInvalidBody  = "invalid request body: "
	errorMessageQueryFailure = "query failed: "
)

// Route describes one endpoint of the query server
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Response is the body of every reply
type Response struct {
	Data interface{} `json:"data,omitempty"`
	Err  interface{} `json:"errors,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Message string `json:"message"`
	// HResult is set when WMI itself rejected the call
	HResult uint32 `json:"hresult,omitempty"`
}

// QueryRequest is the body of POST /query
type QueryRequest struct {
	Namespace string `json:"namespace,omitempty"`
	Query     string `json:"query"`
}

type connectFunc func(ctx context.Context, config *wmi.Config) (*wmi.Connection, error)

// server answers WQL queries, opening one session per request
type server struct {
	mu      sync.RWMutex
	config  *wmi.Config
	connect connectFunc
}

// currentConfig returns a copy of the session settings in use
func (s *server) currentConfig() wmi.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.config
}

// setConfig replaces the session settings used by later requests
func (s *server) setConfig(config *wmi.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

// NewRouter creates a new mux.Router serving s
func (s *server) NewRouter() *mux.Router {
	routes := []Route{
		///////////////////////////////////////////////////////////////////////////////////////////
		// Endpoint:  		POST /query
		// Description: 	Runs a WQL query, in the configured namespace unless one is given
		// Input Object:	{"namespace": "ROOT\\CIMV2", "query": "SELECT Name FROM Win32_Process"}
		// Output Object:	Array of objects, one per WMI instance
		// Sample Output:
		// {
		//     "data": [
		//         { "Name": "System Idle Process" },
		//         { "Name": "System" }
		//     ]
		// }
		///////////////////////////////////////////////////////////////////////////////////////////
		{
			Name:        "Query",
			Method:      "POST",
			Pattern:     "/query",
			HandlerFunc: s.query,
		},
	}

	router := mux.NewRouter().StrictSlash(true)
	for _, route := range routes {
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(log.HTTPLogger(route.HandlerFunc, route.Name))
	}
	return router
}

func (s *server) query(w http.ResponseWriter, r *http.Request) {
	var resp Response
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, resp, errors.New(errorMessageInvalidBody+err.Error()), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		handleError(w, resp, errors.New(errorMessageEmptyQuery), http.StatusBadRequest)
		return
	}

	config := s.currentConfig()
	if req.Namespace != "" {
		config.Namespace = req.Namespace
	}
	rows, err := runQuery(r.Context(), s.connect, &config, req.Query)
	if err != nil {
		status := http.StatusInternalServerError
		var nce *wmi.NativeCallError
		if errors.As(err, &nce) && nce.HResult == wmi.WBEM_E_INVALID_QUERY {
			status = http.StatusBadRequest
		} else if wmi.IsNotSupported(err) || wmi.IsNotFound(err) {
			status = http.StatusNotFound
		}
		handleError(w, resp, err, status)
		return
	}
	resp.Data = rows
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// runQuery opens a session, runs query and closes the session
func runQuery(ctx context.Context, connect connectFunc, config *wmi.Config, query string) ([]map[string]interface{}, error) {
	conn, err := connect(ctx, config)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return wmi.RawQuery[map[string]interface{}](ctx, conn, query)
}

func handleError(w http.ResponseWriter, resp Response, err error, statusCode int) {
	log.Error("Err :", err.Error())
	info := ErrorInfo{Message: err.Error()}
	var nce *wmi.NativeCallError
	if errors.As(err, &nce) {
		info.HResult = nce.HResult
	}
	if statusCode == http.StatusInternalServerError && info.HResult == 0 {
		info.Message = errorMessageQueryFailure + info.Message
	}
	resp.Err = info
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
