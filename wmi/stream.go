// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"context"
	"errors"

	log "github.com/hpe-storage/wmiclient/logger"
)

// stream delivers the rows of it on a channel, closed once the rows are exhausted or ctx is
// cancelled.  A cancelled ctx ends the stream without an error row.
func stream[T any](ctx context.Context, rows *ResultIterator[T], query string) <-chan Result[T] {
	ch := make(chan Result[T])
	go func() {
		defer close(ch)
		defer rows.Close()
		for rows.Next() {
			value, err := rows.Result()
			if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				log.Tracef("Result stream stopped, query=%v", query)
				return
			}
			select {
			case ch <- Result[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// RawQueryStream runs a WQL query and delivers each decoded row on a channel as it is enumerated.
// The channel is closed after the last row; an enumeration failure arrives as the last Result.
func RawQueryStream[T any](ctx context.Context, c *Connection, query string) (<-chan Result[T], error) {
	rows, err := Rows[T](ctx, c, query)
	if err != nil {
		return nil, err
	}
	return stream(ctx, rows, query), nil
}

// QueryStream streams the fields of T from the class of T
func QueryStream[T any](ctx context.Context, c *Connection) (<-chan Result[T], error) {
	return FilteredQueryStream[T](ctx, c, nil)
}

// FilteredQueryStream streams the fields of T from the class of T with the given WHERE conditions
func FilteredQueryStream[T any](ctx context.Context, c *Connection, filters map[string]FilterValue) (<-chan Result[T], error) {
	query, err := BuildQuery[T](filters)
	if err != nil {
		return nil, err
	}
	return RawQueryStream[T](ctx, c, query)
}
