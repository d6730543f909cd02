// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"context"
	"time"
)

// ExecNotificationQuery subscribes to a WQL event query and returns an iterator over the raw
// events.  Each wait for the next event is bounded by the configured poll interval so that a
// cancelled ctx ends the iteration.
func (c *Connection) ExecNotificationQuery(ctx context.Context, query string) (*ObjectIterator, error) {
	ctx, span, entry := c.startOp(ctx, "wmi.ExecNotificationQuery", query)
	entry.Tracef(">>>>> ExecNotificationQuery, wqlQuery=%v", query)

	enum, err := c.services.ExecNotificationQuery(query)
	if err != nil {
		entry.Errorf("Failed IWbemServices::ExecNotificationQuery method, err=%v", err)
		span.SetTag("error", true)
		span.Finish()
		return nil, err
	}
	timeout := c.config.PollInterval
	if timeout <= 0 {
		timeout = DefaultPollInterval
	}
	return &ObjectIterator{ctx: ctx, enum: enum, timeout: timeout, span: span, entry: entry}, nil
}

// RawNotification runs a WQL event query and decodes each event into T
func RawNotification[T any](ctx context.Context, c *Connection, query string) (*ResultIterator[T], error) {
	objects, err := c.ExecNotificationQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return &ResultIterator[T]{objects: objects}, nil
}

// Notification subscribes to the event class of T, polled every within (zero: no WITHIN clause)
func Notification[T any](ctx context.Context, c *Connection, within time.Duration) (*ResultIterator[T], error) {
	return FilteredNotification[T](ctx, c, nil, within)
}

// FilteredNotification subscribes to the event class of T with the given WHERE conditions, e.g.
// {"TargetInstance": FilterIsA("Win32_Process")}
func FilteredNotification[T any](ctx context.Context, c *Connection, filters map[string]FilterValue, within time.Duration) (*ResultIterator[T], error) {
	query, err := BuildNotificationQuery[T](filters, within)
	if err != nil {
		return nil, err
	}
	return RawNotification[T](ctx, c, query)
}

// Subscribe delivers the events of a WQL event query on a channel until ctx is cancelled.  Decode
// failures are delivered as results carrying an error; a subscription failure is delivered once
// and closes the channel.
func Subscribe[T any](ctx context.Context, c *Connection, query string) (<-chan Result[T], error) {
	events, err := RawNotification[T](ctx, c, query)
	if err != nil {
		return nil, err
	}
	return stream(ctx, events, query), nil
}
