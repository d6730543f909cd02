// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
)

// Enumerator yields the class objects produced by a query.  Next returns (nil, nil) when the
// enumeration is complete and ErrWaitTimeout when nothing arrived within timeout.  A negative
// timeout waits forever.
type Enumerator interface {
	Next(timeout time.Duration) (Handle, error)
	Close() error
}

// Services is a WMI session bound to one namespace (IWbemServices)
type Services interface {
	ExecQuery(query string) (Enumerator, error)
	ExecNotificationQuery(query string) (Enumerator, error)
	GetObject(path string) (Handle, error)
	ExecMethod(path string, method string, in Handle) (Handle, error)
	Close() error
}

// Connection runs typed queries, notifications and methods over a WMI session
type Connection struct {
	services Services
	config   *Config

	closeOnce sync.Once
	closeErr  error
}

// NewConnection wraps an open session.  A nil config uses DefaultConfig.
func NewConnection(services Services, config *Config) *Connection {
	if config == nil {
		config = DefaultConfig()
	}
	return &Connection{services: services, config: config}
}

// Namespace returns the namespace the connection is bound to
func (c *Connection) Namespace() string {
	return c.config.Namespace
}

// Close releases the session
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.services.Close()
	})
	return c.closeErr
}

// startOp opens a span and a correlation id for one connection level operation
func (c *Connection) startOp(ctx context.Context, op string, query string) (context.Context, opentracing.Span, *log.Entry) {
	span, spanCtx := opentracing.StartSpanFromContext(ctx, op)
	id := uuid.NewV4().String()
	span.SetTag("wmi.namespace", c.config.Namespace)
	span.SetTag("wmi.query_id", id)
	if query != "" {
		span.SetTag("wmi.query", query)
	}
	return spanCtx, span, log.WithSpan(spanCtx).WithFields(log.Fields{
		"queryID":   id,
		"namespace": c.config.Namespace,
	})
}

// ObjectIterator walks the class objects of a query
type ObjectIterator struct {
	ctx     context.Context
	enum    Enumerator
	timeout time.Duration
	span    opentracing.Span
	entry   *log.Entry

	cur   *ClassObject
	err   error
	done  bool
	count int
}

// ExecQuery runs a WQL query and returns an iterator over the raw class objects
func (c *Connection) ExecQuery(ctx context.Context, query string) (*ObjectIterator, error) {
	ctx, span, entry := c.startOp(ctx, "wmi.ExecQuery", query)
	entry.Tracef(">>>>> ExecQuery, wqlQuery=%v", query)

	enum, err := c.services.ExecQuery(query)
	if err != nil {
		entry.Errorf("Failed IWbemServices::ExecQuery method, err=%v", err)
		span.SetTag("error", true)
		span.Finish()
		return nil, err
	}
	return &ObjectIterator{ctx: ctx, enum: enum, timeout: -1, span: span, entry: entry}, nil
}

// Next advances to the next object.  It returns false at the end of the enumeration or after an
// error; Err reports which.
func (it *ObjectIterator) Next() bool {
	it.cur = nil
	if it.done {
		return false
	}
	for {
		if err := it.ctx.Err(); err != nil {
			it.fail(err)
			return false
		}
		h, err := it.enum.Next(it.timeout)
		if errors.Is(err, ErrWaitTimeout) {
			continue
		}
		if err != nil {
			it.fail(err)
			return false
		}
		if h == nil {
			it.finish()
			return false
		}
		it.count++
		it.entry.Tracef("Enumerating WMI class object %v", it.count)
		it.cur = AdoptClassObject(h)
		return true
	}
}

// Object returns the current object.  The caller owns it and must release it.
func (it *ObjectIterator) Object() *ClassObject {
	return it.cur
}

// Err returns the error that ended the iteration, if any
func (it *ObjectIterator) Err() error {
	return it.err
}

// Close ends the iteration early
func (it *ObjectIterator) Close() error {
	if it.done {
		return nil
	}
	it.finish()
	return it.err
}

func (it *ObjectIterator) fail(err error) {
	it.err = err
	it.entry.Errorf("Failed IEnumWbemClassObject::Next method, itemCount=%v, err=%v", it.count, err)
	it.span.SetTag("error", true)
	it.finish()
}

func (it *ObjectIterator) finish() {
	if it.done {
		return
	}
	it.done = true
	if err := it.enum.Close(); err != nil && it.err == nil {
		it.err = err
	}
	it.span.SetTag("wmi.count", it.count)
	it.span.Finish()
	it.entry.Trace("<<<<< ExecQuery")
}

// Result is one decoded row, or the error decoding it
type Result[T any] struct {
	Value T
	Err   error
}

// ResultIterator decodes each object of a query into T.  A row that fails to decode carries its
// own error; the iteration goes on.
type ResultIterator[T any] struct {
	objects *ObjectIterator
	cur     Result[T]
	yielded bool
}

// Next advances to the next row
func (r *ResultIterator[T]) Next() bool {
	if r.objects.Next() {
		o := r.objects.Object()
		var value T
		err := o.Unmarshal(&value)
		o.Release()
		if err != nil {
			r.objects.entry.Errorf("Unable to unmarshal WMI class into Go object, err=%v", err)
			log.LogToSpan(r.objects.ctx, "decode failed", log.Fields{"error": err.Error()})
		}
		r.cur = Result[T]{Value: value, Err: err}
		return true
	}
	// An enumeration failure is reported once, as the last row
	if err := r.objects.Err(); err != nil && !r.yielded {
		r.yielded = true
		r.cur = Result[T]{Err: err}
		return true
	}
	return false
}

// Result returns the current row
func (r *ResultIterator[T]) Result() (T, error) {
	return r.cur.Value, r.cur.Err
}

// Close ends the iteration early
func (r *ResultIterator[T]) Close() error {
	return r.objects.Close()
}

// Rows runs a WQL query and decodes each object into T as it is enumerated
func Rows[T any](ctx context.Context, c *Connection, query string) (*ResultIterator[T], error) {
	objects, err := c.ExecQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return &ResultIterator[T]{objects: objects}, nil
}

// collect drains a ResultIterator.  Rows that fail are left out; their errors are returned
// together with the rows that decoded.
func collect[T any](rows *ResultIterator[T]) ([]T, error) {
	defer rows.Close()
	results := []T{}
	var errs *multierror.Error
	for rows.Next() {
		value, err := rows.Result()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		results = append(results, value)
	}
	return results, errs.ErrorOrNil()
}

// RawQuery runs a WQL query and decodes every object into T
func RawQuery[T any](ctx context.Context, c *Connection, query string) ([]T, error) {
	rows, err := Rows[T](ctx, c, query)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Query selects the fields of T from the class of T
func Query[T any](ctx context.Context, c *Connection) ([]T, error) {
	return FilteredQuery[T](ctx, c, nil)
}

// FilteredQuery selects the fields of T from the class of T with the given WHERE conditions
func FilteredQuery[T any](ctx context.Context, c *Connection, filters map[string]FilterValue) ([]T, error) {
	query, err := BuildQuery[T](filters)
	if err != nil {
		return nil, err
	}
	return RawQuery[T](ctx, c, query)
}

// Get returns the first instance of the class of T, or ErrResultEmpty
func Get[T any](ctx context.Context, c *Connection) (T, error) {
	var zero T
	query, err := BuildQuery[T](nil)
	if err != nil {
		return zero, err
	}
	rows, err := Rows[T](ctx, c, query)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		return zero, ErrResultEmpty
	}
	return rows.Result()
}

// GetRawByPath fetches one object by its WMI object path (e.g. Win32_Process.Handle="4")
func (c *Connection) GetRawByPath(ctx context.Context, path string) (*ClassObject, error) {
	_, span, entry := c.startOp(ctx, "wmi.GetObject", path)
	defer span.Finish()
	entry.Tracef(">>>>> GetRawByPath, path=%v", path)
	defer entry.Trace("<<<<< GetRawByPath")

	h, err := c.services.GetObject(path)
	if err != nil {
		entry.Errorf("Failed IWbemServices::GetObject method, err=%v", err)
		span.SetTag("error", true)
		return nil, err
	}
	return AdoptClassObject(h), nil
}

// GetByPath fetches one object by its WMI object path and decodes it into T
func GetByPath[T any](ctx context.Context, c *Connection, path string) (T, error) {
	var value T
	o, err := c.GetRawByPath(ctx, path)
	if err != nil {
		return value, err
	}
	defer o.Release()
	err = o.Unmarshal(&value)
	return value, err
}

// Associators lists the R instances associated with the object at objectPath through the
// association class A
func Associators[R, A any](ctx context.Context, c *Connection, objectPath string) ([]R, error) {
	query, err := BuildAssociatorsQuery[A, R](objectPath)
	if err != nil {
		return nil, err
	}
	return RawQuery[R](ctx, c, query)
}
