package errutil

import (
	"github.com/cockroachdb/errors"
)

// CatchSimple runs a sequence of fallible actions and remembers their errors. By
// default, the first error short-circuits every action after it. WithAggregation
// keeps running and combines all errors into one.
type CatchSimple struct {
	errors []error
	opts   catchOpts
}

type catchOpts struct {
	aggregate bool
	hooks     []func(error)
}

type CatchOpt func(o *catchOpts)

// WithAggregation keeps executing actions after an error and combines the results.
func WithAggregation() CatchOpt {
	return func(o *catchOpts) { o.aggregate = true }
}

// WithHooks registers functions called with every caught error.
func WithHooks(hooks ...func(error)) CatchOpt {
	return func(o *catchOpts) { o.hooks = append(o.hooks, hooks...) }
}

func NewCatchSimple(opts ...CatchOpt) *CatchSimple {
	c := &CatchSimple{}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

func (c *CatchSimple) Exec(ca func() error) {
	if !c.opts.aggregate && len(c.errors) > 0 {
		return
	}
	if err := ca(); err != nil {
		for _, h := range c.opts.hooks {
			h(err)
		}
		c.errors = append(c.errors, err)
	}
}

func (c *CatchSimple) Reset() { c.errors = nil }

// Error returns the first caught error, or the combination of all caught errors
// when aggregating.
func (c *CatchSimple) Error() error {
	if len(c.errors) == 0 {
		return nil
	}
	if !c.opts.aggregate {
		return c.errors[0]
	}
	var err error
	for _, e := range c.errors {
		err = errors.CombineErrors(err, e)
	}
	return err
}
