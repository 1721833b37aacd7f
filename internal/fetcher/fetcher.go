// Package fetcher issues the outbound HTTP requests for census queries.
package fetcher

import "context"

// Response is the status and full body of a completed GET.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries a 200 status.
func (r *Response) OK() bool { return r != nil && r.StatusCode == 200 }

// Getter defines the interface for fetching a URL.
type Getter interface {
	// Get issues a single GET. A non-200 status is not an error; the error
	// return is reserved for transport failures.
	Get(ctx context.Context, url string) (*Response, error)
}

// GetterFunc adapts a function to the Getter interface.
type GetterFunc func(ctx context.Context, url string) (*Response, error)

// Get implements Getter.
func (f GetterFunc) Get(ctx context.Context, url string) (*Response, error) { return f(ctx, url) }
