package census

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/zcta-census/internal/fetcher"
	"github.com/sells-group/zcta-census/internal/table"
)

const maxErrorBody = 200

// Confirm asks whether a failed query should be attempted again.
type Confirm func(ctx context.Context, topic string) (bool, error)

// Options configures a Session.
type Options struct {
	BaseURL string // defaults to DefaultBaseURL
	APIKey  string
	Scope   Scope // defaults to CookCounty()
}

// Session is one query against the Census API. The query is built on the
// first call to Retrieve and reused verbatim by every later attempt.
// A Session is not safe for concurrent use.
type Session struct {
	id     uuid.UUID
	getter fetcher.Getter
	opts   Options
	log    *zap.Logger

	request  Request
	topic    string
	query    string
	failed   bool
	attempts int
}

// NewSession creates an empty session that fetches through getter.
func NewSession(getter fetcher.Getter, opts Options) *Session {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if len(opts.Scope.ZCTAs) == 0 {
		opts.Scope = CookCounty()
	} else {
		opts.Scope = opts.Scope.Clone()
	}
	id := uuid.New()
	return &Session{
		id:     id,
		getter: getter,
		opts:   opts,
		log:    zap.L().With(zap.String("component", "census.session"), zap.String("session_id", id.String())),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Built reports whether a query has been built.
func (s *Session) Built() bool { return s.query != "" }

// Topic returns the dataset topic recorded when the query was built.
func (s *Session) Topic() string { return s.topic }

// Query returns the built query, including the API key.
func (s *Session) Query() string { return s.query }

// Failed reports whether the most recent attempt did not succeed.
func (s *Session) Failed() bool { return s.failed }

// Attempts returns the number of requests issued so far.
func (s *Session) Attempts() int { return s.attempts }

// Retrieve builds the query on first use, fetches it, and returns the
// response as a table with the state column removed.
//
// Once built, the query is fixed for the life of the session: a later call
// with different arguments reuses the stored query and logs the arguments
// it ignored. Use a new Session for a different query.
func (s *Session) Retrieve(ctx context.Context, req Request) (*table.Table, error) {
	if s.query == "" {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		s.request = req
		s.request.Variables = slices.Clone(req.Variables)
		s.topic = req.Topic
		s.query = BuildQuery(s.opts.BaseURL, s.opts.Scope, s.opts.APIKey, req)
		s.log.Debug("built census query",
			zap.String("topic", s.topic),
			zap.Int("year", req.Year),
			zap.String("dataset", req.Dataset),
			zap.Strings("variables", req.Variables),
		)
	} else if !req.Equal(s.request) {
		s.log.Warn("query already built for session; ignoring new arguments",
			zap.String("topic", s.topic),
			zap.Int("ignored_year", req.Year),
			zap.String("ignored_dataset", req.Dataset),
			zap.Strings("ignored_variables", req.Variables),
			zap.String("ignored_unit", req.Unit),
			zap.String("ignored_topic", req.Topic),
		)
	}

	return s.attempt(ctx)
}

// RetryRetrieval re-attempts the stored query until it succeeds or confirm
// declines another attempt. It returns ErrNoQuery without any request when
// nothing has been built, and ErrDeclined when confirm says no. Errors other
// than ErrRetrieval end the loop immediately.
func (s *Session) RetryRetrieval(ctx context.Context, confirm Confirm) (*table.Table, error) {
	if s.query == "" {
		s.log.Info("no query has yet been made to re-attempt")
		return nil, ErrNoQuery
	}

	for {
		t, err := s.attempt(ctx)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrRetrieval) {
			return nil, err
		}

		again := false
		if confirm != nil {
			again, err = confirm(ctx, s.topic)
			if err != nil {
				return nil, eris.Wrap(err, "census: confirm retry")
			}
		}
		if !again {
			s.log.Info(fmt.Sprintf("continuing without %s dataset", s.topic), zap.String("topic", s.topic))
			return nil, eris.Wrapf(ErrDeclined, "continuing without %s dataset", s.topic)
		}
	}
}

// String summarizes the session. The API key is redacted.
func (s *Session) String() string {
	if s.query == "" {
		return "No query has yet been made with this session."
	}
	return fmt.Sprintf("Query topic: Census %s dataset\nQuery: %s\nRetrieval error: %t",
		s.topic, redactKey(s.query), s.failed)
}

func (s *Session) attempt(ctx context.Context) (*table.Table, error) {
	s.attempts++

	resp, err := s.getter.Get(ctx, s.query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ctx.Err(), "census: %s query cancelled", s.topic)
		}
		s.failed = true
		s.log.Warn("census query failed", zap.String("topic", s.topic), zap.Error(err))
		return nil, &RetrievalError{Topic: s.topic, Err: err}
	}

	if !resp.OK() {
		s.failed = true
		s.log.Warn("census query returned error status",
			zap.String("topic", s.topic),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", s.attempts),
		)
		return nil, &RetrievalError{Topic: s.topic, StatusCode: resp.StatusCode, Body: errorBody(resp.Body)}
	}

	s.failed = false
	s.log.Info(fmt.Sprintf("retrieved %s data from Census Bureau API", s.topic),
		zap.String("topic", s.topic),
		zap.Int("attempt", s.attempts),
	)

	t, err := ParseResponse(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "census: %s response", s.topic)
	}
	return t, nil
}

// errorBody keeps at most maxErrorBody bytes of b, cut on a rune boundary.
func errorBody(b []byte) string {
	if len(b) <= maxErrorBody {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	i := maxErrorBody
	for i > 0 && !utf8.RuneStart(b[i]) {
		i--
	}
	return strings.ToValidUTF8(string(b[:i]), "\uFFFD")
}
