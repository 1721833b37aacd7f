// Package census retrieves ZCTA-level data for a fixed geography from the
// Census Bureau data API and turns each response into a table.
package census

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the Census Bureau data API root.
const DefaultBaseURL = "https://api.census.gov/data"

// Request holds the parameters of one dataset query.
type Request struct {
	Year      int      `yaml:"year"`
	Dataset   string   `yaml:"dataset"`   // e.g. "acs/acs5"
	Variables []string `yaml:"variables"` // e.g. ["NAME", "B01001_001E"]
	Unit      string   `yaml:"unit"`      // e.g. "zip code tabulation area"
	Topic     string   `yaml:"topic"`     // label used in messages only
}

// Validate checks that every field needed to build a query is present.
func (r Request) Validate() error {
	switch {
	case r.Year <= 0:
		return eris.Wrapf(ErrInvalidRequest, "year must be positive, got %d", r.Year)
	case strings.TrimSpace(r.Dataset) == "":
		return eris.Wrap(ErrInvalidRequest, "dataset is required")
	case strings.TrimSpace(r.Unit) == "":
		return eris.Wrap(ErrInvalidRequest, "unit is required")
	case len(r.Variables) == 0:
		return eris.Wrap(ErrInvalidRequest, "at least one variable is required")
	}
	for i, v := range r.Variables {
		if strings.TrimSpace(v) == "" {
			return eris.Wrapf(ErrInvalidRequest, "variable %d is empty", i)
		}
	}
	return nil
}

// Equal reports whether r and o describe the same query.
func (r Request) Equal(o Request) bool {
	return r.Year == o.Year &&
		r.Dataset == o.Dataset &&
		r.Unit == o.Unit &&
		r.Topic == o.Topic &&
		slices.Equal(r.Variables, o.Variables)
}

// BuildQuery assembles the request URL:
//
//	{base}/{year}/{dataset}?get={vars}&for={unit}:{zctas}&in=state:{state}&key={key}
//
// Values are joined verbatim; nothing is escaped.
func BuildQuery(baseURL string, scope Scope, apiKey string, req Request) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString("/")
	b.WriteString(strconv.Itoa(req.Year))
	b.WriteString("/")
	b.WriteString(req.Dataset)
	b.WriteString("?get=")
	b.WriteString(strings.Join(req.Variables, ","))
	b.WriteString("&for=")
	b.WriteString(req.Unit)
	b.WriteString(":")
	b.WriteString(strings.Join(scope.ZCTAs, ","))
	fmt.Fprintf(&b, "&in=state:%d", scope.State)
	b.WriteString("&key=")
	b.WriteString(apiKey)
	return b.String()
}

// redactKey masks the value of the key parameter in a built query.
func redactKey(query string) string {
	i := strings.LastIndex(query, "&key=")
	if i < 0 {
		return query
	}
	return query[:i] + "&key=REDACTED"
}
