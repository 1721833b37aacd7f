package census

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/zcta-census/internal/table"
)

// StateColumn is the geography column dropped from every result; the
// scope fixes it to a single value.
const StateColumn = "state"

// ParseResponse converts a Census API body into a table. The API returns a
// JSON array of arrays: [[header], [row1], [row2], ...].
func ParseResponse(body []byte) (*table.Table, error) {
	var raw [][]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrapf(ErrParse, "unmarshal JSON: %v", err)
	}

	t, err := table.FromRows(raw)
	if err != nil {
		return nil, eris.Wrapf(ErrParse, "%v", err)
	}

	return t.Drop(StateColumn), nil
}
