package jobview

import (
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/bullboard/internal/domain/model"
)

// ValidateDataQuery reports whether expr is a valid JMESPath expression.
// An empty expression is valid and disables the stage.
func ValidateDataQuery(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return fmt.Errorf("invalid data query %q: %w", expr, err)
	}
	return nil
}

// FilterByDataQuery keeps rows whose data payload yields a truthy result for
// the JMESPath expression. Rows without data, or whose payload is not JSON, see
// a null document. An invalid expression matches nothing; callers validate
// user input with ValidateDataQuery first.
func FilterByDataQuery(rows []model.ResolvedJobRow, expr string) []model.ResolvedJobRow {
	if strings.TrimSpace(expr) == "" {
		return rows
	}
	if ValidateDataQuery(expr) != nil {
		return []model.ResolvedJobRow{}
	}
	return keep(rows, func(r *model.ResolvedJobRow) bool {
		var doc any
		if model.HasValue(r.Data) {
			if err := json.Unmarshal(r.Data, &doc); err != nil {
				doc = nil
			}
		}
		res, err := jmespath.Search(expr, doc)
		if err != nil {
			return false
		}
		return truthy(res)
	})
}

// truthy follows JMESPath truthiness: null, false, "" and empty arrays or objects are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
