package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
)

// parseIntValue returns the integer value of raw or a default.
// It is tolerant of missing/invalid values.
func parseIntValue(raw string, def int) int {
	if v := strings.TrimSpace(raw); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func itoa(i int) string { return strconv.Itoa(i) }

// jobRefFromPath reads the {queue} and {id} path values.
func jobRefFromPath(r *http.Request) (model.JobRef, error) {
	ref := model.JobRef{
		Queue: strings.TrimSpace(r.PathValue("queue")),
		ID:    strings.TrimSpace(r.PathValue("id")),
	}
	if ref.Queue == "" {
		return ref, apperrors.ValidationField("queue", "queue is required")
	}
	if ref.ID == "" {
		return ref, apperrors.ValidationField("id", "job id is required")
	}
	return ref, nil
}
