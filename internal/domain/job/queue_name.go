package job

import (
	"encoding/json"
	"strings"

	"github.com/target/bullboard/internal/domain/model"
)

// DefaultPrefix is the BullMQ key namespace used in qualified queue names.
const DefaultPrefix = "bull"

// ResolveQueueName maps a record to its display queue name using the default "bull:" prefix.
func ResolveQueueName(rec *model.RawJobRecord) string {
	return ResolveQueueNameWithPrefix(rec, DefaultPrefix)
}

// ResolveQueueNameWithPrefix maps a record to its display queue name:
//
//  1. qualified name "<prefix>:rest" gives rest, or unknown when rest is blank
//  2. qualified name without the prefix is returned verbatim; an empty one gives unknown
//  3. queueName
//  4. data.queueName, then queue (string or {name})
//  5. unknown
//
// Only the fixed prefix is stripped; "bull:a:b" resolves to "a:b".
func ResolveQueueNameWithPrefix(rec *model.RawJobRecord, prefix string) string {
	if rec == nil {
		return model.UnknownQueue
	}
	if rec.QueueQualifiedName != nil {
		return fromQualifiedName(*rec.QueueQualifiedName, prefix)
	}
	if rec.QueueName != nil && *rec.QueueName != "" {
		return *rec.QueueName
	}
	if name := queueNameFromData(rec.Data); name != "" {
		return name
	}
	if rec.Queue != nil && rec.Queue.Name != "" {
		return rec.Queue.Name
	}
	return model.UnknownQueue
}

// QualifiedName builds the "<prefix>:<queue>" form understood by ResolveQueueNameWithPrefix.
func QualifiedName(prefix, queue string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":" + queue
}

func fromQualifiedName(qualified, prefix string) string {
	if qualified == "" {
		return model.UnknownQueue
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	rest, ok := strings.CutPrefix(qualified, prefix+":")
	if !ok {
		return qualified
	}
	if strings.TrimSpace(rest) == "" {
		return model.UnknownQueue
	}
	return rest
}

func queueNameFromData(data json.RawMessage) string {
	if !model.HasValue(data) {
		return ""
	}
	var payload struct {
		QueueName any `json:"queueName"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	name, ok := payload.QueueName.(string)
	if !ok {
		return ""
	}
	return name
}
