// Package bullmq implements core.QueueBackend over the Redis key layout used by BullMQ.
//
// Per queue, under "<prefix>:<queue>":
//
//	:<id>              job hash
//	:<id>:logs         job log list
//	:<id>:lock         worker lock (present while a job is being processed)
//	:wait :active :paused                                    lists of job ids
//	:completed :failed :delayed :prioritized :waiting-children sorted sets of job ids
//	:meta              queue metadata hash ("paused" field)
//	:id                job id counter
//	:events            event stream
//	:marker            worker wake-up marker
package bullmq

import (
	"strings"

	"github.com/target/bullboard/internal/domain/model"
)

// DefaultPrefix is the BullMQ key prefix used when none is configured.
const DefaultPrefix = "bull"

// Container states as named in Redis keys.
const (
	StateWait            = "wait"
	StateActive          = "active"
	StatePaused          = "paused"
	StateCompleted       = "completed"
	StateFailed          = "failed"
	StateDelayed         = "delayed"
	StatePrioritized     = "prioritized"
	StateWaitingChildren = "waiting-children"
)

type containerKind int

const (
	kindList containerKind = iota
	kindZSet
)

type container struct {
	state string
	kind  containerKind
}

// containers lists every state the board reads, in display order.
var containers = []container{
	{StateWait, kindList},
	{StateActive, kindList},
	{StatePaused, kindList},
	{StateCompleted, kindZSet},
	{StateFailed, kindZSet},
	{StateDelayed, kindZSet},
	{StatePrioritized, kindZSet},
	{StateWaitingChildren, kindZSet},
}

func containerFor(state string) (container, bool) {
	for _, c := range containers {
		if c.state == state {
			return c, true
		}
	}
	return container{}, false
}

// StateForStatus maps a display status to its container state ("waiting" is stored as "wait").
func StateForStatus(status string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == model.StatusWaiting {
		s = StateWait
	}
	if _, ok := containerFor(s); !ok {
		return "", false
	}
	return s, true
}

// StatusForState maps a container state to the display status.
func StatusForState(state string) string {
	if state == StateWait {
		return model.StatusWaiting
	}
	return state
}

// keys builds Redis keys for one queue.
type keys struct {
	base string
}

func newKeys(prefix, queue string) keys {
	return keys{base: prefix + ":" + queue}
}

func (k keys) job(id string) string { return k.base + ":" + id }
func (k keys) logs(id string) string { return k.base + ":" + id + ":logs" }
func (k keys) lock(id string) string { return k.base + ":" + id + ":lock" }
func (k keys) state(state string) string { return k.base + ":" + state }
func (k keys) meta() string { return k.base + ":meta" }
func (k keys) counter() string { return k.base + ":id" }
func (k keys) events() string { return k.base + ":events" }
func (k keys) marker() string { return k.base + ":marker" }
func (k keys) priorityCounter() string { return k.base + ":pc" }

// queueFromKey extracts the queue name from "<prefix>:<queue><suffix>".
func queueFromKey(key, prefix, suffix string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix+":")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, suffix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
