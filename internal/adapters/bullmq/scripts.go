package bullmq

import "github.com/redis/go-redis/v9"

// Script results below zero signal a precondition failure.
const (
	scriptMissingJob  = -1
	scriptWrongState  = -2
	scriptDuplicateID = -1
)

// addJobScript stores a new job and places it in the container for its options.
//
// KEYS: counter, wait, paused, meta, delayed, prioritized, priority counter, events, marker
// ARGV: key base ("<prefix>:<queue>:"), custom id, name, data, opts, timestamp, delay, priority, lifo
//
// Returns {1, id, state} or {-1, id} when the custom id is taken.
var addJobScript = redis.NewScript(`
local rcall = redis.call
local seq = rcall("INCR", KEYS[1])
local id = ARGV[2]
if id == "" then
  id = tostring(seq)
elseif rcall("EXISTS", ARGV[1] .. id) == 1 then
  return {-1, id}
end
local jobKey = ARGV[1] .. id
rcall("HSET", jobKey, "name", ARGV[3], "data", ARGV[4], "opts", ARGV[5],
  "timestamp", ARGV[6], "delay", ARGV[7], "priority", ARGV[8], "atm", 0)
local delay = tonumber(ARGV[7])
local priority = tonumber(ARGV[8])
local state
if delay > 0 then
  local score = (tonumber(ARGV[6]) + delay) * 0x1000 + bit.band(seq, 0xfff)
  rcall("ZADD", KEYS[5], score, id)
  state = "delayed"
elseif priority > 0 then
  local pc = rcall("INCR", KEYS[7])
  rcall("ZADD", KEYS[6], priority * 0x100000000 + pc, id)
  state = "prioritized"
else
  local target = KEYS[2]
  state = "wait"
  if rcall("HEXISTS", KEYS[4], "paused") == 1 then
    target = KEYS[3]
    state = "paused"
  end
  if ARGV[9] == "1" then
    rcall("RPUSH", target, id)
  else
    rcall("LPUSH", target, id)
  end
end
if state ~= "paused" then
  rcall("ZADD", KEYS[9], 0, "0")
end
rcall("XADD", KEYS[8], "*", "event", "added", "jobId", id, "name", ARGV[3])
return {1, id, state}
`)

// retryJobScript moves a failed job back to wait (or paused) and clears its result fields.
//
// KEYS: failed, wait, paused, meta, job hash, events, marker
// ARGV: id, lifo
var retryJobScript = redis.NewScript(`
local rcall = redis.call
if rcall("EXISTS", KEYS[5]) == 0 then
  return -1
end
if rcall("ZREM", KEYS[1], ARGV[1]) == 0 then
  return -2
end
local target = KEYS[2]
if rcall("HEXISTS", KEYS[4], "paused") == 1 then
  target = KEYS[3]
end
if ARGV[2] == "1" then
  rcall("RPUSH", target, ARGV[1])
else
  rcall("LPUSH", target, ARGV[1])
end
rcall("HDEL", KEYS[5], "finishedOn", "processedOn", "failedReason", "stacktrace", "returnvalue")
if target == KEYS[2] then
  rcall("ZADD", KEYS[7], 0, "0")
end
rcall("XADD", KEYS[6], "*", "event", "waiting", "jobId", ARGV[1], "prev", "failed")
return 1
`)

// removeJobScript deletes a job that is not locked by a worker.
//
// KEYS: job hash, logs, lock, events, list containers..., sorted-set containers...
// ARGV: id, number of list containers
var removeJobScript = redis.NewScript(`
local rcall = redis.call
if rcall("EXISTS", KEYS[1]) == 0 then
  return -1
end
if rcall("EXISTS", KEYS[3]) == 1 then
  return -2
end
local nlists = tonumber(ARGV[2])
for i = 5, #KEYS do
  if i < 5 + nlists then
    rcall("LREM", KEYS[i], 0, ARGV[1])
  else
    rcall("ZREM", KEYS[i], ARGV[1])
  end
end
rcall("DEL", KEYS[1], KEYS[2])
rcall("XADD", KEYS[4], "*", "event", "removed", "jobId", ARGV[1])
return 1
`)

// pauseScript pauses or resumes a queue by moving the wait list and flagging meta.
//
// KEYS: wait, paused, meta, events, marker
// ARGV: "paused" or "resumed"
var pauseScript = redis.NewScript(`
local rcall = redis.call
if ARGV[1] == "paused" then
  if rcall("EXISTS", KEYS[1]) == 1 then
    rcall("RENAME", KEYS[1], KEYS[2])
  end
  rcall("HSET", KEYS[3], "paused", 1)
else
  if rcall("EXISTS", KEYS[2]) == 1 then
    rcall("RENAME", KEYS[2], KEYS[1])
    rcall("ZADD", KEYS[5], 0, "0")
  end
  rcall("HDEL", KEYS[3], "paused")
end
rcall("XADD", KEYS[4], "*", "event", ARGV[1])
return 1
`)

// cleanScript removes every unlocked job in one container.
//
// KEYS: container, events
// ARGV: key base ("<prefix>:<queue>:"), "list" or "zset"
var cleanScript = redis.NewScript(`
local rcall = redis.call
local ids
if ARGV[2] == "list" then
  ids = rcall("LRANGE", KEYS[1], 0, -1)
else
  ids = rcall("ZRANGE", KEYS[1], 0, -1)
end
local removed = 0
for _, id in ipairs(ids) do
  if rcall("EXISTS", ARGV[1] .. id .. ":lock") == 0 then
    rcall("DEL", ARGV[1] .. id, ARGV[1] .. id .. ":logs")
    if ARGV[2] == "list" then
      rcall("LREM", KEYS[1], 0, id)
    else
      rcall("ZREM", KEYS[1], id)
    end
    removed = removed + 1
  end
end
rcall("XADD", KEYS[2], "*", "event", "cleaned", "count", removed)
return removed
`)
