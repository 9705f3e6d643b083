package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts a hit in the current window and returns the count
// and the milliseconds left in the window. The first hit starts the window.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return { current, ttl }
`)

// WindowHit records one hit against key in a fixed window of length window.
// It returns the number of hits so far in the window and the time until it resets.
func WindowHit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if client == nil {
		return 0, 0, errNoClient
	}
	res, err := fixedWindowScript.Run(ctx, client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
