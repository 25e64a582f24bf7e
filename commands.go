// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Convenience wrappers. Each maps mechanically to a codec-encoded
// command and a Submit call; none of them add behavior Submit doesn't
// already provide.
package respio

import (
	"context"
	"strconv"

	"github.com/respio/respio/resp"
)

func b(s string) []byte { return []byte(s) }

func (c *Client) Get(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "GET", b(key))
}

func (c *Client) Set(ctx context.Context, key string, value []byte) (resp.Frame, error) {
	return c.Submit(ctx, "SET", b(key), value)
}

func (c *Client) Del(ctx context.Context, keys ...string) (resp.Frame, error) {
	return c.Submit(ctx, "DEL", stringsToBytes(keys)...)
}

func (c *Client) Exists(ctx context.Context, keys ...string) (resp.Frame, error) {
	return c.Submit(ctx, "EXISTS", stringsToBytes(keys)...)
}

func (c *Client) Expire(ctx context.Context, key string, seconds int64) (resp.Frame, error) {
	return c.Submit(ctx, "EXPIRE", b(key), b(strconv.FormatInt(seconds, 10)))
}

func (c *Client) TTL(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "TTL", b(key))
}

func (c *Client) Incr(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "INCR", b(key))
}

func (c *Client) Decr(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "DECR", b(key))
}

func (c *Client) Append(ctx context.Context, key string, value []byte) (resp.Frame, error) {
	return c.Submit(ctx, "APPEND", b(key), value)
}

func (c *Client) Ping(ctx context.Context) (resp.Frame, error) {
	return c.Submit(ctx, "PING")
}

func (c *Client) Echo(ctx context.Context, message string) (resp.Frame, error) {
	return c.Submit(ctx, "ECHO", b(message))
}

func (c *Client) HSet(ctx context.Context, key, field string, value []byte) (resp.Frame, error) {
	return c.Submit(ctx, "HSET", b(key), b(field), value)
}

func (c *Client) HGet(ctx context.Context, key, field string) (resp.Frame, error) {
	return c.Submit(ctx, "HGET", b(key), b(field))
}

func (c *Client) LPush(ctx context.Context, key string, values ...[]byte) (resp.Frame, error) {
	return c.Submit(ctx, "LPUSH", append([][]byte{b(key)}, values...)...)
}

func (c *Client) RPush(ctx context.Context, key string, values ...[]byte) (resp.Frame, error) {
	return c.Submit(ctx, "RPUSH", append([][]byte{b(key)}, values...)...)
}

func (c *Client) LPop(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "LPOP", b(key))
}

func (c *Client) RPop(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "RPOP", b(key))
}

func (c *Client) LLen(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "LLEN", b(key))
}

func (c *Client) SAdd(ctx context.Context, key string, members ...[]byte) (resp.Frame, error) {
	return c.Submit(ctx, "SADD", append([][]byte{b(key)}, members...)...)
}

func (c *Client) SRem(ctx context.Context, key string, members ...[]byte) (resp.Frame, error) {
	return c.Submit(ctx, "SREM", append([][]byte{b(key)}, members...)...)
}

func (c *Client) SMembers(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "SMEMBERS", b(key))
}

func (c *Client) ZAdd(ctx context.Context, key string, score float64, member []byte) (resp.Frame, error) {
	return c.Submit(ctx, "ZADD", b(key), b(strconv.FormatFloat(score, 'f', -1, 64)), member)
}

func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) (resp.Frame, error) {
	return c.Submit(ctx, "ZRANGE", b(key), b(strconv.FormatInt(start, 10)), b(strconv.FormatInt(stop, 10)))
}

func (c *Client) Keys(ctx context.Context, pattern string) (resp.Frame, error) {
	return c.Submit(ctx, "KEYS", b(pattern))
}

func (c *Client) Type(ctx context.Context, key string) (resp.Frame, error) {
	return c.Submit(ctx, "TYPE", b(key))
}

func (c *Client) DBSize(ctx context.Context) (resp.Frame, error) {
	return c.Submit(ctx, "DBSIZE")
}

func (c *Client) FlushDB(ctx context.Context) (resp.Frame, error) {
	return c.Submit(ctx, "FLUSHDB")
}

func (c *Client) FlushAll(ctx context.Context) (resp.Frame, error) {
	return c.Submit(ctx, "FLUSHALL")
}

func (c *Client) Info(ctx context.Context, section string) (resp.Frame, error) {
	if section == "" {
		return c.Submit(ctx, "INFO")
	}
	return c.Submit(ctx, "INFO", b(section))
}

func (c *Client) Auth(ctx context.Context, username, password string) (resp.Frame, error) {
	if username == "" {
		return c.Submit(ctx, "AUTH", b(password))
	}
	return c.Submit(ctx, "AUTH", b(username), b(password))
}

func (c *Client) Select(ctx context.Context, db int) (resp.Frame, error) {
	return c.Submit(ctx, "SELECT", b(strconv.Itoa(db)))
}

func stringsToBytes(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
