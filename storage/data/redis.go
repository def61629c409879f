// Copyright 2026 SmartRec Project Authors
//
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

package data

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/Evilgadron/SmartRec/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Redis stores ratings as a list of JSON documents and items as a hash from
// item id to title.
type Redis struct {
	storage.TablePrefix
	client *redis.Client
}

// Init does nothing.
func (r *Redis) Init() error {
	return nil
}

func (r *Redis) Ping() error {
	return errors.Trace(r.client.Ping(context.Background()).Err())
}

// Close Redis connection.
func (r *Redis) Close() error {
	return errors.Trace(r.client.Close())
}

func (r *Redis) Purge() error {
	return errors.Trace(r.client.Del(context.Background(), r.RatingsTable(), r.ItemsTable()).Err())
}

func (r *Redis) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	for _, chunk := range lo.Chunk(ratings, batchSize) {
		values := make([]any, 0, len(chunk))
		for _, rating := range chunk {
			data, err := json.Marshal(rating)
			if err != nil {
				return errors.Trace(err)
			}
			values = append(values, data)
		}
		if err := r.client.RPush(ctx, r.RatingsTable(), values...).Err(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (r *Redis) BatchInsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	values := make(map[string]any, len(items))
	for _, item := range items {
		values[strconv.Itoa(item.ItemId)] = item.Title
	}
	return errors.Trace(r.client.HSet(ctx, r.ItemsTable(), values).Err())
}

func (r *Redis) GetRatings(ctx context.Context) ([]Rating, error) {
	var ratings []Rating
	for start := int64(0); ; start += batchSize {
		values, err := r.client.LRange(ctx, r.RatingsTable(), start, start+batchSize-1).Result()
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, value := range values {
			var rating Rating
			if err = json.Unmarshal([]byte(value), &rating); err != nil {
				return nil, errors.Trace(err)
			}
			ratings = append(ratings, rating)
		}
		if len(values) < batchSize {
			return ratings, nil
		}
	}
}

func (r *Redis) GetItems(ctx context.Context) ([]Item, error) {
	values, err := r.client.HGetAll(ctx, r.ItemsTable()).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	items := make([]Item, 0, len(values))
	for key, title := range values {
		itemId, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.Trace(err)
		}
		items = append(items, Item{ItemId: itemId, Title: title})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ItemId < items[j].ItemId
	})
	return items, nil
}
