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

	"github.com/Evilgadron/SmartRec/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB is the data storage based on MongoDB.
type MongoDB struct {
	storage.TablePrefix
	client *mongo.Client
	dbName string
}

// Init collections and indices in MongoDB.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	// list collections
	collections, err := d.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return errors.Trace(err)
	}
	for _, name := range []string{db.RatingsTable(), db.ItemsTable()} {
		if !lo.Contains(collections, name) {
			if err = d.CreateCollection(ctx, name); err != nil {
				return errors.Trace(err)
			}
		}
	}
	// create index
	_, err = d.Collection(db.RatingsTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"user_id": 1},
	})
	return errors.Trace(err)
}

func (db *MongoDB) Ping() error {
	return errors.Trace(db.client.Ping(context.Background(), nil))
}

// Close connection to MongoDB.
func (db *MongoDB) Close() error {
	return errors.Trace(db.client.Disconnect(context.Background()))
}

func (db *MongoDB) Purge() error {
	ctx := context.Background()
	for _, name := range []string{db.RatingsTable(), db.ItemsTable()} {
		if _, err := db.client.Database(db.dbName).Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// BatchInsertRatings appends ratings. Generated object ids preserve insertion order.
func (db *MongoDB) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	c := db.client.Database(db.dbName).Collection(db.RatingsTable())
	for _, chunk := range lo.Chunk(ratings, batchSize) {
		docs := lo.Map(chunk, func(rating Rating, _ int) any {
			return rating
		})
		if _, err := c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// BatchInsertItems upserts items by item id.
func (db *MongoDB) BatchInsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	c := db.client.Database(db.dbName).Collection(db.ItemsTable())
	var models []mongo.WriteModel
	for _, item := range items {
		models = append(models, mongo.NewUpdateOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"_id": bson.M{"$eq": item.ItemId}}).
			SetUpdate(bson.M{"$set": bson.M{"title": item.Title}}))
	}
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

func (db *MongoDB) GetRatings(ctx context.Context) ([]Rating, error) {
	c := db.client.Database(db.dbName).Collection(db.RatingsTable())
	r, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var ratings []Rating
	for r.Next(ctx) {
		var rating Rating
		if err = r.Decode(&rating); err != nil {
			return nil, errors.Trace(err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, errors.Trace(r.Err())
}

func (db *MongoDB) GetItems(ctx context.Context) ([]Item, error) {
	c := db.client.Database(db.dbName).Collection(db.ItemsTable())
	r, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var items []Item
	if err = r.All(ctx, &items); err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}
