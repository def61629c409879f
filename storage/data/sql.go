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
	"database/sql"

	"github.com/Evilgadron/SmartRec/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLRating is a rating row. The surrogate id keeps insertion order and lets
// duplicated ratings survive the round trip.
type SQLRating struct {
	Id        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	UserId    int     `gorm:"column:user_id;index"`
	ItemId    int     `gorm:"column:item_id"`
	Rating    float64 `gorm:"column:rating"`
	Timestamp int64   `gorm:"column:time_stamp"`
}

// SQLItem is an item row.
type SQLItem Item

// SQLDatabase stores ratings and items in MySQL, PostgreSQL or SQLite.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Init creates tables if not exist.
func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	if err := db.Table(d.RatingsTable()).AutoMigrate(&SQLRating{}); err != nil {
		return errors.Trace(err)
	}
	if err := db.Table(d.ItemsTable()).AutoMigrate(&SQLItem{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Ping() error {
	return errors.Trace(d.client.Ping())
}

func (d *SQLDatabase) Close() error {
	return errors.Trace(d.client.Close())
}

// Purge deletes all ratings and items.
func (d *SQLDatabase) Purge() error {
	for _, table := range []string{d.RatingsTable(), d.ItemsTable()} {
		if err := d.gormDB.Exec("DELETE FROM " + table).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	rows := lo.Map(ratings, func(rating Rating, _ int) SQLRating {
		return SQLRating{
			UserId:    rating.UserId,
			ItemId:    rating.ItemId,
			Rating:    rating.Rating,
			Timestamp: rating.Timestamp,
		}
	})
	err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).CreateInBatches(rows, batchSize).Error
	return errors.Trace(err)
}

// BatchInsertItems inserts items, replacing titles of existing items.
func (d *SQLDatabase) BatchInsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := lo.Map(items, func(item Item, _ int) SQLItem {
		return SQLItem(item)
	})
	err := d.gormDB.WithContext(ctx).Table(d.ItemsTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title"}),
	}).CreateInBatches(rows, batchSize).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) GetRatings(ctx context.Context) ([]Rating, error) {
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLRating, _ int) Rating {
		return Rating{
			UserId:    row.UserId,
			ItemId:    row.ItemId,
			Rating:    row.Rating,
			Timestamp: row.Timestamp,
		}
	}), nil
}

func (d *SQLDatabase) GetItems(ctx context.Context) ([]Item, error) {
	var rows []SQLItem
	if err := d.gormDB.WithContext(ctx).Table(d.ItemsTable()).Order("item_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLItem, _ int) Item {
		return Item(row)
	}), nil
}
