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

package dataset

import (
	"math"

	"github.com/Evilgadron/SmartRec/base"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// ValueColumn selects the value stored in a UserItemMatrix.
type ValueColumn string

const (
	RatingColumn           ValueColumn = "rating"
	NormalizedRatingColumn ValueColumn = "rating_normalized"
)

// IsDuplicateEntry checks whether an error reports a user rating the same item twice.
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, errors.AlreadyExists)
}

func duplicateEntryError(userId, itemId int) error {
	return errors.AlreadyExistsf("rating of user %d on item %d", userId, itemId)
}

// UserItemMatrix is a sparse matrix of observed values. Rows are users and
// columns are items, both in ascending order of ID. A missing entry means the
// value is unobserved, which is different from an observed zero. The matrix is
// read-only once built.
type UserItemMatrix struct {
	userIndex   *base.Index
	itemIndex   *base.Index
	userRatings []map[int]float64 // user index -> item ID -> value
	itemRatings []map[int]float64 // item index -> user ID -> value
	count       int
}

// NewUserItemMatrix pivots raw ratings into a UserItemMatrix.
func NewUserItemMatrix(ratings []data.Rating) (*UserItemMatrix, error) {
	m := newUserItemMatrix(
		lo.Map(ratings, func(r data.Rating, _ int) int { return r.UserId }),
		lo.Map(ratings, func(r data.Rating, _ int) int { return r.ItemId }))
	for _, r := range ratings {
		if err := m.set(r.UserId, r.ItemId, r.Rating); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewNormalizedUserItemMatrix pivots normalized ratings into a UserItemMatrix
// holding the selected column.
func NewNormalizedUserItemMatrix(ratings []NormalizedRating, column ValueColumn) (*UserItemMatrix, error) {
	if column != RatingColumn && column != NormalizedRatingColumn {
		return nil, errors.NotValidf("value column %q", column)
	}
	m := newUserItemMatrix(
		lo.Map(ratings, func(r NormalizedRating, _ int) int { return r.UserId }),
		lo.Map(ratings, func(r NormalizedRating, _ int) int { return r.ItemId }))
	for _, r := range ratings {
		value := r.Rating.Rating
		if column == NormalizedRatingColumn {
			value = r.RatingNormalized
		}
		if err := m.set(r.UserId, r.ItemId, value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func newUserItemMatrix(userIds, itemIds []int) *UserItemMatrix {
	m := &UserItemMatrix{
		userIndex: base.NewIndex(userIds),
		itemIndex: base.NewIndex(itemIds),
	}
	m.userRatings = make([]map[int]float64, m.userIndex.Len())
	for i := range m.userRatings {
		m.userRatings[i] = make(map[int]float64)
	}
	m.itemRatings = make([]map[int]float64, m.itemIndex.Len())
	for i := range m.itemRatings {
		m.itemRatings[i] = make(map[int]float64)
	}
	return m
}

func (m *UserItemMatrix) set(userId, itemId int, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.NotValidf("value %v of user %d on item %d", value, userId, itemId)
	}
	userRatings := m.userRatings[m.userIndex.ToNumber(userId)]
	if _, exist := userRatings[itemId]; exist {
		return duplicateEntryError(userId, itemId)
	}
	userRatings[itemId] = value
	m.itemRatings[m.itemIndex.ToNumber(itemId)][userId] = value
	m.count++
	return nil
}

// UserIndex returns the index of users (rows).
func (m *UserItemMatrix) UserIndex() *base.Index {
	return m.userIndex
}

// ItemIndex returns the index of items (columns).
func (m *UserItemMatrix) ItemIndex() *base.Index {
	return m.itemIndex
}

// Users returns user IDs in ascending order.
func (m *UserItemMatrix) Users() []int {
	return m.userIndex.GetNames()
}

// Items returns item IDs in ascending order.
func (m *UserItemMatrix) Items() []int {
	return m.itemIndex.GetNames()
}

func (m *UserItemMatrix) CountUsers() int {
	return m.userIndex.Len()
}

func (m *UserItemMatrix) CountItems() int {
	return m.itemIndex.Len()
}

// CountRatings returns the number of observed entries.
func (m *UserItemMatrix) CountRatings() int {
	return m.count
}

func (m *UserItemMatrix) HasUser(userId int) bool {
	return m.userIndex.Contains(userId)
}

func (m *UserItemMatrix) HasItem(itemId int) bool {
	return m.itemIndex.Contains(itemId)
}

// Get returns the observed value of a user on an item.
func (m *UserItemMatrix) Get(userId, itemId int) (float64, bool) {
	userRatings := m.UserRatings(userId)
	if userRatings == nil {
		return 0, false
	}
	value, exist := userRatings[itemId]
	return value, exist
}

// UserRatings returns observed values of a user keyed by item ID, or nil for
// an unknown user. The returned map must not be modified.
func (m *UserItemMatrix) UserRatings(userId int) map[int]float64 {
	if index := m.userIndex.ToNumber(userId); index != base.NotId {
		return m.userRatings[index]
	}
	return nil
}

// ItemRatings returns observed values on an item keyed by user ID, or nil for
// an unknown item. The returned map must not be modified.
func (m *UserItemMatrix) ItemRatings(itemId int) map[int]float64 {
	if index := m.itemIndex.ToNumber(itemId); index != base.NotId {
		return m.itemRatings[index]
	}
	return nil
}

// UnratedItems returns items a user has not rated in ascending order.
func (m *UserItemMatrix) UnratedItems(userId int) []int {
	userRatings := m.UserRatings(userId)
	return lo.Filter(m.Items(), func(itemId int, _ int) bool {
		_, rated := userRatings[itemId]
		return !rated
	})
}
