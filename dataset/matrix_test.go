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
	"testing"

	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestUserItemMatrix(t *testing.T) {
	m, err := NewUserItemMatrix([]data.Rating{
		{UserId: 3, ItemId: 20, Rating: 4},
		{UserId: 1, ItemId: 10, Rating: 5},
		{UserId: 1, ItemId: 30, Rating: 0},
		{UserId: 2, ItemId: 20, Rating: 3},
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, m.Users())
	assert.Equal(t, []int{10, 20, 30}, m.Items())
	assert.Equal(t, 3, m.CountUsers())
	assert.Equal(t, 3, m.CountItems())
	assert.Equal(t, 4, m.CountRatings())
	assert.True(t, m.HasUser(2))
	assert.False(t, m.HasUser(4))
	assert.True(t, m.HasItem(30))
	assert.False(t, m.HasItem(40))

	value, ok := m.Get(1, 10)
	assert.True(t, ok)
	assert.Equal(t, 5.0, value)
	// an observed zero is not missing
	value, ok = m.Get(1, 30)
	assert.True(t, ok)
	assert.Zero(t, value)
	_, ok = m.Get(1, 20)
	assert.False(t, ok)
	_, ok = m.Get(4, 10)
	assert.False(t, ok)

	assert.Equal(t, map[int]float64{10: 5, 30: 0}, m.UserRatings(1))
	assert.Equal(t, map[int]float64{2: 3, 3: 4}, m.ItemRatings(20))
	assert.Nil(t, m.UserRatings(4))
	assert.Nil(t, m.ItemRatings(40))
	assert.Equal(t, []int{20}, m.UnratedItems(1))
	assert.Equal(t, []int{10, 30}, m.UnratedItems(2))
	assert.Equal(t, 1, m.UserIndex().ToNumber(2))
	assert.Equal(t, 2, m.ItemIndex().ToNumber(30))
}

func TestUserItemMatrixDuplicate(t *testing.T) {
	_, err := NewUserItemMatrix([]data.Rating{
		{UserId: 1, ItemId: 10, Rating: 5},
		{UserId: 1, ItemId: 10, Rating: 3},
	})
	assert.True(t, IsDuplicateEntry(err))
	assert.Contains(t, err.Error(), "rating of user 1 on item 10")
}

func TestUserItemMatrixNonFinite(t *testing.T) {
	for _, value := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewUserItemMatrix([]data.Rating{{UserId: 1, ItemId: 10, Rating: value}})
		assert.True(t, errors.Is(err, errors.NotValid), value)
	}
}

func TestUserItemMatrixEmpty(t *testing.T) {
	m, err := NewUserItemMatrix(nil)
	assert.NoError(t, err)
	assert.Empty(t, m.Users())
	assert.Empty(t, m.Items())
	assert.Zero(t, m.CountRatings())
}

func TestNormalizedUserItemMatrix(t *testing.T) {
	normalized, _ := Normalize([]data.Rating{
		{UserId: 1, ItemId: 1, Rating: 5},
		{UserId: 1, ItemId: 2, Rating: 3},
		{UserId: 2, ItemId: 1, Rating: 2},
	})
	raw, err := NewNormalizedUserItemMatrix(normalized, RatingColumn)
	assert.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 5, 2: 3}, raw.UserRatings(1))
	centered, err := NewNormalizedUserItemMatrix(normalized, NormalizedRatingColumn)
	assert.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 1, 2: -1}, centered.UserRatings(1))
	assert.Equal(t, map[int]float64{1: 0}, centered.UserRatings(2))

	_, err = NewNormalizedUserItemMatrix(normalized, "timestamp")
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewNormalizedUserItemMatrix(append(normalized, normalized[0]), RatingColumn)
	assert.True(t, IsDuplicateEntry(err))
}
