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
	"testing"

	"github.com/Evilgadron/SmartRec/base"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func generateRatings(numUsers int, countOf func(userId int) int) []data.Rating {
	var ratings []data.Rating
	for userId := numUsers; userId > 0; userId-- {
		for itemId := 0; itemId < countOf(userId); itemId++ {
			ratings = append(ratings, data.Rating{
				UserId: userId,
				ItemId: itemId,
				Rating: float64(1 + (userId+itemId)%5),
			})
		}
	}
	return ratings
}

func TestSplit(t *testing.T) {
	ratings := generateRatings(20, func(userId int) int { return userId })
	train, test, err := Split(ratings, 0.2, base.NewRandomGenerator(42))
	assert.NoError(t, err)
	// partition
	assert.Equal(t, len(ratings), len(train)+len(test))
	assert.ElementsMatch(t, ratings, append(append([]data.Rating{}, train...), test...))
	// test size per user
	trainCount := lo.CountValuesBy(train, func(r data.Rating) int { return r.UserId })
	testCount := lo.CountValuesBy(test, func(r data.Rating) int { return r.UserId })
	for userId := 1; userId <= 20; userId++ {
		if userId < MinRatingsForSplit {
			assert.Zero(t, testCount[userId])
			assert.Equal(t, userId, trainCount[userId])
		} else {
			assert.Equal(t, userId*2/10, testCount[userId])
			assert.Positive(t, trainCount[userId])
		}
	}
	// users in ascending order
	assert.True(t, lo.IsSortedByKey(train, func(r data.Rating) int { return r.UserId }))
	assert.True(t, lo.IsSortedByKey(test, func(r data.Rating) int { return r.UserId }))
}

func TestSplitDeterministic(t *testing.T) {
	ratings := generateRatings(30, func(userId int) int { return 10 })
	train1, test1, err := Split(ratings, 0.3, base.NewRandomGenerator(7))
	assert.NoError(t, err)
	train2, test2, err := Split(ratings, 0.3, base.NewRandomGenerator(7))
	assert.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}

func TestSplitFewRatings(t *testing.T) {
	ratings := generateRatings(3, func(userId int) int { return MinRatingsForSplit - 1 })
	train, test, err := Split(ratings, 0.5, base.NewRandomGenerator(0))
	assert.NoError(t, err)
	assert.Len(t, train, len(ratings))
	assert.Empty(t, test)
}

func TestSplitZeroFraction(t *testing.T) {
	ratings := generateRatings(10, func(userId int) int { return 8 })
	train, test, err := Split(ratings, 0, base.NewRandomGenerator(0))
	assert.NoError(t, err)
	assert.Len(t, train, len(ratings))
	assert.Empty(t, test)
}

func TestSplitInvalidFraction(t *testing.T) {
	for _, fraction := range []float64{-0.1, 1, 1.5} {
		_, _, err := Split(nil, fraction, base.NewRandomGenerator(0))
		assert.True(t, errors.Is(err, errors.NotValid), fraction)
	}
}

func TestNormalize(t *testing.T) {
	ratings := []data.Rating{
		{UserId: 1, ItemId: 1, Rating: 5},
		{UserId: 2, ItemId: 1, Rating: 2},
		{UserId: 1, ItemId: 2, Rating: 3},
	}
	normalized, means := Normalize(ratings)
	assert.Equal(t, map[int]float64{1: 4, 2: 2}, means)
	assert.Equal(t, []NormalizedRating{
		{Rating: ratings[0], RatingNormalized: 1},
		{Rating: ratings[1], RatingNormalized: 0},
		{Rating: ratings[2], RatingNormalized: -1},
	}, normalized)
	// input is untouched
	assert.Equal(t, 5.0, ratings[0].Rating)
}
