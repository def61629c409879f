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
	"slices"

	"github.com/Evilgadron/SmartRec/base"
	"github.com/Evilgadron/SmartRec/storage/data"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// MinRatingsForSplit is the minimum number of ratings a user needs to
// contribute ratings to the test set.
const MinRatingsForSplit = 5

// Split ratings into a training set and a test set per user. Users are visited
// in ascending order and ratings of a user keep their input order. A user with
// fewer than MinRatingsForSplit ratings goes wholly to the training set,
// otherwise floor(count*testFraction) ratings drawn by rng go to the test set.
// Every user in the test set also appears in the training set.
func Split(ratings []data.Rating, testFraction float64, rng base.RandomGenerator) (train, test []data.Rating, err error) {
	if math.IsNaN(testFraction) || testFraction < 0 || testFraction >= 1 {
		return nil, nil, errors.NotValidf("test fraction %v", testFraction)
	}
	groups := lo.GroupBy(ratings, func(rating data.Rating) int {
		return rating.UserId
	})
	users := lo.Keys(groups)
	slices.Sort(users)
	train = make([]data.Rating, 0, len(ratings))
	test = make([]data.Rating, 0, int(float64(len(ratings))*testFraction))
	for _, userId := range users {
		userRatings := groups[userId]
		if len(userRatings) < MinRatingsForSplit {
			train = append(train, userRatings...)
			continue
		}
		testCount := int(float64(len(userRatings)) * testFraction)
		selected := mapset.NewSet(rng.Sample(0, len(userRatings), testCount)...)
		for i, rating := range userRatings {
			if selected.Contains(i) {
				test = append(test, rating)
			} else {
				train = append(train, rating)
			}
		}
	}
	return train, test, nil
}

// NormalizedRating is a rating with the mean rating of its user subtracted.
type NormalizedRating struct {
	data.Rating
	RatingNormalized float64
}

// Normalize centers ratings around the mean rating of each user. It returns
// normalized ratings in input order and the mean rating of every user.
func Normalize(train []data.Rating) ([]NormalizedRating, map[int]float64) {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, rating := range train {
		sums[rating.UserId] += rating.Rating
		counts[rating.UserId]++
	}
	means := make(map[int]float64, len(sums))
	for userId, sum := range sums {
		means[userId] = sum / float64(counts[userId])
	}
	normalized := lo.Map(train, func(rating data.Rating, _ int) NormalizedRating {
		return NormalizedRating{
			Rating:           rating,
			RatingNormalized: rating.Rating - means[rating.UserId],
		}
	})
	return normalized, means
}
