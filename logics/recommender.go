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

package logics

import (
	"math"

	"github.com/Evilgadron/SmartRec/dataset"
	"github.com/Evilgadron/SmartRec/model/knn"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Method selects the neighborhood used for predictions.
type Method string

const (
	UserBased Method = "user_based"
	ItemBased Method = "item_based"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case UserBased, ItemBased:
		return Method(s), nil
	default:
		return "", errors.NotValidf("method %q", s)
	}
}

// Recommender bundles a matrix with its similarity matrix for one method.
type Recommender struct {
	method     Method
	matrix     *dataset.UserItemMatrix
	similarity *knn.SimilarityMatrix
	items      ItemMetadata
	k          int
	offsets    map[int]float64
	// range of observed ratings, used when offsets are set
	low, high float64
}

// NewRecommender computes the similarity matrix for a method. If offsets is
// not nil, the matrix holds mean-centered ratings and the offset of a user is
// added back to every prediction for that user. Shifted predictions are
// clipped to the range of observed ratings.
func NewRecommender(method Method, m *dataset.UserItemMatrix, items ItemMetadata, k int, offsets map[int]float64) (*Recommender, error) {
	r := &Recommender{
		method:  method,
		matrix:  m,
		items:   items,
		k:       k,
		offsets: offsets,
	}
	switch method {
	case UserBased:
		r.similarity = knn.ComputeUserSimilarity(m)
	case ItemBased:
		r.similarity = knn.ComputeItemSimilarity(m)
	default:
		return nil, errors.NotValidf("method %q", method)
	}
	if offsets != nil {
		r.low, r.high = math.Inf(1), math.Inf(-1)
		for _, userId := range m.Users() {
			for _, value := range m.UserRatings(userId) {
				r.low = min(r.low, value+offsets[userId])
				r.high = max(r.high, value+offsets[userId])
			}
		}
	}
	return r, nil
}

func (r *Recommender) Method() Method {
	return r.method
}

func (r *Recommender) Matrix() *dataset.UserItemMatrix {
	return r.matrix
}

func (r *Recommender) Similarity() *knn.SimilarityMatrix {
	return r.similarity
}

// Recommend returns at most n items for a user.
func (r *Recommender) Recommend(userId, n int) ([]Recommendation, error) {
	recommendations, err := recommend(userId, r.matrix, r.items, n, func(itemId int) (float64, bool) {
		return r.Predict(userId, itemId)
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return recommendations, nil
}

// RecommendItems returns IDs of at most n items for a user.
func (r *Recommender) RecommendItems(userId, n int) ([]int, error) {
	recommendations, err := r.Recommend(userId, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(recommendations, func(recommendation Recommendation, _ int) int {
		return recommendation.ItemId
	}), nil
}

// Predict the rating of a user on an item.
func (r *Recommender) Predict(userId, itemId int) (float64, bool) {
	var (
		prediction float64
		ok         bool
	)
	if r.method == UserBased {
		prediction, ok = knn.PredictUserBased(userId, itemId, r.matrix, r.similarity, r.k)
	} else {
		prediction, ok = knn.PredictItemBased(userId, itemId, r.matrix, r.similarity, r.k)
	}
	if !ok {
		return 0, false
	}
	if r.offsets == nil {
		return prediction, true
	}
	return min(max(prediction+r.offsets[userId], r.low), r.high), true
}
