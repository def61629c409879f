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

package knn

import (
	"cmp"
	"math"
	"slices"

	"github.com/Evilgadron/SmartRec/dataset"
)

type neighbor struct {
	id         int
	similarity float64
	value      float64
}

// PredictUserBased predicts the rating of a user on an item from the k users
// most similar to the user among those who rated the item. It returns false if
// the rating cannot be predicted.
func PredictUserBased(userId, itemId int, m *dataset.UserItemMatrix, sim Similarities, k int) (float64, bool) {
	if !m.HasUser(userId) {
		return 0, false
	}
	return predict(userId, m.ItemRatings(itemId), sim, k)
}

// PredictItemBased predicts the rating of a user on an item from the k items
// most similar to the item among those rated by the user. It returns false if
// the rating cannot be predicted.
func PredictItemBased(userId, itemId int, m *dataset.UserItemMatrix, sim Similarities, k int) (float64, bool) {
	if !m.HasItem(itemId) {
		return 0, false
	}
	return predict(itemId, m.UserRatings(userId), sim, k)
}

// predict averages observed values of the top k neighbors of target weighted
// by similarity and normalized by the sum of absolute similarities, so negative
// neighbors cannot push the result beyond the observed values. Neighbors with
// equal similarity are ranked by ascending ID.
func predict(target int, observed map[int]float64, sim Similarities, k int) (float64, bool) {
	if k <= 0 || len(observed) == 0 {
		return 0, false
	}
	candidates := make([]neighbor, 0, len(observed))
	for id, value := range observed {
		if id != target {
			candidates = append(candidates, neighbor{id: id, similarity: sim.Similarity(target, id), value: value})
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	slices.SortFunc(candidates, func(a, b neighbor) int {
		return cmp.Compare(a.id, b.id)
	})
	slices.SortStableFunc(candidates, func(a, b neighbor) int {
		return cmp.Compare(b.similarity, a.similarity)
	})
	var weighted, sum float64
	for _, c := range candidates[:min(k, len(candidates))] {
		weighted += c.similarity * c.value
		sum += math.Abs(c.similarity)
	}
	if sum == 0 {
		return 0, false
	}
	return weighted / sum, true
}
