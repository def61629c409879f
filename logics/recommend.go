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
	"cmp"
	"slices"

	"github.com/Evilgadron/SmartRec/base/log"
	"github.com/Evilgadron/SmartRec/dataset"
	"github.com/Evilgadron/SmartRec/model/knn"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// UnknownTitle is the title of an item without metadata.
const UnknownTitle = "Unknown"

// Recommendation is a recommended item with its predicted rating.
type Recommendation struct {
	ItemId          int     `json:"item_id"`
	PredictedRating float64 `json:"predicted_rating"`
	Title           string  `json:"title"`
}

// ItemMetadata resolves titles of items.
type ItemMetadata interface {
	Title(itemId int) (string, bool)
}

// ItemTitles maps item IDs to titles.
type ItemTitles map[int]string

func NewItemTitles(items []data.Item) ItemTitles {
	titles := make(ItemTitles, len(items))
	for _, item := range items {
		titles[item.ItemId] = item.Title
	}
	return titles
}

func (t ItemTitles) Title(itemId int) (string, bool) {
	title, exist := t[itemId]
	return title, exist
}

// IsUnknownUser checks whether an error reports a user missing from the matrix.
func IsUnknownUser(err error) bool {
	return errors.Is(err, errors.NotFound)
}

// RecommendUserBased recommends at most n items the user has not rated,
// ranked by ratings predicted from the k most similar users.
func RecommendUserBased(userId int, m *dataset.UserItemMatrix, sim knn.Similarities, items ItemMetadata, n, k int) ([]Recommendation, error) {
	return recommend(userId, m, items, n, func(itemId int) (float64, bool) {
		return knn.PredictUserBased(userId, itemId, m, sim, k)
	})
}

// RecommendItemBased recommends at most n items the user has not rated,
// ranked by ratings predicted from the k most similar rated items.
func RecommendItemBased(userId int, m *dataset.UserItemMatrix, sim knn.Similarities, items ItemMetadata, n, k int) ([]Recommendation, error) {
	return recommend(userId, m, items, n, func(itemId int) (float64, bool) {
		return knn.PredictItemBased(userId, itemId, m, sim, k)
	})
}

func recommend(userId int, m *dataset.UserItemMatrix, items ItemMetadata, n int, predict func(itemId int) (float64, bool)) ([]Recommendation, error) {
	if !m.HasUser(userId) {
		return nil, errors.NotFoundf("user %d", userId)
	}
	recommendations := make([]Recommendation, 0)
	for _, itemId := range m.UnratedItems(userId) {
		if prediction, ok := predict(itemId); ok {
			recommendations = append(recommendations, Recommendation{ItemId: itemId, PredictedRating: prediction})
		}
	}
	slices.SortFunc(recommendations, func(a, b Recommendation) int {
		if c := cmp.Compare(b.PredictedRating, a.PredictedRating); c != 0 {
			return c
		}
		return cmp.Compare(a.ItemId, b.ItemId)
	})
	recommendations = recommendations[:max(0, min(n, len(recommendations)))]
	for i := range recommendations {
		title, exist := items.Title(recommendations[i].ItemId)
		if !exist {
			log.Logger().Warn("item metadata not found",
				zap.Int("user_id", userId), zap.Int("item_id", recommendations[i].ItemId))
			title = UnknownTitle
		}
		recommendations[i].Title = title
	}
	return recommendations, nil
}
