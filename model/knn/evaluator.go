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
	"context"
	"math"

	"github.com/Evilgadron/SmartRec/common/parallel"
	"github.com/Evilgadron/SmartRec/storage/data"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

/* Evaluate Item Ranking */

// Metric scores the top k recommended items against relevant items.
type Metric func(relevant mapset.Set[int], rankList []int, k int) float64

// RelevantItems returns items a user interacted with in a test set.
func RelevantItems(userId int, test []data.Rating) mapset.Set[int] {
	relevant := mapset.NewThreadUnsafeSet[int]()
	for _, rating := range test {
		if rating.UserId == userId {
			relevant.Add(rating.ItemId)
		}
	}
	return relevant
}

// PrecisionAtK is the fraction of the top k recommended items that appear in
// the test interactions of a user. It returns false if the user has no test
// interactions.
func PrecisionAtK(userId int, recommendations []int, test []data.Rating, k int) (float64, bool) {
	return evaluateUser(userId, recommendations, test, k, Precision)
}

// RecallAtK is the fraction of test interactions of a user that appear in the
// top k recommended items.
func RecallAtK(userId int, recommendations []int, test []data.Rating, k int) (float64, bool) {
	return evaluateUser(userId, recommendations, test, k, Recall)
}

// NDCGAtK is the normalized discounted cumulative gain of the top k recommended items.
func NDCGAtK(userId int, recommendations []int, test []data.Rating, k int) (float64, bool) {
	return evaluateUser(userId, recommendations, test, k, NDCG)
}

// HitRateAtK is 1 if any of the top k recommended items is relevant, otherwise 0.
func HitRateAtK(userId int, recommendations []int, test []data.Rating, k int) (float64, bool) {
	return evaluateUser(userId, recommendations, test, k, HR)
}

func evaluateUser(userId int, recommendations []int, test []data.Rating, k int, metric Metric) (float64, bool) {
	relevant := RelevantItems(userId, test)
	if relevant.Cardinality() == 0 || k <= 0 {
		return 0, false
	}
	return metric(relevant, recommendations, k), true
}

func topK(rankList []int, k int) []int {
	return lo.Uniq(rankList[:min(k, len(rankList))])
}

func countHits(relevant mapset.Set[int], items []int) int {
	return lo.CountBy(items, func(itemId int) bool {
		return relevant.Contains(itemId)
	})
}

// Precision is the fraction of relevant items among the top k, divided by k
// even if fewer items are recommended.
//
//	\frac{|relevant \cap retrieved|} {k}
func Precision(relevant mapset.Set[int], rankList []int, k int) float64 {
	return float64(countHits(relevant, topK(rankList, k))) / float64(k)
}

// Recall is the fraction of relevant items that have been recommended.
//
//	\frac{|relevant \cap retrieved|} {|relevant|}
func Recall(relevant mapset.Set[int], rankList []int, k int) float64 {
	return float64(countHits(relevant, topK(rankList, k))) / float64(relevant.Cardinality())
}

// NDCG means Normalized Discounted Cumulative Gain.
func NDCG(relevant mapset.Set[int], rankList []int, k int) float64 {
	// IDCG = \sum^{min(|REL|, k)}_{i=1} \frac {1} {\log_2(i+1)}
	idcg := 0.0
	for i := 0; i < relevant.Cardinality() && i < k; i++ {
		idcg += 1.0 / math.Log2(float64(i)+2.0)
	}
	// DCG = \sum^{k}_{i=1} \frac {rel_i} {\log_2(i+1)}
	dcg := 0.0
	for i, itemId := range topK(rankList, k) {
		if relevant.Contains(itemId) {
			dcg += 1.0 / math.Log2(float64(i)+2.0)
		}
	}
	return dcg / idcg
}

// HR means Hit Ratio.
func HR(relevant mapset.Set[int], rankList []int, k int) float64 {
	if countHits(relevant, topK(rankList, k)) > 0 {
		return 1
	}
	return 0
}

// Score is the average of metrics over evaluated users.
type Score struct {
	Precision float64
	Recall    float64
	NDCG      float64
	HitRate   float64
	Users     int
}

// RecommendFunc returns recommended items of a user in ranked order.
type RecommendFunc func(userId int) ([]int, error)

// Evaluate averages metrics at k over users with test interactions. Users are
// evaluated by jobs workers in parallel. Users without test interactions are
// skipped.
func Evaluate(ctx context.Context, users []int, recommend RecommendFunc, test []data.Rating, k, jobs int) (Score, error) {
	if k <= 0 {
		return Score{}, errors.NotValidf("k %d", k)
	}
	relevant := lo.GroupBy(test, func(rating data.Rating) int {
		return rating.UserId
	})
	users = lo.Filter(users, func(userId int, _ int) bool {
		_, exist := relevant[userId]
		return exist
	})
	scores := make([][4]float64, len(users))
	metrics := []Metric{Precision, Recall, NDCG, HR}
	err := parallel.Parallel(ctx, len(users), jobs, func(_, jobId int) error {
		userId := users[jobId]
		recommendations, err := recommend(userId)
		if err != nil {
			return errors.Trace(err)
		}
		targetSet := mapset.NewThreadUnsafeSet(lo.Map(relevant[userId], func(rating data.Rating, _ int) int {
			return rating.ItemId
		})...)
		for i, metric := range metrics {
			scores[jobId][i] = metric(targetSet, recommendations, k)
		}
		return nil
	})
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	var sum [4]float64
	for _, score := range scores {
		for i := range sum {
			sum[i] += score[i]
		}
	}
	score := Score{Users: len(users)}
	if len(users) > 0 {
		n := float64(len(users))
		score.Precision = sum[0] / n
		score.Recall = sum[1] / n
		score.NDCG = sum[2] / n
		score.HitRate = sum[3] / n
	}
	return score, nil
}
