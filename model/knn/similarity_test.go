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
	"math"
	"testing"

	"github.com/Evilgadron/SmartRec/dataset"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/stretchr/testify/assert"
)

const (
	itemA = 1
	itemB = 2
	itemC = 3
)

// newExampleMatrix returns user1={A:5,B:3}, user2={A:4,B:2,C:5}, user3={B:1,C:4}.
func newExampleMatrix(t *testing.T) *dataset.UserItemMatrix {
	m, err := dataset.NewUserItemMatrix([]data.Rating{
		{UserId: 1, ItemId: itemA, Rating: 5},
		{UserId: 1, ItemId: itemB, Rating: 3},
		{UserId: 2, ItemId: itemA, Rating: 4},
		{UserId: 2, ItemId: itemB, Rating: 2},
		{UserId: 2, ItemId: itemC, Rating: 5},
		{UserId: 3, ItemId: itemB, Rating: 1},
		{UserId: 3, ItemId: itemC, Rating: 4},
	})
	assert.NoError(t, err)
	return m
}

func newRandomMatrix(t *testing.T, numUsers, numItems int) *dataset.UserItemMatrix {
	var ratings []data.Rating
	for userId := 0; userId < numUsers; userId++ {
		for itemId := 0; itemId < numItems; itemId++ {
			if (userId*7+itemId*3)%4 != 0 {
				ratings = append(ratings, data.Rating{
					UserId: userId,
					ItemId: itemId,
					Rating: float64(1 + (userId*itemId)%5),
				})
			}
		}
	}
	m, err := dataset.NewUserItemMatrix(ratings)
	assert.NoError(t, err)
	return m
}

func TestComputeUserSimilarity(t *testing.T) {
	s := ComputeUserSimilarity(newExampleMatrix(t))
	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, 26/(math.Sqrt(34)*math.Sqrt(45)), s.Similarity(1, 2), 1e-12)
	assert.InDelta(t, 3/(math.Sqrt(34)*math.Sqrt(17)), s.Similarity(1, 3), 1e-12)
	assert.InDelta(t, 22/(math.Sqrt(45)*math.Sqrt(17)), s.Similarity(2, 3), 1e-12)
	for _, userId := range []int{1, 2, 3} {
		assert.Equal(t, 1.0, s.Similarity(userId, userId))
	}
	// unknown users
	assert.Zero(t, s.Similarity(1, 4))
	assert.Zero(t, s.Similarity(4, 4))
}

func TestComputeItemSimilarity(t *testing.T) {
	s := ComputeItemSimilarity(newExampleMatrix(t))
	assert.Equal(t, []int{itemA, itemB, itemC}, s.Index().GetNames())
	// A=(5,4,0) B=(3,2,1) C=(0,5,4)
	assert.InDelta(t, 23/(math.Sqrt(41)*math.Sqrt(14)), s.Similarity(itemA, itemB), 1e-12)
	assert.InDelta(t, 20/(math.Sqrt(41)*math.Sqrt(41)), s.Similarity(itemA, itemC), 1e-12)
	assert.InDelta(t, 14/(math.Sqrt(14)*math.Sqrt(41)), s.Similarity(itemB, itemC), 1e-12)
}

func TestSimilaritySymmetry(t *testing.T) {
	m := newRandomMatrix(t, 30, 20)
	for _, s := range []*SimilarityMatrix{ComputeUserSimilarity(m), ComputeItemSimilarity(m)} {
		ids := s.Index().GetNames()
		for _, a := range ids {
			assert.Equal(t, 1.0, s.Similarity(a, a))
			for _, b := range ids {
				assert.Equal(t, s.Similarity(a, b), s.Similarity(b, a))
				assert.GreaterOrEqual(t, s.Similarity(a, b), -1.0)
				assert.LessOrEqual(t, s.Similarity(a, b), 1.0)
			}
		}
	}
}

func TestSimilarityZeroVector(t *testing.T) {
	m, err := dataset.NewUserItemMatrix([]data.Rating{
		{UserId: 1, ItemId: 1, Rating: 0},
		{UserId: 2, ItemId: 1, Rating: 3},
	})
	assert.NoError(t, err)
	s := ComputeUserSimilarity(m)
	assert.Zero(t, s.Similarity(1, 1))
	assert.Zero(t, s.Similarity(1, 2))
	assert.Equal(t, 1.0, s.Similarity(2, 2))
}

func TestSimilarityNegative(t *testing.T) {
	m, err := dataset.NewUserItemMatrix([]data.Rating{
		{UserId: 1, ItemId: 1, Rating: 1},
		{UserId: 1, ItemId: 2, Rating: -1},
		{UserId: 2, ItemId: 1, Rating: -1},
		{UserId: 2, ItemId: 2, Rating: 1},
	})
	assert.NoError(t, err)
	s := ComputeUserSimilarity(m)
	assert.InDelta(t, -1.0, s.Similarity(1, 2), 1e-12)
}
