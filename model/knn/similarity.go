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

	"github.com/Evilgadron/SmartRec/base"
	"github.com/Evilgadron/SmartRec/dataset"
)

// Similarities looks up the similarity between two users or two items by ID.
// Unknown IDs have zero similarity.
type Similarities interface {
	Similarity(a, b int) float64
}

// SimilarityMatrix is a dense symmetric matrix of cosine similarities. It is
// read-only once computed.
type SimilarityMatrix struct {
	index  *base.Index
	values []float64
}

// ComputeUserSimilarity computes cosine similarities between rows of a matrix.
func ComputeUserSimilarity(m *dataset.UserItemMatrix) *SimilarityMatrix {
	return computeCosine(m.UserIndex(), m.UserRatings)
}

// ComputeItemSimilarity computes cosine similarities between columns of a matrix.
func ComputeItemSimilarity(m *dataset.UserItemMatrix) *SimilarityMatrix {
	return computeCosine(m.ItemIndex(), m.ItemRatings)
}

// computeCosine treats unobserved entries as zeros, so dot products only need
// entries observed in both vectors.
func computeCosine(index *base.Index, vectorOf func(id int) map[int]float64) *SimilarityMatrix {
	n := index.Len()
	vectors := make([]map[int]float64, n)
	norms := make([]float64, n)
	for i := range vectors {
		vectors[i] = vectorOf(index.ToName(i))
		for _, value := range vectors[i] {
			norms[i] += value * value
		}
		norms[i] = math.Sqrt(norms[i])
	}
	s := &SimilarityMatrix{
		index:  index,
		values: make([]float64, n*n),
	}
	for i := 0; i < n; i++ {
		if norms[i] == 0 {
			continue
		}
		s.values[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			if norms[j] == 0 {
				continue
			}
			sim := clip(dot(vectors[i], vectors[j]) / (norms[i] * norms[j]))
			s.values[i*n+j] = sim
			s.values[j*n+i] = sim
		}
	}
	return s
}

func dot(a, b map[int]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for key, x := range a {
		if y, exist := b[key]; exist {
			sum += x * y
		}
	}
	return sum
}

func clip(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

// Similarity returns the similarity between two IDs, or 0 if any is unknown.
func (s *SimilarityMatrix) Similarity(a, b int) float64 {
	i, j := s.index.ToNumber(a), s.index.ToNumber(b)
	if i == base.NotId || j == base.NotId {
		return 0
	}
	return s.values[i*s.index.Len()+j]
}

// Index returns IDs covered by the matrix.
func (s *SimilarityMatrix) Index() *base.Index {
	return s.index
}

func (s *SimilarityMatrix) Len() int {
	return s.index.Len()
}
