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

package base

import (
	"slices"

	"github.com/samber/lo"
)

// Index manages the map between sparse IDs and dense indices. A sparse ID is
// a user ID or item ID. The dense index is the internal user index or item index
// optimized for faster similarity access and less memory usage.
type Index struct {
	Numbers map[int]int // sparse ID -> dense index
	Names   []int       // dense index -> sparse ID
}

// NotId represents an ID doesn't exist.
const NotId = -1

// NewIndex creates an Index over the distinct IDs, ordered ascending.
func NewIndex(ids []int) *Index {
	names := lo.Uniq(ids)
	slices.Sort(names)
	idx := &Index{
		Numbers: make(map[int]int, len(names)),
		Names:   names,
	}
	for i, name := range names {
		idx.Numbers[name] = i
	}
	return idx
}

// Len returns the number of indexed IDs.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Names)
}

// Contains checks whether a sparse ID is indexed.
func (idx *Index) Contains(name int) bool {
	_, exist := idx.Numbers[name]
	return exist
}

// ToNumber converts a sparse ID to a dense index.
func (idx *Index) ToNumber(name int) int {
	if denseId, exist := idx.Numbers[name]; exist {
		return denseId
	}
	return NotId
}

// ToName converts a dense index to a sparse ID.
func (idx *Index) ToName(index int) int {
	return idx.Names[index]
}

// GetNames returns all IDs in current index.
func (idx *Index) GetNames() []int {
	return idx.Names
}
