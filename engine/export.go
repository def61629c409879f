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

package engine

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Evilgadron/SmartRec/dataset"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

const (
	TrainFile = "train_ratings.csv"
	TestFile  = "test_ratings.csv"
)

// WriteSplit writes the training set with normalized ratings and the test set
// as CSV files into a directory.
func (e *Engine) WriteSplit(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	header := []string{"user_id", "item_id", "rating", "timestamp"}
	train := lo.Map(e.normalized, func(r dataset.NormalizedRating, _ int) []string {
		return append(formatRating(r.Rating), strconv.FormatFloat(r.RatingNormalized, 'g', -1, 64))
	})
	if err := writeCSV(filepath.Join(dir, TrainFile), append(header, "rating_normalized"), train); err != nil {
		return errors.Trace(err)
	}
	test := lo.Map(e.test, func(r data.Rating, _ int) []string {
		return formatRating(r)
	})
	return errors.Trace(writeCSV(filepath.Join(dir, TestFile), header, test))
}

func formatRating(r data.Rating) []string {
	return []string{
		strconv.Itoa(r.UserId),
		strconv.Itoa(r.ItemId),
		strconv.FormatFloat(r.Rating, 'g', -1, 64),
		strconv.FormatInt(r.Timestamp, 10),
	}
}

func writeCSV(name string, header []string, records [][]string) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err = w.Write(header); err != nil {
		return errors.Trace(err)
	}
	if err = w.WriteAll(records); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(f.Sync())
}
