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

package data

import (
	"bufio"
	"context"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/juju/errors"
	"golang.org/x/text/encoding/charmap"
)

// MovieLens reads ratings and items from a MovieLens 100K directory. Ratings
// come from u.data (user, item, rating, timestamp separated by tabs) and items
// from u.item (Latin-1 encoded, fields separated by '|'). It is read-only.
type MovieLens struct {
	ratingsFile string
	itemsFile   string
}

// NewMovieLens reads ratings and items from the given files.
func NewMovieLens(ratingsFile, itemsFile string) *MovieLens {
	return &MovieLens{ratingsFile: ratingsFile, itemsFile: itemsFile}
}

func (m *MovieLens) Init() error {
	return m.Ping()
}

// Ping checks both files exist.
func (m *MovieLens) Ping() error {
	for _, name := range []string{m.ratingsFile, m.itemsFile} {
		if _, err := os.Stat(name); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (m *MovieLens) Close() error {
	return nil
}

func (m *MovieLens) Purge() error {
	return errors.NotSupportedf("purging MovieLens files")
}

func (m *MovieLens) BatchInsertRatings(_ context.Context, _ []Rating) error {
	return errors.NotSupportedf("writing MovieLens files")
}

func (m *MovieLens) BatchInsertItems(_ context.Context, _ []Item) error {
	return errors.NotSupportedf("writing MovieLens files")
}

// GetRatings parses u.data in file order.
func (m *MovieLens) GetRatings(ctx context.Context) ([]Rating, error) {
	f, err := os.Open(m.ratingsFile)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	var ratings []Rating
	scanner := bufio.NewScanner(f)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		if lineNumber%batchSize == 0 {
			if err = ctx.Err(); err != nil {
				return nil, errors.Trace(err)
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rating, err := parseRating(line)
		if err != nil {
			return nil, errors.Annotatef(err, "%s:%d", m.ratingsFile, lineNumber)
		}
		ratings = append(ratings, rating)
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}

// GetItems parses u.item in file order.
func (m *MovieLens) GetItems(_ context.Context) ([]Item, error) {
	f, err := os.Open(m.itemsFile)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	var items []Item
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(f))
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			return nil, errors.NotValidf("item at %s:%d", m.itemsFile, lineNumber)
		}
		itemId, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Annotatef(err, "%s:%d", m.itemsFile, lineNumber)
		}
		items = append(items, Item{ItemId: itemId, Title: fields[1]})
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}

func parseRating(line string) (Rating, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Rating{}, errors.NotValidf("rating %q", line)
	}
	var (
		rating Rating
		err    error
	)
	if rating.UserId, err = strconv.Atoi(fields[0]); err != nil {
		return Rating{}, errors.Trace(err)
	}
	if rating.ItemId, err = strconv.Atoi(fields[1]); err != nil {
		return Rating{}, errors.Trace(err)
	}
	if rating.Rating, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return Rating{}, errors.Trace(err)
	}
	if math.IsNaN(rating.Rating) || math.IsInf(rating.Rating, 0) {
		return Rating{}, errors.NotValidf("rating %q", fields[2])
	}
	if len(fields) > 3 {
		// timestamps are unix seconds in u.data, other exports use dates
		raw := strings.Join(fields[3:], " ")
		if rating.Timestamp, err = strconv.ParseInt(raw, 10, 64); err != nil {
			t, err := dateparse.ParseAny(raw)
			if err != nil {
				return Rating{}, errors.Trace(err)
			}
			rating.Timestamp = t.Unix()
		}
	}
	return rating, nil
}
