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
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) SetupTest() {
	err := suite.Database.Init()
	suite.NoError(err)
	err = suite.Database.Purge()
	suite.NoError(err)
}

func (suite *baseTestSuite) TestRatings() {
	ctx := context.Background()
	ratings := []Rating{
		{UserId: 2, ItemId: 10, Rating: 4, Timestamp: 881250949},
		{UserId: 1, ItemId: 20, Rating: 3.5, Timestamp: 891717742},
		{UserId: 1, ItemId: 10, Rating: 1, Timestamp: 878887116},
	}
	err := suite.Database.BatchInsertRatings(ctx, ratings[:2])
	suite.NoError(err)
	err = suite.Database.BatchInsertRatings(ctx, ratings[2:])
	suite.NoError(err)
	result, err := suite.Database.GetRatings(ctx)
	suite.NoError(err)
	suite.Equal(ratings, result)
}

func (suite *baseTestSuite) TestDuplicateRatings() {
	ctx := context.Background()
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 4},
		{UserId: 1, ItemId: 10, Rating: 2},
	}
	err := suite.Database.BatchInsertRatings(ctx, ratings)
	suite.NoError(err)
	result, err := suite.Database.GetRatings(ctx)
	suite.NoError(err)
	suite.Equal(ratings, result)
}

func (suite *baseTestSuite) TestItems() {
	ctx := context.Background()
	err := suite.Database.BatchInsertItems(ctx, []Item{
		{ItemId: 3, Title: "Four Rooms (1995)"},
		{ItemId: 1, Title: "Toy Story (1995)"},
	})
	suite.NoError(err)
	err = suite.Database.BatchInsertItems(ctx, []Item{
		{ItemId: 2, Title: "GoldenEye (1995)"},
		{ItemId: 3, Title: "Get Shorty (1995)"},
	})
	suite.NoError(err)
	items, err := suite.Database.GetItems(ctx)
	suite.NoError(err)
	suite.Equal([]Item{
		{ItemId: 1, Title: "Toy Story (1995)"},
		{ItemId: 2, Title: "GoldenEye (1995)"},
		{ItemId: 3, Title: "Get Shorty (1995)"},
	}, items)
}

func (suite *baseTestSuite) TestPurge() {
	ctx := context.Background()
	err := suite.Database.BatchInsertRatings(ctx, []Rating{{UserId: 1, ItemId: 1, Rating: 5}})
	suite.NoError(err)
	err = suite.Database.BatchInsertItems(ctx, []Item{{ItemId: 1, Title: "Toy Story (1995)"}})
	suite.NoError(err)
	err = suite.Database.Purge()
	suite.NoError(err)
	ratings, err := suite.Database.GetRatings(ctx)
	suite.NoError(err)
	suite.Empty(ratings)
	items, err := suite.Database.GetItems(ctx)
	suite.NoError(err)
	suite.Empty(items)
}

func (suite *baseTestSuite) TestPing() {
	suite.NoError(suite.Database.Ping())
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("cassandra://localhost:9042", "")
	assert.True(t, errors.Is(err, errors.NotSupported))
}
