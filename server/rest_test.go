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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Evilgadron/SmartRec/config"
	"github.com/Evilgadron/SmartRec/engine"
	"github.com/Evilgadron/SmartRec/logics"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/emicklei/go-restful/v3"
	"github.com/samber/lo"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	*RestServer
	handler http.Handler
}

func (suite *ServerTestSuite) SetupTest() {
	var ratings []data.Rating
	for userId := 1; userId <= 20; userId++ {
		for itemId := 1; itemId <= 25; itemId++ {
			if (userId+itemId)%3 == 0 || (userId*itemId)%7 == 1 {
				ratings = append(ratings, data.Rating{
					UserId: userId,
					ItemId: itemId,
					Rating: float64(1 + (userId*3+itemId)%5),
				})
			}
		}
	}
	items := lo.Times(25, func(i int) data.Item {
		return data.Item{ItemId: i + 1, Title: fmt.Sprintf("Movie %d", i+1)}
	})
	cfg := config.GetDefaultConfig()
	e, err := engine.New(cfg, ratings, items)
	suite.NoError(err)
	suite.RestServer = NewRestServer(e, cfg)
	suite.handler = suite.Handler()
}

func (suite *ServerTestSuite) marshal(v interface{}) string {
	s, err := json.Marshal(v)
	suite.NoError(err)
	return string(s)
}

func (suite *ServerTestSuite) TestUsers() {
	apitest.New().
		Handler(suite.handler).
		Get("/api/users").
		Expect(suite.T()).
		Status(http.StatusOK).
		Body(suite.marshal(suite.Engine.Users())).
		End()
}

func (suite *ServerTestSuite) TestRecommend() {
	t := suite.T()
	for _, method := range []logics.Method{logics.UserBased, logics.ItemBased} {
		expected, err := suite.Engine.Recommend(method, 1, 3)
		suite.NoError(err)
		apitest.New().
			Handler(suite.handler).
			Get("/api/recommend/1").
			QueryParams(map[string]string{
				"method": string(method),
				"n":      "3",
			}).
			Expect(t).
			Status(http.StatusOK).
			Body(suite.marshal(expected)).
			End()
	}
	// default method and n
	expected, err := suite.Engine.Recommend(logics.UserBased, 2, suite.Config.Recommend.N)
	suite.NoError(err)
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/2").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(expected)).
		End()
	// empty recommendation is an empty array
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/2").
		Query("n", "0").
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()
}

func (suite *ServerTestSuite) TestRecommendErrors() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/1000").
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/abc").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/1").
		Query("method", "svd").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/1").
		Query("n", "-1").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/1").
		Query("n", "many").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestRecommendCache() {
	first, err := suite.recommend(logics.UserBased, 1, 5)
	suite.NoError(err)
	suite.Equal(1, suite.cache.Len())
	second, err := suite.recommend(logics.UserBased, 1, 5)
	suite.NoError(err)
	suite.Equal(first, second)
	_, err = suite.recommend(logics.ItemBased, 1, 5)
	suite.NoError(err)
	suite.Equal(2, suite.cache.Len())

	// disable cache
	cfg := config.GetDefaultConfig()
	cfg.Server.CacheTTL = 0
	s := NewRestServer(suite.Engine, cfg)
	suite.Nil(s.cache)
	uncached, err := s.recommend(logics.UserBased, 1, 5)
	suite.NoError(err)
	suite.Equal(first, uncached)
}

func (suite *ServerTestSuite) TestPredict() {
	t := suite.T()
	userId := suite.Engine.Users()[0]
	for _, itemId := range []int{1, 2, 3, 4, 5} {
		rating, ok, err := suite.Engine.Predict(logics.ItemBased, userId, itemId)
		suite.NoError(err)
		request := apitest.New().
			Handler(suite.handler).
			Get(fmt.Sprintf("/api/predict/%d/%d", userId, itemId)).
			Query("method", string(logics.ItemBased)).
			Expect(t)
		if ok {
			request.Status(http.StatusOK).Body(suite.marshal(Prediction{Rating: rating})).End()
		} else {
			request.Status(http.StatusNotFound).End()
		}
	}
	apitest.New().
		Handler(suite.handler).
		Get("/api/predict/1000/1").
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/predict/1/abc").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestPrecision() {
	t := suite.T()
	testUsers := lo.Uniq(lo.Map(suite.Engine.Test(), func(rating data.Rating, _ int) int {
		return rating.UserId
	}))
	suite.NotEmpty(testUsers)
	precision, ok, err := suite.Engine.PrecisionAtK(logics.UserBased, testUsers[0], 3)
	suite.NoError(err)
	suite.True(ok)
	apitest.New().
		Handler(suite.handler).
		Get("/api/precision/"+strconv.Itoa(testUsers[0])).
		Query("k", "3").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(Precision{Precision: precision})).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/precision/1000").
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/precision/"+strconv.Itoa(testUsers[0])).
		Query("k", "0").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestRequestId() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/api/users").
		Header(requestIdHeader, "my-request").
		Expect(t).
		Status(http.StatusOK).
		Header(requestIdHeader, "my-request").
		End()
	result := apitest.New().
		Handler(suite.handler).
		Get("/api/users").
		Expect(t).
		Status(http.StatusOK).
		End()
	assert.NotEmpty(t, result.Response.Header.Get(requestIdHeader))
}

func (suite *ServerTestSuite) TestDocsAndMetrics() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/apidocs.json").
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestParseInt(t *testing.T) {
	newRequest := func(query string) *restful.Request {
		return restful.NewRequest(httptest.NewRequest(http.MethodGet, "/api/recommend/1"+query, nil))
	}
	value, err := ParseInt(newRequest("?n=7"), "n", 5)
	assert.NoError(t, err)
	assert.Equal(t, 7, value)
	value, err = ParseInt(newRequest(""), "n", 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, value)
	_, err = ParseInt(newRequest("?n=seven"), "n", 5)
	assert.Error(t, err)
}

func TestNewRestServer(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9090
	cfg.Server.CacheTTL = time.Minute
	s := NewRestServer(nil, cfg)
	assert.Equal(t, "127.0.0.1", s.HttpHost)
	assert.Equal(t, 9090, s.HttpPort)
	assert.NotNil(t, s.cache)
	assert.Len(t, s.WebService.Routes(), 4)
}
