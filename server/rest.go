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
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Evilgadron/SmartRec/base/log"
	"github.com/Evilgadron/SmartRec/config"
	"github.com/Evilgadron/SmartRec/engine"
	"github.com/Evilgadron/SmartRec/logics"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/emicklei/go-restful/otelrestful"
	"go.uber.org/zap"
)

const requestIdHeader = "X-Request-ID"

// RestServer implements a REST-ful API server.
type RestServer struct {
	Engine     *engine.Engine
	Config     *config.Config
	HttpHost   string
	HttpPort   int
	WebService *restful.WebService

	cache *ttlcache.Cache[string, []logics.Recommendation]
}

// NewRestServer creates a REST server for an engine. Recommendations are
// cached unless the cache TTL is zero.
func NewRestServer(e *engine.Engine, cfg *config.Config) *RestServer {
	s := &RestServer{
		Engine:     e,
		Config:     cfg,
		HttpHost:   cfg.Server.Host,
		HttpPort:   cfg.Server.Port,
		WebService: new(restful.WebService),
	}
	if cfg.Server.CacheTTL > 0 {
		s.cache = ttlcache.New(
			ttlcache.WithTTL[string, []logics.Recommendation](cfg.Server.CacheTTL),
			ttlcache.WithCapacity[string, []logics.Recommendation](cfg.Server.CacheSize),
			ttlcache.WithDisableTouchOnHit[string, []logics.Recommendation](),
		)
	}
	s.CreateWebService()
	return s
}

// Handler assembles the REST API, the API docs and metrics.
func (s *RestServer) Handler() http.Handler {
	container := restful.NewContainer()
	container.Filter(RequestIdFilter)
	container.Filter(otelrestful.OTelFilter("smartrec"))
	container.Add(s.WebService)
	specConfig := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	container.Add(restfulspec.NewOpenAPIService(specConfig))
	container.Handle("/metrics", promhttp.Handler())
	return container
}

// Serve starts the REST-ful API server and blocks until ctx is done.
func (s *RestServer) Serve(ctx context.Context) error {
	if s.cache != nil {
		go s.cache.Start()
		defer s.cache.Stop()
	}
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.HttpHost, s.HttpPort),
		Handler: s.Handler(),
	}
	errChan := make(chan error, 1)
	go func() {
		log.Logger().Info("start http server",
			zap.String("url", fmt.Sprintf("http://%s:%d", s.HttpHost, s.HttpPort)))
		errChan <- server.ListenAndServe()
	}()
	select {
	case err := <-errChan:
		return errors.Trace(err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Logger().Info("stop http server")
		return errors.Trace(server.Shutdown(shutdownCtx))
	}
}

// RequestIdFilter tags every request and response with a request id.
func RequestIdFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestId := req.HeaderParameter(requestIdHeader)
	if requestId == "" {
		requestId = uuid.New().String()
		req.Request.Header.Set(requestIdHeader, requestId)
	}
	resp.Header().Set(requestIdHeader, requestId)
	chain.ProcessFilter(req, resp)
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("used_time", time.Since(start)))
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(LogFilter)

	ws.Route(ws.GET("/users").To(s.getUsers).
		Doc("Get users in the training set.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"user"}).
		Returns(http.StatusOK, "OK", []int{}).
		Writes([]int{}))
	ws.Route(ws.GET("/recommend/{user-id}").To(s.getRecommend).
		Doc("Get top-N recommendations for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Param(ws.QueryParameter("method", "user_based or item_based").DataType("string")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("integer")).
		Returns(http.StatusOK, "OK", []logics.Recommendation{}).
		Returns(http.StatusNotFound, "user not found", nil).
		Writes([]logics.Recommendation{}))
	ws.Route(ws.GET("/predict/{user-id}/{item-id}").To(s.getPredict).
		Doc("Predict the rating of a user on an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("integer")).
		Param(ws.QueryParameter("method", "user_based or item_based").DataType("string")).
		Returns(http.StatusOK, "OK", Prediction{}).
		Returns(http.StatusNotFound, "user not found or rating cannot be predicted", nil).
		Writes(Prediction{}))
	ws.Route(ws.GET("/precision/{user-id}").To(s.getPrecision).
		Doc("Get precision at k of recommendations for a user against held-out ratings.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"evaluation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Param(ws.QueryParameter("method", "user_based or item_based").DataType("string")).
		Param(ws.QueryParameter("k", "number of evaluated items").DataType("integer")).
		Returns(http.StatusOK, "OK", Precision{}).
		Returns(http.StatusNotFound, "user not found or without held-out ratings", nil).
		Writes(Precision{}))
}

type Prediction struct {
	Rating float64
}

type Precision struct {
	Precision float64
}

// ParseInt parses an integer query parameter.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.Atoi(valueString)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

func (s *RestServer) parseMethod(request *restful.Request) (logics.Method, error) {
	method := request.QueryParameter("method")
	if method == "" {
		method = s.Config.Recommend.Method
	}
	return logics.ParseMethod(method)
}

func (s *RestServer) getUsers(_ *restful.Request, response *restful.Response) {
	Ok(response, s.Engine.Users())
}

func (s *RestServer) getRecommend(request *restful.Request, response *restful.Response) {
	userId, err := strconv.Atoi(request.PathParameter("user-id"))
	if err != nil {
		BadRequest(response, err)
		return
	}
	method, err := s.parseMethod(request)
	if err != nil {
		BadRequest(response, err)
		return
	}
	n, err := ParseInt(request, "n", s.Config.Recommend.N)
	if err != nil {
		BadRequest(response, err)
		return
	}
	if n < 0 {
		BadRequest(response, errors.NotValidf("n %d", n))
		return
	}
	recommendations, err := s.recommend(method, userId, n)
	if logics.IsUnknownUser(err) {
		PageNotFound(response, err)
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, recommendations)
}

func (s *RestServer) recommend(method logics.Method, userId, n int) ([]logics.Recommendation, error) {
	key := fmt.Sprintf("%s/%d/%d", method, userId, n)
	if s.cache != nil {
		if item := s.cache.Get(key); item != nil {
			RecommendCacheHitTotal.Inc()
			return item.Value(), nil
		}
		RecommendCacheMissTotal.Inc()
	}
	start := time.Now()
	recommendations, err := s.Engine.Recommend(method, userId, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if method == logics.UserBased {
		UserBasedRecommendSeconds.Observe(time.Since(start).Seconds())
	} else {
		ItemBasedRecommendSeconds.Observe(time.Since(start).Seconds())
	}
	if s.cache != nil {
		s.cache.Set(key, recommendations, ttlcache.DefaultTTL)
	}
	return recommendations, nil
}

func (s *RestServer) getPredict(request *restful.Request, response *restful.Response) {
	userId, err := strconv.Atoi(request.PathParameter("user-id"))
	if err != nil {
		BadRequest(response, err)
		return
	}
	itemId, err := strconv.Atoi(request.PathParameter("item-id"))
	if err != nil {
		BadRequest(response, err)
		return
	}
	method, err := s.parseMethod(request)
	if err != nil {
		BadRequest(response, err)
		return
	}
	rating, ok, err := s.Engine.Predict(method, userId, itemId)
	if logics.IsUnknownUser(err) {
		PageNotFound(response, err)
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	} else if !ok {
		PageNotFound(response, errors.NotFoundf("prediction of user %d on item %d", userId, itemId))
		return
	}
	Ok(response, Prediction{Rating: rating})
}

func (s *RestServer) getPrecision(request *restful.Request, response *restful.Response) {
	userId, err := strconv.Atoi(request.PathParameter("user-id"))
	if err != nil {
		BadRequest(response, err)
		return
	}
	method, err := s.parseMethod(request)
	if err != nil {
		BadRequest(response, err)
		return
	}
	k, err := ParseInt(request, "k", s.Config.Evaluate.TopK)
	if err != nil {
		BadRequest(response, err)
		return
	}
	if k <= 0 {
		BadRequest(response, errors.NotValidf("k %d", k))
		return
	}
	start := time.Now()
	precision, ok, err := s.Engine.PrecisionAtK(method, userId, k)
	if logics.IsUnknownUser(err) {
		PageNotFound(response, err)
		return
	} else if err != nil {
		InternalServerError(response, err)
		return
	} else if !ok {
		PageNotFound(response, errors.NotFoundf("held-out ratings of user %d", userId))
		return
	}
	PrecisionSeconds.Observe(time.Since(start).Seconds())
	Ok(response, Precision{Precision: precision})
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
