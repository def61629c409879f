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
	"context"
	"time"

	"github.com/Evilgadron/SmartRec/base"
	"github.com/Evilgadron/SmartRec/base/log"
	"github.com/Evilgadron/SmartRec/config"
	"github.com/Evilgadron/SmartRec/dataset"
	"github.com/Evilgadron/SmartRec/logics"
	"github.com/Evilgadron/SmartRec/model/knn"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Engine holds the state built from one snapshot of ratings: the train/test
// split, the user-item matrix and a recommender for each method. It is
// read-only once built and safe for concurrent use.
type Engine struct {
	config       *config.Config
	items        []data.Item
	train        []data.Rating
	test         []data.Rating
	normalized   []dataset.NormalizedRating
	means        map[int]float64
	matrix       *dataset.UserItemMatrix
	recommenders map[logics.Method]*logics.Recommender
}

// Load reads ratings and items from the configured data store and builds an Engine.
func Load(ctx context.Context, cfg *config.Config) (*Engine, error) {
	ctx, span := otel.Tracer("engine").Start(ctx, "Load")
	defer span.End()
	database, err := data.Open(cfg.Database.DataStore, cfg.Database.TablePrefix)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Logger().Warn("failed to close data store", zap.Error(err))
		}
	}()
	start := time.Now()
	ratings, err := database.GetRatings(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load ratings")
	}
	items, err := database.GetItems(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load items")
	}
	log.Logger().Info("load dataset",
		zap.Int("n_ratings", len(ratings)),
		zap.Int("n_items", len(items)),
		zap.Duration("used_time", time.Since(start)))
	return New(cfg, ratings, items)
}

// New splits ratings, builds the user-item matrix from the training set and
// computes similarities for both methods.
func New(cfg *config.Config, ratings []data.Rating, items []data.Item) (*Engine, error) {
	start := time.Now()
	e := &Engine{
		config:       cfg,
		items:        items,
		recommenders: make(map[logics.Method]*logics.Recommender),
	}
	var err error
	e.train, e.test, err = dataset.Split(ratings, cfg.Split.TestFraction, base.NewRandomGenerator(cfg.Split.Seed))
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.normalized, e.means = dataset.Normalize(e.train)
	column := dataset.ValueColumn(cfg.Recommend.ValueColumn)
	if e.matrix, err = dataset.NewNormalizedUserItemMatrix(e.normalized, column); err != nil {
		return nil, errors.Trace(err)
	}
	var offsets map[int]float64
	if column == dataset.NormalizedRatingColumn {
		offsets = e.means
	}
	titles := logics.NewItemTitles(items)
	for _, method := range []logics.Method{logics.UserBased, logics.ItemBased} {
		if e.recommenders[method], err = logics.NewRecommender(method, e.matrix, titles, cfg.Recommend.K, offsets); err != nil {
			return nil, errors.Trace(err)
		}
	}
	log.Logger().Info("build engine",
		zap.Int("n_train", len(e.train)),
		zap.Int("n_test", len(e.test)),
		zap.Int("n_users", e.matrix.CountUsers()),
		zap.Int("n_items", e.matrix.CountItems()),
		zap.String("value_column", string(column)),
		zap.Duration("used_time", time.Since(start)))
	return e, nil
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Matrix() *dataset.UserItemMatrix {
	return e.matrix
}

func (e *Engine) Train() []data.Rating {
	return e.train
}

func (e *Engine) Test() []data.Rating {
	return e.test
}

// Means returns the mean training rating of every user.
func (e *Engine) Means() map[int]float64 {
	return e.means
}

func (e *Engine) Items() []data.Item {
	return e.items
}

// Users returns users in the training matrix in ascending order.
func (e *Engine) Users() []int {
	return e.matrix.Users()
}

func (e *Engine) Recommender(method logics.Method) (*logics.Recommender, error) {
	r, exist := e.recommenders[method]
	if !exist {
		return nil, errors.NotValidf("method %q", method)
	}
	return r, nil
}

// Recommend returns at most n items for a user.
func (e *Engine) Recommend(method logics.Method, userId, n int) ([]logics.Recommendation, error) {
	r, err := e.Recommender(method)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r.Recommend(userId, n)
}

// Predict the rating of a user on an item. It returns false if the rating
// cannot be predicted.
func (e *Engine) Predict(method logics.Method, userId, itemId int) (float64, bool, error) {
	r, err := e.Recommender(method)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	if !e.matrix.HasUser(userId) {
		return 0, false, errors.NotFoundf("user %d", userId)
	}
	prediction, ok := r.Predict(userId, itemId)
	return prediction, ok, nil
}

// PrecisionAtK recommends k items to a user and scores them against the test
// set. It returns false if the user has no test ratings.
func (e *Engine) PrecisionAtK(method logics.Method, userId, k int) (float64, bool, error) {
	r, err := e.Recommender(method)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	recommendations, err := r.RecommendItems(userId, k)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	precision, ok := knn.PrecisionAtK(userId, recommendations, e.test, k)
	return precision, ok, nil
}

// Evaluate averages ranking metrics at k over users with test ratings.
// progress is called once per evaluated user if not nil.
func (e *Engine) Evaluate(ctx context.Context, method logics.Method, k, jobs int, progress func()) (knn.Score, error) {
	r, err := e.Recommender(method)
	if err != nil {
		return knn.Score{}, errors.Trace(err)
	}
	start := time.Now()
	score, err := knn.Evaluate(ctx, e.Users(), func(userId int) ([]int, error) {
		if progress != nil {
			defer progress()
		}
		return r.RecommendItems(userId, k)
	}, e.test, k, jobs)
	if err != nil {
		return knn.Score{}, errors.Trace(err)
	}
	log.Logger().Info("evaluate",
		zap.String("method", string(method)),
		zap.Int("k", k),
		zap.Int("n_users", score.Users),
		zap.Float64("precision", score.Precision),
		zap.Float64("recall", score.Recall),
		zap.Float64("ndcg", score.NDCG),
		zap.Float64("hit_rate", score.HitRate),
		zap.Duration("used_time", time.Since(start)))
	return score, nil
}

// CountEvaluatedUsers returns the number of users Evaluate scores.
func (e *Engine) CountEvaluatedUsers() int {
	return len(lo.Uniq(lo.Map(e.test, func(rating data.Rating, _ int) int {
		return rating.UserId
	})))
}
