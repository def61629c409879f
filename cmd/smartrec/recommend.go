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

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/Evilgadron/SmartRec/base/log"
	"github.com/Evilgadron/SmartRec/logics"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	recommendCommand.Flags().Int("user", 0, "user id")
	recommendCommand.Flags().String("method", "", "recommendation method (user_based or item_based)")
	recommendCommand.Flags().IntP("n", "n", 0, "number of recommended items")
	recommendCommand.Flags().IntP("k", "k", 0, "number of neighbors")
	_ = recommendCommand.MarkFlagRequired("user")
	evaluateCommand.Flags().String("method", "", "recommendation method (user_based or item_based)")
	evaluateCommand.Flags().Int("top-k", 0, "length of evaluated recommendation lists")
	evaluateCommand.Flags().Int("jobs", 0, "number of working jobs")
	rootCommand.AddCommand(recommendCommand, evaluateCommand)
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend top-N items to a user.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		if cmd.Flags().Changed("method") {
			conf.Recommend.Method, _ = cmd.Flags().GetString("method")
		}
		if cmd.Flags().Changed("n") {
			conf.Recommend.N, _ = cmd.Flags().GetInt("n")
		}
		if cmd.Flags().Changed("k") {
			conf.Recommend.K, _ = cmd.Flags().GetInt("k")
		}
		if err := conf.Validate(); err != nil {
			log.Logger().Fatal("invalid config", zap.Error(err))
		}
		method, err := logics.ParseMethod(conf.Recommend.Method)
		if err != nil {
			log.Logger().Fatal("invalid method", zap.Error(err))
		}
		userId, _ := cmd.Flags().GetInt("user")
		e := loadEngine(context.Background(), conf)
		recommendations, err := e.Recommend(method, userId, conf.Recommend.N)
		if err != nil {
			log.Logger().Fatal("failed to recommend", zap.Int("user_id", userId), zap.Error(err))
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Item", "Predicted Rating", "Title")
		for _, r := range recommendations {
			if err = table.Append([]string{
				strconv.Itoa(r.ItemId),
				strconv.FormatFloat(r.PredictedRating, 'f', 4, 64),
				r.Title,
			}); err != nil {
				log.Logger().Fatal("failed to render table", zap.Error(err))
			}
		}
		if err = table.Render(); err != nil {
			log.Logger().Fatal("failed to render table", zap.Error(err))
		}
	},
}

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate recommendations on the held-out test set.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		if cmd.Flags().Changed("method") {
			conf.Recommend.Method, _ = cmd.Flags().GetString("method")
		}
		if cmd.Flags().Changed("top-k") {
			conf.Evaluate.TopK, _ = cmd.Flags().GetInt("top-k")
		}
		if cmd.Flags().Changed("jobs") {
			conf.Evaluate.Jobs, _ = cmd.Flags().GetInt("jobs")
		}
		if err := conf.Validate(); err != nil {
			log.Logger().Fatal("invalid config", zap.Error(err))
		}
		method, err := logics.ParseMethod(conf.Recommend.Method)
		if err != nil {
			log.Logger().Fatal("invalid method", zap.Error(err))
		}
		ctx := context.Background()
		e := loadEngine(ctx, conf)
		bar := progressbar.Default(int64(e.CountEvaluatedUsers()), "Evaluating")
		score, err := e.Evaluate(ctx, method, conf.Evaluate.TopK, conf.Evaluate.Jobs, func() {
			_ = bar.Add(1)
		})
		if err != nil {
			log.Logger().Fatal("failed to evaluate", zap.Error(err))
		}
		_ = bar.Finish()
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Metric", "Value")
		rows := [][]string{
			{fmt.Sprintf("Precision@%d", conf.Evaluate.TopK), strconv.FormatFloat(score.Precision, 'f', 4, 64)},
			{fmt.Sprintf("Recall@%d", conf.Evaluate.TopK), strconv.FormatFloat(score.Recall, 'f', 4, 64)},
			{fmt.Sprintf("NDCG@%d", conf.Evaluate.TopK), strconv.FormatFloat(score.NDCG, 'f', 4, 64)},
			{fmt.Sprintf("HR@%d", conf.Evaluate.TopK), strconv.FormatFloat(score.HitRate, 'f', 4, 64)},
			{"Users", strconv.Itoa(score.Users)},
		}
		if err = table.Bulk(rows); err != nil {
			log.Logger().Fatal("failed to render table", zap.Error(err))
		}
		if err = table.Render(); err != nil {
			log.Logger().Fatal("failed to render table", zap.Error(err))
		}
	},
}
