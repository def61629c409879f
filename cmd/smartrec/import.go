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
	"time"

	"github.com/Evilgadron/SmartRec/base/log"
	"github.com/Evilgadron/SmartRec/engine"
	"github.com/Evilgadron/SmartRec/storage/data"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	importCommand.Flags().String("ratings", "data/raw/u.data", "path of MovieLens ratings file")
	importCommand.Flags().String("items", "data/raw/u.item", "path of MovieLens items file")
	importCommand.Flags().Bool("purge", false, "purge the data store before import")
	splitCommand.Flags().StringP("output", "o", "data/processed", "directory of exported files")
	rootCommand.AddCommand(importCommand, splitCommand)
}

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import MovieLens files into the data store.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		ratingsFile, _ := cmd.Flags().GetString("ratings")
		itemsFile, _ := cmd.Flags().GetString("items")
		purge, _ := cmd.Flags().GetBool("purge")
		if err := importMovieLens(context.Background(), data.NewMovieLens(ratingsFile, itemsFile),
			conf.Database.DataStore, conf.Database.TablePrefix, purge); err != nil {
			log.Logger().Fatal("failed to import", zap.Error(err))
		}
	},
}

var splitCommand = &cobra.Command{
	Use:   "split",
	Short: "Export the train/test split with normalized ratings as CSV files.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		output, _ := cmd.Flags().GetString("output")
		e := loadEngine(context.Background(), conf)
		if err := e.WriteSplit(output); err != nil {
			log.Logger().Fatal("failed to write split", zap.Error(err))
		}
		log.Logger().Info("write split",
			zap.String("train", engine.TrainFile),
			zap.String("test", engine.TestFile),
			zap.String("output", output))
	},
}

func importMovieLens(ctx context.Context, source data.Database, dataStore, tablePrefix string, purge bool) error {
	start := time.Now()
	ratings, err := source.GetRatings(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	items, err := source.GetItems(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	database, err := data.Open(dataStore, tablePrefix)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Logger().Warn("failed to close data store", zap.Error(err))
		}
	}()
	if err = database.Init(); err != nil {
		return errors.Trace(err)
	}
	if purge {
		if err = database.Purge(); err != nil {
			return errors.Trace(err)
		}
	}
	if err = database.BatchInsertItems(ctx, items); err != nil {
		return errors.Annotate(err, "failed to insert items")
	}
	if err = database.BatchInsertRatings(ctx, ratings); err != nil {
		return errors.Annotate(err, "failed to insert ratings")
	}
	log.Logger().Info("import dataset",
		zap.Int("n_ratings", len(ratings)),
		zap.Int("n_items", len(items)),
		zap.Duration("used_time", time.Since(start)))
	return nil
}
