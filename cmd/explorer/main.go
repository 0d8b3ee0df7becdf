package main

import (
	"context"
	"flag"

	"github.com/pathviz/pathviz/pkg/engine/search"
	"github.com/pathviz/pathviz/pkg/http"
	"github.com/pathviz/pathviz/pkg/http/usecases"
	"github.com/pathviz/pathviz/pkg/logger"
	"github.com/pathviz/pathviz/pkg/osmparser"
	"github.com/pathviz/pathviz/pkg/spatialindex"
	"github.com/pathviz/pathviz/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	leafBoundingBoxRadius = flag.Float64("leaf_bounding_box_radius", 0.05, "leaf node (r-tree) bounding box radius in km")
	osmFile               = flag.String("osm", "", "road map preloaded as the default session graph, overrides OSM_FILE")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	explorerService := usecases.NewExplorerService(logger,
		func() usecases.SpatialIndex { return spatialindex.NewRtree() },
		*leafBoundingBoxRadius, viper.GetFloat64("SEARCH_RADIUS_KM"), viper.GetInt("MAX_STEPS_PER_ADVANCE"),
		search.WithLogger(logger))

	ctx, cancel := http.GracefulShutdown(context.Background(), logger)
	defer cancel()

	mapFile := *osmFile
	if mapFile == "" {
		mapFile = viper.GetString("OSM_FILE")
	}
	if mapFile != "" {
		ways, err := osmparser.NewOSMParser(logger).ParseFile(ctx, mapFile)
		if err != nil {
			logger.Fatal("failed to load default map", zap.String("file", mapFile), zap.Error(err))
		}
		explorerService.SetDefaultWays(ways)
	}

	api := http.NewServer(logger).Use(ctx, viper.GetBool("USE_RATE_LIMIT"), explorerService)
	if err := api.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("Pathviz Explorer Server Stopped")
}
