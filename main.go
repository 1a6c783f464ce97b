package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/labstack/gommon/log"

	"variation-commons/api/contexts"
	vcm "variation-commons/api/middleware"
	"variation-commons/api/models"
	"variation-commons/api/mvc/ingestion"
	serviceInfo "variation-commons/api/mvc/service-info"
	mvcSources "variation-commons/api/mvc/sources"
	"variation-commons/api/mvc/workflows"
	esRepo "variation-commons/api/repositories/elasticsearch"
	"variation-commons/api/repositories/memory"
	mongoRepo "variation-commons/api/repositories/mongo"
	"variation-commons/api/services"
	"variation-commons/api/services/sanitation"
	"variation-commons/api/services/sources"
	"variation-commons/api/services/writer"
	"variation-commons/api/utils"
)

// store is what every backend offers: the writer port plus the read side.
type store interface {
	writer.Collection
	sources.Repository
}

func main() {
	// Gather environment variables
	cfg, err := models.LoadConfig(os.Getenv("VCOMMONS_CONFIG_FILE"))
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	if cfg.Debug {
		log.SetLevel(log.DEBUG)
	} else {
		log.SetLevel(log.INFO)
	}

	log.Infof("Using : \n"+
		"\tDebug : %t \n"+
		"\tStore Backend : %s \n"+
		"\tFiles Collection : %s \n"+
		"\tMongo Database : %s \n"+
		"\tElasticsearch Url : %s \n"+
		"\tManifest Path : %s \n"+
		"\tFile Processing Concurrency Level : %d\n"+
		"\tSanitation Interval (minutes) : %d\n"+
		"Running on Port : %s\n",
		cfg.Debug,
		cfg.Store.Backend,
		cfg.Store.FilesCollection,
		cfg.Mongo.Database,
		cfg.Elasticsearch.Url,
		cfg.Api.ManifestPath,
		cfg.Api.FileProcessingConcurrencyLevel,
		cfg.Sanitation.IntervalMinutes,
		cfg.Api.Port)

	// Service Connections
	st, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("opening %s store: %v", cfg.Store.Backend, err)
	}
	defer closeStore()

	// Service Singletons
	w := writer.NewVariantSourceWriter(st)
	iz := services.NewIngestionService(w, cfg)
	defer iz.Stop()
	src := sources.NewSourceService(st)
	ss := sanitation.NewSanitationService(cfg, iz, src)
	defer ss.Stop()

	e := newServer(cfg, iz, src)
	e.Logger.Fatal(e.Start(":" + cfg.Api.Port))
}

func openStore(cfg *models.Config) (store, func(), error) {
	switch cfg.Store.Backend {
	case models.StoreBackendMongo:
		client, err := utils.CreateMongoConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Disconnect(ctx)
		}
		db := client.Database(cfg.Mongo.Database)
		return mongoRepo.NewVariantSourceCollection(db, cfg.Store.FilesCollection), closeStore, nil

	case models.StoreBackendElasticsearch:
		es, err := utils.CreateEsConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		return esRepo.NewVariantSourceIndex(es, cfg.Store.FilesCollection), func() {}, nil

	case models.StoreBackendMemory:
		log.Warn("Using the in-memory store; nothing survives a restart")
		return memory.NewVariantSourceCollection(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newServer(cfg *models.Config, iz *services.IngestionService, src *sources.SourceService) *echo.Echo {
	// Instantiate Server
	e := echo.New()
	e.HideBanner = true

	// Configure Server
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
	}))

	// -- Override handlers with the api context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac := &contexts.ApiContext{
				Context:          c,
				Config:           cfg,
				IngestionService: iz,
				SourceService:    src,
			}
			return h(ac)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", serviceInfo.GetWelcome)

	// -- Service Info
	e.GET("/service-info", serviceInfo.GetServiceInfo)

	// -- Variant Sources
	e.POST("/variant-sources", mvcSources.VariantSourcesPost)
	e.GET("/variant-sources/get/by/fileId", mvcSources.VariantSourcesGetByFileId,
		// middleware
		vcm.MandateFileIdAndStudyIdAttributes)
	e.DELETE("/variant-sources", mvcSources.VariantSourcesDelete,
		// middleware
		vcm.MandateFileIdAndStudyIdAttributes)
	e.GET("/variant-sources/indexes", mvcSources.VariantSourcesGetIndexes)

	e.GET("/variant-sources/ingestion/run", ingestion.VariantSourcesIngest,
		// middleware
		vcm.MandateManifestsAttribute)
	e.GET("/variant-sources/ingestion/requests", ingestion.GetAllVariantSourceIngestionRequests)

	// -- Workflows
	e.GET("/workflows", workflows.WorkflowsGet)

	return e
}
