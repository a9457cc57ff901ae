// Command trellis wires a complete resource engine instance from
// configuration and runs one illustrative create/get cycle before exiting,
// grounded on the teacher's cmd/worker/main.go: load config, build a
// dependency graph by hand (no DI container, since this engine's graph is
// small enough not to need one), log startup/shutdown, and wait on an
// interrupt signal for graceful shutdown.
package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gregjan/trellis/internal/config"
	"github.com/gregjan/trellis/internal/observability"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/service"
	"github.com/gregjan/trellis/session"
	"github.com/gregjan/trellis/store"
	"github.com/gregjan/trellis/store/binary"
	"github.com/gregjan/trellis/store/cached"
	"github.com/gregjan/trellis/store/external"
	"github.com/gregjan/trellis/store/instrumented"
	"github.com/gregjan/trellis/store/memory"
	"github.com/gregjan/trellis/store/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting trellis resource engine",
		zap.String("environment", string(cfg.Environment)),
		zap.String("backend", cfg.Backend.Kind),
	)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	if cfg.Tracing.Enabled {
		tp, err := observability.NewTracerProvider(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
		if err != nil {
			logger.Warn("failed to start tracer provider, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	qs, err := buildStore(ctx, cfg, logger, metrics)
	if err != nil {
		log.Fatalf("failed to build quad store: %v", err)
	}

	content, err := buildBinaryContent(ctx, cfg.BinaryContent)
	if err != nil {
		log.Fatalf("failed to build binary content store: %v", err)
	}

	svc := service.NewResourceService(qs, nil, nil, logger, metrics, model.AllInteractionModels, content)

	watcher, err := config.NewWatcher(cfg, *configPath, logger)
	if err != nil {
		logger.Warn("failed to start config watcher", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	if err := demonstrate(ctx, svc, logger); err != nil {
		logger.Error("demonstration cycle failed", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	cancel()
	<-shutdownCtx.Done()
}

func newLogger(cfg config.Logging) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.JSON {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

// buildStore constructs the configured backend and layers the resilience,
// cache, and instrumentation decorators on top, innermost first:
// external backends get a circuit breaker between them and the cache since
// a flapping remote should trip before the cache ever serves a stale read;
// instrumented always wraps the outermost layer so every call — cached or
// not, breaker-guarded or not — is observed uniformly.
func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) (store.QuadStore, error) {
	var qs store.QuadStore

	switch cfg.Backend.Kind {
	case "external":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Backend.Region))
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Backend.Endpoint != "" {
				o.BaseEndpoint = &cfg.Backend.Endpoint
			}
		})
		qs = external.New(client, cfg.Backend.Table, cfg.Backend.IndexName, logger)

		if cfg.CircuitBreaker.Enabled {
			qs = resilience.New(qs, resilience.Config{
				Name:             "external-store",
				MaxRequests:      3,
				Interval:         10 * time.Second,
				Timeout:          cfg.CircuitBreaker.OpenDuration,
				FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
				MinRequests:      uint32(cfg.CircuitBreaker.MinimumRequests),
			})
		}

	default:
		qs = memory.New()
	}

	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		qs = cached.New(qs, client, "trellis:", cfg.Cache.TTL)
	}

	return instrumented.New(qs, logger, metrics), nil
}

// buildBinaryContent constructs the configured store/binary.Content that
// holds NonRDFSource byte payloads, independent of buildStore's
// store.QuadStore: a BinaryContent.Kind of "s3" is deployed against a real
// bucket while the quad-store backend can still be memory (e.g. a dev
// environment exercising S3 wiring without a provisioned DynamoDB table).
func buildBinaryContent(ctx context.Context, cfg config.BinaryContent) (binary.Content, error) {
	switch cfg.Kind {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = &cfg.Endpoint
				o.UsePathStyle = true
			}
		})
		return binary.NewS3Content(client, cfg.Bucket, cfg.LocationPrefix), nil
	default:
		return binary.NewMemoryContent(), nil
	}
}

// demonstrate runs one create-then-get cycle for an RDFSource followed by a
// NonRDFSource create-plus-content-round-trip, so a fresh deployment's
// quad-store wiring and binary-content wiring can both be sanity-checked
// from the logs alone.
func demonstrate(ctx context.Context, svc *service.ResourceService, logger *zap.Logger) error {
	id := rdf.IRI("https://example.org/resources/" + svc.GenerateIdentifier())
	sess := session.New(rdf.IRI("https://example.org/agents/bootstrap"))

	dataset := rdf.NewDataset(rdf.NewQuad(id, id, rdf.IRI("http://purl.org/dc/terms/title"), rdf.NewStringLiteral("bootstrap resource")))

	if err := svc.Create(ctx, id, sess, model.RDFSource, dataset, nil, nil); err != nil {
		return err
	}

	view, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	logger.Info("demonstration resource created", zap.String("id", string(id)), zap.Bool("live", view.IsLive()))

	return demonstrateBinary(ctx, svc, sess, logger)
}

// demonstrateBinary creates a NonRDFSource whose Location points at a
// distinct resource IRI, writes its payload through PutBinaryContent, and
// reads it back, proving the metadata quads (committed by Create) and the
// bytes (committed by PutBinaryContent) are reachable independently of one
// another.
func demonstrateBinary(ctx context.Context, svc *service.ResourceService, sess session.Session, logger *zap.Logger) error {
	id := rdf.IRI("https://example.org/resources/" + svc.GenerateIdentifier())
	location := rdf.IRI("https://example.org/binaries/" + svc.GenerateIdentifier())
	mime := "text/plain"
	payload := []byte("bootstrap binary content")
	size := int64(len(payload))

	binaryMeta := &model.BinaryMetadata{Location: location, Modified: time.Now().UTC(), MimeType: &mime, Size: &size}

	if err := svc.Create(ctx, id, sess, model.NonRDFSource, rdf.NewDataset(), nil, binaryMeta); err != nil {
		return err
	}
	if err := svc.PutBinaryContent(ctx, location, bytes.NewReader(payload), size); err != nil {
		return err
	}

	rc, err := svc.GetBinaryContent(ctx, location)
	if err != nil {
		return err
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	logger.Info("demonstration binary content round-tripped",
		zap.String("id", string(id)),
		zap.String("location", string(location)),
		zap.Int("bytes", len(got)),
	)
	return nil
}
