package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/api"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/client"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/evidence"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/ledger"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/logging"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/must"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/seed"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/worldstate"

	"github.com/nats-io/nats.go"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		flag.PrintDefaults()

		fmt.Fprint(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprint(os.Stderr, "  EVIDENCE_S3_ACCESS_KEY\n")
		fmt.Fprint(os.Stderr, "        s3 access key used to read evidence documents\n")
		fmt.Fprint(os.Stderr, "  EVIDENCE_S3_SECRET_KEY\n")
		fmt.Fprint(os.Stderr, "        s3 secret key used to read evidence documents\n")
	}

	flagWorldStateBackend := ""
	flagEtcdEndpoints := ""
	flagEtcdPrefix := ""
	flagLedgerTransport := ""
	flagNATSURL := ""
	flagNATSSubject := ""
	flagNATSServe := ""
	flagListen := ""
	flagSeedFactors := ""
	flagSeedUtilities := ""
	flagEvidenceGCS := ""
	flagEvidenceGCSEndpoint := ""
	flagEvidenceS3 := ""
	flagEvidenceS3Endpoint := ""
	flagEvidenceS3Region := ""
	flagEvidenceS3RoleArn := ""
	flagLogLevel := ""
	flagLogFormat := ""

	flag.StringVar(&flagWorldStateBackend, "worldstate.backend", "memory", "world state backend (memory, etcd)")
	flag.StringVar(&flagEtcdEndpoints, "etcd.endpoints", "127.0.0.1:2379", "comma separated etcd endpoints")
	flag.StringVar(&flagEtcdPrefix, "etcd.prefix", "emissions", "etcd key prefix")
	flag.StringVar(&flagLedgerTransport, "ledger.transport", "local", "ledger transport (local, nats)")
	flag.StringVar(&flagNATSURL, "nats.url", nats.DefaultURL, "nats server url")
	flag.StringVar(&flagNATSSubject, "nats.subject", ledger.DefaultSubject, "nats subject prefix of ledger transactions")
	flag.StringVar(&flagNATSServe, "nats.serve", "false", "answer ledger transactions received over nats")
	flag.StringVar(&flagListen, "listen", "0.0.0.0:8080", "addr to listen to, empty to disable the api")
	flag.StringVar(&flagSeedFactors, "seed.factors", "", "yaml or json file of emissions factors to import at start")
	flag.StringVar(&flagSeedUtilities, "seed.utilities", "", "yaml or json file of utility identifiers to import at start")
	flag.StringVar(&flagEvidenceGCS, "evidence.gcs", "false", "read gs:// evidence documents")
	flag.StringVar(&flagEvidenceGCSEndpoint, "evidence.gcs.endpoint", "", "cloud storage endpoint override")
	flag.StringVar(&flagEvidenceS3, "evidence.s3", "false", "read s3:// evidence documents")
	flag.StringVar(&flagEvidenceS3Endpoint, "evidence.s3.endpoint", "", "s3 endpoint override")
	flag.StringVar(&flagEvidenceS3Region, "evidence.s3.region", "us-east-1", "s3 region")
	flag.StringVar(&flagEvidenceS3RoleArn, "evidence.s3.rolearn", "", "aws role assumed to read s3 evidence documents")
	flag.StringVar(&flagLogLevel, "log.level", "info", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "text", "log format (text, json)")

	flag.Parse()

	logging.Init(flagLogLevel, flagLogFormat)

	e := engine.New()

	var state store.WorldState
	switch flagWorldStateBackend {
	case "memory":
		state = worldstate.NewMemory()
	case "etcd":
		etcdClient, err := clientv3.New(clientv3.Config{
			Endpoints:   strings.Split(flagEtcdEndpoints, ","),
			DialTimeout: 5 * time.Second,
		})
		must.NoError(err, "failed to create etcd client")
		defer etcdClient.Close()
		state = worldstate.NewEtcd(etcdClient, worldstate.WithPrefix(flagEtcdPrefix))
	default:
		slog.Error("world state backend is not supported", "worldstate.backend", flagWorldStateBackend)
		os.Exit(1)
	}

	if flagNATSServe == "true" {
		conn, err := nats.Connect(flagNATSURL, nats.Name("emissions-node"))
		must.NoError(err, "failed to connect to nats")
		defer conn.Close()

		server := ledger.NewServer(conn, e, state, flagNATSSubject, ledger.DefaultQueue)
		must.NoError(server.Start(), "failed to serve ledger transactions")
		defer server.Close()
	}

	var connector ledger.Connector
	switch flagLedgerTransport {
	case "local":
		connector = ledger.NewLocalConnector(e, state)
	case "nats":
		connector = ledger.NewNATSConnector(flagNATSURL, ledger.WithSubject(flagNATSSubject))
	default:
		slog.Error("ledger transport is not supported", "ledger.transport", flagLedgerTransport)
		os.Exit(1)
	}

	emissions := client.New(connector, client.WithUtilityCache(time.Minute), client.WithEvidenceHasher(
		evidence.NewHasher(setupEvidenceOptions(ctx, map[string]string{
			"evidence.gcs":          flagEvidenceGCS,
			"evidence.gcs.endpoint": flagEvidenceGCSEndpoint,
			"evidence.s3":           flagEvidenceS3,
			"evidence.s3.endpoint":  flagEvidenceS3Endpoint,
			"evidence.s3.region":    flagEvidenceS3Region,
			"evidence.s3.rolearn":   flagEvidenceS3RoleArn,
		})...),
	))

	importSeeds(ctx, seed.NewImporter(emissions), flagSeedFactors, flagSeedUtilities)

	if flagListen == "" {
		slog.Info("api disabled, serving ledger transactions only")
		<-ctx.Done()
		return
	}

	srv := &http.Server{
		Addr:              flagListen,
		Handler:           api.New(emissions).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown api", "err", err)
		}
	}()

	slog.Info("starting emissions api", "listen", flagListen, "worldstate", flagWorldStateBackend, "transport", flagLedgerTransport)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start emissions api", "err", err)
		os.Exit(1)
	}
}

func setupEvidenceOptions(ctx context.Context, params map[string]string) []evidence.Option {
	opts := []evidence.Option{}

	if params["evidence.gcs"] == "true" {
		gcsClient, err := evidence.NewGCSClient(ctx, params["evidence.gcs.endpoint"])
		must.NoError(err, "failed to create evidence cloud storage client")
		opts = append(opts, evidence.WithGCSClient(gcsClient))
	}

	if params["evidence.s3"] == "true" {
		s3Client, err := evidence.NewS3Client(ctx, evidence.S3Config{
			Region:    params["evidence.s3.region"],
			Endpoint:  params["evidence.s3.endpoint"],
			AccessKey: os.Getenv("EVIDENCE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("EVIDENCE_S3_SECRET_KEY"),
			RoleArn:   params["evidence.s3.rolearn"],
		})
		must.NoError(err, "failed to create evidence s3 client")
		opts = append(opts, evidence.WithS3Client(s3Client))
	}

	return opts
}

func importSeeds(ctx context.Context, importer *seed.Importer, factorsPath string, utilitiesPath string) {
	if utilitiesPath != "" {
		rows, err := seed.Load(utilitiesPath)
		must.NoError(err, "failed to load utility identifiers")
		must.NoError(importer.ImportUtilities(ctx, rows), "failed to import utility identifiers")
	}
	if factorsPath != "" {
		rows, err := seed.Load(factorsPath)
		must.NoError(err, "failed to load emissions factors")
		must.NoError(importer.ImportFactors(ctx, rows), "failed to import emissions factors")
	}
}
