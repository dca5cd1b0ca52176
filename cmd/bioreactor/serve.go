package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/bioreactor-core/internal/api"
	"github.com/nerrad567/bioreactor-core/internal/chart"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/config"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/bioreactor-core/internal/ingest"
	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// runServe loads configuration and serves until ctx is cancelled.
func runServe(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	return serve(ctx, cfg, log)
}

// serve wires the stores, optional InfluxDB mirror, optional MQTT ingestion
// and the API server, then blocks until ctx is cancelled.
//
// Deferred cleanup runs in reverse order: ingestion, MQTT, API server,
// InfluxDB, database.
func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("starting bioreactor", "version", version, "commit", commit, "build_date", date)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := st.close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	measurements := st.measurements

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		measurements = measurement.WithMirror(measurements, influxClient)
		log.Info("InfluxDB mirror enabled",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB mirror disabled")
	}

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Control:      st.control,
		Measurements: measurements,
		Renderer:     chart.NewRenderer(cfg.Chart.Width, cfg.Chart.Height),
		Database:     api.HealthCheckFunc(st.health),
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if cfg.MQTT.Enabled {
		stop, mqttErr := startIngestion(ctx, cfg.MQTT, measurements, log)
		if mqttErr != nil {
			return mqttErr
		}
		defer stop()
	} else {
		log.Info("MQTT ingestion disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// startIngestion connects to the broker and subscribes the ingestor.
// The returned func stops ingestion and disconnects.
func startIngestion(ctx context.Context, cfg config.MQTTConfig, repo measurement.Repository, log *logging.Logger) (func(), error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	ingestor, err := ingest.New(client, repo, cfg.Topic, byte(cfg.QoS), log) //nolint:gosec // QoS validated by config
	if err == nil {
		err = ingestor.Start(ctx)
	}
	if err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("starting MQTT ingestion: %w", err)
	}

	return func() {
		if stopErr := ingestor.Stop(); stopErr != nil {
			log.Error("error stopping MQTT ingestion", "error", stopErr)
		}
		log.Info("disconnecting from MQTT")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}, nil
}
