package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/activityrelay/internal/config"
	"example.com/activityrelay/internal/consumer"
	"example.com/activityrelay/internal/discord"
	"example.com/activityrelay/internal/domain"
	persistence "example.com/activityrelay/internal/persistence/postgres"
	"example.com/activityrelay/internal/relay"
	"example.com/activityrelay/internal/strava"
	"example.com/activityrelay/internal/tokens"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool, cfg.UsersTable, cfg.MessagesTable)

	stravaClient := strava.NewClient(strava.ClientConfig{
		BaseURL:      cfg.StravaBaseURL,
		TokenURL:     cfg.StravaTokenURL,
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		Timeout:      cfg.HTTPTimeout,
	})

	notifier, err := discord.NewNotifier(cfg.DiscordWebhookURL)
	if err != nil {
		log.Fatalf("invalid discord webhook url: %v", err)
	}

	resolver := tokens.NewResolver(repo, stravaClient)
	service := relay.NewService(resolver, stravaClient, notifier, repo)
	handler := consumer.NewRelayHandler(service)

	opsMux := http.NewServeMux()
	opsMux.Handle("/metrics", promhttp.Handler())
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// Direct-HTTP entry point: feed a raw event straight into the processor,
	// bypassing the transport.
	opsMux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
			return
		}
		var event domain.ActivityEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, "unable to parse body", http.StatusBadRequest)
			return
		}
		if err := event.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := service.Process(r.Context(), event); err != nil {
			log.Printf("direct process failed: %v", err)
			http.Error(w, "processing failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	opsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: opsMux}

	go func() {
		log.Printf("consumer ops listening on %s", cfg.MetricsAddress)
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ops server error: %v", err)
		}
	}()

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroup,
		Topic:           cfg.ActivityTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := consumer.NewProcessor(reader, handler)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		log.Printf("consumer started (topic=%s, group=%s)", cfg.ActivityTopic, cfg.ConsumerGroup)
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("consumer stopped with error: %v", err)
		}
	}()

	<-stop
	log.Println("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ops server shutdown error: %v", err)
	}

	wg.Wait()
}
