package main

import (
	"context"

	"tablebook/internal/availability"
	"tablebook/internal/notifications"
	reservationshandler "tablebook/internal/reservations/handler"
	reservationsrepository "tablebook/internal/reservations/repository"
	reservationsservice "tablebook/internal/reservations/service"
	reservationsvalidator "tablebook/internal/reservations/validator"
	tenantshandler "tablebook/internal/tenants/handler"
	tenantsrepository "tablebook/internal/tenants/repository"
	tenantsservice "tablebook/internal/tenants/service"
	tenantsvalidator "tablebook/internal/tenants/validator"
	"tablebook/pkg/app"
	"tablebook/pkg/config"
	"tablebook/pkg/contracts"
	"tablebook/pkg/kafka"
	kafka_config "tablebook/pkg/kafka/config"
	kafkamiddleware "tablebook/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Connect()
	kafkaCfg := kafka_config.Load(cfg.Log)

	cfg.Log.Info("Starting Reservations service")
	serverApp := app.NewApplication()

	tenantService := initTenants(cfg)
	notifier, closeNotifier := initNotifier(cfg, kafkaCfg)
	bookingService := initBookings(cfg, tenantService, notifier)

	health := reservationshandler.NewHealthHandler(map[string]contracts.ReadinessCheck{
		"storage": cfg.Client.Ping,
	}, cfg.Log)

	serverApp.SetApp(cfg, health,
		reservationshandler.NewReservationHandler(bookingService, cfg.Log),
		tenantshandler.NewTenantHandler(tenantService, cfg.Log),
	)
	serverApp.OnShutdown(bookingService.Close)
	serverApp.OnShutdown(closeNotifier)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initTenants(cfg *config.Config) tenantsservice.TenantService {
	tenantService := tenantsservice.NewTenantService(
		tenantsrepository.NewTenantRepository(cfg),
		tenantsvalidator.NewTenantValidator(cfg.Log),
		cfg,
	)
	cfg.Log.Info("Tenant service initialized", "storage_backend", cfg.StorageBackend)
	return tenantService
}

func initBookings(cfg *config.Config, policies reservationsservice.PolicyProvider, notifier notifications.Notifier) reservationsservice.BookingService {
	engine := availability.NewEngine(
		availability.NewTimeContext(availability.SystemClock{}),
		availability.Options{
			StepMinutes: cfg.SlotStepMinutes,
			MaxSteps:    cfg.SlotSearchMaxSteps,
		},
	)

	bookingService := reservationsservice.NewBookingService(
		reservationsrepository.NewReservationRepository(cfg),
		reservationsrepository.NewSlotLocker(cfg),
		policies,
		engine,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		notifier,
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"storage_backend", cfg.StorageBackend,
		"lock_backend", cfg.LockBackend,
	)
	return bookingService
}

// initNotifier always feeds the in-process bus. With Kafka enabled, events are
// also published for cmd/notifier; without it the bus delivers them locally.
// The returned func releases the delivery path once no notification is in
// flight.
func initNotifier(cfg *config.Config, kafkaCfg *kafka_config.Config) (notifications.Notifier, func()) {
	bus := notifications.NewBus(cfg.Log)
	notifier := notifications.Multi{bus}

	if !kafkaCfg.Enabled {
		events, unsubscribe := bus.Subscribe(64)
		sender := notifications.NewLogSender(cfg.Log)
		go func() {
			for event := range events {
				if err := sender.Send(context.Background(), event); err != nil {
					cfg.Log.Warn("Local notification failed", "kind", event.Kind, "error", err)
				}
			}
		}()
		cfg.Log.Info("Kafka disabled, delivering notifications in-process")
		return notifier, unsubscribe
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	closeProducer := func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}

	cfg.Log.Info("Publishing reservation events to Kafka", "topic", cfg.ReservationEventsTopic)
	return append(notifier, notifications.NewKafkaNotifier(producer, ServiceName)), closeProducer
}
