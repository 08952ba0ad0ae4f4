package app

import (
	"context"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/configs"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/cache"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/content"
	httpadapter "github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/http"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/kafka"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/payment"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/queue"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/shipping"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/logging"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(cfg.App.Name, cfg.App.LogFile)
	log.Info("storefront-api: starting up")

	// redis: idempotency + status cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.Cache.TTL)

	// collaborators
	gateway := payment.NewClient(cfg.Payment.APIBase, cfg.Payment.SecretKey, cfg.Payment.Timeout)
	provider := shipping.NewClient(cfg.Shipping.APIBase, cfg.Shipping.Token, cfg.Shipping.Timeout, cfg.Shipping.RateLimit)
	store := content.NewStore(
		content.BaseURL(cfg.Content.ProjectID, cfg.Content.APIVersion),
		cfg.Content.Dataset,
		cfg.Content.ReadToken,
		cfg.Content.WriteToken,
		cfg.Content.Timeout,
	)

	// reconciliation alerts over rabbitmq; optional in local runs
	var alerter usecase.ReconciliationAlerter
	var amqpConn *amqp.Connection
	if cfg.Rabbit.URL != "" {
		conn, err := amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		ra, err := queue.NewRabbitAlerter(ch)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		amqpConn = conn
		alerter = ra
	} else {
		log.Warn("rabbitmq.url not set; reconciliation alerts are log-only")
	}

	shipFrom := entity.Address{
		Name:    cfg.Shipping.ShipFrom.Name,
		Street1: cfg.Shipping.ShipFrom.Street1,
		City:    cfg.Shipping.ShipFrom.City,
		State:   cfg.Shipping.ShipFrom.State,
		Zip:     cfg.Shipping.ShipFrom.Zip,
		Country: cfg.Shipping.ShipFrom.Country,
		Phone:   cfg.Shipping.ShipFrom.Phone,
		Email:   cfg.Shipping.ShipFrom.Email,
	}

	// use cases
	place := usecase.NewPlaceOrder(gateway, provider, store, idem, alerter, logging.New("saga"))
	getOrder := usecase.NewGetOrder(store)
	quote := usecase.NewQuoteRates(provider, shipFrom)
	track := usecase.NewTrackShipment(provider, statusCache, cfg.Shipping.Mode != "live")

	// tracking events advance order lifecycle; optional in local runs
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	if len(cfg.Kafka.Brokers) > 0 {
		grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			stopConsumer()
			return nil, nil, err
		}
		h := kafka.NewTrackingEventHandler(store, statusCache)
		consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicTracking}, h.Handle)
		consumer.Logger = logging.New("kafka")
		go func() {
			if err := consumer.Start(consumerCtx); err != nil && consumerCtx.Err() == nil {
				logging.New("kafka").Error("tracking consumer stopped", "err", err)
			}
		}()
	} else {
		log.Warn("kafka.brokers not set; order lifecycle will not advance from tracking events")
	}

	oh := httpadapter.NewOrderHandler(place, getOrder, cfg.HTTP.RequestTimeout)
	sh := httpadapter.NewShippingHandler(quote, track)
	router := httpadapter.NewRouter(oh, sh)

	cleanup := func() {
		stopConsumer()
		_ = rdb.Close()
		if amqpConn != nil {
			_ = amqpConn.Close()
		}
	}

	return &App{Router: router}, cleanup, nil
}
