package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/config"
	"github.com/iliyamo/event-accommodation/internal/database"
	"github.com/iliyamo/event-accommodation/internal/dispatch"
	"github.com/iliyamo/event-accommodation/internal/handler"
	"github.com/iliyamo/event-accommodation/internal/mailer"
	"github.com/iliyamo/event-accommodation/internal/middleware"
	"github.com/iliyamo/event-accommodation/internal/queue"
	"github.com/iliyamo/event-accommodation/internal/repository"
	"github.com/iliyamo/event-accommodation/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	hotels := repository.NewHotelRepo(db)
	roomTypes := repository.NewRoomTypeRepo(db)
	avail := repository.NewAvailabilityRepo(db)
	bookings := repository.NewBookingRepo(db)
	people := repository.NewPersonRepo(db)
	events := repository.NewEventRepo(db)
	notifications := repository.NewNotificationRepo(db)
	users := repository.NewUserRepo(db)

	var sender mailer.Sender
	if cfg.MailAPIKey != "" {
		sender = mailer.NewHTTPClient(cfg.MailAPIKey, cfg.MailAPIURL)
	} else {
		log.Println("MAIL_API_KEY not set, using mock sender")
		sender = &mailer.MockSender{}
	}
	dispatcher := dispatch.NewDispatcher(bookings, notifications, events, sender)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users),
		Availability: handler.NewAvailabilityHandler(roomTypes, avail, bookings),
		Booking:      handler.NewBookingHandler(events, people, hotels, roomTypes, avail, bookings),
		Hotel:        handler.NewHotelHandler(hotels, roomTypes, events, cfg.AvailabilityDays),
		Person:       handler.NewPersonHandler(events, people),
		Notification: handler.NewNotificationHandler(events, bookings, notifications, dispatcher),
		Roster:       handler.NewRosterHandler(events, hotels, bookings),
	}

	// Response cache for the availability read; disabled when redis is
	// unreachable.
	var cacheGET echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		cacheGET = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	// Consume booking.changed events into the local audit log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, cfg.JWTSecret, cacheGET)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
