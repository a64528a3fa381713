package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rabbitmq/amqp091-go"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/guestcart"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/rabbit"
	"storefront/internal/realtime"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("⚠️ user index warning:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("⚠️ order index warning:", err)
	}
	if err := database.EnsureNotificationIndexes(db); err != nil {
		log.Println("⚠️ notification index warning:", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Println("⚠️ cart index warning:", err)
	}
	if err := database.EnsureOutboxIndexes(db); err != nil {
		log.Println("⚠️ outbox index warning:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppEnv.RedisAddr,
		Password: config.AppEnv.RedisPassword,
	})
	guests := guestcart.NewStore(rdb, config.AppEnv.GuestCartTTL)

	conn, err := amqp091.Dial(config.AppEnv.RabbitURL)
	if err != nil {
		log.Fatal("RabbitMQ connect failed:", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("RabbitMQ channel failed:", err)
	}

	hub := realtime.NewHub()
	store := notify.NewStore(db)

	consumer := rabbit.NewEventConsumer(db, store, hub)
	if err := rabbit.Setup(ch, consumer); err != nil {
		log.Fatal("RabbitMQ setup failed:", err)
	}

	dispatcher := events.NewDispatcher(db, ch)
	go dispatcher.Run(context.Background())

	jwtSecret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL
	refreshTTL := config.AppEnv.RefreshTokenTTL

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(db, jwtSecret, accessTTL, refreshTTL))
	r.POST("/auth/login", handlers.Login(db, jwtSecret, accessTTL, refreshTTL))
	r.POST("/auth/refresh", handlers.Refresh(db, jwtSecret, accessTTL, refreshTTL))
	r.POST("/auth/logout", handlers.Logout(db))
	r.GET("/auth/me", middleware.AuthGuard(jwtSecret), handlers.GetMe(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))

	r.GET("/guest-cart", handlers.GetGuestCart(guests))
	r.POST("/guest-cart/items", handlers.AddGuestCartItem(db, guests))
	r.DELETE("/guest-cart/items/:productId", handlers.RemoveGuestCartItem(guests))
	r.DELETE("/guest-cart", handlers.ClearGuestCart(guests))

	r.GET("/ws", realtime.ServeWS(hub, jwtSecret))

	user := r.Group("/")
	user.Use(middleware.AuthGuard(jwtSecret))
	{
		user.GET("/users/me/addresses", handlers.GetUserAddresses(db))
		user.POST("/users/me/addresses", handlers.CreateUserAddress(db))
		user.PUT("/users/me/addresses/:id", handlers.UpdateUserAddress(db))
		user.DELETE("/users/me/addresses/:id", handlers.DeleteUserAddress(db))

		user.POST("/orders", handlers.CreateOrder(db))
		user.GET("/orders", handlers.GetMyOrders(db))
		user.GET("/orders/:id", handlers.GetOrder(db))
		user.PUT("/orders/:id/cancel", handlers.CancelOrder(db))
		user.DELETE("/orders/:id", handlers.DeleteOrder(db))
		user.DELETE("/orders/completed", handlers.ClearCompletedOrders(db))

		user.GET("/cart", handlers.GetCart(db))
		user.POST("/cart/items", handlers.AddCartItem(db))
		user.PUT("/cart/items/:itemId", handlers.UpdateCartItem(db))
		user.DELETE("/cart/items/:itemId", handlers.RemoveCartItem(db))
		user.DELETE("/cart", handlers.ClearCart(db))
		user.POST("/cart/merge", handlers.MergeGuestCart(db, guests))

		user.GET("/wishlist", handlers.GetWishlist(db))
		user.POST("/wishlist/items", handlers.AddWishlistItem(db))
		user.DELETE("/wishlist/items/:productId", handlers.RemoveWishlistItem(db))
		user.POST("/wishlist/items/:productId/move-to-cart", handlers.MoveWishlistItemToCart(db))

		user.GET("/notifications", handlers.GetNotifications(db))
		user.GET("/notifications/unread-count", handlers.GetUnreadCount(db))
		user.PUT("/notifications/:id/read", handlers.MarkNotificationRead(db))
		user.PUT("/notifications/read-all", handlers.MarkAllNotificationsRead(db, hub))
		user.DELETE("/notifications/:id", handlers.DeleteNotification(db))
		user.DELETE("/notifications/read", handlers.ClearReadNotifications(db, hub))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(jwtSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/orders", handlers.GetAllOrders(db))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(db))
		admin.PUT("/orders/:id/refund", handlers.ProcessRefund(db))
		admin.DELETE("/orders/:id", handlers.AdminDeleteOrder(db))

		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.POST("/notifications/global", handlers.GlobalNotification(db))
	}

	r.Run(":" + config.AppEnv.Port)
}
