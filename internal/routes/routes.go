package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/config"
	"github.com/example/tiffin/internal/handlers"
	"github.com/example/tiffin/internal/middleware"
	"github.com/example/tiffin/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	notifier := services.NewNotifierService(cfg.TelegramBotToken, cfg.TelegramOpsChat)
	tracking := services.NewTrackingService(rdb)

	ledger := services.NewLedgerService(db)
	reconciliation := services.NewReconciliationService(db, ledger)
	lifecycle := services.NewLifecycleService(db, notifier)
	transitions := services.NewTransitionService(db, tracking, notifier)
	plans := services.NewPlanService(db)
	quotations := services.NewQuotationService(db)
	export := services.NewExportService(quotations)

	authHandler := handlers.NewAuthHandler(db, cfg)
	profileHandler := handlers.NewProfileHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	orderHandler := handlers.NewOrderHandler(db, cfg, plans, lifecycle)
	adminHandler := handlers.NewAdminHandler(db, lifecycle, transitions)
	paymentHandler := handlers.NewPaymentHandler(db, ledger, reconciliation)
	quotationHandler := handlers.NewQuotationHandler(quotations, export)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Authenticated routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)

	// Restaurant browsing for bookers
	protected.Get("/restaurants", catalogHandler.ListRestaurants)
	protected.Get("/restaurants/:id", catalogHandler.GetRestaurant)
	protected.Get("/restaurants/:id/foods", catalogHandler.ListFoods)

	// Booker order flow
	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Put("/orders/:id/details", orderHandler.UpdateDetails)
	protected.Post("/orders/:id/submit", orderHandler.SubmitOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	// Operator console
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.RequireAdmin())

	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Get("/orders/:id", adminHandler.GetOrder)
	admin.Put("/orders/:id/state", adminHandler.UpdateOrderState)
	admin.Put("/orders/:id/staff", adminHandler.AssignStaff)
	admin.Post("/orders/:id/transitions", adminHandler.ApplyTransition)

	admin.Get("/orders/:id/quotation", quotationHandler.CurrentQuotation)
	admin.Post("/orders/:id/quotation", quotationHandler.SnapshotQuotation)
	admin.Get("/orders/:id/quotation/export", quotationHandler.ExportQuotation)
	admin.Get("/quotations/:quotationId", quotationHandler.GetQuotation)

	admin.Get("/orders/:id/payments", paymentHandler.ListPaymentRecords)
	admin.Post("/orders/:id/payments", paymentHandler.AddPaymentRecord)
	admin.Delete("/orders/:id/payments/:recordId", paymentHandler.DeletePaymentRecord)
	admin.Post("/orders/:id/payments/confirm", paymentHandler.ConfirmPartnerPayment)
	admin.Get("/orders/:id/reconciliation", paymentHandler.OrderPaymentStatus)
	admin.Get("/orders/:id/reconciliation/suborder", paymentHandler.SubOrderPaymentStatus)

	// Restaurant management
	admin.Post("/restaurants", catalogHandler.CreateRestaurant)
	admin.Put("/restaurants/:id", catalogHandler.UpdateRestaurant)
	admin.Delete("/restaurants/:id", catalogHandler.DeleteRestaurant)
	admin.Post("/restaurants/:id/foods", catalogHandler.CreateFood)
	admin.Put("/restaurants/:id/foods/:foodId", catalogHandler.UpdateFood)
	admin.Delete("/restaurants/:id/foods/:foodId", catalogHandler.DeleteFood)
}
