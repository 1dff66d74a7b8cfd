// Package server assembles the HTTP application.
package server

import (
	"errors"
	"strings"

	"spese-backend/internal/audit"
	"spese-backend/internal/auth"
	"spese-backend/internal/config"
	"spese-backend/internal/dashboard"
	"spese-backend/internal/expense"
	"spese-backend/internal/ledger"
	"spese-backend/internal/monthly"
	"spese-backend/internal/reconcile"
	"spese-backend/internal/rules"
	"spese-backend/internal/statement"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// MaxUploadBytes bounds request bodies, statement uploads included.
const MaxUploadBytes = 20 << 20

// ErrorHandler renders every error as {"error": msg}. Domain errors map to
// their HTTP status; anything else is logged and hidden behind a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.Is(err, ledger.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "unexpected server error",
	})
}

func NewApp(cfg *config.Config, db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    MaxUploadBytes,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	rulesSvc := rules.NewService(db, cfg.DefaultSenderTolerance)
	expenseSvc := expense.NewService(db)
	ingestor := statement.NewIngestor(db, cfg.StatementHeaderRow)
	engine := reconcile.NewEngine(reconcile.NewGormStore(db))

	api := app.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Statement import
	protected.Post("/statements/upload", statement.UploadHandler(ingestor))

	// Ledger; bulk-delete before :id so it is not read as an id
	protected.Get("/expenses", expense.ListExpensesHandler(expenseSvc))
	protected.Post("/expenses", expense.CreateExpenseHandler(expenseSvc))
	protected.Delete("/expenses/bulk-delete", expense.BulkDeleteHandler(expenseSvc))
	protected.Patch("/expenses/:id/toggle", expense.ToggleExpenseHandler(expenseSvc))
	protected.Patch("/expenses/:id", expense.UpdateExpenseHandler(expenseSvc))
	protected.Delete("/expenses/:id", expense.DeleteExpenseHandler(expenseSvc))

	// Dashboard
	protected.Get("/periods", dashboard.PeriodsHandler(db))
	protected.Get("/dashboard/stats", dashboard.StatsHandler(db))
	protected.Get("/dashboard/trend", dashboard.TrendHandler(db))

	// Monthly settlement
	protected.Get("/monthly-status", monthly.ListStatusHandler(db))
	protected.Post("/monthly-status", monthly.SetStatusHandler(db))

	// Rules
	protected.Get("/neutral-keywords", rules.ListKeywordsHandler(rulesSvc))
	protected.Post("/neutral-keywords", rules.CreateKeywordHandler(rulesSvc))
	protected.Delete("/neutral-keywords/:id", rules.DeleteKeywordHandler(rulesSvc))
	protected.Get("/reimbursement-senders", rules.ListSendersHandler(rulesSvc))
	protected.Post("/reimbursement-senders", rules.CreateSenderHandler(rulesSvc))
	protected.Patch("/reimbursement-senders/:id", rules.UpdateSenderHandler(rulesSvc))
	protected.Delete("/reimbursement-senders/:id", rules.DeleteSenderHandler(rulesSvc))

	// Reconciliation
	protected.Get("/reimbursements/candidates", reconcile.CandidatesHandler(engine))
	protected.Post("/reimbursements/confirm", reconcile.ConfirmHandler(db))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	return app
}
