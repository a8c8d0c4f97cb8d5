// Package main provides the Merchflow API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/merchflow/merchflow/pkg/chat"
	"github.com/merchflow/merchflow/pkg/cmd"
	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/persistence"
	"github.com/merchflow/merchflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	services    *cmd.Services
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	services *cmd.Services,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		services:    services,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	repository := flow.NewRepository(a.persistence)

	// trigger_flow nodes run nested flows through the same executor
	executor := flow.NewExecutor(repository, a.services.Registry, a.eventBus, a.logger, "api")
	a.services.Runner.Bind(executor)

	planner := chat.NewPlanner(a.services.Index, chat.NewThreadStore(), a.logger)

	handlers := web.NewAPIHandlers(
		repository,
		a.services.Registry,
		planner,
		a.eventBus,
		a.validate,
	)

	return web.NewApp(handlers)
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
