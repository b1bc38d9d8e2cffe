package main

import (
	"context"
	"fmt"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/peterssg513/willowandwater-sub001/internal/app"
	"github.com/peterssg513/willowandwater-sub001/internal/config"
	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/services"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// Scheduled batch tasks for serverless deployments. An EventBridge rule
// invokes the function with {"task": "charge_balances"} and so on.

type handler struct {
	tasks *services.TaskRunner
}

func (h *handler) Handle(ctx context.Context, evt dtos.TaskRequest) (*dtos.TaskResponse, error) {
	if evt.Task == "" {
		return nil, fmt.Errorf("event is missing a task; expected one of %v", h.tasks.Tasks())
	}
	utils.Logger.WithField("task", evt.Task).Info("Lambda task invoked")
	out, err := h.tasks.Run(ctx, evt.Task)
	if err != nil {
		return nil, err
	}
	return &dtos.TaskResponse{Task: evt.Task, Result: out}, nil
}

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	// The pool is reused across warm invocations.
	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize booking lambda:", err)
	}
	defer application.Close()

	svcs := app.NewServices(cfg, app.NewRepositories(application.DB))
	h := &handler{tasks: svcs.Tasks}
	lambda.Start(h.Handle)
}
