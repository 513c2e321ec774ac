package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/runcase/internal/actions"
	"github.com/rendis/runcase/internal/config"
	"github.com/rendis/runcase/internal/logging"
	"github.com/rendis/runcase/internal/reporter"
	"github.com/rendis/runcase/internal/scheduler"
	"github.com/rendis/runcase/pkg/model"
)

// main is a thin demo wrapper, not the engine's supported entry point:
// the document parser, CLI, and file-discovery walker are out of scope.
// It exists so the engine has one runnable path — load a test case, wire
// the builtin actions and a JSON reporter, run it, and exit per the
// aggregate-verdict exit-code contract.
func main() {
	logger := slog.New(logging.NewCorrelationHandler(slog.NewJSONHandler(os.Stderr, nil)))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: runcase <test-case.yaml>")
		os.Exit(2)
	}

	tc, err := loadTestCase(os.Args[1])
	if err != nil {
		logger.Error("load test case", "error", err)
		os.Exit(2)
	}

	cfg := config.New(mustLoadSettings())

	reg := actions.NewRegistry()
	httpCfg := actions.HTTPConfig{}
	if v, ok := cfg.Get("http.default_timeout"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			httpCfg.DefaultTimeout = d
		} else {
			logger.Warn("ignoring invalid http.default_timeout", "value", v, "error", err)
		}
	}
	if err := actions.RegisterBuiltins(reg, httpCfg); err != nil {
		logger.Error("register builtin actions", "error", err)
		os.Exit(2)
	}

	rep := reporter.NewJSONReporter()

	execCtx := model.NewExecutionContext(uuid.NewString(), tc.Name)
	sched := scheduler.NewScheduler(reg, rep)

	ctx := logging.WithTestCaseID(context.Background(), execCtx.TestCaseID)
	verdict, err := sched.ExecuteTestCase(ctx, tc, execCtx)
	if err != nil {
		logger.Error("execute test case", "error", err)
		os.Exit(2)
	}

	report, err := rep.GenerateReport()
	if err != nil {
		logger.Error("generate report", "error", err)
	} else if out, err := json.MarshalIndent(report, "", "  "); err == nil {
		fmt.Println(string(out))
	}

	logger.Info("test case complete", "test_case", tc.Name, "success", verdict)
	if !verdict {
		os.Exit(1)
	}
	os.Exit(0)
}

// mustLoadSettings loads the optional dotted-key settings file
// runcase.settings.json from the current working directory, tolerating its
// absence (LoadMap already does).
func mustLoadSettings() map[string]string {
	m, err := config.LoadMap("runcase.settings.json")
	if err != nil {
		return map[string]string{}
	}
	return m
}
