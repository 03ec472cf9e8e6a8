package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga-api/internal/dto"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	"github.com/noah-isme/timetable-ga-api/internal/repository"
	"github.com/noah-isme/timetable-ga-api/internal/scheduler"
	"github.com/noah-isme/timetable-ga-api/internal/service"
	"github.com/noah-isme/timetable-ga-api/pkg/config"
	"github.com/noah-isme/timetable-ga-api/pkg/logger"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate a timetable from a JSON problem file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "problem", Aliases: []string{"p"}, Usage: "path to the problem JSON", Required: true},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for a reproducible run"},
			&cli.IntFlag{Name: "population", Usage: "population size override"},
			&cli.IntFlag{Name: "generations", Usage: "generation budget override"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json, csv or pdf"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (stdout when empty)"},
			&cli.DurationFlag{Name: "timeout", Usage: "search time limit"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every generation"},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Format = "console"
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	req, err := readProblem(c.String("problem"))
	if err != nil {
		return err
	}
	if req.Params == nil {
		req.Params = &dto.GenerationParamsRequest{}
	}
	if c.IsSet("seed") {
		seed := c.Int64("seed")
		req.Params.Seed = &seed
	}
	if c.IsSet("population") {
		population := c.Int("population")
		req.Params.PopulationSize = &population
	}
	if c.IsSet("generations") {
		generations := c.Int("generations")
		req.Params.Generations = &generations
	}

	timeout := cfg.Scheduler.Timeout
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout")
	}
	svc := service.NewTimetableService(repository.NewMemoryTimetableRepository(), nil, nil, validator.New(), logr, service.TimetableServiceConfig{
		Defaults: models.GenerationParams{
			PopulationSize: cfg.Scheduler.PopulationSize,
			Generations:    cfg.Scheduler.Generations,
			MutationRate:   cfg.Scheduler.MutationRate,
			CrossoverRate:  cfg.Scheduler.CrossoverRate,
			ElitismCount:   cfg.Scheduler.ElitismCount,
			TournamentSize: cfg.Scheduler.TournamentSize,
		},
		MaxPopulationSize: cfg.Scheduler.MaxPopulationSize,
		MaxGenerations:    cfg.Scheduler.MaxGenerations,
		Timeout:           timeout,
	})

	resp, err := svc.Generate(c.Context, req)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	logr.Info("generation complete",
		zap.Float64("fitness", resp.Statistics.Fitness),
		zap.Int("conflicts", resp.Statistics.Conflicts),
		zap.Int("entries", resp.Statistics.TotalEntries),
		zap.Int("generations", resp.Statistics.Generations),
		zap.String("stop_reason", resp.Statistics.StopReason),
		zap.Int64("seed", resp.Statistics.Seed),
	)
	for _, warning := range resp.Warnings {
		logr.Warn(warning.Message, zap.String("type", string(warning.Type)))
	}

	var payload []byte
	switch format := c.String("format"); format {
	case "json":
		payload, err = json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode timetable: %w", err)
		}
		payload = append(payload, '\n')
	case "csv", "pdf":
		if format == "pdf" && c.String("out") == "" {
			return cli.Exit("pdf output requires --out", 2)
		}
		file, err := svc.Export(c.Context, resp.Timetable.ID, dto.ExportTimetableQuery{Format: dto.ExportFormat(format)})
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		payload = file.Data
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
	}
	return writeOutput(c.String("out"), c.App.Writer, payload)
}

func slotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "print the default weekly slot catalog",
		Action: func(c *cli.Context) error {
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(scheduler.DefaultTimeSlots())
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a signed access token for operator endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "subject user id", Required: true},
			&cli.StringFlag{Name: "role", Value: string(models.RoleAdmin), Usage: "SUPERADMIN, ADMIN, TEACHER or STUDENT"},
			&cli.DurationFlag{Name: "ttl", Value: time.Hour, Usage: "token lifetime"},
			&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}, Usage: "signing secret"},
		},
		Action: func(c *cli.Context) error {
			req := dto.IssueTokenRequest{
				UserID: c.String("user"),
				Role:   models.UserRole(c.String("role")),
				TTL:    c.Duration("ttl"),
			}
			if err := validator.New().Struct(req); err != nil {
				return cli.Exit(err.Error(), 2)
			}
			secret := c.String("secret")
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				secret = cfg.JWT.Secret
			}
			token, expiresAt, err := service.NewTokenService(secret).Issue(req.UserID, req.Role, req.TTL)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s\nexpires %s\n", token, expiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

func readProblem(path string) (dto.GenerateTimetableRequest, error) {
	var req dto.GenerateTimetableRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read problem: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode problem %s: %w", path, err)
	}
	return req, nil
}

func writeOutput(path string, stdout io.Writer, payload []byte) error {
	if path == "" {
		_, err := stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
