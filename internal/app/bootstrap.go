package app

import (
	"errors"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/provider"
	"github.com/neonclub/neon-api/internal/router"
	"github.com/neonclub/neon-api/internal/worker"
)

// BuildRunner wires the container and the services for the given mode.
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	if container.AuthzService != nil {
		if err := container.AuthzService.BootstrapBuiltinRoles(); err != nil {
			logger.Warnw("authz_bootstrap_failed", "error", err)
		}
	}

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)

			if cfg.Close.Enabled {
				schedulerService, err := NewSchedulerService(cfg)
				if err != nil {
					return nil, err
				}
				services = append(services, schedulerService)
			}
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run is the application entry point.
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
