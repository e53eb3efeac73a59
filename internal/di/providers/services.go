package providers

import (
	"github.com/samber/do/v2"

	"github.com/daybookapp/daybook-server/internal/composer"
	"github.com/daybookapp/daybook-server/internal/config"
	"github.com/daybookapp/daybook-server/internal/generator"
	"github.com/daybookapp/daybook-server/internal/logger"
	"github.com/daybookapp/daybook-server/internal/media/images"
	"github.com/daybookapp/daybook-server/internal/repository"
)

// ProvideComposer provides the single draft buffer.
func ProvideComposer(i do.Injector) (*composer.Composer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	repo := do.MustInvoke[*repository.Repository](i)
	log := do.MustInvoke[*logger.Logger](i)

	preset := images.Preset{
		MaxDimension: cfg.Uploads.MaxDimension,
		Quality:      cfg.Uploads.Quality,
	}

	return composer.New(repo, preset, log.Logger), nil
}

// ProvideGenerator provides the remote diary-generation client.
func ProvideGenerator(i do.Injector) (*generator.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Generator.URL == "" {
		log.Info("No generation endpoint configured, only the local fallback is available")
	}

	return generator.NewClient(cfg.Generator, log.Logger), nil
}
