package setup

import (
	"github.com/authd-dev/authd/internal/config"
	"github.com/authd-dev/authd/internal/handler"
	"github.com/authd-dev/authd/internal/mail"
	"github.com/authd-dev/authd/internal/middleware"
	"github.com/authd-dev/authd/internal/service"
	"github.com/authd-dev/authd/internal/storage/pg"
	"github.com/authd-dev/authd/internal/token"
)

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Config    *config.Config
	Storage   *pg.Storage
	Handler   *handler.Handler
	Gate      *middleware.Gate
	Recaptcha *middleware.Recaptcha
}

// SetupDependencies initializes everything the server needs, in
// dependency order: storage, token engine, mail, service, HTTP layer.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	engine := token.NewEngine(
		token.Keys{
			Auth:       cfg.Private.AuthKey,
			Refresh:    cfg.Private.RefreshKey,
			Activation: cfg.Private.ActivationKey,
			Reset:      cfg.Private.ResetKey,
		},
		token.TTLs{
			Auth:       cfg.Public.Token.Login,
			Refresh:    cfg.Public.Token.Remember,
			Activation: cfg.Public.Token.Activation,
			Reset:      cfg.Public.Token.Reset,
		},
	)

	sender := mail.NewSender(cfg)
	auth := service.NewAuth(storage, storage, sender, engine)

	return &Dependencies{
		Config:    cfg,
		Storage:   storage,
		Handler:   handler.New(auth, storage, cfg),
		Gate:      middleware.NewGate(auth),
		Recaptcha: middleware.NewRecaptcha(cfg),
	}, nil
}
