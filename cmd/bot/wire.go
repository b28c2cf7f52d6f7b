//go:build wireinject
// +build wireinject

package main

import (
	"github.com/Jacobbrewer1/rabbit/cmd/bot/config"
	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		wire.Value(logging.Name(AppName)),
		logging.NewConfig,
		logging.CommonLogger,
		mux.NewRouter,
		provideMongo,
		provideDatabase,
		provideRedis,
		provideCache,
		provideStore,
		provideDiscordSession,
		providePlatform,
		provideTranscripts,
		wire.Bind(new(tickets.Transcriber), new(*transcript.Generator)),
		notify.NewSink,
		provideTickets,
		wire.Bind(new(applications.TicketOpener), new(*tickets.Service)),
		wire.Bind(new(panels.TicketOpener), new(*tickets.Service)),
		provideApplications,
		panels.NewService,
		provideSessionStore,
		provideDashboard,
		NewApp,
	)
	return new(App), nil, nil
}
