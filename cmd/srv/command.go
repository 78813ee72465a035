package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "rewards"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used for start service api, it main service included all apis.`,
		},
		{
			Action:      server.startSearchRPC,
			Name:        "search",
			Usage:       "Start service search",
			Category:    "Api",
			Description: `Used to index reward items and answer search calls from the api.`,
		},
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Used to run periodic jobs, draw settlement, guess rounds, trending scores and points expiry.`,
		},
		{
			Action:      server.startWorker,
			Name:        "worker",
			Usage:       "Start service worker",
			Category:    "Worker",
			Description: `Used to start worker that fulfills redemptions from the message queue.`,
		},
		{
			Action: server.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate database to a specified version",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "version", Required: true},
			},
			Category:    "Database",
			Description: `Used to run a single migrator by hand. The servers apply pending migrations on startup themselves.`,
		},
	}

	s.app = app
}
