package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/beacon/pkg/board"
	env "github.com/robotalks/beacon/pkg/env/board"
	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry/comm"
)

func init() {
	env.SetupFlags()
	board.SetupFlags()
}

func main() {
	flag.Parse()

	e := env.NewConfig().MustNewEnv()
	conf := board.NewConfig()
	b := conf.MustNewBoard(nil)

	reporter := comm.NewReporter(e.Publisher, 0)
	reporter.Stats, reporter.StatsInterval = b.Core, conf.StatsInterval
	b.Observe(reporter)
	b.Notify = reporter

	glog.Infof("%s: %s on %s (%s), telemetry [%s]",
		e.Config.Info.Ref.Name(), b.Sequencer.Pattern, b.Timer.Name(), b.Setting,
		strings.Join(e.Endpoints, ", "))

	loop := fx.NewLoop().Add(e, reporter)
	err := fx.NewRunner().HandleSignals().Go(b, loop).Wait()
	e.Close()
	if err != nil {
		log.Fatalln(err)
	}
}
