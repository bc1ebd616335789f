package main

import (
	"context"
	"log"

	"brincafacil/internal/app"
	"brincafacil/internal/config"
	adapter "brincafacil/internal/lambda"
	"brincafacil/lib/logger"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	conf, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	logg := logger.SetupStdout(conf.Env)

	a, err := app.Build(context.Background(), conf, logg)
	if err != nil {
		log.Fatal(err)
	}

	var stripe adapter.Flow
	if a.Stripe != nil {
		stripe = a.Stripe
	}
	lambda.Start(adapter.New(a.Kirvano, stripe, logg).Handle)
}
