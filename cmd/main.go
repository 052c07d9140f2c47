package main

import (
	"log"
	"time"

	"referendum-voting/internal/app"
	"referendum-voting/internal/config"
	"referendum-voting/internal/hashing"
	"referendum-voting/internal/ports/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logger, err := getLogger()
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	logger.Info("application started",
		zap.String("node", config.GetNodeEndpoint()),
		zap.Uint32("referendum", config.TargetReferendum))

	hashing.Initialize(logger)

	a := app.NewApp(logger, config.GetNodeEndpoint())
	ser := http.NewServer(logger, a, config.GetPort())
	if err := ser.Run(); err != nil {
		logger.Error("failed to run the server: " + err.Error())
	}

	logger.Info("application finished")
}

func getLogger() (*zap.Logger, error) {
	options := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.FatalLevel),
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	config.Development = true
	config.Level.SetLevel(zap.DebugLevel)

	logger, err := config.Build()
	return logger.WithOptions(options...), err
}
