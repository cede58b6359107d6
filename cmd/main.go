package main

import (
	"flag"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"glyco"
	"glyco/defs"
	"glyco/pkg/http"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "f", "config.yaml", "config file")
	flag.Parse()
}

func main() {
	logger, _ := zap.NewDevelopment()
	config := defs.Config{Logger: logger}

	if file, err := os.ReadFile(configFile); err == nil {
		if err = yaml.Unmarshal(file, &config); err != nil {
			panic(err)
		}
		logger.Debug("loaded config file", zap.String("file", configFile))
	}

	// Credentials from the environment win over the file.
	if v := os.Getenv("DEXCOM_USERNAME"); v != "" {
		config.Dexcom.Account = v
	}
	if v := os.Getenv("DEXCOM_PASSWORD"); v != "" {
		config.Dexcom.Password = v
	}
	if v := os.Getenv("DEXCOM_REGION"); v != "" {
		config.Dexcom.Region = v
	}

	if config.Dexcom.Account == "" || config.Dexcom.Password == "" {
		logger.Fatal("DEXCOM_USERNAME and DEXCOM_PASSWORD required")
	}

	if config.Address == "" {
		config.Address = ":4242"
	}

	s, err := glyco.New(config)
	if err != nil {
		panic(err)
	}

	if err := http.New(s.Service, s.Address).Run(); err != nil {
		panic(err)
	}
}
