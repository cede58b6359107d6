package glyco

import (
	"time"

	"go.uber.org/zap"

	"glyco/defs"
	"glyco/dexcom"
)

// Server wires the acquisition client and the analysis service together.
type Server struct {
	Service *Service
	Logger  *zap.Logger

	Address string
}

func New(config defs.Config) (*Server, error) {
	var err error

	loc := time.Local
	if config.Timezone != "" {
		loc, err = time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, err
		}
	}

	dc := dexcom.New(config.Dexcom, config.Logger)

	config.Logger.Debug("finished server setup",
		zap.String("region", config.Dexcom.Region),
		zap.String("timezone", loc.String()),
	)

	return &Server{
		Service: &Service{
			Source:     dc,
			Logger:     config.Logger,
			Thresholds: config.Glucose.Thresholds(),
			Location:   loc,
		},
		Logger:  config.Logger,
		Address: config.Address,
	}, nil
}
