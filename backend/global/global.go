package global

import (
	"sagiri-relay/backend/config"

	"github.com/rs/zerolog"
)

var (
	Config config.Config
	Logger zerolog.Logger = zerolog.Nop()
)
