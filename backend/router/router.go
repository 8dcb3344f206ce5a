package router

import (
	"net/http"

	"sagiri-relay/backend/app/controllers"
	"sagiri-relay/backend/app/middleware"
	"sagiri-relay/backend/app/relay"

	"github.com/klauspost/compress/gzhttp"
)

type Controllers struct {
	HTTP     *controllers.HTTPController
	Commands *controllers.CommandController
	Files    *controllers.FileController
	Screens  *controllers.ScreenController
	Pointer  *controllers.PointerController
	Keyboard *controllers.KeyboardController
	Audio    *controllers.AudioController
}

func NewControllers(r *relay.Relay) Controllers {
	return Controllers{
		HTTP:     controllers.NewHTTPController(r),
		Commands: controllers.NewCommandController(r.Commands),
		Files:    controllers.NewFileController(r.Files),
		Screens:  controllers.NewScreenController(r.Screens, r.Commands),
		Pointer:  controllers.NewPointerController(r.Pointer),
		Keyboard: controllers.NewKeyboardController(r.Keyboard),
		Audio:    controllers.NewAudioController(r.Audio),
	}
}

func NewRouter(c Controllers) http.Handler {
	mux := http.NewServeMux()
	h := func(pattern string, fn http.HandlerFunc) { middleware.Handle(mux, pattern, fn) }

	h("GET /ping", c.HTTP.Ping)
	h("GET /info", c.HTTP.Info)
	h("POST /sweep", c.HTTP.Sweep)

	// commands
	h("POST /commands", c.Commands.Submit)
	h("GET /commands/pending", c.Commands.Pending)
	h("GET /commands/{id}", c.Commands.Status)
	h("POST /commands/{id}/complete", c.Commands.Complete)

	// files
	h("POST /files", c.Files.Upload)
	h("GET /files", c.Files.List)
	h("GET /files/{id}", c.Files.Download)

	// screen
	h("GET /devices", c.Screens.Devices)
	h("POST /devices/{id}/screen", c.Screens.Publish)
	h("GET /devices/{id}/screen", c.Screens.Latest)
	h("POST /devices/{id}/screen/quality", c.Screens.Quality)

	// pointer
	h("POST /devices/{id}/pointer", c.Pointer.Request)
	h("GET /devices/{id}/pointer", c.Pointer.Consume)
	h("POST /devices/{id}/pointer/result", c.Pointer.ReportResult)
	h("GET /devices/{id}/pointer/result", c.Pointer.ConsumeResult)

	// keyboard
	h("POST /devices/{id}/keyboard", c.Keyboard.Request)
	h("GET /devices/{id}/keyboard/pending", c.Keyboard.Pending)
	h("POST /keyboard/{id}/result", c.Keyboard.ReportResult)
	h("GET /keyboard/{id}/result", c.Keyboard.FetchResult)

	// audio
	h("POST /devices/{id}/audio/{direction}", c.Audio.Push)
	h("GET /devices/{id}/audio/{direction}", c.Audio.Pop)

	var handler http.Handler = middleware.Recover(mux)
	handler = middleware.Logging(handler)
	return gzhttp.GzipHandler(handler)
}
