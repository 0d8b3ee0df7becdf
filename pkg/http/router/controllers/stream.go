package controllers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/julienschmidt/httprouter"
	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/http/usecases"
	"go.uber.org/zap"
)

const maxStreamFPS = 120

// stream
//
//	@Summary		animate the session search over a websocket
//	@Description	every 1/fps seconds the search advances by steps and a frame with the newly visited edges is pushed.
//	@Description	text frames {"action":"pause"|"resume"|"restart"} control the animation.
//	@Tags			search
//	@Router			/sessions/{id}/stream [get]
func (api *ExplorerAPI) stream(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	steps, err := parseIntParam(r, "steps", api.streamSteps, 1, math.MaxInt32)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	fps, err := parseIntParam(r, "fps", api.streamFPS, 1, maxStreamFPS)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if _, err := api.service.State(id); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		api.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	// hijacked connections keep the deadlines set by http.Server
	_ = conn.SetDeadline(time.Time{})

	client := api.hub.Register(conn, id)
	defer api.hub.Remove(client)

	api.log.Info("stream opened", zap.Uint("session", id), zap.Uint("client", client.id),
		zap.Int("steps", steps), zap.Int("fps", fps))
	api.runStream(client, steps, fps)
	api.log.Info("stream closed", zap.Uint("session", id), zap.Uint("client", client.id))
}

// runStream advances the search once per tick until the client goes away. A
// terminal state, Idle included, pauses the animation after one frame;
// resume or restart wakes it.
func (api *ExplorerAPI) runStream(c *streamClient, steps, fps int) {
	commands := make(chan streamCommand)
	go c.readCommands(api.validator, commands)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	sent := make(map[da.EdgeID]float64)
	paused := false
	for {
		select {
		case <-c.done:
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			switch cmd.Action {
			case "pause":
				paused = true
			case "resume":
				paused = false
			case "restart":
				res, err := api.service.Restart(c.sessionID)
				if err != nil {
					api.streamError(c, err)
					return
				}
				clear(sent)
				frame := newStreamFrame(res, sent)
				frame.Reset = true
				if err := c.write(envelope{"data": frame}); err != nil {
					return
				}
				paused = res.State.Status.Terminal()
			}
		case <-ticker.C:
			if paused {
				continue
			}
			res, err := api.service.Advance(c.sessionID, steps)
			if err != nil {
				api.streamError(c, err)
				return
			}
			if err := c.write(envelope{"data": newStreamFrame(res, sent)}); err != nil {
				return
			}
			if res.State.Status.Terminal() {
				paused = true
			}
		}
	}
}

func (api *ExplorerAPI) streamError(c *streamClient, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, usecases.ErrSessionNotFound) {
		status = http.StatusNotFound
	}
	api.log.Debug("stream stopped", zap.Uint("session", c.sessionID), zap.Error(err))
	_ = c.writeError(status, err.Error())
}
