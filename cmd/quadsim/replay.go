package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/pkg/browser"

	"github.com/BryanSouza91/QuadFC/sim"
	"github.com/BryanSouza91/QuadFC/telemetry"
)

const replayRate = 60

const indexHTML = `<!doctype html>
<html>
<head><title>QuadFC replay</title></head>
<body>
<pre id="out">connecting...</pre>
<script>
const out = document.getElementById("out");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => { out.textContent = JSON.stringify(JSON.parse(ev.data), null, 2); };
ws.onclose = () => { out.textContent += "\ndisconnected"; };
</script>
</body>
</html>
`

// replay streams the run in real time, looping, until ctx is done.
func replay(ctx context.Context, o options, res *sim.Result) error {
	hub := telemetry.NewHub()
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexHTML)
	})
	srv := &http.Server{Addr: o.serve, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	url := "http://" + o.serve + "/"
	slog.Info("replaying", "url", url)
	if o.open {
		if err := browser.OpenURL(url); err != nil {
			slog.Warn("could not open browser", "error", err)
		}
	}

	ticker := time.NewTicker(time.Second / replayRate)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		case err := <-errCh:
			return fmt.Errorf("serve %s: %w", o.serve, err)
		case <-ticker.C:
			if hub.Clients() == 0 {
				continue
			}
			t := time.Since(start).Seconds()
			if d := res.Duration(); d > 0 {
				t = math.Mod(t, d)
			}
			frame, ok := res.FrameAt(t, o.interpolate)
			if !ok {
				continue
			}
			if err := hub.Publish(frame); err != nil && !errors.Is(err, telemetry.ErrHubClosed) {
				return err
			}
		}
	}
}
