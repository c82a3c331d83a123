package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/kraktus/fen-manim/internal/driver"
	"github.com/kraktus/fen-manim/internal/scene"
)

func main() {
	baseURL := flag.String("url", os.Getenv("FENSCENE_DRIVER_URL"), "driver base url")
	wsURL := flag.String("ws", os.Getenv("FENSCENE_DRIVER_WS_URL"), "driver websocket url")
	token := flag.String("token", os.Getenv("FENSCENE_DRIVER_TOKEN"), "bearer token")
	sceneName := flag.String("scene", "dots", "scene sent as a probe over the websocket")
	wait := flag.Duration("wait", 5*time.Second, "how long to watch websocket messages")
	flag.Parse()

	if *baseURL == "" && *wsURL == "" {
		log.Fatal("FENSCENE_DRIVER_URL or FENSCENE_DRIVER_WS_URL is required")
	}
	headers := driver.BearerToken(*token)

	if *baseURL != "" {
		client := driver.NewClient(*baseURL,
			driver.WithHeaderProvider(headers),
			driver.WithTimeout(8*time.Second),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		h, err := client.Health(ctx)
		cancel()
		if err != nil {
			log.Printf("%s/health error: %v", client.BaseURL(), err)
		} else {
			log.Printf("%s/health ok: status=%s version=%s", client.BaseURL(), h.Status, h.Version)
		}
	}

	if *wsURL == "" {
		log.Println("FENSCENE_DRIVER_WS_URL not set; skipping WS check")
		return
	}

	ws := driver.NewWebSocket(*wsURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state driver.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(msg *driver.Message) {
		log.Printf("WS msg type=%s scene=%s index=%d err=%q", msg.Type, msg.Scene, msg.Index, msg.Error)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	sb, err := scene.Build(*sceneName, scene.Input{})
	if err != nil {
		log.Printf("build probe scene: %v", err)
	} else if len(sb.Frames()) > 0 {
		if err := ws.SendFrame(cctx, sb.Frames()[0]); err != nil {
			log.Printf("WS send error: %v", err)
		}
	}

	// Observe for a short window
	t := time.NewTimer(*wait)
	<-t.C

	_ = ws.Close(context.Background())
}
