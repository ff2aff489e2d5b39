package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	screentrack "github.com/swdee/go-screentrack"
	"github.com/swdee/go-screentrack/capture"
	"github.com/swdee/go-screentrack/detector"
	"github.com/swdee/go-screentrack/postprocess"
	"github.com/swdee/go-screentrack/render"
	"github.com/swdee/go-screentrack/tracker"
)

// openSource returns the capture source selected on the command line
func openSource(kind, input string, region capture.Region) (capture.Source, error) {

	switch kind {
	case "screen":
		return capture.NewScreenSource(region)
	case "video":
		return capture.OpenVideo(input, region, true)
	case "image":
		return capture.OpenImage(input, region)
	case "pipeline":
		return capture.OpenPipeline(input, region)
	}

	return nil, fmt.Errorf("unknown source type %q, use screen, video, image or pipeline", kind)
}

// logEvents prints tracking events until ctx is cancelled
func logEvents(ctx context.Context, events *render.Events) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-events.C():
			switch ev.Kind {
			case render.ObjectAdded:
				log.Printf("Object %d %s: %s score=%.2f box=%.0fx%.0f+%.0f+%.0f",
					ev.ID, ev.Kind, ev.Object.Label, ev.Object.Score,
					ev.Object.Box.Width, ev.Object.Box.Height,
					ev.Object.Box.X, ev.Object.Box.Y)

			case render.BoxUpdated:
				log.Printf("Object %d %s: box=%.0fx%.0f+%.0f+%.0f", ev.ID, ev.Kind,
					ev.Box.Width, ev.Box.Height, ev.Box.X, ev.Box.Y)

			default:
				log.Printf("Object %d %s", ev.ID, ev.Kind)
			}
		}
	}
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	configFile := flag.String("c", "", "YAML config file, built in defaults are used when not set")
	modelFile := flag.String("m", "../data/radar-yolov8n-640.onnx", "ONNX exported YOLOv8 model file")
	labelFile := flag.String("l", "../data/radar_labels_list.txt", "Text file containing model labels")
	inputSize := flag.Int("i", 640, "Model input size")
	backend := flag.String("b", "auto", "Inference backend [auto|cuda|cpu]")
	srcType := flag.String("s", "screen", "Capture source [screen|video|image|pipeline]")
	srcInput := flag.String("v", "", "Video file, image file or GStreamer pipeline for non screen sources")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")
	limitLabels := flag.String("x", "", "Comma delimited list of labels to restrict object tracking to")
	cores := flag.String("cores", "", "Comma delimited list of CPU cores to pin the process to, eg: 4-7")
	ttfFile := flag.String("ttf", "", "TrueType font file used for box captions")
	trailSize := flag.Int("trail", 30, "Number of box centers kept for drawing trails, 0 disables")
	verbose := flag.Bool("e", false, "Log every tracking event")

	flag.Parse()

	if *cores != "" {
		list, err := screentrack.ParseCores(*cores)

		if err != nil {
			log.Fatalf("Invalid CPU cores: %v", err)
		}

		if err := screentrack.SetCPUAffinity(screentrack.CPUCoreMask(list)); err != nil {
			log.Printf("Failed to set CPU Affinity: %v", err)
		}

		if mask, err := screentrack.GetCPUAffinity(); err == nil {
			log.Printf("CPU Affinity mask: %#x", mask)
		}
	}

	cfg := screentrack.DefaultConfig()

	if *configFile != "" {
		var err error
		cfg, err = screentrack.LoadConfig(*configFile)

		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}

	if *limitLabels != "" {
		cfg.LabelAllowList = nil

		for _, word := range strings.Split(*limitLabels, ",") {
			if trimmed := strings.TrimSpace(word); trimmed != "" {
				cfg.LabelAllowList = append(cfg.LabelAllowList, trimmed)
			}
		}
	}

	labels, err := screentrack.LoadLabels(*labelFile)

	if err != nil {
		log.Fatalf("Error loading model labels: %v", err)
	}

	src, err := openSource(*srcType, *srcInput, cfg.CaptureRegion)

	if err != nil {
		log.Fatalf("Error opening capture source: %v", err)
	}

	defer src.Close()

	yolo := detector.NewYOLO(*modelFile, labels, *inputSize,
		detector.Backend(*backend), postprocess.YOLOv8DefaultParams())
	defer yolo.Close()

	overlay := render.NewOverlay(*trailSize)

	if *ttfFile != "" {
		face, err := render.LoadTTF(*ttfFile, 14)

		if err != nil {
			log.Fatalf("Error loading font: %v", err)
		}

		overlay.Font.TTF = face
	}

	notifiers := tracker.Notifiers{overlay}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *verbose {
		events := render.NewEvents(256)
		notifiers = append(notifiers, events)
		go logEvents(ctx, events)
	}

	engine, err := screentrack.NewEngine(cfg, screentrack.Options{
		Source:   src,
		Detector: yolo,
		Notifier: notifiers,
	})

	if err != nil {
		log.Fatalf("Error creating engine: %v", err)
	}

	if err := engine.Start(ctx); err != nil {
		log.Fatalf("Error starting engine: %v", err)
	}

	defer engine.Stop()

	mux := http.NewServeMux()
	mux.Handle("/stream", render.NewStream(engine.State().Frames, overlay, 30))

	server := &http.Server{
		Addr:    *httpAddr,
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server.Shutdown(shutCtx)
	}()

	// start http server
	log.Printf("Open browser and view video at http://%s/stream", *httpAddr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("HTTP server error: %v", err)
	}

	stats := engine.Stats()
	log.Printf("Captured %d frames, %d detection cycles, %d objects tracked",
		stats.Captured, stats.Detections, stats.Admitted)
}
