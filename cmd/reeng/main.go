package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"

	"reeng/internal/app"
	"reeng/internal/lesson"
	"reeng/internal/spatial"
	"reeng/pkg/reeng"
)

var (
	// The reeng version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "reeng_info",
		Help:        "Reeng information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config keys readable when the binary is obfuscated.
var _ = reflect.TypeOf(config{})

type config struct {
	AdminAddr       string        `cli:""        env:"REENG_ADMIN_ADDR"       help:"Admin listening address serving metrics."`
	LogLevel        string        `cli:""        env:"REENG_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent       bool          `cli:""        env:"REENG_LOG_INDENT"       help:"Indent logs."`
	Level           string        `cli:""        env:"REENG_LEVEL"            help:"Level file loaded at startup."`
	FrameDuration   time.Duration `cli:",hidden" env:"REENG_FRAME_DURATION"   help:"The duration of a frame."`
	MaxFrames       int           `cli:",hidden" env:"REENG_MAX_FRAMES"       help:"The number of frames to run, 0 runs until interrupted."`
	OctreeThreshold int           `cli:",hidden" env:"REENG_OCTREE_THRESHOLD" help:"The number of groups an octant holds before splitting."`
	OctreeDepth     int           `cli:",hidden" env:"REENG_OCTREE_DEPTH"     help:"The maximum depth of the octree."`
	LoaderWorkers   int           `cli:",hidden" env:"REENG_LOADER_WORKERS"   help:"The number of models loaded in parallel."`
	Lerp            lerpConfig    `cli:",hidden" env:"-"                      help:"Lerp lesson configuration."`
	Version         bool          `cli:""        env:"-"                      help:"Show version."`
	Help            bool          `cli:""        env:"-"                      help:"Show help."`
}

type lerpConfig struct {
	Instance string        `cli:",hidden" env:"REENG_LERP_INSTANCE" help:"The instance moved by the lerp lesson. Empty disables the lesson."`
	Stops    string        `cli:",hidden" env:"REENG_LERP_STOPS"    help:"The lerp stops, formatted as x,y,z;x,y,z..."`
	Duration time.Duration `cli:",hidden" env:"REENG_LERP_DURATION" help:"The time spent between two stops."`
}

func main() {
	octree := spatial.DefaultConfig()
	conf := config{
		AdminAddr:       ":18290",
		LogLevel:        logs.InfoLevel.String(),
		FrameDuration:   app.DefaultFrameDuration,
		OctreeThreshold: octree.Threshold,
		OctreeDepth:     octree.MaxDepth,
		LoaderWorkers:   reeng.DefaultConfig().LoaderWorkers,
		Lerp: lerpConfig{
			Stops:    "-4,-2,5;1,-2,5;-3,-1,3;2,-1,3;-2,0,0;3,0,0;-1,1,-3;4,1,-3;0,2,-5;5,2,-5;1,3,-5",
			Duration: lesson.DefaultLegDuration,
		},
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Runs a reeng scene.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	engineConf := reeng.DefaultConfig()
	engineConf.Octree = spatial.Config{
		Threshold: conf.OctreeThreshold,
		MaxDepth:  conf.OctreeDepth,
	}
	engineConf.LoaderWorkers = conf.LoaderWorkers

	engine := reeng.New(engineConf)
	defer engine.Close()

	if conf.Level != "" {
		if _, err := engine.LoadLevel(conf.Level); err != nil {
			logs.Fatal(errors.New("loading level failed").Wrap(err))
		}
		if err := engine.WaitLoads(ctx); err != nil {
			logs.Fatal(errors.New("waiting for level instances failed").Wrap(err))
		}
	}

	var application app.Application = &sceneApp{engine: engine}
	if conf.Lerp.Instance != "" {
		stops, err := parseStops(conf.Lerp.Stops)
		if err != nil {
			logs.Fatal(err)
		}
		application = &lesson.Lerp{
			Engine:   engine,
			Instance: conf.Lerp.Instance,
			Stops:    stops,
			Duration: conf.Lerp.Duration,
		}
	}

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		listenAndServe(ctx, &http.Server{
			Addr:    conf.AdminAddr,
			Handler: metrics.HTTPHandler(&admin, metricsPathFormatter),
		})
	}()

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("instances", engine.InstanceCount()).
		WithTag("admin_addr", conf.AdminAddr).
		Info("starting reeng")

	driver := app.Driver{
		App:           application,
		FrameDuration: conf.FrameDuration,
		MaxFrames:     conf.MaxFrames,
	}
	err := driver.Run(ctx)
	cancel()
	wg.Wait()

	if err != nil {
		logs.Fatal(errors.New("running scene failed").Wrap(err))
	}
}

func listenAndServe(ctx context.Context, s *http.Server) {
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.New("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	logs.WithTag("addr", s.Addr).Info("starting server")

	switch err := s.ListenAndServe(); err {
	case nil, http.ErrServerClosed:
		logs.WithTag("addr", s.Addr).Info("stopping server")

	default:
		logs.Warn(errors.New("server stopped").
			WithTag("addr", s.Addr).
			Wrap(err))
	}
}

// metricsPathFormatter drops unknown paths from the HTTP metrics.
func metricsPathFormatter(statusCode int, path string) string {
	if statusCode == http.StatusNotFound || statusCode == http.StatusMethodNotAllowed {
		return ""
	}
	return path
}

func parseStops(s string) ([]mgl64.Vec3, error) {
	var stops []mgl64.Vec3
	for _, stop := range strings.Split(s, ";") {
		stop = strings.TrimSpace(stop)
		if stop == "" {
			continue
		}

		coords := strings.Split(stop, ",")
		if len(coords) != 3 {
			return nil, errors.New("lerp stop needs 3 coordinates").WithTag("stop", stop)
		}

		var p mgl64.Vec3
		for i, c := range coords {
			v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				return nil, errors.New("invalid lerp stop coordinate").
					WithTag("stop", stop).
					Wrap(err)
			}
			p[i] = v
		}
		stops = append(stops, p)
	}

	if len(stops) == 0 {
		return nil, errors.New("no lerp stops")
	}
	return stops, nil
}
