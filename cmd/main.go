package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/edge-analytics/edgerunner"
	"github.com/edge-analytics/edgerunner/fizzbuzz"
	"github.com/edge-analytics/edgerunner/options"
	"github.com/edge-analytics/edgerunner/util/vectorutil"
)

var baseDir string
var deviceID string
var backend string
var sharedLibraryPath string
var inputVector string
var echoValue string
var outputPath string
var number int
var softmaxOutput bool

func baseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "base",
		Usage:       "Base directory holding the models folder",
		Aliases:     []string{"b"},
		Destination: &baseDir,
		EnvVars:     []string{edgerunner.EnvBaseDir},
	}
}

func deviceFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "device",
		Usage:       "Device identifier the model file is keyed by",
		Aliases:     []string{"d"},
		Destination: &deviceID,
		Required:    true,
	}
}

func backendFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "backend",
		Usage:       "Inference backend, GO or ORT",
		Destination: &backend,
		Value:       "GO",
	}
}

func libraryFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "onnxLibraryPath",
		Usage:       "Path to the onnxruntime shared library, ORT backend only",
		Aliases:     []string{"s"},
		Destination: &sharedLibraryPath,
	}
}

func newRunner() *edgerunner.Runner {
	var opts []edgerunner.RunnerOption
	if backend != "" {
		opts = append(opts, edgerunner.WithBackend(backend))
	}
	if sharedLibraryPath != "" {
		opts = append(opts, edgerunner.WithSessionOptions(options.WithOnnxLibraryPath(sharedLibraryPath)))
	}
	return edgerunner.NewRunner(deviceID, baseDir, opts...)
}

var checkCommand = &cli.Command{
	Name:  "check",
	Usage: "Check whether the model file for a device is present",
	Flags: []cli.Flag{deviceFlag(), baseFlag()},
	Action: func(_ *cli.Context) error {
		runner := edgerunner.NewRunner(deviceID, baseDir)
		return printJSON(modelStatus{
			Device: deviceID,
			Path:   runner.ModelPath(),
			Exists: runner.ModelExists(),
		})
	},
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List the model files present in the models directory",
	Flags: []cli.Flag{baseFlag()},
	Action: func(_ *cli.Context) error {
		names, err := edgerunner.NewRunner("", baseDir).ListModels()
		if err != nil {
			return err
		}
		return printJSON(names)
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run one forward pass of a device's model over an input vector",
	Description: `Run loads the model file for the given device, validates its declared
tensor shapes and executes a single forward pass. The input vector is given
either as comma separated numbers or as a json array.`,
	Flags: []cli.Flag{
		deviceFlag(),
		baseFlag(),
		backendFlag(),
		libraryFlag(),
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Input vector, e.g. 0,0,1,0,0,0,0 or [0,0,1,0,0,0,0]",
			Aliases:     []string{"i"},
			Destination: &inputVector,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "softmax",
			Usage:       "Also print softmax probabilities over the scores",
			Destination: &softmaxOutput,
		},
	},
	Action: func(_ *cli.Context) (err error) {
		input, err := parseVector(inputVector)
		if err != nil {
			return err
		}

		runner := newRunner()
		if !runner.ModelExists() {
			return fmt.Errorf("no model found for device %s at %s", deviceID, runner.ModelPath())
		}

		session, err := runner.InitSession(runner.ModelPath())
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, session.Destroy())
		}()

		scores, err := runner.RunInference(session, input)
		if err != nil {
			return err
		}

		result := inferenceResult{
			Device: deviceID,
			Model:  runner.ModelPath(),
			Scores: scores,
		}
		if index, score, argErr := vectorutil.ArgMax(scores); argErr == nil {
			result.Top = &topScore{Index: index, Score: score}
		}
		if softmaxOutput {
			result.Probabilities = vectorutil.SoftMax(scores)
		}
		return printJSON(result)
	},
}

var selfTestCommand = &cli.Command{
	Name:  "selftest",
	Usage: "Run the bundled fizz buzz model as an end to end check",
	Description: `Selftest writes the bundled model to ` + edgerunner.SelfTestModelPath + ` and runs it.
With --number it classifies that number and prints the scores, otherwise it
sweeps the numbers 1 to 100 and reports how many were misclassified.`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:        "number",
			Usage:       "Single number to classify instead of the full sweep",
			Aliases:     []string{"n"},
			Destination: &number,
			Value:       -1,
		},
	},
	Action: func(_ *cli.Context) error {
		slog.Info("writing self-test model", "path", edgerunner.SelfTestModelPath)
		if err := fizzbuzz.WriteModel(edgerunner.SelfTestModelPath); err != nil {
			return err
		}

		if number >= 0 {
			scores, err := edgerunner.SelfTest(fizzbuzz.Encode(number))
			if err != nil {
				return err
			}
			class := fizzbuzz.Decode(scores)
			result := selfTestResult{Number: number, Scores: scores, Class: class}
			if class >= 0 {
				result.Label = fizzbuzz.Labels[class]
			}
			return printJSON(result)
		}

		failures := 0
		for n := 1; n <= 100; n++ {
			scores, err := edgerunner.SelfTest(fizzbuzz.Encode(n))
			if err != nil {
				return err
			}
			if class := fizzbuzz.Decode(scores); class != fizzbuzz.Classify(n) {
				slog.Error("self-test mismatch", "number", n, "class", class, "want", fizzbuzz.Classify(n))
				failures++
			}
		}
		if err := printJSON(selfTestSummary{Checked: 100, Failures: failures}); err != nil {
			return err
		}
		if failures > 0 {
			return fmt.Errorf("self-test failed for %d of 100 numbers", failures)
		}
		return nil
	},
}

var echoCommand = &cli.Command{
	Name:  "echo",
	Usage: "Return the given value unchanged",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "value",
			Usage:       "Value to echo back",
			Aliases:     []string{"v"},
			Destination: &echoValue,
			Required:    true,
		},
	},
	Action: func(_ *cli.Context) error {
		_, err := fmt.Fprintln(os.Stdout, edgerunner.Echo(echoValue))
		return err
	},
}

var generateCommand = &cli.Command{
	Name:  "gen",
	Usage: "Write the bundled fizz buzz model to disk",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Destination path for the model file",
			Aliases:     []string{"o"},
			Destination: &outputPath,
			Value:       edgerunner.SelfTestModelPath,
		},
	},
	Action: func(_ *cli.Context) error {
		if err := fizzbuzz.WriteModel(outputPath); err != nil {
			return err
		}
		slog.Info("model written", "path", outputPath)
		return nil
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "edgerunner",
		Usage: "Load device models and run single forward passes over them",
		Commands: []*cli.Command{
			checkCommand,
			listCommand,
			runCommand,
			selfTestCommand,
			echoCommand,
			generateCommand,
		},
	}
}

func newLogHandler() slog.Handler {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo})
	}
	return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
}

func main() {
	slog.SetDefault(slog.New(newLogHandler()))

	if err := newApp().Run(os.Args); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func parseVector(raw string) ([]float32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("input vector is empty")
	}
	if strings.HasPrefix(raw, "[") {
		var vector []float32
		if err := jsoniter.Unmarshal([]byte(raw), &vector); err != nil {
			return nil, err
		}
		return vector, nil
	}

	parts := strings.Split(raw, ",")
	vector := make([]float32, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, err
		}
		vector = append(vector, float32(value))
	}
	return vector, nil
}

func printJSON(value any) error {
	outputBytes, err := jsoniter.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(outputBytes))
	return err
}

type modelStatus struct {
	Device string `json:"device"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

type topScore struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

type inferenceResult struct {
	Device        string    `json:"device"`
	Model         string    `json:"model"`
	Scores        []float32 `json:"scores"`
	Probabilities []float32 `json:"probabilities,omitempty"`
	Top           *topScore `json:"top,omitempty"`
}

type selfTestResult struct {
	Number int       `json:"number"`
	Scores []float32 `json:"scores"`
	Class  int       `json:"class"`
	Label  string    `json:"label,omitempty"`
}

type selfTestSummary struct {
	Checked  int `json:"checked"`
	Failures int `json:"failures"`
}
