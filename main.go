package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/b0tShaman/neuro-viz/data"
	"github.com/b0tShaman/neuro-viz/ml"
)

// -------- MAIN -------- //
func main() {
	var (
		datasetName = flag.String("dataset", "xor", "builtin dataset name ("+strings.Join(data.BuiltinNames(), ", ")+")")
		datasetFile = flag.String("file", "", "dataset JSON file (overrides -dataset)")
		epochs      = flag.Int("epochs", 5000, "training epochs")
		verbose     = flag.Int("verbose-every", 500, "log progress every N epochs")
		targetErr   = flag.Float64("target-error", 0.001, "stop once mean squared error falls below this")
		modelFile   = flag.String("model", "", "model file to load before and save after training")
		plot        = flag.Bool("plot", true, "render the error curve after training")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ds, err := pickDataset(*datasetName, *datasetFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load dataset")
	}

	nw, err := ds.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot build network")
	}

	// Auto-load weights if a model file exists
	if *modelFile != "" {
		if _, err := os.Stat(*modelFile); err == nil {
			if err := nw.LoadFromFile(*modelFile); err != nil {
				log.Warn().Err(err).Msg("model mismatch, starting from scratch")
			}
		}
	}

	log.Info().
		Int("inputs", nw.InputNodes()).
		Ints("hidden", nw.HiddenLayers()).
		Int("outputs", nw.OutputNodes()).
		Int("samples", len(ds.Data)).
		Int("epochs", *epochs).
		Msg("training")

	history, err := ml.TrainEpochs(nw, ds.Data, ml.TrainingConfig{
		Epochs:       *epochs,
		VerboseEvery: *verbose,
		Shuffle:      true,
		Metric:       ml.MeanSquared,
		TargetError:  *targetErr,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}

	if *plot && len(history) > 1 {
		fmt.Println(asciigraph.Plot(history,
			asciigraph.Height(10),
			asciigraph.Caption("mean squared error per epoch")))
	}

	printPredictions(nw, ds.Data)

	if *modelFile != "" {
		if err := nw.SaveToFile(*modelFile); err != nil {
			log.Error().Err(err).Msg("cannot save model")
		}
	}
}

func pickDataset(name, file string) (data.Dataset, error) {
	if file != "" {
		sets, err := data.LoadFile(file)
		if err != nil {
			return data.Dataset{}, err
		}
		if ds, ok := sets[name]; ok {
			return ds, nil
		}
		// a single-entry file doesn't need -dataset to match
		if len(sets) == 1 {
			for _, ds := range sets {
				return ds, nil
			}
		}
		return data.Dataset{}, fmt.Errorf("dataset %q not found in %s", name, file)
	}
	ds, ok := data.Builtin(name)
	if !ok {
		return data.Dataset{}, fmt.Errorf("unknown builtin dataset %q, have %s", name, strings.Join(data.BuiltinNames(), ", "))
	}
	return ds, nil
}

func printPredictions(nw *ml.NeuralNetwork, samples []ml.Sample) {
	for _, s := range samples {
		out, err := nw.Predict(s.Inputs)
		if err != nil {
			log.Error().Err(err).Msg("predict failed")
			return
		}
		fmt.Printf("%v -> %s (want %v)\n", s.Inputs, formatOutputs(out), s.Targets)
	}
}

func formatOutputs(out []float64) string {
	parts := make([]string, len(out))
	for i, v := range out {
		parts[i] = fmt.Sprintf("%.3f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
