// Command griptrain trains the grip classifier from two labeled
// landmark sources and writes the model artifact.
package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/cfg"
	"github.com/Aaryan09-coder/final-major-project-final/internal/dataset"
	"github.com/Aaryan09-coder/final-major-project-final/internal/storage"
	"github.com/Aaryan09-coder/final-major-project-final/internal/train"
)

func main() {
	_ = godotenv.Load()

	fistFlag := flag.String("fist", "", "closed-class source (file or URL), overrides config")
	palmFlag := flag.String("palm", "", "open-class source (file or URL), overrides config")
	modelDirFlag := flag.String("model-dir", "", "artifact output directory, overrides config")
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *fistFlag != "" {
		c.FistData = *fistFlag
	}
	if *palmFlag != "" {
		c.PalmData = *palmFlag
	}
	if *modelDirFlag != "" {
		c.ModelDir = *modelDirFlag
	}
	if c.FistData == "" || c.PalmData == "" {
		log.Fatal().Msg("both class sources are required (data.fist/data.palm, FIST_DATA/PALM_DATA, or -fist/-palm)")
	}

	var sink train.AuditSink
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("audit storage unavailable, continuing without it")
		} else {
			defer store.Close()
			sink = store
		}
	}

	pipeline := train.New(train.Config{
		Seed:         c.Seed,
		TestFraction: c.TestFraction,
		Selection:    train.SelectionPolicy(c.Selection),
		ModelDir:     c.ModelDir,
	}, sink)

	artifact, err := pipeline.RunFromSources(dataset.NewLoader(c.LoaderTimeout), c.FistData, c.PalmData)
	if err != nil {
		switch {
		case errors.Is(err, dataset.ErrDataNotFound):
			log.Fatal().Err(err).Msg("training data source missing")
		case errors.Is(err, train.ErrEmptyDataset):
			log.Fatal().Err(err).Msg("no valid samples survived feature extraction")
		default:
			log.Fatal().Err(err).Msg("training failed")
		}
	}

	meta := artifact.Meta
	fmt.Printf("model:    %s\n", meta.ModelType)
	fmt.Printf("features: %d\n", meta.FeatureCount)
	fmt.Printf("samples:  %d (%d fist, %d palm)\n", meta.TrainingSamples, meta.FistSamples, meta.PalmSamples)
	fmt.Printf("accuracy: %.4f (held-out)\n", meta.Accuracy)
	fmt.Printf("artifact: %s\n", c.ModelDir)
}
