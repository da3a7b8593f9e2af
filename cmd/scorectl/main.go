package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"score-predictor/internal/client"
	"score-predictor/internal/common"
	"score-predictor/internal/features"
	"score-predictor/internal/ml"
	"score-predictor/internal/schema"
	"score-predictor/internal/storage"
)

const usage = `usage: scorectl <command> [flags]

commands:
  predict   score one student record on a running predictor
  history   list recent predictions
  encode    print the feature vector of a record without a server
  manifest  write manifest.json for a model directory`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "predict":
		err = runPredict(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "manifest":
		err = runManifest(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

// recordFlags registers one flag per form field, defaulting to the values
// the form starts with
func recordFlags(fs *flag.FlagSet) func() (features.Record, error) {
	defaults := features.DefaultRecord().Values()
	vals := make(map[string]*string, len(schema.Fields))
	for _, f := range schema.Fields {
		vals[f.Key] = fs.String(f.Key, defaults.Get(f.Key), f.Label)
	}

	return func() (features.Record, error) {
		values := url.Values{}
		for key, v := range vals {
			values.Set(key, *v)
		}
		return features.FromValues(values)
	}
}

func runPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	base := fs.String("url", "http://localhost:8080", "Predictor base URL")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	retries := fs.Int("retries", 2, "Retries on transport errors and 5xx replies")
	live := fs.Bool("ws", false, "Send the record over the websocket channel")
	record := recordFlags(fs)
	fs.Parse(args)

	r, err := record()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout*time.Duration(*retries+1))
	defer cancel()

	var result interface{}
	if *live {
		conn, err := client.DialLive(ctx, *base, *timeout)
		if err != nil {
			return err
		}
		defer conn.Close()

		res, err := conn.Send(r)
		if err != nil {
			return err
		}
		fmt.Println(res.Summary)
		result = res
	} else {
		res, err := client.New(*base, *timeout, *retries).Predict(ctx, r)
		if err != nil {
			return err
		}
		fmt.Println(res.Summary)
		result = res
	}

	return printJSON(result)
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	base := fs.String("url", "http://localhost:8080", "Predictor base URL")
	limit := fs.Int("limit", 10, "Number of predictions to list")
	fs.Parse(args)

	recs, err := client.New(*base, 5*time.Second, 1).History(context.Background(), *limit)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		fmt.Println(historyLine(rec))
	}
	return nil
}

// historyLine formats one stored prediction; IDs are fixed-width bbolt keys
func historyLine(rec storage.PredictionRecord) string {
	return fmt.Sprintf("%-31s  %s  %-4s  low=%6.2f  high=%6.2f",
		rec.ID, rec.Timestamp.UTC().Format(time.RFC3339), rec.Source, rec.Low, rec.High)
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	path := fs.String("columns", common.DefaultColumnsPath, "Path to the expected column list")
	record := recordFlags(fs)
	fs.Parse(args)

	r, err := record()
	if err != nil {
		return err
	}

	cols, err := schema.LoadColumns(*path)
	if err != nil {
		return err
	}

	v, err := features.NewEncoder(cols).Encode(r)
	if err != nil {
		return err
	}

	for i, name := range v.Columns {
		fmt.Printf("%s=%g\n", name, v.Values[i])
	}
	return nil
}

func runManifest(args []string) error {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	dir := fs.String("dir", "models", "Model directory")
	metricsPath := fs.String("metrics", "", "Optional JSON file mapping artifact name to training metrics")
	fs.Parse(args)

	training := map[string]ml.TrainingMetrics{}
	if *metricsPath != "" {
		data, err := os.ReadFile(*metricsPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &training); err != nil {
			return fmt.Errorf("parse %s: %w", *metricsPath, err)
		}
	}

	artifacts := []struct{ name, file string }{
		{common.ArtifactColumns, filepath.Base(common.DefaultColumnsPath)},
		{common.ModelAdaBoost, filepath.Base(common.DefaultAdaBoostModelPath)},
		{common.ModelGradientBoost, filepath.Base(common.DefaultGradientBoostModelPath)},
	}

	manifest := ml.NewManifest(filepath.Join(*dir, "manifest.json"))
	for _, a := range artifacts {
		entry, err := manifest.Add(a.name, filepath.Join(*dir, a.file), training[a.name])
		if err != nil {
			return err
		}
		log.Info().Str("artifact", entry.Name).Str("sha256", entry.SHA256).Msg("artifact added")
	}

	return manifest.Save()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
