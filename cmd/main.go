package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/adelvaux/firecal/internal/pkg/event"
	"github.com/adelvaux/firecal/internal/pkg/ical"
	"github.com/adelvaux/firecal/internal/pkg/store"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

type environmentVariables struct {
	Project     string `env:"GOOGLE_CLOUD_PROJECT"`
	Credentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type flagConfig struct {
	project     string
	credentials string
	collection  string
	types       string
	output      string
	timezone    string
	whereField  string
	whereOp     string
	orderBy     string
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.project, "project", "", "GCP/Firebase project id (optional if in credentials)")
	flag.StringVar(&cfg.credentials, "credentials", "", "Path to service account JSON (optional if GOOGLE_APPLICATION_CREDENTIALS set)")
	flag.StringVar(&cfg.collection, "collection", "events", "Firestore collection name")
	flag.StringVar(&cfg.types, "types", "", "Comma-separated event type filter(s), e.g. meeting,week-end (required)")
	flag.StringVar(&cfg.output, "output", "events.ics", "Output .ics filepath")
	flag.StringVar(&cfg.timezone, "tz", "Europe/Brussels", "Timezone (IANA)")
	flag.StringVar(&cfg.whereField, "where-field", "type", "Field name to filter on")
	flag.StringVar(&cfg.whereOp, "where-op", string(store.OpIn), "Filter operator (== or in)")
	flag.StringVar(&cfg.orderBy, "order-by", "", "Optional orderBy field (e.g., start)")

	flag.Parse()

	return cfg
}

func setup() (envVars *environmentVariables, err error) {
	_, err = maxprocs.Set()
	if err != nil {
		return nil, fmt.Errorf("error setting GOMAXPROCS %w", err)
	}

	envVars = &environmentVariables{}

	err = env.Parse(envVars)
	if err != nil {
		return nil, fmt.Errorf("error parsing environment variables %w", err)
	}

	return envVars, nil
}

func splitTypes(s string) []string {
	types := make([]string, 0)

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			types = append(types, part)
		}
	}

	return types
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	log := logrus.NewEntry(logger).WithField("component", "firecal")
	log.Info("starting up")

	defer log.Info("shutting down")

	flags := parseFlags()

	envVars, err := setup()
	if err != nil {
		log.WithError(err).Error()
		os.Exit(exitFailure)
	}

	// Env vars serve as defaults; flags win.
	if flags.project == "" {
		flags.project = envVars.Project
	}
	if flags.credentials == "" {
		flags.credentials = envVars.Credentials
	}

	types := splitTypes(flags.types)
	if len(types) == 0 {
		fmt.Fprintln(os.Stderr, "at least one value is required for -types")
		os.Exit(exitUsage)
	}

	loc, err := time.LoadLocation(flags.timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown timezone: %s\n", flags.timezone)
		os.Exit(exitUsage)
	}

	storeConfig := store.Config{
		Collection: flags.collection,
		Field:      flags.whereField,
		Operator:   store.Operator(flags.whereOp),
		Values:     types,
		OrderBy:    flags.orderBy,
	}

	err = storeConfig.Validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	ctx := context.Background()

	client, err := store.NewClient(ctx, log, flags.project, flags.credentials, storeConfig)
	if err != nil {
		log.WithError(err).Error()
		os.Exit(exitFailure)
	}

	defer client.Close()

	documents, err := client.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error()
		os.Exit(exitFailure)
	}

	normalizer := event.NewNormalizer(log, loc)
	writer := ical.NewWriter()

	for _, doc := range documents {
		ev, ok, err := normalizer.Normalize(doc.Data)
		if err != nil {
			log.WithError(err).WithField("document", doc.ID).Error()
			os.Exit(exitFailure)
		}

		if !ok {
			continue
		}

		writer.Add(ev)
	}

	err = writer.WriteFile(flags.output)
	if err != nil {
		log.WithError(err).Error()
		os.Exit(exitFailure)
	}

	log.WithFields(logrus.Fields{
		"count":  writer.Count(),
		"output": flags.output,
	}).Info("wrote events")
}
