package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/securepay/internal/api/handlers"
	"github.com/dvloznov/securepay/internal/config"
	"github.com/dvloznov/securepay/internal/domain"
	"github.com/dvloznov/securepay/internal/features"
	"github.com/dvloznov/securepay/internal/inference"
	"github.com/dvloznov/securepay/internal/logger"
	"github.com/dvloznov/securepay/internal/model"
	"github.com/dvloznov/securepay/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(config.DefaultLogLevel, config.DefaultLogFormat)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "score":
		runScore(cfg, log)
	case "features":
		runFeatures(log)
	case "inspect":
		runInspect(cfg, log)
	case "publish":
		runPublish(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SecurePay CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  score     Score one transaction against the model artifacts")
	fmt.Println("  features  Print the feature vector for one transaction")
	fmt.Println("  inspect   Load the model artifacts and describe them")
	fmt.Println("  publish   Upload a model artifact to GCS")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// txFlags are the transaction fields shared by score and features.
type txFlags struct {
	fs   *flag.FlagSet
	form handlers.ScanForm

	newBalanceOrig float64
	newBalanceDest float64
}

func newTxFlags(name string) *txFlags {
	f := &txFlags{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	f.fs.Float64Var(&f.form.Amount, "amount", 0, "Transfer amount")
	f.fs.Float64Var(&f.form.OldBalanceOrig, "old-balance-orig", 0, "Sender balance before the transaction")
	f.fs.Float64Var(&f.form.OldBalanceDest, "old-balance-dest", 0, "Recipient balance before the transaction")
	f.fs.Float64Var(&f.newBalanceOrig, "new-balance-orig", 0, "Sender balance after (derived when omitted)")
	f.fs.Float64Var(&f.newBalanceDest, "new-balance-dest", 0, "Recipient balance after (derived when omitted)")
	f.fs.StringVar(&f.form.Type, "type", string(domain.TypePayment), "Transaction type: PAYMENT, TRANSFER, CASH_OUT, DEBIT or CASH_IN")
	f.fs.IntVar(&f.form.Step, "step", domain.MinStep, "Simulation hour (1-744)")
	return f
}

// transaction parses args and returns the validated transaction.
func (f *txFlags) transaction(args []string) (domain.RawTransaction, error) {
	if err := f.fs.Parse(args); err != nil {
		return domain.RawTransaction{}, err
	}

	o := explicitBalances(f.fs, &f.newBalanceOrig, &f.newBalanceDest)
	f.form.NewBalanceOrig, f.form.NewBalanceDest = o.NewBalanceOrig, o.NewBalanceDest

	f.form.Normalize()
	if err := f.form.Validate(); err != nil {
		return domain.RawTransaction{}, err
	}
	return f.form.Transaction()
}

// explicitBalances returns overrides only for the resulting-balance flags that
// were set on the command line, so an explicit 0 is kept and an omitted flag
// is derived.
func explicitBalances(fs *flag.FlagSet, newBalanceOrig, newBalanceDest *float64) domain.BalanceOverrides {
	var o domain.BalanceOverrides
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "new-balance-orig":
			o.NewBalanceOrig = newBalanceOrig
		case "new-balance-dest":
			o.NewBalanceDest = newBalanceDest
		}
	})
	return o
}

func printVector(vec domain.FeatureVector) {
	for i, name := range domain.FeatureNames {
		fmt.Printf("  %-20s %g\n", name, vec[i])
	}
}

func runScore(cfg *config.Config, log zerolog.Logger) {
	f := newTxFlags("score")
	scalerURI := f.fs.String("scaler", cfg.ScalerURI, "Scaler artifact path or gs:// URI")
	modelURI := f.fs.String("model", cfg.ModelURI, "Model artifact path or gs:// URI")

	tx, err := f.transaction(os.Args[2:])
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid transaction")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ArtifactLoadTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	adapter, _ := loadAdapter(ctx, cfg, log, *scalerURI, *modelURI)

	scan, err := inference.NewScanner(adapter, nil).Scan(ctx, tx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error processing prediction")
	}

	fmt.Println("\n=== Scan Result ===")
	fmt.Printf("Scan ID:   %s\n", scan.ID)
	fmt.Printf("Label:     %s\n", scan.Result.Label)
	if scan.Result.RawScore != nil {
		fmt.Printf("Risk:      %.4f\n", *scan.Result.RawScore)
	}
	fmt.Printf("Remaining: %.2f\n", tx.NewBalanceOrig)
	if scan.Result.IsFraud() {
		fmt.Println("\nHigh Risk Detected: manual review recommended.")
	} else {
		fmt.Println("\nSecure Transaction.")
	}

	fmt.Println("\nFeatures:")
	printVector(scan.Features)
}

func runFeatures(log zerolog.Logger) {
	f := newTxFlags("features")

	tx, err := f.transaction(os.Args[2:])
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid transaction")
	}

	vec, err := features.Transform(tx)
	if err != nil {
		log.Fatal().Err(err).Msg("Feature transform failed")
	}

	fmt.Printf("Transaction: %s step=%d amount=%.2f\n", tx.TransactionType, tx.Step, tx.Amount)
	printVector(vec)
}

func runInspect(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	scalerURI := fs.String("scaler", cfg.ScalerURI, "Scaler artifact path or gs:// URI")
	modelURI := fs.String("model", cfg.ModelURI, "Model artifact path or gs:// URI")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ArtifactLoadTimeout)
	defer cancel()

	adapter, bundle := loadAdapter(ctx, cfg, log, *scalerURI, *modelURI)

	fmt.Println("\n=== Model Artifacts ===")
	fmt.Printf("Scaler:     %s (%s)\n", adapter.ScalerKind(), bundle.ScalerURI)
	fmt.Printf("Classifier: %s (%s)\n", adapter.ClassifierKind(), bundle.ModelURI)
	fmt.Printf("Arity:      %d\n", domain.FeatureCount)
	fmt.Printf("Reference:  %s (all type flags zero)\n", domain.ReferenceType)

	fmt.Println("\nFeature order:")
	for i, name := range domain.FeatureNames {
		fmt.Printf("  %2d  %s\n", i, name)
	}

	if named, ok := bundle.Classifier.(interface{ FeatureNames() []string }); ok && len(named.FeatureNames()) == 0 {
		fmt.Println("\nClassifier artifact does not record feature names; layout is unchecked.")
	}
}

func runPublish(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local artifact file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli publish -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	// Refuse to publish anything the server could not load
	data, err := storage.ReadLocal(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read artifact")
	}
	kind, err := artifactKind(data)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Not a valid model artifact")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Str("kind", kind).
		Msg("Publishing artifact to GCS")

	store := newStore(cfg)
	if err := store.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Publish failed")
	}

	fmt.Printf("Published %s (%s) to gs://%s/%s\n", *filePath, kind, *bucketName, *objectName)
}

// artifactKind decodes data as a scaler, then as a classifier.
func artifactKind(data []byte) (string, error) {
	if s, err := model.DecodeScaler(data); err == nil {
		return s.Kind(), nil
	}
	c, err := model.DecodeClassifier(data)
	if err != nil {
		return "", err
	}
	return c.Kind(), nil
}

func newStore(cfg *config.Config) *storage.GCSStorageService {
	return storage.NewGCSStorageService(storage.Options{
		Endpoint:        cfg.GCSEndpoint,
		CredentialsFile: cfg.GCSCredentialsFile,
		Anonymous:       cfg.GCSAnonymous,
	})
}

func loadAdapter(ctx context.Context, cfg *config.Config, log zerolog.Logger, scalerURI, modelURI string) (*inference.Adapter, *model.Bundle) {
	bundle, err := model.NewLoader(newStore(cfg), log).LoadBundle(ctx, scalerURI, modelURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model artifacts")
	}
	adapter, err := inference.NewAdapterFromBundle(bundle)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create inference adapter")
	}
	return adapter, bundle
}
