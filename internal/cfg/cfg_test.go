package cfg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fraudpipe/internal/common"
)

// clearEnv blanks every pipeline variable so tests only see what they set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		common.EnvConfigFile,
		common.EnvDataPath,
		common.EnvTestSetSize,
		common.EnvTargetMagnitude,
		common.EnvDecisionClass,
		common.EnvDecisionMin,
		common.EnvBeta,
		common.EnvEpochs,
		common.EnvBatchSize,
		common.EnvLearningRate,
		common.EnvTrainerURL,
		common.EnvCheckpointPath,
		common.EnvTrainLogPath,
		common.EnvMetricsPort,
		common.EnvDashboardPort,
		common.EnvRESTTimeout,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_FromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvDataPath, "creditcard.csv")
	t.Setenv(common.EnvTestSetSize, "200")

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if settings.DataPath != "creditcard.csv" {
		t.Errorf("DataPath = %q, want creditcard.csv", settings.DataPath)
	}
	if settings.TestSetSize != 200 {
		t.Errorf("TestSetSize = %d, want 200", settings.TestSetSize)
	}
	if settings.TargetMagnitude != common.DefaultTargetMagnitude {
		t.Errorf("TargetMagnitude = %f, want default %f", settings.TargetMagnitude, common.DefaultTargetMagnitude)
	}
	if settings.Beta != common.DefaultBeta {
		t.Errorf("Beta = %f, want default %f", settings.Beta, common.DefaultBeta)
	}
	if settings.Epochs != common.DefaultEpochs {
		t.Errorf("Epochs = %d, want default %d", settings.Epochs, common.DefaultEpochs)
	}
	if settings.TrainerURL != common.DefaultTrainerURL {
		t.Errorf("TrainerURL = %q, want default %q", settings.TrainerURL, common.DefaultTrainerURL)
	}
	if settings.MetricsPort != common.DefaultMetricsPort {
		t.Errorf("MetricsPort = %d, want default %d", settings.MetricsPort, common.DefaultMetricsPort)
	}
	if settings.RESTTimeout != 30*time.Second {
		t.Errorf("RESTTimeout = %v, want 30s", settings.RESTTimeout)
	}
}

func TestLoad_FromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvDataPath, "/data/fraud.csv")
	t.Setenv(common.EnvTestSetSize, "500")
	t.Setenv(common.EnvTargetMagnitude, "2500")
	t.Setenv(common.EnvDecisionClass, common.ClassLegit)
	t.Setenv(common.EnvDecisionMin, "0.9")
	t.Setenv(common.EnvBeta, "2")
	t.Setenv(common.EnvEpochs, "50")
	t.Setenv(common.EnvBatchSize, "256")
	t.Setenv(common.EnvLearningRate, "0.01")
	t.Setenv(common.EnvTrainerURL, "http://trainer:9000")
	t.Setenv(common.EnvRESTTimeout, "2m")

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if settings.TargetMagnitude != 2500 {
		t.Errorf("TargetMagnitude = %f, want 2500", settings.TargetMagnitude)
	}
	if settings.DecisionClass != common.ClassLegit || settings.DecisionMin != 0.9 {
		t.Errorf("decision = %q/%f, want legitimate/0.9", settings.DecisionClass, settings.DecisionMin)
	}
	if settings.Beta != 2 {
		t.Errorf("Beta = %f, want 2", settings.Beta)
	}
	if settings.Epochs != 50 || settings.BatchSize != 256 {
		t.Errorf("training = %d/%d, want 50/256", settings.Epochs, settings.BatchSize)
	}
	if settings.LearningRate != 0.01 {
		t.Errorf("LearningRate = %f, want 0.01", settings.LearningRate)
	}
	if settings.TrainerURL != "http://trainer:9000" {
		t.Errorf("TrainerURL = %q", settings.TrainerURL)
	}
	if settings.RESTTimeout != 2*time.Minute {
		t.Errorf("RESTTimeout = %v, want 2m", settings.RESTTimeout)
	}
}

func TestLoad_FromEnv_MissingDataPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvTestSetSize, "100")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATA_PATH is missing")
	}
}

func TestLoad_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero test size", common.EnvTestSetSize, "0"},
		{"negative magnitude", common.EnvTargetMagnitude, "-5"},
		{"beta too large", common.EnvBeta, "11"},
		{"zero epochs", common.EnvEpochs, "0"},
		{"epochs over cap", common.EnvEpochs, "100001"},
		{"zero batch size", common.EnvBatchSize, "0"},
		{"learning rate too large", common.EnvLearningRate, "1.5"},
		{"metrics port too low", common.EnvMetricsPort, "80"},
		{"rest timeout too short", common.EnvRESTTimeout, "10ms"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(common.EnvDataPath, "data.csv")
			t.Setenv(common.EnvTestSetSize, "100")
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if !errors.Is(err, common.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestLoad_ThresholdRequiresValidMin(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvDataPath, "data.csv")
	t.Setenv(common.EnvTestSetSize, "100")
	t.Setenv(common.EnvDecisionClass, common.ClassFraud)
	t.Setenv(common.EnvDecisionMin, "1.5")

	_, err := Load()
	if !errors.Is(err, common.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for threshold above 1, got %v", err)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)

	configYAML := `
data:
  path: "/data/creditcard.csv"
  testSetSize: 300
augment:
  targetMagnitude: 5000
decision:
  class: "legitimate"
  threshold: 0.85
scoring:
  beta: 0.5
training:
  epochs: 25
  batchSize: 128
  learningRate: 0.005
  trainerURL: "http://trainer:7000"
  logPath: "runs/train.log"
system:
  storePath: "runs"
  metricsPort: 9090
  dashboardPort: 9091
  restTimeout: "45s"
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(common.EnvConfigFile, path)

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if settings.DataPath != "/data/creditcard.csv" || settings.TestSetSize != 300 {
		t.Errorf("data section = %q/%d", settings.DataPath, settings.TestSetSize)
	}
	if settings.TargetMagnitude != 5000 {
		t.Errorf("TargetMagnitude = %f, want 5000", settings.TargetMagnitude)
	}
	if settings.DecisionClass != "legitimate" || settings.DecisionMin != 0.85 {
		t.Errorf("decision = %q/%f", settings.DecisionClass, settings.DecisionMin)
	}
	if settings.Beta != 0.5 {
		t.Errorf("Beta = %f, want 0.5", settings.Beta)
	}
	if settings.Epochs != 25 || settings.BatchSize != 128 || settings.LearningRate != 0.005 {
		t.Errorf("training = %d/%d/%f", settings.Epochs, settings.BatchSize, settings.LearningRate)
	}
	if settings.StorePath != "runs" || settings.TrainLogPath != "runs/train.log" {
		t.Errorf("paths = %q/%q", settings.StorePath, settings.TrainLogPath)
	}
	if settings.MetricsPort != 9090 || settings.DashboardPort != 9091 {
		t.Errorf("ports = %d/%d", settings.MetricsPort, settings.DashboardPort)
	}
	if settings.RESTTimeout != 45*time.Second {
		t.Errorf("RESTTimeout = %v, want 45s", settings.RESTTimeout)
	}
}

func TestLoad_FromYAML_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	configYAML := `
data:
  path: "/data/creditcard.csv"
  testSetSize: 300
system:
  restTimeout: "45s"
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(common.EnvConfigFile, path)
	t.Setenv(common.EnvTestSetSize, "42")
	t.Setenv(common.EnvEpochs, "3")
	t.Setenv(common.EnvRESTTimeout, "2m")

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if settings.TestSetSize != 42 {
		t.Errorf("TestSetSize = %d, env must win over the file", settings.TestSetSize)
	}
	if settings.Epochs != 3 {
		t.Errorf("Epochs = %d, want 3", settings.Epochs)
	}
	if settings.RESTTimeout != 2*time.Minute {
		t.Errorf("RESTTimeout = %v, env must win over the file", settings.RESTTimeout)
	}
	// Values the file sets and env leaves alone survive
	if settings.DataPath != "/data/creditcard.csv" {
		t.Errorf("DataPath = %q", settings.DataPath)
	}
	// Sparse file falls back to defaults for the rest
	if settings.Beta != common.DefaultBeta {
		t.Errorf("Beta = %f, want default", settings.Beta)
	}
}

func TestLoad_FromYAML_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_FromYAML_Malformed(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("data: [not: valid"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(common.EnvConfigFile, path)

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
